package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	commonerrors "github.com/bookshare/server/internal/common/errors"
	"github.com/bookshare/server/internal/common/jwtverify"
	"github.com/bookshare/server/internal/common/logger"
	"github.com/bookshare/server/internal/observability/metrics"
)

// Hub owns the connection registry and the fan-out primitives the
// notification router builds on. Sends are fire-and-forget onto each
// client's buffered channel; a full buffer drops the event rather than
// blocking the caller.
type Hub struct {
	registry    *Registry
	verifier    jwtverify.Verifier
	register    chan *Client
	unregister  chan *Client
	authTimeout time.Duration
	log         *logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewHub(verifier jwtverify.Verifier, authTimeout time.Duration, log *logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:    NewRegistry(),
		verifier:    verifier,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		authTimeout: authTimeout,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registry.Add(client)
			metrics.ActivePushConnections.Inc()
			open, _ := h.registry.Counts()
			h.log.WithFields(h.ctx, logger.Fields{
				"total":  open,
				"action": "push_channel_open",
			}).Info("push channel opened")

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleUnregister(client *Client) {
	usernames, wasOpen := h.registry.Remove(client)
	if !wasOpen {
		return
	}

	// Stop writePump via done; send stays open so concurrent senders
	// holding a pre-removal snapshot cannot hit a closed channel.
	close(client.done)
	metrics.ActivePushConnections.Dec()
	for range usernames {
		metrics.BoundPushConnections.Dec()
	}

	open, _ := h.registry.Counts()
	h.log.WithFields(h.ctx, logger.Fields{
		"usernames": strings.Join(usernames, ","),
		"total":     open,
		"action":    "push_channel_close",
	}).Info("push channel closed")
}

// Authenticate verifies the token carried by an authenticate message and
// binds the connection to the subject. A failed attempt is acknowledged and
// the connection is left open. Returns the bound username on success.
func (h *Hub) Authenticate(client *Client, token string) (string, bool) {
	ctx, cancel := context.WithTimeout(h.ctx, h.authTimeout)
	defer cancel()

	claims, err := h.verifier.Verify(ctx, token)
	if err != nil {
		h.log.WithFields(ctx, logger.Fields{
			"action": "push_channel_auth_failed",
		}).Warnf("push channel authenticate failed: %v", err)

		message := "authentication failed"
		if de, ok := commonerrors.AsDomainError(err); ok {
			message = de.Message()
		}
		h.enqueue(client, mustMarshal(AuthResult{Type: "authenticated", Authenticated: false, Message: message}), "auth_reply")
		return "", false
	}

	_, hadBinding := h.registry.Lookup(claims.Username)
	h.registry.Bind(claims.Username, client)
	if !hadBinding {
		metrics.BoundPushConnections.Inc()
	}

	h.log.WithFields(ctx, logger.Fields{
		"username": claims.Username,
		"action":   "push_channel_bound",
	}).Info("push channel bound to user")

	h.enqueue(client, mustMarshal(AuthResult{Type: "authenticated", Authenticated: true}), "auth_reply")
	return claims.Username, true
}

// Broadcast fans data out to every open channel, authenticated or not.
// Returns the number of channels the event was queued on.
func (h *Hub) Broadcast(data []byte) int {
	delivered := 0
	for _, client := range h.registry.OpenClients() {
		if h.enqueue(client, data, "broadcast") {
			delivered++
		}
	}
	return delivered
}

// SendToUser queues data on the channel bound to username, if any. Events
// for users without a live channel are silently dropped.
func (h *Hub) SendToUser(username string, data []byte) bool {
	client, ok := h.registry.Lookup(username)
	if !ok {
		return false
	}
	return h.enqueue(client, data, "deliver_to_owner")
}

func (h *Hub) enqueue(client *Client, data []byte, kind string) bool {
	select {
	case client.send <- data:
		return true
	default:
		metrics.PushEventsDroppedTotal.WithLabelValues("buffer_full").Inc()
		h.log.WithFields(h.ctx, logger.Fields{
			"kind":   kind,
			"action": "push_send_dropped",
		}).Warn("push send buffer full, event dropped")
		return false
	}
}

func (h *Hub) shutdown() {
	clients := h.registry.OpenClients()
	for _, client := range clients {
		h.handleUnregister(client)
	}
	h.log.WithFields(h.ctx, logger.Fields{
		"clients": len(clients),
		"action":  "push_hub_shutdown",
	}).Info("push hub shutdown completed")
}

func (h *Hub) Shutdown() {
	h.cancel()
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// AuthResult marshalling cannot fail on this type.
		panic(err)
	}
	return data
}
