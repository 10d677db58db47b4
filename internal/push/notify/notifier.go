package notify

import (
	"context"
	"encoding/json"

	"github.com/bookshare/server/internal/common/logger"
	"github.com/bookshare/server/internal/observability/metrics"
)

// Envelope is the wire format pushed to subscribers: an event name and the
// record (or record id) it concerns, serialized as one text frame.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Sender is what the hub provides: best-effort fan-out with no
// acknowledgment and no replay.
type Sender interface {
	Broadcast(data []byte) int
	SendToUser(username string, data []byte) bool
}

// Router picks the delivery audience for an event. Broadcast goes to every
// open channel; DeliverToOwner reaches only the channel bound to one
// username and drops the event silently if there is none.
type Router struct {
	sender Sender
	log    *logger.Logger
}

func NewRouter(sender Sender, log *logger.Logger) *Router {
	return &Router{sender: sender, log: log}
}

func (r *Router) Broadcast(ctx context.Context, event string, payload any) {
	data, ok := r.marshal(ctx, event, payload)
	if !ok {
		return
	}

	delivered := r.sender.Broadcast(data)
	metrics.PushEventsDeliveredTotal.WithLabelValues("broadcast").Add(float64(delivered))
	r.log.WithFields(ctx, logger.Fields{
		"event":     event,
		"delivered": delivered,
		"action":    "notify_broadcast",
	}).Debug("event broadcast")
}

func (r *Router) DeliverToOwner(ctx context.Context, username, event string, payload any) {
	data, ok := r.marshal(ctx, event, payload)
	if !ok {
		return
	}

	if !r.sender.SendToUser(username, data) {
		metrics.PushEventsDroppedTotal.WithLabelValues("no_channel").Inc()
		r.log.WithFields(ctx, logger.Fields{
			"username": username,
			"event":    event,
			"action":   "notify_no_channel",
		}).Debug("owner has no live channel, event dropped")
		return
	}

	metrics.PushEventsDeliveredTotal.WithLabelValues("deliver_to_owner").Inc()
	r.log.WithFields(ctx, logger.Fields{
		"username": username,
		"event":    event,
		"action":   "notify_owner",
	}).Debug("event delivered to owner")
}

func (r *Router) marshal(ctx context.Context, event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		metrics.PushEventsDroppedTotal.WithLabelValues("marshal_failed").Inc()
		r.log.WithFields(ctx, logger.Fields{
			"event":  event,
			"action": "notify_marshal_failed",
		}).Errorf("event marshal failed: %v", err)
		return nil, false
	}
	return data, true
}
