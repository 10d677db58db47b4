package websocket

import (
	"net/http"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/bookshare/server/internal/common/logger"
)

type Handler struct {
	hub      *Hub
	cfg      ClientConfig
	upgrader gorillaWS.Upgrader
	log      *logger.Logger
}

// NewHandler serves the push-channel endpoint. The upgrade itself is
// unauthenticated; a connection only becomes addressable after it sends an
// authenticate message.
func NewHandler(hub *Hub, cfg ClientConfig, log *logger.Logger) *Handler {
	return &Handler{
		hub: hub,
		cfg: cfg,
		upgrader: gorillaWS.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "push_upgrade_failed",
		}).Errorf("push channel upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, h.cfg, h.log)
	h.hub.Register(client)
	client.Start()
}
