package websocket

import (
	"encoding/json"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/bookshare/server/internal/common/logger"
)

type ClientConfig struct {
	WriteWait   time.Duration
	PongWait    time.Duration
	PingPeriod  time.Duration
	MaxMsgSize  int64
	SendBufSize int
}

type Client struct {
	hub  *Hub
	conn *gorillaWS.Conn
	send chan []byte

	// done signals writePump shutdown. send itself is never closed: the hub
	// and REST goroutines enqueue onto it concurrently, and a sender holding
	// a registry snapshot must never race a close.
	done chan struct{}
	cfg  ClientConfig
	log  *logger.Logger

	// username is set by readPump after a successful authenticate and read
	// only there; cross-goroutine lookups go through the registry.
	username string
}

func NewClient(hub *Hub, conn *gorillaWS.Conn, cfg ClientConfig, log *logger.Logger) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, cfg.SendBufSize),
		done: make(chan struct{}),
		cfg:  cfg,
		log:  log,
	}
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetReadLimit(c.cfg.MaxMsgSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if gorillaWS.IsUnexpectedCloseError(err, gorillaWS.CloseGoingAway, gorillaWS.CloseAbnormalClosure) {
				c.log.Warnf("push channel read error username=%s: %v", c.username, err)
			}
			break
		}

		var msg InboundMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			// Malformed input is logged, not punished: the connection
			// stays open.
			c.log.Warnf("push channel invalid message username=%s: %v", c.username, err)
			continue
		}

		switch msg.Type {
		case TypeAuthenticate:
			if username, ok := c.hub.Authenticate(c, msg.Token); ok {
				c.username = username
			}
		default:
			c.log.Warnf("push channel unknown message type=%q username=%s", msg.Type, c.username)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(gorillaWS.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			w, err := c.conn.NextWriter(gorillaWS.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(gorillaWS.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
