package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	UserID   string
	ClientID string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, clientID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		UserID:   userID,
		ClientID: clientID,
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "user", c.UserID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			continue
		}

		msg.UserID = c.UserID
		msg.ClientID = c.ClientID

		if err := c.hub.handleMessage(ctx, c, &msg); err != nil {
			slog.Debug("hub unavailable", "error", err, "user", c.UserID)
			return
		}
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg for the write pump. It must only be called from the hub
// goroutine, which also closes the queue.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID)
	}
}

// handleMessage applies an op.submit on the hub goroutine and answers the
// sender with an ack or nack.
func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) error {
	switch msg.Type {
	case TypeOpSubmit:
		var p OperationSubmitPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("invalid operation payload", "error", err, "user", sender.UserID)
			return h.do(ctx, func() {
				sender.Send(h.message(TypeError, map[string]string{"error": "invalid operation payload"}))
			})
		}
		return h.do(ctx, func() {
			ack, err := h.apply(sender.UserID, p.Operation)
			if err != nil {
				sender.Send(h.message(TypeOpNack, OperationNackPayload{
					OperationID: p.Operation.ID,
					Reason:      err.Error(),
				}))
				return
			}
			sender.Send(h.message(TypeOpAck, ack))
		})
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		return nil
	}
}
