package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var clientIDCounter atomic.Uint64

// Client is one websocket connection bound to an authenticated actor
type Client struct {
	id    uint64
	hub   *Hub
	conn  *websocket.Conn
	actor identity.Actor
	send  chan []byte

	// rooms is guarded by hub.mu
	rooms map[shared.Room]struct{}

	sendMu sync.Mutex
	closed bool
}

// Serve registers conn with the hub and blocks until the connection ends.
// The caller has already authenticated actor.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, actor identity.Actor) {
	c := &Client{
		id:    clientIDCounter.Add(1),
		hub:   h,
		conn:  conn,
		actor: actor,
		send:  make(chan []byte, h.opts.SendBuffer),
		rooms: make(map[shared.Room]struct{}),
	}
	h.register(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	c.readPump(ctx)
	h.unregister(c)
	<-done
}

// enqueue reports false only when the send buffer is full
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() { _ = c.conn.Close() }()

	opts := c.hub.opts
	c.conn.SetReadLimit(opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Unexpected websocket close", zap.Uint64("client_id", c.id), zap.Error(err))
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.reply(EventError, map[string]string{"message": "malformed frame"})
			continue
		}
		c.handle(ctx, f)
	}
}

func (c *Client) handle(ctx context.Context, f Frame) {
	arg := roomArg(f.Data)
	switch f.Event {
	case EventSetup:
		// A socket may only subscribe to its own private room
		if arg != "" && arg != c.actor.UserID {
			c.reply(EventError, map[string]string{"message": "setup user does not match session"})
			return
		}
		c.hub.join(c, shared.UserRoom(c.actor.UserID))
		c.reply(shared.EventConnected, map[string]string{"userId": c.actor.UserID})
	case EventJoinProject:
		c.joinGuarded(ctx, shared.ProjectRoom(arg), arg)
	case EventJoinOrg:
		c.joinGuarded(ctx, shared.OrgRoom(arg), arg)
	case EventLeaveProject:
		if arg != "" {
			c.hub.leave(c, shared.ProjectRoom(arg))
		}
	case EventPing:
		c.reply(EventPong, nil)
	default:
		c.hub.logger.Debug("Ignoring unknown client event", zap.String("event", f.Event))
	}
}

func (c *Client) joinGuarded(ctx context.Context, room shared.Room, id string) {
	if id == "" {
		c.reply(EventError, map[string]string{"message": "room id is required"})
		return
	}
	if g := c.hub.guard; g != nil && !g.CanJoin(ctx, c.actor, room) {
		c.reply(EventError, map[string]string{"message": "not allowed to join " + string(room)})
		return
	}
	c.hub.join(c, room)
}

func (c *Client) writePump() {
	opts := c.hub.opts
	ticker := time.NewTicker(opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
