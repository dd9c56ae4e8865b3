// Package realtime implements the room-based websocket fanout bus.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var _ shared.Broadcaster = (*Hub)(nil)

// RoomGuard decides whether an actor may join a project or org room
type RoomGuard interface {
	CanJoin(ctx context.Context, actor identity.Actor, room shared.Room) bool
}

// Options configures the hub and its clients
type Options struct {
	SendBuffer     int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
}

// OptionsFromConfig maps the realtime config section
func OptionsFromConfig(cfg config.RealtimeConfig) Options {
	return Options{
		SendBuffer:     cfg.SendBuffer,
		MaxMessageSize: cfg.MaxMessageSize,
		WriteWait:      cfg.WriteWait,
		PongWait:       cfg.PongWait,
	}
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 512 * 1024
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	return o
}

type outbound struct {
	room  shared.Room
	event string
	data  []byte
}

// Hub tracks connected clients and their rooms. Broadcast never blocks the
// caller: frames are queued for the run loop and dropped when the queue is full.
type Hub struct {
	opts    Options
	guard   RoomGuard
	metrics *telemetry.CollaborationMetrics
	logger  *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[shared.Room]map[*Client]struct{}

	queue chan outbound
}

// NewHub creates a hub. guard and metrics may be nil.
func NewHub(opts Options, guard RoomGuard, metrics *telemetry.CollaborationMetrics, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Hub{
		opts:    opts,
		guard:   guard,
		metrics: metrics,
		logger:  logger.Named("realtime"),
		clients: make(map[*Client]struct{}),
		rooms:   make(map[shared.Room]map[*Client]struct{}),
		queue:   make(chan outbound, opts.SendBuffer*4),
	}
}

// Run delivers queued frames until ctx is done, then disconnects every client
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n := h.closeAll()
			h.logger.Info("Realtime hub stopped", zap.Int("clients_closed", n))
			return nil
		case msg := <-h.queue:
			h.deliver(msg)
		}
	}
}

// Broadcast implements shared.Broadcaster
func (h *Hub) Broadcast(room shared.Room, event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case h.queue <- outbound{room: room, event: event, data: data}:
	default:
		h.metrics.EventDropped(context.Background(), event)
		h.logger.Warn("Realtime queue full, dropping event",
			zap.String("event", event),
			zap.String("room", string(room)),
		)
	}
}

func (h *Hub) deliver(msg outbound) {
	h.mu.RLock()
	members := h.rooms[msg.room]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}
	h.metrics.EventBroadcast(context.Background(), msg.event)

	var slow []*Client
	for _, c := range targets {
		if !c.enqueue(msg.data) {
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.metrics.EventDropped(context.Background(), msg.event)
		h.logger.Warn("Client send buffer full, disconnecting",
			zap.Uint64("client_id", c.id),
			zap.String("user_id", c.actor.UserID),
		)
		h.unregister(c)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.metrics.ConnectionOpened(context.Background())
	h.logger.Debug("Client connected", zap.Uint64("client_id", c.id), zap.Int("total_clients", total))
}

// unregister removes c from every room and closes its send channel once
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	total := len(h.clients)
	h.mu.Unlock()

	c.closeSend()
	h.metrics.ConnectionClosed(context.Background())
	h.logger.Debug("Client disconnected", zap.Uint64("client_id", c.id), zap.Int("total_clients", total))
}

func (h *Hub) join(c *Client, room shared.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room shared.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room shared.Room) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) closeAll() int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.unregister(c)
	}
	return len(clients)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients subscribed to room
func (h *Hub) RoomSize(room shared.Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
