package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tush00nka/bbbab_chat/internal/model"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 64 * 1024
	maxSendChannelSize = 256
	persistTimeout     = 5 * time.Second
)

// Relay is the part of the chat service the realtime layer depends on.
type Relay interface {
	CheckParticipant(ctx context.Context, chatID, userID uint) error
	PostMessage(ctx context.Context, chatID, authorID uint, content string) (*model.MessageView, error)
	UserJoined(ctx context.Context, chatID, userID uint) error
	UserLeft(ctx context.Context, chatID, userID uint) error
}

type HubOptions struct {
	MessagesPerSecond float64
	Burst             int
	Upgrader          websocket.Upgrader
}

type Hub struct {
	mu      sync.RWMutex
	rooms   map[uint]*Room
	clients map[*Client]struct{}
	closed  bool

	relay    Relay
	log      *zap.Logger
	upgrader websocket.Upgrader
	limit    rate.Limit
	burst    int

	ctx    context.Context
	cancel context.CancelFunc

	connections atomic.Int64
	roomCount   atomic.Int64
	broadcasts  atomic.Int64
}

func NewHub(relay Relay, log *zap.Logger, opts HubOptions) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 2 * int(opts.MessagesPerSecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:    make(map[uint]*Room),
		clients:  make(map[*Client]struct{}),
		relay:    relay,
		log:      log,
		upgrader: opts.Upgrader,
		limit:    rate.Limit(opts.MessagesPerSecond),
		burst:    opts.Burst,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (h *Hub) Connections() int64       { return h.connections.Load() }
func (h *Hub) Rooms() int64             { return h.roomCount.Load() }
func (h *Hub) MessagesBroadcast() int64 { return h.broadcasts.Load() }

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.connections.Inc()
	return true
}

// unregister drops the connection from every room it joined and returns
// those chat ids.
func (h *Hub) unregister(c *Client) []uint {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return nil
	}
	delete(h.clients, c)
	h.connections.Dec()

	left := make([]uint, 0)
	for chatID, room := range h.rooms {
		if room.remove(c) {
			left = append(left, chatID)
			h.dropIfEmpty(chatID, room)
		}
	}
	return left
}

// Join subscribes c to the chat room and queues ack to c before any later
// broadcast in that room can reach it. It reports whether c was not already
// a member.
func (h *Hub) Join(c *Client, chatID uint, ack []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[chatID]
	if !ok {
		room = newRoom(chatID)
		h.rooms[chatID] = room
		h.roomCount.Inc()
	}
	return room.add(c, ack)
}

// Leave reports whether c was a member of the room.
func (h *Hub) Leave(c *Client, chatID uint) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[chatID]
	if !ok {
		return false
	}
	removed := room.remove(c)
	h.dropIfEmpty(chatID, room)
	return removed
}

// dropIfEmpty must be called with h.mu held.
func (h *Hub) dropIfEmpty(chatID uint, room *Room) {
	if room.size() == 0 {
		delete(h.rooms, chatID)
		h.roomCount.Dec()
	}
}

// Broadcast delivers a frame to every connection joined to the room.
func (h *Hub) Broadcast(chatID uint, frame []byte) int {
	h.mu.RLock()
	room, ok := h.rooms[chatID]
	h.mu.RUnlock()

	h.broadcasts.Inc()
	if !ok {
		return 0
	}
	return room.broadcast(frame)
}

// Shutdown closes every connection and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	h.cancel()
}

type Room struct {
	chatID  uint
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func newRoom(chatID uint) *Room {
	return &Room{chatID: chatID, clients: make(map[*Client]struct{})}
}

func (r *Room) add(c *Client, ack []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.clients[c]
	r.clients[c] = struct{}{}
	if ack != nil {
		c.SendRaw(ack)
	}
	return !exists
}

func (r *Room) remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c]; !ok {
		return false
	}
	delete(r.clients, c)
	return true
}

func (r *Room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Room) broadcast(frame []byte) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for c := range r.clients {
		if c.SendRaw(frame) {
			delivered++
		}
	}
	return delivered
}
