package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"tush00nka/bbbab_chat/internal/model"
	"tush00nka/bbbab_chat/internal/ws"
)

// Conn is one realtime connection. Events are delivered in arrival order on
// the channel returned by Events, which is closed when the connection ends.
type Conn struct {
	conn   *websocket.Conn
	events chan ws.Envelope
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *Client) Dial(ctx context.Context, s *Session) (*Conn, error) {
	if s == nil || s.Token == "" {
		return nil, ErrNoSession
	}
	u := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	header := http.Header{"Authorization": {"Bearer " + s.Token}}

	wsConn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Code: "handshake_failed", Message: err.Error()}
		}
		return nil, err
	}

	conn := &Conn{conn: wsConn, events: make(chan ws.Envelope, 64), done: make(chan struct{})}
	go conn.readLoop()
	return conn, nil
}

func (c *Conn) readLoop() {
	defer close(c.events)
	for {
		var env ws.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		select {
		case c.events <- env:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) Events() <-chan ws.Envelope {
	return c.events
}

func (c *Conn) JoinRoom(chatID uint) error {
	return c.write(ws.EventJoinRoom, ws.RoomPayload{ChatID: chatID})
}

func (c *Conn) LeaveRoom(chatID uint) error {
	return c.write(ws.EventLeaveRoom, ws.RoomPayload{ChatID: chatID})
}

func (c *Conn) Send(chatID uint, content string) error {
	return c.write(ws.EventSendMessage, ws.SendMessagePayload{ChatID: chatID, Content: content})
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) write(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(ws.Envelope{Event: event, Data: raw})
}

// ChatView is the transcript of the open chat. Messages for any other room
// are dropped.
type ChatView struct {
	mu       sync.RWMutex
	chatID   uint
	members  []model.UserSummary
	messages []model.MessageView
}

func NewChatView(chat *model.ChatView) *ChatView {
	return &ChatView{
		chatID:   chat.ID,
		members:  chat.Participants,
		messages: append([]model.MessageView(nil), chat.Messages...),
	}
}

func (v *ChatView) ChatID() uint {
	return v.chatID
}

func (v *ChatView) Participants() []model.UserSummary {
	return v.members
}

// Apply folds a realtime event into the transcript and reports whether it
// added a message.
func (v *ChatView) Apply(env ws.Envelope) bool {
	if env.Event != ws.EventReceiveMessage {
		return false
	}
	var msg model.MessageView
	if err := json.Unmarshal(env.Data, &msg); err != nil || msg.ChatID != v.chatID {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, msg)
	return true
}

func (v *ChatView) Messages() []model.MessageView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]model.MessageView(nil), v.messages...)
}
