package ws

import (
	"encoding/json"
	"errors"
)

const (
	EventJoinRoom       = "joinRoom"
	EventLeaveRoom      = "leaveRoom"
	EventSendMessage    = "sendMessage"
	EventRoomJoined     = "roomJoined"
	EventRoomLeft       = "roomLeft"
	EventReceiveMessage = "receiveMessage"
	EventError          = "error"
)

// Envelope is the shape of every frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type RoomPayload struct {
	ChatID uint `json:"chatId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type SendMessagePayload struct {
	ChatID   uint   `json:"chatId"`
	AuthorID *uint  `json:"authorId,omitempty"`
	Content  string `json:"content"`
}

var errBadChatID = errors.New("chatId must be a positive number")

// ParseChatID accepts either a bare number or {"chatId": n}.
func ParseChatID(data json.RawMessage) (uint, error) {
	var id uint
	if err := json.Unmarshal(data, &id); err == nil {
		if id == 0 {
			return 0, errBadChatID
		}
		return id, nil
	}

	var p RoomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID == 0 {
		return 0, errBadChatID
	}
	return p.ChatID, nil
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
