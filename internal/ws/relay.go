package ws

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/model"
)

func (c *Client) handleFrame(data []byte) {
	if !c.limiter.Allow() {
		c.sendError("rate limit exceeded")
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendError("malformed frame")
		return
	}

	switch env.Event {
	case EventJoinRoom:
		c.joinRoom(env.Data)
	case EventLeaveRoom:
		c.leaveRoom(env.Data)
	case EventSendMessage:
		c.sendMessage(env.Data)
	default:
		c.sendError("unknown event " + env.Event)
	}
}

func (c *Client) relayContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.ctx), persistTimeout)
}

func (c *Client) joinRoom(data json.RawMessage) {
	chatID, err := ParseChatID(data)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	ctx, cancel := c.relayContext()
	defer cancel()

	if err := c.hub.relay.CheckParticipant(ctx, chatID, c.UserID); err != nil {
		c.sendError(clientMessage(err, "could not join room"))
		if !isClientError(err) {
			c.log.Error("failed to check chat membership", zap.Uint("chat_id", chatID), zap.Error(err))
		}
		return
	}

	ack, err := encode(EventRoomJoined, RoomPayload{ChatID: chatID})
	if err != nil {
		return
	}
	if c.hub.Join(c, chatID, ack) {
		if err := c.hub.relay.UserJoined(ctx, chatID, c.UserID); err != nil {
			c.log.Warn("failed to record presence", zap.Uint("chat_id", chatID), zap.Error(err))
		}
	}
}

func (c *Client) leaveRoom(data json.RawMessage) {
	chatID, err := ParseChatID(data)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	if c.hub.Leave(c, chatID) {
		c.userLeft(chatID)
	}
	c.SendEvent(EventRoomLeft, RoomPayload{ChatID: chatID})
}

func (c *Client) userLeft(chatID uint) {
	ctx, cancel := c.relayContext()
	defer cancel()
	if err := c.hub.relay.UserLeft(ctx, chatID, c.UserID); err != nil {
		c.log.Warn("failed to clear presence", zap.Uint("chat_id", chatID), zap.Error(err))
	}
}

// sendMessage persists first and broadcasts only what was stored. Storage
// failures are logged and the message is dropped.
func (c *Client) sendMessage(data json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.sendError("malformed sendMessage payload")
		return
	}
	if p.AuthorID != nil && *p.AuthorID != c.UserID {
		c.sendError("authorId does not match the authenticated user")
		return
	}

	ctx, cancel := c.relayContext()
	defer cancel()

	msg, err := c.hub.relay.PostMessage(ctx, p.ChatID, c.UserID, p.Content)
	if err != nil {
		if isClientError(err) {
			c.sendError(clientMessage(err, ""))
			return
		}
		c.log.Error("failed to persist message", zap.Uint("chat_id", p.ChatID), zap.Error(err))
		return
	}

	frame, err := encode(EventReceiveMessage, msg)
	if err != nil {
		c.log.Error("failed to encode message", zap.Error(err))
		return
	}
	c.hub.Broadcast(msg.ChatID, frame)
}

func isClientError(err error) bool {
	return errors.Is(err, model.ErrValidation) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrNotParticipant)
}

func clientMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, model.ErrNotParticipant):
		return "not a participant of this chat"
	case errors.Is(err, model.ErrNotFound):
		return "chat not found"
	case errors.Is(err, model.ErrValidation):
		return err.Error()
	default:
		return fallback
	}
}
