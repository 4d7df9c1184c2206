package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/model"
)

// transcript reads through the cache. Cache failures degrade to the database.
func (s *chatService) transcript(ctx context.Context, chatID uint) ([]model.MessageView, error) {
	cached, ok, err := s.cacheRepo.GetMessages(ctx, chatID)
	if err != nil {
		s.log.Warn("failed to get messages from cache", zap.Uint("chat_id", chatID), zap.Error(err))
	}
	if ok {
		return cached, nil
	}

	version, verr := s.cacheRepo.TranscriptVersion(ctx, chatID)

	messages, err := s.chatRepo.GetMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	views := model.MessageViews(messages)

	if verr != nil {
		s.log.Warn("failed to get transcript version", zap.Uint("chat_id", chatID), zap.Error(verr))
		return views, nil
	}
	if err := s.cacheRepo.SetMessages(ctx, chatID, views, version); err != nil {
		s.log.Warn("failed to cache messages", zap.Uint("chat_id", chatID), zap.Error(err))
	}
	return views, nil
}

// Presence lists the users whose realtime connections joined the chat room.
func (s *chatService) Presence(ctx context.Context, chatID, userID uint) ([]uint, error) {
	if err := s.CheckParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	users, err := s.cacheRepo.GetChatUsers(ctx, chatID)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func (s *chatService) UserJoined(ctx context.Context, chatID, userID uint) error {
	return s.cacheRepo.AddUserToChat(ctx, chatID, userID)
}

func (s *chatService) UserLeft(ctx context.Context, chatID, userID uint) error {
	_, err := s.cacheRepo.RemoveUserFromChat(ctx, chatID, userID)
	return err
}
