package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/model"
	"tush00nka/bbbab_chat/internal/repository"
)

type chatService struct {
	chatRepo  repository.ChatRepository
	userRepo  repository.UserRepository
	cacheRepo repository.ChatCacheRepository
	log       *zap.Logger
}

func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.ChatCacheRepository,
	log *zap.Logger,
) ChatService {
	if cacheRepo == nil {
		cacheRepo = repository.NewNoopChatCache()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &chatService{chatRepo: chatRepo, userRepo: userRepo, cacheRepo: cacheRepo, log: log}
}

// FindOrCreate returns the chat between userID and friendID with its full
// transcript, creating the chat on first contact.
func (s *chatService) FindOrCreate(ctx context.Context, userID, friendID uint) (*model.ChatView, error) {
	if friendID == 0 {
		return nil, model.NewValidationError(map[string]string{"friendId": "is required"})
	}
	if friendID == userID {
		return nil, model.NewValidationError(map[string]string{"friendId": "cannot chat with yourself"})
	}

	chat, err := s.chatRepo.FindForUsers(ctx, userID, friendID)
	if errors.Is(err, model.ErrNotFound) {
		chat, err = s.create(ctx, userID, friendID)
	}
	if err != nil {
		return nil, err
	}

	messages, err := s.transcript(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	view := chat.View(messages)
	return &view, nil
}

func (s *chatService) create(ctx context.Context, userID, friendID uint) (*model.Chat, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	friend, err := s.userRepo.FindByID(ctx, friendID)
	if err != nil {
		return nil, err
	}
	return s.chatRepo.CreateForUsers(ctx, user, friend)
}

func (s *chatService) PostMessage(ctx context.Context, chatID, authorID uint, content string) (*model.MessageView, error) {
	fields := map[string]string{}
	if chatID == 0 {
		fields["chatId"] = "is required"
	}
	if strings.TrimSpace(content) == "" {
		fields["content"] = "is required"
	} else if utf8.RuneCountInString(content) > model.MaxMessageLength {
		fields["content"] = "is too long"
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	if err := s.CheckParticipant(ctx, chatID, authorID); err != nil {
		return nil, err
	}

	// Stored at microsecond precision so the cached transcript sorts like the database.
	msg := &model.Message{
		ChatID:    chatID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().Truncate(time.Microsecond),
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	view := msg.View()
	if err := s.cacheRepo.AppendMessage(ctx, chatID, view); err != nil {
		s.log.Warn("failed to append message to cache", zap.Uint("chat_id", chatID), zap.Error(err))
	}
	return &view, nil
}

func (s *chatService) CheckParticipant(ctx context.Context, chatID, userID uint) error {
	ok, err := s.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := s.chatRepo.FindByID(ctx, chatID); err != nil {
		return err
	}
	return model.ErrNotParticipant
}
