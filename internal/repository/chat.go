package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tush00nka/bbbab_chat/internal/model"
)

type ChatRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Chat, error)
	FindForUsers(ctx context.Context, user1ID, user2ID uint) (*model.Chat, error)
	CreateForUsers(ctx context.Context, user1, user2 *model.User) (*model.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID uint) (bool, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessages(ctx context.Context, chatID uint) ([]model.Message, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindByID(ctx context.Context, id uint) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.WithContext(ctx).Preload("Participants").First(&chat, id).Error; err != nil {
		return nil, notFound(err, "find chat")
	}
	return &chat, nil
}

func (r *chatRepository) FindForUsers(ctx context.Context, user1ID, user2ID uint) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("pair_key = ?", model.PairKey(user1ID, user2ID)).
		First(&chat).Error
	if err != nil {
		return nil, notFound(err, "find chat for users")
	}
	return &chat, nil
}

// CreateForUsers inserts the chat and both participant links in one
// transaction. When a concurrent caller already created the chat for this
// pair, the unique pair key rejects the insert and the existing chat is
// returned instead.
func (r *chatRepository) CreateForUsers(ctx context.Context, user1, user2 *model.User) (*model.Chat, error) {
	chat := &model.Chat{
		PairKey:      model.PairKey(user1.ID, user2.ID),
		Participants: []model.User{*user1, *user2},
	}

	err := r.db.WithContext(ctx).Omit("Participants.*").Create(chat).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.FindForUsers(ctx, user1.ID, user2.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("chat_participants").
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check chat participant: %w", err)
	}
	return count > 0, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Author").Create(msg).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	if err := db.First(&msg.Author, msg.AuthorID).Error; err != nil {
		return notFound(err, "load message author")
	}
	return nil
}

// GetMessages returns the chat's messages oldest first with authors loaded.
func (r *chatRepository) GetMessages(ctx context.Context, chatID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return messages, nil
}
