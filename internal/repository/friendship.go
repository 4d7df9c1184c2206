package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tush00nka/bbbab_chat/internal/model"
)

type FriendshipRepository interface {
	Create(ctx context.Context, f *model.Friendship) error
	ExistsBetween(ctx context.Context, userA, userB uint) (bool, error)
	Respond(ctx context.Context, id, receiverID uint, status model.FriendshipStatus) (*model.Friendship, error)
	ListPending(ctx context.Context, receiverID uint) ([]model.Friendship, error)
	ListAccepted(ctx context.Context, userID uint) ([]model.Friendship, error)
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

// Create inserts a PENDING friendship. The unique pair key rejects a second
// row for the same pair in either direction, even under concurrent requests.
func (r *friendshipRepository) Create(ctx context.Context, f *model.Friendship) error {
	f.PairKey = model.PairKey(f.RequesterID, f.ReceiverID)
	if f.Status == "" {
		f.Status = model.FriendshipPending
	}

	err := r.db.WithContext(ctx).Omit("Requester", "Receiver").Create(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.ErrFriendshipExists
	}
	if err != nil {
		return fmt.Errorf("create friendship: %w", err)
	}
	return nil
}

func (r *friendshipRepository) ExistsBetween(ctx context.Context, userA, userB uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("pair_key = ?", model.PairKey(userA, userB)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return count > 0, nil
}

// Respond resolves a PENDING request addressed to receiverID. Rows owned by
// another receiver, or already resolved, match nothing.
func (r *friendshipRepository) Respond(ctx context.Context, id, receiverID uint, status model.FriendshipStatus) (*model.Friendship, error) {
	res := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("id = ? AND receiver_id = ? AND status = ?", id, receiverID, model.FriendshipPending).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("respond to friend request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, model.ErrFriendRequestNotFound
	}

	var f model.Friendship
	err := r.db.WithContext(ctx).Preload("Requester").Preload("Receiver").First(&f, id).Error
	if err != nil {
		return nil, notFound(err, "load friendship")
	}
	return &f, nil
}

func (r *friendshipRepository) ListPending(ctx context.Context, receiverID uint) ([]model.Friendship, error) {
	var out []model.Friendship
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("receiver_id = ? AND status = ?", receiverID, model.FriendshipPending).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return out, nil
}

func (r *friendshipRepository) ListAccepted(ctx context.Context, userID uint) ([]model.Friendship, error) {
	var out []model.Friendship
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Receiver").
		Where("status = ? AND (requester_id = ? OR receiver_id = ?)", model.FriendshipAccepted, userID, userID).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return out, nil
}
