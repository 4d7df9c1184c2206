package service

import (
	"context"
	"io"

	"tush00nka/bbbab_chat/internal/model"
)

type SignupInput struct {
	Username string
	Email    string
	Password string
	// Avatar is optional.
	Avatar io.Reader
}

type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type UserService interface {
	Signup(ctx context.Context, in SignupInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Search(ctx context.Context, callerID uint, prompt string) ([]model.UserSummary, error)
}

type FriendService interface {
	Request(ctx context.Context, requesterID, receiverID uint) (*model.Friendship, error)
	Respond(ctx context.Context, receiverID, friendshipID uint, status string) (*model.Friendship, error)
	Pending(ctx context.Context, userID uint) ([]model.Friendship, error)
	Friends(ctx context.Context, userID uint) ([]model.FriendSummary, error)
}

type ChatService interface {
	FindOrCreate(ctx context.Context, userID, friendID uint) (*model.ChatView, error)
	PostMessage(ctx context.Context, chatID, authorID uint, content string) (*model.MessageView, error)
	// CheckParticipant returns model.ErrNotFound for an unknown chat and
	// model.ErrNotParticipant when userID is not one of its members.
	CheckParticipant(ctx context.Context, chatID, userID uint) error
	Presence(ctx context.Context, chatID, userID uint) ([]uint, error)
	UserJoined(ctx context.Context, chatID, userID uint) error
	UserLeft(ctx context.Context, chatID, userID uint) error
}

// AvatarStorage persists avatar images under a generated key and returns the
// URL clients use to fetch them.
type AvatarStorage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
