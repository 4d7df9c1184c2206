package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tush00nka/bbbab_chat/internal/model"
	"tush00nka/bbbab_chat/internal/pkg/auth"
	"tush00nka/bbbab_chat/internal/repository"
)

const searchLimit = 20

type userService struct {
	userRepo   repository.UserRepository
	tokens     *auth.TokenManager
	avatars    AvatarStorage
	bcryptCost int
	log        *zap.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	avatars AvatarStorage,
	bcryptCost int,
	log *zap.Logger,
) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{
		userRepo:   userRepo,
		tokens:     tokens,
		avatars:    avatars,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

func (s *userService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	fields := map[string]string{}
	if username == "" {
		fields["username"] = "is required"
	}
	if email == "" {
		fields["email"] = "is required"
	}
	if in.Password == "" {
		fields["password"] = "is required"
	}

	var avatar *avatarFile
	if in.Avatar != nil {
		var err error
		if avatar, err = readAvatar(in.Avatar); err != nil {
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			for k, v := range verr.Fields {
				fields[k] = v
			}
		}
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	if taken, err := s.userRepo.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, model.ErrUsernameTaken
	}
	if taken, err := s.userRepo.EmailExists(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, model.ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: username, Email: email, PasswordHash: hash}

	if avatar != nil {
		url, err := s.avatars.Save(ctx, avatar.key, avatar.data, avatar.contentType)
		if err != nil {
			return nil, fmt.Errorf("store avatar: %w", err)
		}
		user.AvatarURL = &url
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if avatar != nil {
			if derr := s.avatars.Delete(context.WithoutCancel(ctx), avatar.key); derr != nil {
				s.log.Warn("failed to remove avatar of failed signup",
					zap.String("key", avatar.key), zap.Error(derr))
			}
		}
		return nil, err
	}

	return s.issue(user)
}

func (s *userService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	fields := map[string]string{}
	if email == "" {
		fields["email"] = "is required"
	}
	if password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, model.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *userService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	user.SanitizePassword()
	return &AuthResult{User: user, Token: token}, nil
}

func (s *userService) Search(ctx context.Context, callerID uint, prompt string) ([]model.UserSummary, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, model.NewValidationError(map[string]string{"username": "is required"})
	}

	users, err := s.userRepo.Search(ctx, prompt, callerID, searchLimit)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}
