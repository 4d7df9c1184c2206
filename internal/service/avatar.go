package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tush00nka/bbbab_chat/internal/model"
)

const MaxAvatarSize = 5 << 20

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

type avatarFile struct {
	key         string
	data        []byte
	contentType string
}

// readAvatar buffers an uploaded avatar and checks its size and sniffed type.
func readAvatar(r io.Reader) (*avatarFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarSize+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if len(data) == 0 {
		return nil, model.NewValidationError(map[string]string{"avatar": "is empty"})
	}
	if len(data) > MaxAvatarSize {
		return nil, model.NewValidationError(map[string]string{"avatar": "exceeds 5 MiB"})
	}

	contentType := http.DetectContentType(data)
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, model.NewValidationError(map[string]string{"avatar": "must be an image"})
	}

	return &avatarFile{
		key:         uuid.NewString() + ext,
		data:        data,
		contentType: contentType,
	}, nil
}

type LocalAvatarStorage struct {
	dir        string
	publicPath string
}

func NewLocalAvatarStorage(dir, publicPath string) (*LocalAvatarStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalAvatarStorage{dir: dir, publicPath: strings.TrimRight(publicPath, "/")}, nil
}

func (s *LocalAvatarStorage) Dir() string { return s.dir }

func (s *LocalAvatarStorage) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return s.publicPath + "/" + key, nil
}

func (s *LocalAvatarStorage) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove avatar: %w", err)
	}
	return nil
}

func (s *LocalAvatarStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid avatar key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

