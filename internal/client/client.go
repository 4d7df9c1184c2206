// Package client talks to the chat server over HTTP and WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tush00nka/bbbab_chat/internal/model"
	"tush00nka/bbbab_chat/internal/pkg/httputils"
	"tush00nka/bbbab_chat/internal/service"
)

var ErrNoSession = errors.New("client: not signed in")

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. A nil httpClient gets a
// 15 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type SignupRequest struct {
	Username string
	Email    string
	Password string

	// Avatar is optional.
	Avatar     io.Reader
	AvatarName string
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
	} {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if req.Avatar != nil {
		name := req.AvatarName
		if name == "" {
			name = "avatar"
		}
		fw, err := mw.CreateFormFile("avatar", name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(fw, req.Avatar); err != nil {
			return nil, fmt.Errorf("read avatar: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res service.AuthResult
	if err := c.do(ctx, http.MethodPost, "/signup", nil, mw.FormDataContentType(), &body, &res); err != nil {
		return nil, err
	}
	return newSession(res.Token, res.User), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var res service.AuthResult
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", nil, in, &res); err != nil {
		return nil, err
	}
	return newSession(res.Token, res.User), nil
}

func (c *Client) FindUsers(ctx context.Context, s *Session, username string) ([]model.UserSummary, error) {
	var users []model.UserSummary
	path := "/users/find?username=" + url.QueryEscape(username)
	return users, c.doJSON(ctx, http.MethodGet, path, s, nil, &users)
}

func (c *Client) RequestFriend(ctx context.Context, s *Session, receiverID uint) (*model.Friendship, error) {
	var f model.Friendship
	in := map[string]uint{"receiverId": receiverID}
	if err := c.doJSON(ctx, http.MethodPost, "/friends/request", s, in, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) RespondFriend(ctx context.Context, s *Session, friendshipID uint, status model.FriendshipStatus) (*model.Friendship, error) {
	var f model.Friendship
	in := map[string]any{"friendshipId": friendshipID, "status": status}
	if err := c.doJSON(ctx, http.MethodPut, "/friends/respond", s, in, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) PendingRequests(ctx context.Context, s *Session) ([]model.Friendship, error) {
	var pending []model.Friendship
	return pending, c.doJSON(ctx, http.MethodGet, "/friends/pending", s, nil, &pending)
}

func (c *Client) Friends(ctx context.Context, s *Session) ([]model.FriendSummary, error) {
	var friends []model.FriendSummary
	return friends, c.doJSON(ctx, http.MethodGet, "/friends/all", s, nil, &friends)
}

func (c *Client) FindChat(ctx context.Context, s *Session, friendID uint) (*model.ChatView, error) {
	var chat model.ChatView
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/chats/find/%d", friendID), s, nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) Presence(ctx context.Context, s *Session, chatID uint) ([]uint, error) {
	var res struct {
		Online []uint `json:"online"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/chats/%d/presence", chatID), s, nil, &res); err != nil {
		return nil, err
	}
	return res.Online, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, s *Session, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}
	return c.do(ctx, method, path, s, contentType, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, s *Session, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s != nil {
		if s.Token == "" {
			return ErrNoSession
		}
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e httputils.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Code, apiErr.Message = e.Error.Code, e.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
