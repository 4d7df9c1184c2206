package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"tush00nka/bbbab_chat/internal/model"
	"tush00nka/bbbab_chat/internal/pkg/auth"
	"tush00nka/bbbab_chat/internal/repository"
)

// 1x1 transparent PNG.
var pngAvatar = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type fixture struct {
	users     repository.UserRepository
	uploadDir string
	tokens    *auth.TokenManager
	userSvc   UserService
	friendSvc FriendService
	chatSvc   ChatService
	chats     repository.ChatRepository
	redis     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.NewDB("sqlite", filepath.Join(t.TempDir(), "test.db"), "silent")
	if err != nil {
		t.Fatal(err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	avatars, err := NewLocalAvatarStorage(uploadDir, "/uploads")
	if err != nil {
		t.Fatal(err)
	}

	users := repository.NewUserRepository(db)
	chats := repository.NewChatRepository(db)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return &fixture{
		users:     users,
		uploadDir: uploadDir,
		tokens:    tokens,
		userSvc:   NewUserService(users, tokens, avatars, bcrypt.MinCost, nil),
		friendSvc: NewFriendService(repository.NewFriendshipRepository(db), users),
		chatSvc: NewChatService(chats, users,
			repository.NewChatCacheRepository(rdb, time.Hour), nil),
		chats: chats,
		redis: mr,
	}
}

func (f *fixture) signup(t *testing.T, name string) *model.User {
	t.Helper()
	res, err := f.userSvc.Signup(context.Background(), SignupInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "password",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", name, err)
	}
	return res.User
}

func TestSignup(t *testing.T) {
	f := newFixture(t)
	res, err := f.userSvc.Signup(context.Background(), SignupInput{
		Username: "  alice ",
		Email:    "Alice@Example.com",
		Password: "password",
		Avatar:   bytes.NewReader(pngAvatar),
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if res.User.Username != "alice" || res.User.Email != "alice@example.com" {
		t.Errorf("user = %+v", res.User)
	}
	if res.User.PasswordHash != "" {
		t.Error("password hash returned from signup")
	}
	if id, err := f.tokens.Validate(res.Token); err != nil || id.UserID != res.User.ID {
		t.Errorf("token identity = %+v, %v", id, err)
	}

	if res.User.AvatarURL == nil || !strings.HasPrefix(*res.User.AvatarURL, "/uploads/") {
		t.Fatalf("AvatarURL = %v", res.User.AvatarURL)
	}
	stored := filepath.Join(f.uploadDir, strings.TrimPrefix(*res.User.AvatarURL, "/uploads/"))
	if _, err := os.Stat(stored); err != nil {
		t.Errorf("avatar not written: %v", err)
	}

	saved, err := f.users.FindByID(context.Background(), res.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cost, err := bcrypt.Cost([]byte(saved.PasswordHash)); err != nil || cost != bcrypt.MinCost {
		t.Errorf("stored hash cost = %d, %v", cost, err)
	}
}

func TestSignupRejects(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "alice")

	tests := []struct {
		name string
		in   SignupInput
		want error
	}{
		{"blank fields", SignupInput{Username: " ", Email: "", Password: ""}, model.ErrValidation},
		{"username taken", SignupInput{Username: "alice", Email: "new@example.com", Password: "p"}, model.ErrUsernameTaken},
		{"email taken", SignupInput{Username: "alice2", Email: "ALICE@example.com", Password: "p"}, model.ErrEmailTaken},
		{"not an image", SignupInput{Username: "bob", Email: "bob@example.com", Password: "p",
			Avatar: strings.NewReader("plain text")}, model.ErrValidation},
		{"avatar too large", SignupInput{Username: "bob", Email: "bob@example.com", Password: "p",
			Avatar: bytes.NewReader(append(append([]byte{}, pngAvatar...), make([]byte, MaxAvatarSize)...))}, model.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.userSvc.Signup(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	entries, _ := os.ReadDir(f.uploadDir)
	if len(entries) != 0 {
		t.Errorf("rejected signups left %d files in the upload dir", len(entries))
	}
}

type failingCreateRepo struct {
	repository.UserRepository
}

func (failingCreateRepo) Create(context.Context, *model.User) error {
	return model.ErrEmailTaken
}

func TestSignupRemovesAvatarWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	avatars, err := NewLocalAvatarStorage(f.uploadDir, "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	svc := NewUserService(failingCreateRepo{f.users}, f.tokens, avatars, bcrypt.MinCost, nil)

	_, err = svc.Signup(context.Background(), SignupInput{
		Username: "carol", Email: "carol@example.com", Password: "p", Avatar: bytes.NewReader(pngAvatar),
	})
	if !errors.Is(err, model.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}

	entries, _ := os.ReadDir(f.uploadDir)
	if len(entries) != 0 {
		t.Errorf("failed signup left %d avatar files", len(entries))
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	ctx := context.Background()

	res, err := f.userSvc.Login(ctx, "ALICE@example.com", "password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != alice.ID || res.User.PasswordHash != "" || res.Token == "" {
		t.Errorf("login result = %+v", res)
	}

	if _, err := f.userSvc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := f.userSvc.Login(ctx, "nobody@example.com", "password"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown email: got %v", err)
	}
	if _, err := f.userSvc.Login(ctx, "", ""); !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank input: got %v", err)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	f.signup(t, "alina")
	f.signup(t, "bob")
	ctx := context.Background()

	got, err := f.userSvc.Search(ctx, alice.ID, "AL")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Username != "alina" {
		t.Errorf("Search = %+v", got)
	}
	if _, err := f.userSvc.Search(ctx, alice.ID, "  "); !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank prompt: got %v", err)
	}
}

func TestFriendWorkflow(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")
	carol := f.signup(t, "carol")
	ctx := context.Background()

	if _, err := f.friendSvc.Request(ctx, alice.ID, alice.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("self request: got %v", err)
	}
	if _, err := f.friendSvc.Request(ctx, alice.ID, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown receiver: got %v", err)
	}

	req, err := f.friendSvc.Request(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != model.FriendshipPending {
		t.Errorf("status = %s", req.Status)
	}
	if _, err := f.friendSvc.Request(ctx, bob.ID, alice.ID); !errors.Is(err, model.ErrFriendshipExists) {
		t.Errorf("reverse request: got %v", err)
	}

	pending, err := f.friendSvc.Pending(ctx, bob.ID)
	if err != nil || len(pending) != 1 || pending[0].Requester.Username != "alice" {
		t.Fatalf("Pending = %+v, %v", pending, err)
	}
	if pending[0].Requester.PasswordHash != "" {
		t.Error("pending request leaks requester password hash")
	}

	if _, err := f.friendSvc.Respond(ctx, bob.ID, req.ID, "maybe"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("bad status: got %v", err)
	}
	if _, err := f.friendSvc.Respond(ctx, carol.ID, req.ID, "ACCEPTED"); !errors.Is(err, model.ErrFriendRequestNotFound) {
		t.Errorf("non-receiver: got %v", err)
	}

	accepted, err := f.friendSvc.Respond(ctx, bob.ID, req.ID, "accepted")
	if err != nil {
		t.Fatal(err)
	}
	if accepted.Status != model.FriendshipAccepted {
		t.Errorf("status = %s", accepted.Status)
	}
	if _, err := f.friendSvc.Respond(ctx, bob.ID, req.ID, "DECLINED"); !errors.Is(err, model.ErrFriendRequestNotFound) {
		t.Errorf("re-respond: got %v", err)
	}

	if _, err := f.friendSvc.Request(ctx, carol.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	pendingForAlice, _ := f.friendSvc.Pending(ctx, alice.ID)
	if _, err := f.friendSvc.Respond(ctx, alice.ID, pendingForAlice[0].ID, "ACCEPTED"); err != nil {
		t.Fatal(err)
	}

	friends, err := f.friendSvc.Friends(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(friends) != 2 || friends[0].Username != "bob" || friends[1].Username != "carol" {
		t.Errorf("Friends(alice) = %+v", friends)
	}
	if friends[0].FriendshipID != req.ID {
		t.Errorf("FriendshipID = %d, want %d", friends[0].FriendshipID, req.ID)
	}
}

func TestFindOrCreateChat(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")
	ctx := context.Background()

	if _, err := f.chatSvc.FindOrCreate(ctx, alice.ID, alice.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("self chat: got %v", err)
	}
	if _, err := f.chatSvc.FindOrCreate(ctx, alice.ID, 999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown friend: got %v", err)
	}

	first, err := f.chatSvc.FindOrCreate(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Participants) != 2 || first.Messages == nil || len(first.Messages) != 0 {
		t.Errorf("new chat = %+v", first)
	}

	second, err := f.chatSvc.FindOrCreate(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("second lookup returned chat %d, want %d", second.ID, first.ID)
	}
}

func TestPostMessage(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")
	carol := f.signup(t, "carol")
	ctx := context.Background()

	chat, err := f.chatSvc.FindOrCreate(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.chatSvc.PostMessage(ctx, chat.ID, carol.ID, "hi"); !errors.Is(err, model.ErrNotParticipant) {
		t.Errorf("outsider: got %v", err)
	}
	if _, err := f.chatSvc.PostMessage(ctx, 999, alice.ID, "hi"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown chat: got %v", err)
	}
	if _, err := f.chatSvc.PostMessage(ctx, chat.ID, alice.ID, "   "); !errors.Is(err, model.ErrValidation) {
		t.Errorf("blank content: got %v", err)
	}
	long := strings.Repeat("é", model.MaxMessageLength+1)
	if _, err := f.chatSvc.PostMessage(ctx, chat.ID, alice.ID, long); !errors.Is(err, model.ErrValidation) {
		t.Errorf("long content: got %v", err)
	}

	msg, err := f.chatSvc.PostMessage(ctx, chat.ID, alice.ID, "  hello  ")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "  hello  " || msg.Author.Username != "alice" || msg.ChatID != chat.ID {
		t.Errorf("message = %+v", msg)
	}
	if _, err := f.chatSvc.PostMessage(ctx, chat.ID, bob.ID, "hey"); err != nil {
		t.Fatal(err)
	}

	// Empty transcripts are never cached, so this read loads and caches the full one.
	got, err := f.chatSvc.FindOrCreate(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 2 || got.Messages[0].Content != "  hello  " || got.Messages[1].Content != "hey" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !f.redis.Exists(fmt.Sprintf("chat:%d:messages", chat.ID)) {
		t.Fatal("transcript should be cached after a full load")
	}

	if _, err := f.chatSvc.PostMessage(ctx, chat.ID, alice.ID, "third"); err != nil {
		t.Fatal(err)
	}
	got, err = f.chatSvc.FindOrCreate(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 3 || got.Messages[2].Content != "third" {
		t.Errorf("cached transcript after append = %+v", got.Messages)
	}
}

func TestConcurrentPostsKeepCachedTranscriptInOrder(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")
	ctx := context.Background()

	chat, err := f.chatSvc.FindOrCreate(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.chatSvc.PostMessage(ctx, chat.ID, alice.ID, "seed"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.chatSvc.FindOrCreate(ctx, alice.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	key := fmt.Sprintf("chat:%d:messages", chat.ID)
	if !f.redis.Exists(key) {
		t.Fatal("transcript should be cached before the concurrent posts")
	}

	const posts = 200
	var wg sync.WaitGroup
	errs := make(chan error, posts)
	for i := 0; i < posts; i++ {
		author := alice.ID
		if i%2 == 1 {
			author = bob.ID
		}
		wg.Add(1)
		go func(i int, author uint) {
			defer wg.Done()
			if _, err := f.chatSvc.PostMessage(ctx, chat.ID, author, fmt.Sprintf("message %d", i)); err != nil {
				errs <- err
			}
		}(i, author)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if !f.redis.Exists(key) {
		t.Fatal("transcript should still be cached after the posts")
	}

	got, err := f.chatSvc.FindOrCreate(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := f.chats.GetMessages(ctx, chat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != posts+1 || len(stored) != posts+1 {
		t.Fatalf("cached %d messages, stored %d, want %d", len(got.Messages), len(stored), posts+1)
	}
	for i := range stored {
		if got.Messages[i].ID != stored[i].ID {
			t.Fatalf("position %d: cached message %d, database message %d", i, got.Messages[i].ID, stored[i].ID)
		}
	}
}

func TestPresence(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")
	carol := f.signup(t, "carol")
	ctx := context.Background()

	chat, err := f.chatSvc.FindOrCreate(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.chatSvc.UserJoined(ctx, chat.ID, bob.ID); err != nil {
		t.Fatal(err)
	}

	online, err := f.chatSvc.Presence(ctx, chat.ID, alice.ID)
	if err != nil || len(online) != 1 || online[0] != bob.ID {
		t.Errorf("Presence = %v, %v", online, err)
	}
	if _, err := f.chatSvc.Presence(ctx, chat.ID, carol.ID); !errors.Is(err, model.ErrNotParticipant) {
		t.Errorf("outsider presence: got %v", err)
	}

	if err := f.chatSvc.UserLeft(ctx, chat.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	online, _ = f.chatSvc.Presence(ctx, chat.ID, alice.ID)
	if len(online) != 0 {
		t.Errorf("Presence after leave = %v", online)
	}
}
