package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tush00nka/bbbab_chat/internal/config"
	"tush00nka/bbbab_chat/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ServerPort:          "0",
		Environment:         "test",
		DBDriver:            "sqlite",
		DBDSN:               filepath.Join(dir, "app.db"),
		DBLogLevel:          "silent",
		JWTSecret:           "test-secret",
		TokenTTL:            time.Hour,
		BcryptCost:          4,
		AvatarStorage:       "local",
		UploadDir:           filepath.Join(dir, "uploads"),
		UploadPublicPath:    "/uploads",
		CORSAllowedOrigins:  "*",
		LoginRatePerMinute:  100,
		WSMessagesPerSecond: 10,
	}
}

func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()
	a, err := New(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestCORSPreflightRequest(t *testing.T) {
	srv := newTestApp(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/friends/request", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}
	if resp.Header.Get("Access-Control-Allow-Headers") == "" {
		t.Error("Access-Control-Allow-Headers should not be empty for OPTIONS request")
	}
}

func TestCORSWithActualRequest(t *testing.T) {
	srv := newTestApp(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ping", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %v, want *", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestApp(t)
	get(t, srv.URL+"/ping")

	resp, body := get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`http_requests_total{method="GET",route="/ping",status="200"} 1`,
		"ws_connections 0",
		"ws_rooms 0",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestSwaggerDocIsServed(t *testing.T) {
	srv := newTestApp(t)

	resp, body := get(t, srv.URL+"/swagger/doc.json")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "/chats/find/{friendId}") {
		t.Errorf("doc.json: %d %.200s", resp.StatusCode, body)
	}
}

func TestUnknownRouteIsJSON(t *testing.T) {
	srv := newTestApp(t)

	resp, body := get(t, srv.URL+"/no/such/route")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(body, `"not_found"`) {
		t.Errorf("got %d %s", resp.StatusCode, body)
	}
}

func TestUploadedAvatarIsServed(t *testing.T) {
	srv := newTestApp(t)

	gif := []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("username", "alice")
	mw.WriteField("email", "alice@example.com")
	mw.WriteField("password", "secret")
	fw, _ := mw.CreateFormFile("avatar", "a.gif")
	fw.Write(gif)
	mw.Close()

	resp, err := http.Post(srv.URL+"/signup", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	var res service.AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.User.AvatarURL == nil {
		t.Fatal("avatarUrl not set")
	}

	avatar, content := get(t, srv.URL+*res.User.AvatarURL)
	if avatar.StatusCode != http.StatusOK || content != string(gif) {
		t.Errorf("avatar fetch: %d (%d bytes)", avatar.StatusCode, len(content))
	}

	if listing, _ := get(t, srv.URL+"/uploads/"); listing.StatusCode != http.StatusNotFound {
		t.Errorf("directory listing status = %d, want 404", listing.StatusCode)
	}
}
