package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv("DB_USER", "chat")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.JWTSecret == "" {
		t.Error("JWTSecret should fall back to the development key")
	}
	if cfg.UploadPublicPath != "/uploads" {
		t.Errorf("UploadPublicPath = %q, want /uploads", cfg.UploadPublicPath)
	}
}

func TestLoadFileReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "DB_DRIVER=sqlite\nDB_NAME=chat.db\nSERVER_PORT=9090\nTOKEN_TTL=2h\nREDIS_ADDR=localhost:6379\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.DSN() != "chat.db" {
		t.Errorf("DSN = %q, want chat.db", cfg.DSN())
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.TokenTTL)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DB_DRIVER=sqlite\nSERVER_PORT=9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want 7070", cfg.ServerPort)
	}
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"missing db user", map[string]string{"DB_DRIVER": "postgres"}},
		{"secret required in production", map[string]string{"DB_DRIVER": "sqlite", "ENVIRONMENT": "production"}},
		{"bcrypt cost", map[string]string{"DB_DRIVER": "sqlite", "BCRYPT_COST": "2"}},
		{"s3 without bucket", map[string]string{"DB_DRIVER": "sqlite", "AVATAR_STORAGE": "s3"}},
		{"unknown storage", map[string]string{"DB_DRIVER": "sqlite", "AVATAR_STORAGE": "ftp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFile(""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := &Config{DBDriver: "mysql", User: "u", Password: "p", Host: "db", DBPort: "3306", Name: "chat"}
	want := "u:p@tcp(db:3306)/chat?charset=utf8mb4&parseTime=True&loc=UTC"
	if got := c.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}

	c = &Config{DBDriver: "postgres", DBDSN: "postgres://x"}
	if got := c.DSN(); got != "postgres://x" {
		t.Errorf("DSN = %q, want explicit DSN", got)
	}
}

func TestAllowedOrigins(t *testing.T) {
	c := &Config{CORSAllowedOrigins: "http://a.test, http://b.test,"}
	got := c.AllowedOrigins()
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", got)
	}
}
