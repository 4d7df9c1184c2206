package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const insecureDevSecret = "insecure-development-key-change-me"

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBDSN      string `mapstructure:"DB_DSN"`
	Host       string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	User       string `mapstructure:"DB_USER"`
	Password   string `mapstructure:"DB_PASSWORD"`
	Name       string `mapstructure:"DB_NAME"`
	DBLogLevel string `mapstructure:"DB_LOG_LEVEL"`

	JWTSecret  string        `mapstructure:"JWT_SECRET"`
	TokenTTL   time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost int           `mapstructure:"BCRYPT_COST"`

	AvatarStorage    string `mapstructure:"AVATAR_STORAGE"`
	UploadDir        string `mapstructure:"UPLOAD_DIR"`
	UploadPublicPath string `mapstructure:"UPLOAD_PUBLIC_PATH"`

	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3BucketName      string `mapstructure:"S3_BUCKET"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL       string `mapstructure:"S3_PUBLIC_URL"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	CORSAllowedOrigins  string  `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LoginRatePerMinute  int     `mapstructure:"LOGIN_RATE_PER_MINUTE"`
	WSMessagesPerSecond float64 `mapstructure:"WS_MESSAGES_PER_SECOND"`
}

var defaults = map[string]any{
	"SERVER_PORT":  "8080",
	"ENVIRONMENT":  "development",
	"LOG_LEVEL":    "info",
	"DB_DRIVER":    "postgres",
	"DB_DSN":       "",
	"DB_HOST":      "localhost",
	"DB_PORT":      "5432",
	"DB_USER":      "",
	"DB_PASSWORD":  "",
	"DB_NAME":      "bbbab_chat",
	"DB_LOG_LEVEL": "warn",

	"JWT_SECRET":  "",
	"TOKEN_TTL":   "24h",
	"BCRYPT_COST": 10,

	"AVATAR_STORAGE":     "local",
	"UPLOAD_DIR":         "./uploads",
	"UPLOAD_PUBLIC_PATH": "/uploads",

	"S3_ENDPOINT":          "",
	"S3_REGION":            "us-east-1",
	"S3_BUCKET":            "",
	"S3_ACCESS_KEY_ID":     "",
	"S3_SECRET_ACCESS_KEY": "",
	"S3_PUBLIC_URL":        "",

	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"CACHE_TTL":      "24h",

	"CORS_ALLOWED_ORIGINS":   "*",
	"LOGIN_RATE_PER_MINUTE":  30,
	"WS_MESSAGES_PER_SECOND": 10,
}

// Load reads configuration from the file named by CONFIG_FILE (default ./.env,
// optional) and the process environment. Environment variables win.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = ".env"
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.AvatarStorage = strings.ToLower(strings.TrimSpace(c.AvatarStorage))

	if c.ServerPort == "" {
		return errors.New("SERVER_PORT is required")
	}

	switch c.DBDriver {
	case "postgres", "mysql":
		if c.DBDSN == "" {
			if c.User == "" {
				return errors.New("DB_USER is required")
			}
			if c.Host == "" {
				return errors.New("DB_HOST is required")
			}
			if c.Name == "" {
				return errors.New("DB_NAME is required")
			}
		}
	case "sqlite":
		if c.DBDSN == "" && c.Name == "" {
			return errors.New("DB_NAME is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DBDriver)
	}

	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET is required")
		}
		c.JWTSecret = insecureDevSecret
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be > 0")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("BCRYPT_COST must be between 4 and 31")
	}

	switch c.AvatarStorage {
	case "local":
		if c.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required")
		}
		if !strings.HasPrefix(c.UploadPublicPath, "/") {
			return errors.New("UPLOAD_PUBLIC_PATH must start with /")
		}
		c.UploadPublicPath = strings.TrimRight(c.UploadPublicPath, "/")
	case "s3":
		if c.S3BucketName == "" {
			return errors.New("S3_BUCKET is required")
		}
	default:
		return fmt.Errorf("AVATAR_STORAGE: unsupported storage %q", c.AvatarStorage)
	}

	if c.LoginRatePerMinute <= 0 {
		return errors.New("LOGIN_RATE_PER_MINUTE must be > 0")
	}
	if c.WSMessagesPerSecond <= 0 {
		return errors.New("WS_MESSAGES_PER_SECOND must be > 0")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DSN returns DB_DSN verbatim when set, otherwise composes one for DB_DRIVER.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.User, c.Password, c.Host, c.DBPort, c.Name)
	case "sqlite":
		return c.Name
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.Host, c.User, c.Password, c.Name, c.DBPort)
	}
}

func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
