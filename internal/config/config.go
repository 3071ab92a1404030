package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// ClientConfig holds everything the terminal client reads from the environment.
type ClientConfig struct {
	ServerURL       string        // quiz service base URL
	HTTPTimeout     time.Duration // per-request timeout
	CredentialsPath string        // sqlite file for the remembered credential
	Cache           string        // "memory" or "redis"
	Redis           RedisConfig
	RealtimeURL     string // websocket endpoint for submission events, optional
	AMQPURL         string // broker for submission events, optional
	DisplayDelay    time.Duration
	LogMode         string
}

// RedisConfig is used when the session cache lives in Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServiceConfig holds the reference quiz service settings.
type ServiceConfig struct {
	Addr      string
	DBPath    string
	JWTSecret string
	LogMode   string
}

// LoadDotEnv loads a .env file when one is present. A missing file is not an
// error; a malformed one is.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func LoadClient() ClientConfig {
	return ClientConfig{
		ServerURL:       String("QUIZZLY_SERVER", "http://127.0.0.1:8080"),
		HTTPTimeout:     Duration("QUIZZLY_HTTP_TIMEOUT", 5*time.Second),
		CredentialsPath: String("QUIZZLY_CREDENTIALS_PATH", defaultCredentialsPath()),
		Cache:           strings.ToLower(String("QUIZZLY_CACHE", CacheMemory)),
		Redis: RedisConfig{
			Addr:     String("REDIS_ADDR", "127.0.0.1:6379"),
			Password: String("REDIS_PASSWORD", ""),
			DB:       Int("REDIS_DB", 0),
		},
		RealtimeURL:  String("QUIZZLY_REALTIME_URL", ""),
		AMQPURL:      String("QUIZZLY_AMQP_URL", ""),
		DisplayDelay: Duration("QUIZZLY_DISPLAY_DELAY", 2*time.Second),
		LogMode:      String("LOG_MODE", "quiet"),
	}
}

func LoadService() ServiceConfig {
	return ServiceConfig{
		Addr:      String("ADDR", ":8080"),
		DBPath:    String("QUIZ_DB_PATH", "quiz.db"),
		JWTSecret: String("JWT_SECRET", ""),
		LogMode:   String("LOG_MODE", "dev"),
	}
}

func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func Int(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// Duration accepts Go duration strings ("3s") or a bare number of seconds.
func Duration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "quizzly-credentials.db"
	}
	return filepath.Join(dir, "quizzly", "credentials.db")
}
