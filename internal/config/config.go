package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds ynme sync-service configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// PostgreSQL
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// Redis (room-state cache; empty addr disables it)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// WebSocket
	WSReadBufferSize  int
	WSWriteBufferSize int
	WSMaxMessageSize  int64

	// Auth: HS256 secret for handshake tokens
	JWTSecret string

	// Providers
	OpenAIAPIKey string // Whisper transcription + translation
	GroqAPIKey   string // analysis, chat answers, recommendation fallback
	GroqBaseURL  string // OpenAI-compatible endpoint
	YouTubeKey   string // YouTube Data API v3

	// Pipeline
	TranslateLanguage string // target language for subtitle translation
	ChatHistoryMax    int    // max accumulated transcript entries per user
	ChatHistoryTTL    time.Duration

	// Agent
	HubURL         string        // ws(s)://host:port/ws for the device agent
	AgentToken     string        // handshake token for the agent
	DeviceName     string        // agent device name (unique per user)
	PollInterval   time.Duration // media status poll period
	CaptureChunk   time.Duration // chat-mode capture chunk length
	DashboardHosts string        // comma-separated host fragments never treated as audio source
	CDPBaseURL     string        // DevTools endpoint of the browser the agent drives
	AgentLocalAddr string        // local request/response surface for attached UIs
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	maxMsg, _ := strconv.ParseInt(getEnv("WS_MAX_MESSAGE_SIZE", "10485760"), 10, 64)
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	historyMax, _ := strconv.Atoi(getEnv("CHAT_HISTORY_MAX", "200"))
	historyTTL, _ := strconv.Atoi(getEnv("CHAT_HISTORY_TTL", "7200"))
	pollMs, _ := strconv.Atoi(getEnv("AGENT_POLL_INTERVAL_MS", "1500"))
	chunkMs, _ := strconv.Atoi(getEnv("CAPTURE_CHUNK_MS", "15000"))

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		AppHost:           getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:          firstEnv("APP_PORT", "HTTP_PORT", "5001"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		WSReadBufferSize:  readBuf,
		WSWriteBufferSize: writeBuf,
		WSMaxMessageSize:  maxMsg,
		JWTSecret:         getEnv("JWT_SECRET", ""),
		OpenAIAPIKey:      firstEnv("OPENAI_API_KEY", "WHISPER_API_KEY", ""),
		GroqAPIKey:        getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:       getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		YouTubeKey:        getEnv("YOUTUBE_API_KEY", ""),
		TranslateLanguage: getEnv("TRANSLATE_LANGUAGE", "Hindi"),
		ChatHistoryMax:    historyMax,
		ChatHistoryTTL:    time.Duration(historyTTL) * time.Second,
		HubURL:            getEnv("HUB_URL", "ws://127.0.0.1:5001/ws"),
		AgentToken:        getEnv("AGENT_TOKEN", ""),
		DeviceName:        getEnv("DEVICE_NAME", "Chrome Extension"),
		PollInterval:      time.Duration(pollMs) * time.Millisecond,
		CaptureChunk:      time.Duration(chunkMs) * time.Millisecond,
		DashboardHosts:    getEnv("DASHBOARD_HOSTS", "localhost:5173"),
		CDPBaseURL:        getEnv("CDP_BASE_URL", "http://127.0.0.1:9222"),
		AgentLocalAddr:    getEnv("AGENT_LOCAL_ADDR", "127.0.0.1:5002"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "ynme")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.DB.Host == "" {
		return errors.New("config: DB_HOST is required")
	}
	if c.DB.User == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DB.Database == "" {
		return errors.New("config: DB_DATABASE is required")
	}
	if c.AppEnv == "production" {
		if c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
		if c.JWTSecret == "" {
			return errors.New("config: in production JWT_SECRET is required")
		}
	}
	return nil
}

// DSN returns PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL returns postgres URL for golang-migrate.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

// Addr returns listen address for HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
