package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Sagararora90/ynme/internal/config"
	"github.com/Sagararora90/ynme/internal/database"
	"github.com/Sagararora90/ynme/internal/handler"
	"github.com/Sagararora90/ynme/internal/hub"
	"github.com/Sagararora90/ynme/internal/provider"
	"github.com/Sagararora90/ynme/internal/router"
	"github.com/Sagararora90/ynme/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API is the HTTP + WebSocket hub application.
type API struct {
	cfg *config.Config
	srv *http.Server
	db  *gorm.DB
	rdb *redis.Client
	hub *hub.Hub
}

// NewAPI creates the hub application: validates config, runs migrations, opens
// DB and cache, wires providers, builds router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("warning: redis unreachable, room cache disabled: %v", err)
			rdb = nil
		}
	}

	openaiProv := provider.NewOpenAIProvider(cfg.OpenAIAPIKey, logger)
	groqProv := provider.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqBaseURL, logger)

	chats := hub.NewAccumulator(cfg.ChatHistoryMax, cfg.ChatHistoryTTL)
	pipeline := hub.NewPipeline(openaiProv, groqProv, openaiProv, chats, cfg.TranslateLanguage, logger)

	bus := hub.New(logger)
	deviceSvc := service.NewDeviceService(db)
	playlistSvc := service.NewPlaylistService(db)
	roomSvc := service.NewRoomService(db, service.NewRoomCache(rdb), logger)
	dispatcher := hub.NewDispatcher(bus, deviceSvc, playlistSvc, roomSvc, pipeline, logger)

	searchSvc := provider.NewSearchService(cfg.YouTubeKey, groqProv, logger)

	busWS := handler.NewBusWSHandler(bus, dispatcher, cfg.JWTSecret,
		cfg.WSReadBufferSize, cfg.WSWriteBufferSize, cfg.WSMaxMessageSize, logger)
	searchHandler := handler.NewSearchHandler(searchSvc)
	deviceHandler := handler.NewDeviceHandler(deviceSvc, playlistSvc, roomSvc)
	health := handler.NewHealthHandler()

	r := router.New(busWS, searchHandler, deviceHandler, health, cfg.JWTSecret)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, rdb: rdb, hub: bus}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.srv.Addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Search:        %s/api/search", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
