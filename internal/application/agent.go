package application

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Sagararora90/ynme/internal/agent"
	"github.com/Sagararora90/ynme/internal/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AgentApp runs the device agent plus its local request/response surface for
// attached UIs (connection checks, relayed audio chunks).
type AgentApp struct {
	cfg *config.Config
	ag  *agent.Agent
	srv *http.Server
}

// NewAgent wires the device agent against the configured browser endpoint.
func NewAgent(cfg *config.Config) (*AgentApp, error) {
	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	browser := agent.NewCDPBrowser(cfg.CDPBaseURL, logger)
	ag := agent.New(agent.Options{
		HubURL:         cfg.HubURL,
		Token:          cfg.AgentToken,
		DeviceName:     cfg.DeviceName,
		PollInterval:   cfg.PollInterval,
		ChunkInterval:  cfg.CaptureChunk,
		DashboardHosts: strings.Split(cfg.DashboardHosts, ","),
	}, browser, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/connection", func(c *gin.Context) {
		c.JSON(http.StatusOK, ag.CheckConnection())
	})
	r.POST("/audio-chunk", func(c *gin.Context) {
		var req struct {
			AudioData string `json:"audioData"`
			Mode      string `json:"mode"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if !ag.HandleAudioChunk(req.AudioData, req.Mode) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "not connected"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	})
	r.POST("/capture/stop", func(c *gin.Context) {
		ag.StopCapture()
		c.JSON(http.StatusOK, gin.H{"status": "stopped"})
	})
	r.POST("/credentials", func(c *gin.Context) {
		var req struct {
			Token string `json:"token"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		ag.UpdateCredentials(req.Token)
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	})

	srv := &http.Server{
		Addr:              cfg.AgentLocalAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &AgentApp{cfg: cfg, ag: ag, srv: srv}, nil
}

// reconnectDelay spaces retries after a lost or failed hub connection.
const reconnectDelay = 3 * time.Second

// Run starts the local surface and keeps the agent connected until ctx is
// cancelled. An idle agent (no token yet) waits for credentials to arrive
// over the local surface; a lost connection is retried after a short delay.
func (a *AgentApp) Run(ctx context.Context) error {
	log.Printf("agent local surface on %s", a.cfg.AgentLocalAddr)
	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("agent http: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.srv.Shutdown(shutdownCtx)
	}()

	for {
		err := a.ag.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			// Idle: nothing to do until credentials show up.
			select {
			case <-ctx.Done():
				return nil
			case <-a.ag.CredentialsChanged():
			}
			continue
		}
		log.Printf("agent: %v, reconnecting in %s", err, reconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}
