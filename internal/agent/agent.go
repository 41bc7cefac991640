package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sagararora90/ynme/internal/capture"
	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/hub"
	"github.com/Sagararora90/ynme/internal/media"
	"github.com/Sagararora90/ynme/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	dialAttempts  = 10
	dialDelay     = time.Second
	deviceType    = "browser"
	writeDeadline = 10 * time.Second
)

// Options configure a device agent.
type Options struct {
	HubURL         string
	Token          string
	DeviceName     string
	PollInterval   time.Duration
	ChunkInterval  time.Duration
	DashboardHosts []string
}

// ConnectionState answers the local CHECK_CONNECTION surface.
type ConnectionState struct {
	Connected     bool `json:"connected"`
	Authenticated bool `json:"authenticated"`
}

// Agent holds the single outbound bus connection for one browser instance.
// It polls tab media status on a fixed period, relays hub commands to tabs,
// and drives the capture worker.
type Agent struct {
	opts    Options
	browser Browser
	worker  *capture.Worker
	log     *zap.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	send     chan []byte
	userID   string
	lastGood int

	credCh chan struct{}
}

// New creates a device agent. The capture worker is created internally and
// emits chunks back over the bus.
func New(opts Options, browser Browser, log *zap.Logger) *Agent {
	a := &Agent{
		opts:     opts,
		browser:  browser,
		log:      log,
		lastGood: noTab,
		credCh:   make(chan struct{}, 1),
	}
	a.worker = capture.NewWorker(opts.ChunkInterval, a.emitChunk, log)
	return a
}

// Run connects to the hub and processes events until ctx is cancelled.
// With no stored token it logs and returns nil: an unauthenticated browser is
// not an error, it just has nothing to do.
func (a *Agent) Run(ctx context.Context) error {
	token := a.token()
	if token == "" {
		a.log.Info("no auth token stored, agent idle")
		return nil
	}
	userID, err := userIDFromToken(token)
	if err != nil {
		a.log.Warn("cannot extract user id from token", zap.Error(err))
		return nil
	}

	conn, err := a.dial(ctx, token)
	if err != nil {
		return err
	}

	// Scope the pumps to this connection so a reconnect does not stack loops.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.conn = conn
	a.send = make(chan []byte, 64)
	a.userID = userID
	send := a.send
	a.mu.Unlock()

	defer func() {
		a.worker.Stop()
		_ = conn.Close()
		a.mu.Lock()
		if a.conn == conn {
			a.conn = nil
		}
		a.send = nil
		a.mu.Unlock()
	}()

	a.register()
	a.log.Info("connected to hub", zap.String("user_id", userID))

	go a.writePump(connCtx, conn, send)
	go a.pollLoop(connCtx)

	return a.readLoop(ctx, conn)
}

// UpdateCredentials replaces the stored token and tears down the current
// connection; the run loop reconnects with the fresh credentials.
func (a *Agent) UpdateCredentials(token string) {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.opts.Token = token
	a.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	select {
	case a.credCh <- struct{}{}:
	default:
	}
}

// CredentialsChanged signals each UpdateCredentials call. Used by the run loop
// to wake an idle (tokenless) agent.
func (a *Agent) CredentialsChanged() <-chan struct{} {
	return a.credCh
}

// CheckConnection implements the local CHECK_CONNECTION request surface.
func (a *Agent) CheckConnection() ConnectionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ConnectionState{
		Connected:     a.conn != nil,
		Authenticated: a.userID != "",
	}
}

// HandleAudioChunk implements the local AUDIO_CHUNK surface: relays an already
// encoded chunk from an attached UI to the pipeline. Returns whether it was
// accepted.
func (a *Agent) HandleAudioChunk(dataURL, mode string) bool {
	a.mu.Lock()
	userID := a.userID
	connected := a.conn != nil
	a.mu.Unlock()
	if !connected {
		return false
	}
	a.emitRaw(hub.EventSTTChunk, hub.STTChunkPayload{
		UserID:    userID,
		AudioData: dataURL,
		Mode:      mode,
	})
	return true
}

func (a *Agent) token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts.Token
}

// dial connects with bounded attempts and a fixed delay between them.
func (a *Agent) dial(ctx context.Context, token string) (*websocket.Conn, error) {
	url := a.opts.HubURL
	if !strings.Contains(url, "token=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url = url + sep + "token=" + token
	}
	var lastErr error
	for i := 0; i < dialAttempts; i++ {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialDelay):
		}
	}
	return nil, fmt.Errorf("dial hub after %d attempts: %w", dialAttempts, lastErr)
}

func (a *Agent) register() {
	a.emitRaw(hub.EventRegisterDevice, hub.RegisterDevicePayload{
		UserID:     a.userID,
		DeviceName: a.opts.DeviceName,
		DeviceType: deviceType,
	})
}

func (a *Agent) writePump(ctx context.Context, conn *websocket.Conn, send chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (a *Agent) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("hub connection lost: %w", err)
		}
		a.handleEvent(ctx, raw)
	}
}

func (a *Agent) handleEvent(ctx context.Context, raw []byte) {
	var env hub.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		a.log.Debug("unparseable hub frame", zap.Error(err))
		return
	}
	switch env.Event {
	case hub.EventExecuteCommand:
		var p hub.ExecuteCommandPayload
		if json.Unmarshal(env.Data, &p) == nil {
			a.broadcastCommand(ctx, p.Command, p.Value)
		}
	case hub.EventExecutePlay:
		var m model.MediaItem
		if json.Unmarshal(env.Data, &m) == nil && m.PlayURL != "" {
			if err := a.browser.OpenTab(ctx, m.PlayURL); err != nil {
				a.log.Warn("open play tab failed", zap.Error(err))
			}
		}
	case hub.EventStartAudioCapture:
		var p hub.StartCapturePayload
		if json.Unmarshal(env.Data, &p) == nil {
			a.startCapture(ctx, p)
		}
	case hub.EventSyncPlayback:
		var p hub.PlaybackStatus
		if json.Unmarshal(env.Data, &p) == nil {
			cmd := media.CommandPlay
			if p.Paused {
				cmd = media.CommandPause
			}
			a.broadcastCommand(ctx, cmd, p.CurrentTime)
		}
	case hub.EventSubtitleUpdate:
		var p hub.SubtitlePayload
		if json.Unmarshal(env.Data, &p) == nil {
			a.broadcastSubtitle(ctx, p.Text)
		}
	}
}

// pollLoop queries media status on a fixed period from the candidate tab set.
func (a *Agent) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(a.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pollOnce(ctx)
		}
	}
}

func (a *Agent) pollOnce(ctx context.Context) {
	tabs, err := a.browser.Tabs(ctx)
	if err != nil {
		a.log.Debug("tab query failed", zap.Error(err))
		return
	}
	a.mu.Lock()
	lastGood := a.lastGood
	userID := a.userID
	a.mu.Unlock()

	for _, tab := range CandidateTabs(tabs, lastGood) {
		frames, err := a.browser.Frames(ctx, tab.ID)
		if err != nil || len(frames) == 0 {
			frames = []int{0}
		}
		for _, frameID := range frames {
			status, err := a.browser.QueryStatus(ctx, tab.ID, frameID)
			if err != nil {
				// NO_MEDIA and SMALL_FRAME are expected; keep looking.
				continue
			}
			a.mu.Lock()
			a.lastGood = tab.ID
			a.mu.Unlock()
			a.emitRaw(hub.EventMediaStatus, hub.MediaStatusPayload{UserID: userID, Status: *status})
			break
		}
	}
}

// broadcastCommand relays a playback command to every non-privileged tab,
// ignoring tabs without a listener.
func (a *Agent) broadcastCommand(ctx context.Context, command string, value float64) {
	tabs, err := a.browser.Tabs(ctx)
	if err != nil {
		return
	}
	for _, t := range tabs {
		if t.Privileged || !pollable(t) {
			continue
		}
		_ = a.browser.SendCommand(ctx, t.ID, command, value)
	}
}

func (a *Agent) broadcastSubtitle(ctx context.Context, text string) {
	tabs, err := a.browser.Tabs(ctx)
	if err != nil {
		return
	}
	for _, t := range tabs {
		if t.Privileged || !pollable(t) {
			continue
		}
		_ = a.browser.ShowSubtitle(ctx, t.ID, text)
	}
}

// startCapture resolves the audio-source tab and starts a capture session.
// Resolution failure is reported as a pipeline error, never as a disconnect.
func (a *Agent) startCapture(ctx context.Context, p hub.StartCapturePayload) {
	tabs, err := a.browser.Tabs(ctx)
	if err != nil {
		a.reportCaptureError(fmt.Errorf("tab query failed: %w", err))
		return
	}
	a.mu.Lock()
	lastGood := a.lastGood
	a.mu.Unlock()

	cands := DescribeCandidates(tabs, lastGood, a.opts.DashboardHosts)
	tabID, ok := ResolveCaptureTarget(cands)
	if !ok {
		a.reportCaptureError(errs.ErrNoCaptureSource)
		return
	}

	src, err := a.browser.CaptureSource(ctx, tabID)
	if err != nil {
		a.reportCaptureError(fmt.Errorf("capture setup failed: %w", err))
		return
	}

	duration := time.Duration(p.DurationMs) * time.Millisecond
	if err := a.worker.Start(ctx, src, p.Mode, duration); err != nil {
		a.reportCaptureError(err)
		return
	}
	a.log.Info("capture started", zap.Int("tab_id", tabID), zap.String("mode", p.Mode))
}

// StopCapture tears down any active capture session (local STOP_CAPTURE).
func (a *Agent) StopCapture() {
	a.worker.Stop()
}

func (a *Agent) reportCaptureError(err error) {
	if !errors.Is(err, errs.ErrNoCaptureSource) {
		a.log.Warn("capture setup failed", zap.Error(err))
	}
	a.emitRaw(hub.EventAIAnalysisError, hub.AnalysisErrorPayload{
		Message: "Extension failed to capture audio: " + err.Error(),
	})
}

// emitChunk relays one recorded chunk to the hub as a data-URL payload.
func (a *Agent) emitChunk(c capture.Chunk) {
	a.mu.Lock()
	userID := a.userID
	a.mu.Unlock()
	dataURL := "data:audio/webm;base64," + base64.StdEncoding.EncodeToString(c.Data)
	a.emitRaw(hub.EventSTTChunk, hub.STTChunkPayload{
		UserID:    userID,
		AudioData: dataURL,
		Mode:      c.Mode,
	})
}

// emitRaw frames and queues an event for the hub. Drops when disconnected or
// the queue is full; status events are superseded by the next tick anyway.
func (a *Agent) emitRaw(event string, data any) {
	raw, err := hub.Marshal(event, data)
	if err != nil {
		return
	}
	a.mu.Lock()
	send := a.send
	connected := a.conn != nil
	a.mu.Unlock()
	if !connected || send == nil {
		return
	}
	select {
	case send <- raw:
	default:
	}
}

// userIDFromToken extracts the user id claim from the stored JWT without
// verifying it; verification is the hub's job.
func userIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	for _, key := range []string{"sub", "userId", "id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("token has no user id claim")
}
