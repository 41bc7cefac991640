package bridge

import (
	"context"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Sagararora90/ynme/internal/model"
	"go.uber.org/zap"
)

const (
	// latencyBias absorbs the fixed startup latency between the remote
	// provider and the embedded player.
	latencyBias = 0.5
	// driftThreshold is how far the embedded player may wander from the
	// remote timeline before a forced re-seek.
	driftThreshold = 3.0
	// syncInterval is the drift-check period.
	syncInterval = 5 * time.Second
)

// Player is an independently embedded media player driven from remote status
// snapshots. Implementations wrap a provider embed; tests supply fakes.
type Player interface {
	Load(ctx context.Context, videoID string, startAt float64) error
	SeekTo(ctx context.Context, t float64) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	CurrentTime(ctx context.Context) (float64, error)
}

// Resolver finds a playable item for a media title.
type Resolver interface {
	Search(ctx context.Context, query, mode string) ([]model.MediaItem, error)
	Related(ctx context.Context, title string) ([]model.MediaItem, error)
}

// Synchronizer keeps an embedded player close to a remote playback timeline.
// A title change triggers item resolution and a (re)load; while the remote is
// playing, a fixed timer re-seeks whenever drift exceeds the threshold.
type Synchronizer struct {
	player  Player
	resolve Resolver
	log     *zap.Logger

	mu         sync.Mutex
	enabled    bool
	resolving  bool
	lastTitle  string
	remote     model.MediaStatus
	userOffset float64

	queue    []model.MediaItem
	queueIdx int
}

func NewSynchronizer(player Player, resolve Resolver, log *zap.Logger) *Synchronizer {
	return &Synchronizer{player: player, resolve: resolve, log: log, queueIdx: -1}
}

// SetEnabled toggles drift correction. Resolution of new titles still happens
// while disabled so the player tracks what is on.
func (s *Synchronizer) SetEnabled(on bool) {
	s.mu.Lock()
	s.enabled = on
	s.mu.Unlock()
}

// SetOffset sets the manual per-session correction in seconds.
func (s *Synchronizer) SetOffset(seconds int) {
	s.mu.Lock()
	s.userOffset = float64(seconds)
	s.mu.Unlock()
}

// AdjustOffset nudges the manual correction by delta seconds.
func (s *Synchronizer) AdjustOffset(delta int) {
	s.mu.Lock()
	s.userOffset += float64(delta)
	s.mu.Unlock()
}

// Offset returns the current manual correction in seconds.
func (s *Synchronizer) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.userOffset)
}

// HandleStatus ingests one remote snapshot. A changed title resolves a new
// item and reloads the player at the remote position plus corrections.
func (s *Synchronizer) HandleStatus(ctx context.Context, st model.MediaStatus) {
	s.mu.Lock()
	s.remote = st
	titleChanged := st.Title != "" && st.Title != s.lastTitle
	if titleChanged {
		s.lastTitle = st.Title
		s.resolving = true
	}
	offset := s.userOffset
	s.mu.Unlock()

	if !titleChanged {
		return
	}

	videoID := extractVideoID(st.URL)
	if videoID == "" {
		items, err := s.resolve.Search(ctx, st.Title, "video")
		if err != nil || len(items) == 0 {
			s.log.Warn("no match for remote title", zap.String("title", st.Title), zap.Error(err))
			s.mu.Lock()
			s.resolving = false
			s.mu.Unlock()
			return
		}
		videoID = items[0].ID
	}

	if err := s.player.Load(ctx, videoID, st.CurrentTime+offset+latencyBias); err != nil {
		s.log.Warn("player load failed", zap.Error(err))
	}

	s.mu.Lock()
	s.resolving = false
	s.mu.Unlock()
}

// Run checks drift on a fixed timer until ctx is cancelled.
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckDrift(ctx)
		}
	}
}

// CheckDrift compares the player position against the remote-derived expected
// position and re-seeks when the gap exceeds the threshold. No correction
// while the remote is paused (its clock is not advancing) or while a title
// resolution is in flight.
func (s *Synchronizer) CheckDrift(ctx context.Context) {
	s.mu.Lock()
	if !s.enabled || s.resolving || s.remote.Paused || s.lastTitle == "" {
		s.mu.Unlock()
		return
	}
	expected := s.remote.CurrentTime + s.userOffset + latencyBias
	s.mu.Unlock()

	local, err := s.player.CurrentTime(ctx)
	if err != nil {
		return
	}
	if math.Abs(local-expected) > driftThreshold {
		s.log.Debug("drift correction",
			zap.Float64("local", local), zap.Float64("expected", expected))
		_ = s.player.SeekTo(ctx, expected)
	}
}

// extractVideoID pulls a video identifier out of a remote URL when it carries
// one directly, avoiding a search round trip.
func extractVideoID(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if strings.Contains(u.Host, "youtu.be") {
		return strings.TrimPrefix(u.Path, "/")
	}
	if strings.Contains(u.Host, "youtube.com") {
		return u.Query().Get("v")
	}
	return ""
}
