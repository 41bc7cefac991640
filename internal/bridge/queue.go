package bridge

import (
	"context"

	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/model"
	"go.uber.org/zap"
)

// SetQueue installs a result list as the playback queue, positioned at
// startIdx. Typically the full search result list with the chosen item's
// index, so skipping forward needs no new query.
func (s *Synchronizer) SetQueue(items []model.MediaItem, startIdx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append([]model.MediaItem(nil), items...)
	if startIdx < 0 || startIdx >= len(s.queue) {
		startIdx = 0
	}
	s.queueIdx = startIdx
}

// Queue returns a copy of the current queue and position.
func (s *Synchronizer) Queue() ([]model.MediaItem, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.MediaItem(nil), s.queue...), s.queueIdx
}

// PlayNext advances to the next queued item. At the queue's end it fetches
// related media for the current item, appends the first result, and continues
// with it, so playback never stalls on an exhausted queue.
func (s *Synchronizer) PlayNext(ctx context.Context) (model.MediaItem, error) {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return model.MediaItem{}, errs.ErrNoSearchResults
	}
	next := s.queueIdx + 1
	if next < len(s.queue) {
		s.queueIdx = next
		item := s.queue[next]
		s.mu.Unlock()
		return item, s.playItem(ctx, item)
	}
	current := s.queue[s.queueIdx]
	s.mu.Unlock()

	related, err := s.resolve.Related(ctx, current.Title)
	if err != nil || len(related) == 0 {
		s.log.Warn("related fetch failed at queue end", zap.Error(err))
		return model.MediaItem{}, errs.ErrNoSearchResults
	}
	item := related[0]

	s.mu.Lock()
	s.queue = append(s.queue, item)
	s.queueIdx = len(s.queue) - 1
	s.mu.Unlock()

	return item, s.playItem(ctx, item)
}

func (s *Synchronizer) playItem(ctx context.Context, item model.MediaItem) error {
	s.mu.Lock()
	s.lastTitle = item.Title
	s.mu.Unlock()
	if err := s.player.Load(ctx, item.ID, 0); err != nil {
		return err
	}
	return s.player.Play(ctx)
}
