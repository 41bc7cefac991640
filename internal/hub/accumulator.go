package hub

import (
	"strings"
	"sync"
	"time"
)

// TranscriptEntry is one captured chat-mode transcript line.
type TranscriptEntry struct {
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// Accumulator holds per-user chat transcript context for the lifetime of the
// process. Entries are bounded per user and expire, so a forgotten chat session
// cannot grow without limit. Transcripts are never persisted.
type Accumulator struct {
	mu      sync.Mutex
	entries map[string][]TranscriptEntry
	max     int
	ttl     time.Duration
	now     func() time.Time
}

// NewAccumulator creates an accumulator keeping at most max entries per user,
// each for at most ttl. max <= 0 means 200; ttl <= 0 means 2h.
func NewAccumulator(max int, ttl time.Duration) *Accumulator {
	if max <= 0 {
		max = 200
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Accumulator{
		entries: make(map[string][]TranscriptEntry),
		max:     max,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Append records a transcript line for the user and returns the updated history.
func (a *Accumulator) Append(userID, text string) []TranscriptEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.prune(userID)
	list = append(list, TranscriptEntry{Text: text, Time: a.now()})
	if len(list) > a.max {
		list = list[len(list)-a.max:]
	}
	a.entries[userID] = list
	return append([]TranscriptEntry(nil), list...)
}

// History returns the user's non-expired entries.
func (a *Accumulator) History(userID string) []TranscriptEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.prune(userID)
	a.entries[userID] = list
	return append([]TranscriptEntry(nil), list...)
}

// FullText joins the user's history into one transcript string.
func (a *Accumulator) FullText(userID string) string {
	entries := a.History(userID)
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, " ")
}

// prune drops expired entries. Caller holds the lock.
func (a *Accumulator) prune(userID string) []TranscriptEntry {
	list := a.entries[userID]
	cutoff := a.now().Add(-a.ttl)
	i := 0
	for i < len(list) && list[i].Time.Before(cutoff) {
		i++
	}
	return list[i:]
}
