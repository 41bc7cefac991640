package capture

import (
	"context"
	"sync"
	"time"

	"github.com/Sagararora90/ynme/internal/errs"
	"go.uber.org/zap"
)

// ModeChat is the continuous chunked capture mode; every other mode value
// (summary, notes, explain, ...) is a one-shot capture tagged with that mode.
const ModeChat = "chat"

// DefaultChunkInterval is how often chat mode cuts and emits a chunk.
const DefaultChunkInterval = 15 * time.Second

// AudioSource records encoded audio from a tab. Record blocks for up to d and
// returns one self-contained encoded chunk.
type AudioSource interface {
	Record(ctx context.Context, d time.Duration) ([]byte, error)
	Close() error
}

// Chunk is one emitted audio slice plus its session's mode tag.
type Chunk struct {
	Data []byte
	Mode string
}

// Worker owns the capture-session state machine. At most one session is ever
// active: starting a new session first tears down any prior one, releasing its
// audio source. Chat mode emits one chunk per interval until stopped; any other
// mode records once for the requested duration and returns to idle by itself.
type Worker struct {
	mu            sync.Mutex
	cancel        context.CancelFunc
	src           AudioSource
	done          chan struct{}
	chunkInterval time.Duration
	emit          func(Chunk)
	log           *zap.Logger
}

// NewWorker creates an idle worker. emit receives every recorded chunk.
func NewWorker(chunkInterval time.Duration, emit func(Chunk), log *zap.Logger) *Worker {
	if chunkInterval <= 0 {
		chunkInterval = DefaultChunkInterval
	}
	return &Worker{chunkInterval: chunkInterval, emit: emit, log: log}
}

// Active reports whether a capture session is running.
func (w *Worker) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// Start begins a capture session from src. Any session already running is torn
// down first; sessions are never layered. A nil source aborts the transition
// and leaves the worker idle.
func (w *Worker) Start(ctx context.Context, src AudioSource, mode string, duration time.Duration) error {
	w.Stop()

	if src == nil {
		return errs.ErrNoCaptureSource
	}

	sessCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	w.mu.Lock()
	w.cancel = cancel
	w.src = src
	w.done = done
	w.mu.Unlock()

	if mode == ModeChat {
		go w.runChat(sessCtx, src, done)
	} else {
		go w.runSingle(sessCtx, src, mode, duration, done)
	}
	return nil
}

// Stop tears down the active session, if any, and releases its audio source.
// Stopping an idle worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.cancel = nil
	w.src = nil
	w.done = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (w *Worker) runChat(ctx context.Context, src AudioSource, done chan struct{}) {
	defer close(done)
	defer src.Close()
	for {
		data, err := src.Record(ctx, w.chunkInterval)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			w.log.Warn("chat capture chunk failed", zap.Error(err))
			w.reset(done)
			return
		}
		if len(data) > 0 {
			w.emit(Chunk{Data: data, Mode: ModeChat})
		}
	}
}

func (w *Worker) runSingle(ctx context.Context, src AudioSource, mode string, duration time.Duration, done chan struct{}) {
	defer close(done)
	defer src.Close()
	data, err := src.Record(ctx, duration)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		w.log.Warn("capture failed", zap.Error(err))
		w.reset(done)
		return
	}
	if len(data) > 0 {
		w.emit(Chunk{Data: data, Mode: mode})
	}
	w.reset(done)
}

// reset returns the machine to idle after a session ends on its own.
// Only clears state if this session is still the current one.
func (w *Worker) reset(done chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == done {
		w.cancel = nil
		w.src = nil
		w.done = nil
	}
}
