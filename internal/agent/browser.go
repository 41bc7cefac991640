package agent

import (
	"context"

	"github.com/Sagararora90/ynme/internal/capture"
	"github.com/Sagararora90/ynme/internal/model"
)

// Tab describes one open browser tab.
type Tab struct {
	ID         int
	URL        string
	Title      string
	Audible    bool
	Active     bool
	Privileged bool // browser-internal pages; never polled or commanded
}

// Browser is the surface the agent drives. One implementation wraps the real
// browser instance; tests supply fakes.
type Browser interface {
	// Tabs lists all open tabs.
	Tabs(ctx context.Context) ([]Tab, error)
	// Frames lists frame ids for a tab, top-level frame first.
	Frames(ctx context.Context, tabID int) ([]int, error)
	// QueryStatus asks one frame for its media status. Returns
	// errs.ErrNoMedia / errs.ErrSmallFrame as the frame reports them.
	QueryStatus(ctx context.Context, tabID, frameID int) (*model.MediaStatus, error)
	// SendCommand applies a playback command in a tab. Best effort.
	SendCommand(ctx context.Context, tabID int, command string, value float64) error
	// ShowSubtitle displays translated subtitle text in a tab.
	ShowSubtitle(ctx context.Context, tabID int, text string) error
	// OpenTab opens a URL in a new foreground tab.
	OpenTab(ctx context.Context, url string) error
	// CaptureSource acquires an audio source for a tab.
	CaptureSource(ctx context.Context, tabID int) (capture.AudioSource, error)
}
