package errs

import "errors"

// Domain sentinel errors, mapped to HTTP codes or error events at the boundary.
var (
	// Media discovery (expected, non-fatal, surfaced as state, never logged as errors).
	ErrNoMedia    = errors.New("no media element found")
	ErrSmallFrame = errors.New("frame too small to report media")

	// Storage.
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrRoomNotFound     = errors.New("room not found")

	// Capture.
	ErrNoCaptureSource = errors.New("no valid media tab found for capture")

	// Providers.
	ErrTranscriptionFailed = errors.New("speech-to-text failed")
	ErrAnalysisFailed      = errors.New("ai analysis failed")
	ErrNoSearchResults     = errors.New("no search results")
)
