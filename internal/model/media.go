package model

// MediaStatus is one point-in-time media status reading produced by a tab.
// Only the most recent snapshot per user matters; older ones are superseded.
type MediaStatus struct {
	Title       string  `json:"title"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Paused      bool    `json:"paused"`
	Volume      float64 `json:"volume"`
	URL         string  `json:"url"`
	IsReady     bool    `json:"isReady"`
}

// MediaItem is a playable search result / playlist entry.
type MediaItem struct {
	Title      string  `json:"title"`
	ID         string  `json:"id"`
	Platform   string  `json:"platform"` // youtube, spotify, other
	Type       string  `json:"type"`     // video, audio
	Thumbnail  string  `json:"thumbnail,omitempty"`
	PlayURL    string  `json:"playUrl"`
	Confidence float64 `json:"confidence,omitempty"`
	Duration   string  `json:"duration,omitempty"`
}

// RoomState is the API view of a listening room.
type RoomState struct {
	ID                string   `json:"id"`
	PlaylistID        string   `json:"playlistId"`
	HostUserID        string   `json:"host"`
	Participants      []string `json:"participants"`
	CurrentMediaIndex int      `json:"currentMediaIndex"`
	PlaybackTime      float64  `json:"playbackTime"`
	IsPlaying         bool     `json:"isPlaying"`
}

// PlaylistView is the API view of a playlist with its items.
type PlaylistView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Owner string      `json:"owner"`
	Items []MediaItem `json:"mediaItems"`
}
