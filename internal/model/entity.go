package model

import "time"

// Device is a registered playback device for a user (GORM).
// Unique per (user_id, device_name); connection_id is cleared, not deleted, on disconnect.
type Device struct {
	ID           string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       string    `gorm:"size:64;not null;index:idx_devices_user_name,unique"`
	DeviceName   string    `gorm:"size:128;not null;index:idx_devices_user_name,unique"`
	DeviceType   string    `gorm:"size:32;not null;default:browser"`
	ConnectionID string    `gorm:"size:64;index"`
	LastSeen     time.Time `gorm:"column:last_seen;not null"`
}

func (Device) TableName() string { return "devices" }

// Playlist is a collaborative playlist (GORM).
type Playlist struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"size:255;not null"`
	OwnerID   string    `gorm:"size:64;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Items []PlaylistItem `gorm:"foreignKey:PlaylistID"`
}

func (Playlist) TableName() string { return "playlists" }

// PlaylistItem is one media entry in a playlist (GORM).
type PlaylistItem struct {
	ID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PlaylistID string `gorm:"type:uuid;not null;index"`
	Title      string `gorm:"size:512;not null"`
	URL        string `gorm:"size:1024;not null"`
	Platform   string `gorm:"size:32;not null;default:other"` // youtube, spotify, other
	AddedBy    string `gorm:"size:64"`
	Position   int    `gorm:"not null;default:0"`
}

func (PlaylistItem) TableName() string { return "playlist_items" }

// Room is the latest authoritative listening-room state per playlist (GORM).
// Upsert-by-playlist semantics: starting a room for a playlist replaces any prior one.
type Room struct {
	ID                string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PlaylistID        string    `gorm:"type:uuid;not null;uniqueIndex"`
	HostUserID        string    `gorm:"size:64;not null"`
	Participants      string    `gorm:"type:text;not null;default:''"` // comma-joined user ids
	CurrentMediaIndex int       `gorm:"not null;default:0"`
	PlaybackTime      float64   `gorm:"not null;default:0"`
	IsPlaying         bool      `gorm:"not null;default:false"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (Room) TableName() string { return "rooms" }
