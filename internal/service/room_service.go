package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoomService manages listening rooms. One room is the latest authoritative
// state per playlist; starting a room for a playlist that already has one
// replaces it. Last writer wins: no leader election, no version check.
type RoomService struct {
	db    *gorm.DB
	cache *RoomCache
	log   *zap.Logger
}

// NewRoomService creates a room service. cache may be nil.
func NewRoomService(db *gorm.DB, cache *RoomCache, log *zap.Logger) *RoomService {
	return &RoomService{db: db, cache: cache, log: log}
}

// Start upserts the room for a playlist with the caller as host and sole
// participant, playback reset.
func (s *RoomService) Start(ctx context.Context, playlistID, hostUserID string) (*model.RoomState, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Where("playlist_id = ?", playlistID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		room = model.Room{
			PlaylistID:   playlistID,
			HostUserID:   hostUserID,
			Participants: hostUserID,
		}
		if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	} else {
		updates := map[string]interface{}{
			"host_user_id":        hostUserID,
			"participants":        hostUserID,
			"current_media_index": 0,
			"playback_time":       0.0,
			"is_playing":          false,
		}
		if err := s.db.WithContext(ctx).Model(&room).Updates(updates).Error; err != nil {
			return nil, err
		}
		room.HostUserID = hostUserID
		room.Participants = hostUserID
		room.CurrentMediaIndex = 0
		room.PlaybackTime = 0
		room.IsPlaying = false
	}

	state := roomToState(&room)
	if err := s.cache.Set(ctx, state); err != nil {
		s.log.Warn("room cache write failed", zap.String("playlist_id", playlistID), zap.Error(err))
	}
	return state, nil
}

// Get returns the room state for a playlist, preferring the cache.
func (s *RoomService) Get(ctx context.Context, playlistID string) (*model.RoomState, error) {
	if cached, err := s.cache.Get(ctx, playlistID); err == nil && cached != nil {
		return cached, nil
	}
	var room model.Room
	err := s.db.WithContext(ctx).Where("playlist_id = ?", playlistID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return roomToState(&room), nil
}

func roomToState(room *model.Room) *model.RoomState {
	var participants []string
	if room.Participants != "" {
		participants = strings.Split(room.Participants, ",")
	}
	return &model.RoomState{
		ID:                room.ID,
		PlaylistID:        room.PlaylistID,
		HostUserID:        room.HostUserID,
		Participants:      participants,
		CurrentMediaIndex: room.CurrentMediaIndex,
		PlaybackTime:      room.PlaybackTime,
		IsPlaying:         room.IsPlaying,
	}
}
