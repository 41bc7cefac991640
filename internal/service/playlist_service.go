package service

import (
	"context"
	"errors"

	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/model"
	"gorm.io/gorm"
)

// PlaylistService manages collaborative playlists.
type PlaylistService struct {
	db *gorm.DB
}

// NewPlaylistService creates a playlist service.
func NewPlaylistService(db *gorm.DB) *PlaylistService {
	return &PlaylistService{db: db}
}

// AppendItem appends a media item to the playlist and returns the updated view.
// Read-modify-write: concurrent appends race and the last write's append wins.
func (s *PlaylistService) AppendItem(ctx context.Context, playlistID string, item model.MediaItem, addedBy string) (*model.PlaylistView, error) {
	var pl model.Playlist
	err := s.db.WithContext(ctx).Preload("Items").Where("id = ?", playlistID).First(&pl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}

	row := model.PlaylistItem{
		PlaylistID: playlistID,
		Title:      item.Title,
		URL:        item.PlayURL,
		Platform:   item.Platform,
		AddedBy:    addedBy,
		Position:   len(pl.Items),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	pl.Items = append(pl.Items, row)
	return playlistToView(&pl), nil
}

// Get returns the playlist with its items.
func (s *PlaylistService) Get(ctx context.Context, playlistID string) (*model.PlaylistView, error) {
	var pl model.Playlist
	err := s.db.WithContext(ctx).Preload("Items").Where("id = ?", playlistID).First(&pl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}
	return playlistToView(&pl), nil
}

func playlistToView(pl *model.Playlist) *model.PlaylistView {
	view := &model.PlaylistView{
		ID:    pl.ID,
		Name:  pl.Name,
		Owner: pl.OwnerID,
		Items: make([]model.MediaItem, 0, len(pl.Items)),
	}
	for _, it := range pl.Items {
		view.Items = append(view.Items, model.MediaItem{
			Title:    it.Title,
			PlayURL:  it.URL,
			Platform: it.Platform,
		})
	}
	return view
}
