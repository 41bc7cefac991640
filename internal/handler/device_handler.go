package handler

import (
	"errors"
	"net/http"

	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/service"
	"github.com/gin-gonic/gin"
)

// DeviceHandler handles REST queries for registered devices and playlists.
type DeviceHandler struct {
	devices   *service.DeviceService
	playlists *service.PlaylistService
	rooms     *service.RoomService
}

// NewDeviceHandler creates a device handler.
func NewDeviceHandler(devices *service.DeviceService, playlists *service.PlaylistService, rooms *service.RoomService) *DeviceHandler {
	return &DeviceHandler{devices: devices, playlists: playlists, rooms: rooms}
}

// ListDevices godoc
// GET /api/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	userID := c.GetString("user_id")
	devices, err := h.devices.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list devices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

// GetPlaylist godoc
// GET /api/playlists/:id
func (h *DeviceHandler) GetPlaylist(c *gin.Context) {
	view, err := h.playlists.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrPlaylistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "playlist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load playlist"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetRoom godoc
// GET /api/playlists/:id/room
func (h *DeviceHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active room"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
		return
	}
	c.JSON(http.StatusOK, room)
}
