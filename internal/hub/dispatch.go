package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Sagararora90/ynme/internal/model"
	"go.uber.org/zap"
)

// DeviceStore persists device registrations.
type DeviceStore interface {
	Upsert(ctx context.Context, userID, deviceName, deviceType, connectionID string) (*model.Device, error)
	ClearConnection(ctx context.Context, connectionID string) error
}

// PlaylistStore persists playlists.
type PlaylistStore interface {
	AppendItem(ctx context.Context, playlistID string, item model.MediaItem, addedBy string) (*model.PlaylistView, error)
}

// RoomStore persists listening rooms, keyed by playlist (replace semantics).
type RoomStore interface {
	Start(ctx context.Context, playlistID, hostUserID string) (*model.RoomState, error)
}

const defaultCaptureMs = 10000

// Dispatcher applies the hub event table: every inbound event either mutates a
// store, joins a channel, or relays to a channel, or some combination.
// Recoverable failures become notification events; nothing here may terminate
// the connection.
type Dispatcher struct {
	hub       *Hub
	devices   DeviceStore
	playlists PlaylistStore
	rooms     RoomStore
	pipeline  *Pipeline
	log       *zap.Logger
}

// NewDispatcher wires the event table to its collaborators.
func NewDispatcher(h *Hub, devices DeviceStore, playlists PlaylistStore, rooms RoomStore, pipeline *Pipeline, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		hub:       h,
		devices:   devices,
		playlists: playlists,
		rooms:     rooms,
		pipeline:  pipeline,
		log:       log,
	}
}

// HandleMessage processes one inbound frame from a connection. Events on one
// connection are handled in arrival order; only the STT pipeline runs async.
func (d *Dispatcher) HandleMessage(ctx context.Context, c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.log.Debug("unparseable frame", zap.String("connection_id", c.ID), zap.Error(err))
		return
	}

	switch env.Event {
	case EventRegisterDevice:
		d.registerDevice(ctx, c, env.Data)
	case EventJoinPlaylist:
		var p JoinPlaylistPayload
		if unmarshal(d.log, env.Data, &p) {
			d.hub.Join(c, PlaylistChannel(p.PlaylistID))
		}
	case EventAddToPlaylist:
		d.addToPlaylist(ctx, c, env.Data, true)
	case EventAddMedia:
		d.addToPlaylist(ctx, c, env.Data, false)
	case EventStartRoom:
		d.startRoom(ctx, c, env.Data)
	case EventJoinRoom:
		var p JoinRoomPayload
		if unmarshal(d.log, env.Data, &p) {
			d.hub.Join(c, RoomChannel(p.RoomID))
		}
	case EventPlaybackUpdate:
		var p PlaybackUpdatePayload
		if unmarshal(d.log, env.Data, &p) {
			d.hub.BroadcastExcept(RoomChannel(p.RoomID), c, EventSyncPlayback, p.Status)
		}
	case EventPlayMedia:
		d.playMedia(c, env.Data)
	case EventRequestSTT:
		d.requestSTT(env.Data)
	case EventSTTChunk:
		d.sttChunk(ctx, env.Data)
	case EventAskAI:
		var p AskAIPayload
		if unmarshal(d.log, env.Data, &p) {
			go d.pipeline.Answer(context.WithoutCancel(ctx), d.hub, p.UserID, p.Question)
		}
	case EventChatMessage:
		var p ChatMessagePayload
		if unmarshal(d.log, env.Data, &p) {
			d.hub.Broadcast(RoomChannel(p.RoomID), EventNewMessage, NewMessagePayload{
				UserID:    p.UserID,
				Message:   p.Message,
				Email:     p.Email,
				Timestamp: time.Now(),
			})
		}
	case EventMediaCommand:
		var p MediaCommandPayload
		if unmarshal(d.log, env.Data, &p) {
			d.hub.Broadcast(UserChannel(p.UserID), EventExecuteCommand, ExecuteCommandPayload{
				Command: p.Command,
				Value:   p.Value,
			})
		}
	case EventMediaStatus:
		var p MediaStatusPayload
		if unmarshal(d.log, env.Data, &p) {
			d.hub.Broadcast(UserChannel(p.UserID), EventUpdateStatus, p.Status)
		}
	default:
		d.log.Debug("unknown event", zap.String("event", env.Event))
	}
}

// HandleDisconnect clears (not deletes) the device record for the connection.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, c *Client) {
	if err := d.devices.ClearConnection(ctx, c.ID); err != nil {
		d.log.Warn("clear device connection failed",
			zap.String("connection_id", c.ID), zap.Error(err))
	}
	d.log.Info("device disconnected", zap.String("connection_id", c.ID))
}

func (d *Dispatcher) registerDevice(ctx context.Context, c *Client, data json.RawMessage) {
	var p RegisterDevicePayload
	if !unmarshal(d.log, data, &p) {
		return
	}
	c.UserID = p.UserID
	d.hub.Join(c, UserChannel(p.UserID))
	if _, err := d.devices.Upsert(ctx, p.UserID, p.DeviceName, p.DeviceType, c.ID); err != nil {
		d.log.Warn("device upsert failed", zap.String("user_id", p.UserID), zap.Error(err))
		return
	}
	d.log.Info("device registered",
		zap.String("device_name", p.DeviceName), zap.String("user_id", p.UserID))
	d.hub.Broadcast(UserChannel(p.UserID), EventDeviceListUpdate, nil)
}

func (d *Dispatcher) addToPlaylist(ctx context.Context, c *Client, data json.RawMessage, ack bool) {
	var p AddMediaPayload
	if !unmarshal(d.log, data, &p) {
		return
	}
	view, err := d.playlists.AppendItem(ctx, p.PlaylistID, p.Media, p.UserID)
	if err != nil {
		if ack {
			d.hub.SendTo(c, EventPlaylistItemAdded, ItemAddedPayload{Success: false, Error: err.Error()})
		}
		return
	}
	d.hub.Broadcast(PlaylistChannel(p.PlaylistID), EventPlaylistUpdated, view)
	if ack {
		d.hub.SendTo(c, EventPlaylistItemAdded, ItemAddedPayload{Success: true, PlaylistName: view.Name})
	}
}

func (d *Dispatcher) startRoom(ctx context.Context, c *Client, data json.RawMessage) {
	var p StartRoomPayload
	if !unmarshal(d.log, data, &p) {
		return
	}
	room, err := d.rooms.Start(ctx, p.PlaylistID, p.UserID)
	if err != nil {
		d.log.Warn("start room failed", zap.String("playlist_id", p.PlaylistID), zap.Error(err))
		return
	}
	d.hub.Join(c, RoomChannel(room.ID))
	d.hub.Broadcast(PlaylistChannel(p.PlaylistID), EventRoomState, room)
}

func (d *Dispatcher) playMedia(c *Client, data json.RawMessage) {
	var p PlayMediaPayload
	if !unmarshal(d.log, data, &p) {
		return
	}
	if p.DeviceID != "" {
		if !d.hub.SendToConnection(p.DeviceID, EventExecutePlay, p.Media) {
			d.log.Debug("play target not connected", zap.String("device_id", p.DeviceID))
		}
		return
	}
	d.hub.Broadcast(UserChannel(p.UserID), EventExecutePlay, p.Media)
}

func (d *Dispatcher) requestSTT(data json.RawMessage) {
	var p RequestSTTPayload
	if !unmarshal(d.log, data, &p) {
		return
	}
	if p.DurationMs <= 0 {
		p.DurationMs = defaultCaptureMs
	}
	d.log.Info("stt requested",
		zap.String("user_id", p.UserID), zap.Int("duration_ms", p.DurationMs), zap.String("mode", p.Mode))
	d.hub.Broadcast(UserChannel(p.UserID), EventStartAudioCapture, StartCapturePayload{
		DurationMs: p.DurationMs,
		Mode:       p.Mode,
	})
}

func (d *Dispatcher) sttChunk(ctx context.Context, data json.RawMessage) {
	var p STTChunkPayload
	if !unmarshal(d.log, data, &p) {
		return
	}
	if p.Mode != "chat" {
		d.hub.Broadcast(UserChannel(p.UserID), EventAIProcessingStart, nil)
	}
	// Once dispatched, a provider call runs to completion: the submitting
	// connection going away (or reconnecting) must not abort it, and its
	// result still fans out to the user's surviving connections.
	go d.pipeline.Process(context.WithoutCancel(ctx), d.hub, p.UserID, p.AudioData, p.Mode)
}

func unmarshal(log *zap.Logger, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Debug("bad payload", zap.Error(err))
		return false
	}
	return true
}
