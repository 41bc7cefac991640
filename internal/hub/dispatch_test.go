package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Sagararora90/ynme/internal/model"
	"go.uber.org/zap"
)

type fakeDevices struct {
	upserts []string // userID/deviceName pairs, joined
	cleared []string
}

func (f *fakeDevices) Upsert(_ context.Context, userID, deviceName, deviceType, connectionID string) (*model.Device, error) {
	f.upserts = append(f.upserts, userID+"/"+deviceName)
	return &model.Device{UserID: userID, DeviceName: deviceName}, nil
}

func (f *fakeDevices) ClearConnection(_ context.Context, connectionID string) error {
	f.cleared = append(f.cleared, connectionID)
	return nil
}

type fakePlaylists struct{ appended int }

func (f *fakePlaylists) AppendItem(_ context.Context, playlistID string, item model.MediaItem, addedBy string) (*model.PlaylistView, error) {
	f.appended++
	return &model.PlaylistView{ID: playlistID, Name: "Liked", Items: []model.MediaItem{item}}, nil
}

type fakeRooms struct{ started []string }

func (f *fakeRooms) Start(_ context.Context, playlistID, hostUserID string) (*model.RoomState, error) {
	f.started = append(f.started, playlistID)
	return &model.RoomState{ID: "room-1", PlaylistID: playlistID, HostUserID: hostUserID}, nil
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := Marshal(event, data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *Hub, *fakeDevices) {
	t.Helper()
	h := New(zap.NewNop())
	devices := &fakeDevices{}
	d := NewDispatcher(h, devices, &fakePlaylists{}, &fakeRooms{}, nil, zap.NewNop())
	return d, h, devices
}

func TestRegisterDeviceIsIdempotent(t *testing.T) {
	d, h, devices := newTestDispatcher(t)
	c, cleanup := h.Register("")
	defer cleanup()

	payload := RegisterDevicePayload{UserID: "u1", DeviceName: "Chrome Extension", DeviceType: "browser"}
	d.HandleMessage(context.Background(), c, frame(t, EventRegisterDevice, payload))
	d.HandleMessage(context.Background(), c, frame(t, EventRegisterDevice, payload))

	if len(devices.upserts) != 2 || devices.upserts[0] != "u1/Chrome Extension" {
		t.Errorf("upserts = %v, want two identical upserts", devices.upserts)
	}
	if c.UserID != "u1" {
		t.Errorf("client user id = %q, want u1", c.UserID)
	}
	if n := h.MemberCount(UserChannel("u1")); n != 1 {
		t.Errorf("user channel members = %d, want 1 (no duplicate join)", n)
	}
	// both registrations broadcast a device list refresh
	got := drain(t, c)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2 device_list_update", len(got))
	}
	for _, env := range got {
		if env.Event != EventDeviceListUpdate {
			t.Errorf("event = %q, want device_list_update", env.Event)
		}
	}
}

func TestPlaybackUpdateExcludesSender(t *testing.T) {
	d, h, _ := newTestDispatcher(t)
	sender, cleanupS := h.Register("")
	defer cleanupS()
	viewer, cleanupV := h.Register("")
	defer cleanupV()
	h.Join(sender, RoomChannel("room-1"))
	h.Join(viewer, RoomChannel("room-1"))

	d.HandleMessage(context.Background(), sender, frame(t, EventPlaybackUpdate, PlaybackUpdatePayload{
		RoomID: "room-1",
		Status: PlaybackStatus{CurrentTime: 12.5},
	}))

	if got := drain(t, sender); len(got) != 0 {
		t.Errorf("sender got %v, want nothing", got)
	}
	got := drain(t, viewer)
	if len(got) != 1 || got[0].Event != EventSyncPlayback {
		t.Fatalf("viewer got %v, want one sync_playback", got)
	}
}

func TestChatMessageReachesWholeRoom(t *testing.T) {
	d, h, _ := newTestDispatcher(t)
	sender, cleanupS := h.Register("")
	defer cleanupS()
	other, cleanupO := h.Register("")
	defer cleanupO()
	h.Join(sender, RoomChannel("room-1"))
	h.Join(other, RoomChannel("room-1"))

	d.HandleMessage(context.Background(), sender, frame(t, EventChatMessage, ChatMessagePayload{
		RoomID: "room-1", UserID: "u1", Message: "hello", Email: "u1@example.com",
	}))

	for name, c := range map[string]*Client{"sender": sender, "other": other} {
		got := drain(t, c)
		if len(got) != 1 || got[0].Event != EventNewMessage {
			t.Fatalf("%s got %v, want one new_message", name, got)
		}
		var msg NewMessagePayload
		if err := json.Unmarshal(got[0].Data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Message != "hello" || msg.Timestamp.IsZero() {
			t.Errorf("%s payload = %+v", name, msg)
		}
	}
}

func TestMediaCommandRelaysToUserDevices(t *testing.T) {
	d, h, _ := newTestDispatcher(t)
	device, cleanup := h.Register("")
	defer cleanup()
	h.Join(device, UserChannel("u1"))

	d.HandleMessage(context.Background(), device, frame(t, EventMediaCommand, MediaCommandPayload{
		UserID: "u1", Command: "SEEK_TO", Value: 90,
	}))

	got := drain(t, device)
	if len(got) != 1 || got[0].Event != EventExecuteCommand {
		t.Fatalf("got %v, want one execute_command", got)
	}
	var cmd ExecuteCommandPayload
	if err := json.Unmarshal(got[0].Data, &cmd); err != nil {
		t.Fatal(err)
	}
	if cmd.Command != "SEEK_TO" || cmd.Value != 90 {
		t.Errorf("command payload = %+v", cmd)
	}
}

func TestPlayMediaTargetsDeviceConnection(t *testing.T) {
	d, h, _ := newTestDispatcher(t)
	target, cleanupT := h.Register("")
	defer cleanupT()
	other, cleanupO := h.Register("")
	defer cleanupO()
	h.Join(target, UserChannel("u1"))
	h.Join(other, UserChannel("u1"))

	d.HandleMessage(context.Background(), other, frame(t, EventPlayMedia, PlayMediaPayload{
		UserID:   "u1",
		DeviceID: target.ID,
		Media:    model.MediaItem{Title: "Believer", PlayURL: "https://www.youtube.com/watch?v=x"},
	}))

	if got := drain(t, other); len(got) != 0 {
		t.Errorf("non-target device got %v", got)
	}
	got := drain(t, target)
	if len(got) != 1 || got[0].Event != EventExecutePlay {
		t.Fatalf("target got %v, want one execute_play", got)
	}
}

// blockingSTT holds a transcription in flight until released, reporting
// whether its context was cancelled in the meantime.
type blockingSTT struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSTT) Transcribe(ctx context.Context, _ []byte) (string, error) {
	close(s.started)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.release:
		return "the lecture moved on to information theory", nil
	}
}

func TestSTTChunkOutlivesSubmittingConnection(t *testing.T) {
	h := New(zap.NewNop())
	stt := &blockingSTT{started: make(chan struct{}), release: make(chan struct{})}
	pipe := NewPipeline(stt, &fakeAnalyzer{}, &fakeTranslator{}, NewAccumulator(0, 0), "Hindi", zap.NewNop())
	d := NewDispatcher(h, &fakeDevices{}, &fakePlaylists{}, &fakeRooms{}, pipe, zap.NewNop())

	listener, cleanupL := h.Register("")
	defer cleanupL()
	h.Join(listener, UserChannel("u1"))

	sender, cleanupS := h.Register("")
	ctx, cancel := context.WithCancel(context.Background())
	d.HandleMessage(ctx, sender, frame(t, EventSTTChunk, STTChunkPayload{
		UserID: "u1", AudioData: chunk("audio"), Mode: "chat",
	}))

	// The submitting connection disconnects mid-transcription.
	<-stt.started
	cancel()
	cleanupS()
	close(stt.release)

	select {
	case raw := <-listener.Send:
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatal(err)
		}
		if env.Event != EventChatTranscriptUpdate {
			t.Fatalf("event = %q, want chat_transcript_update", env.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("transcription result never reached the surviving connection")
	}
}

func TestDisconnectClearsDeviceConnection(t *testing.T) {
	d, h, devices := newTestDispatcher(t)
	c, cleanup := h.Register("")
	defer cleanup()

	d.HandleDisconnect(context.Background(), c)

	if len(devices.cleared) != 1 || devices.cleared[0] != c.ID {
		t.Errorf("cleared = %v, want [%s]", devices.cleared, c.ID)
	}
}
