package hub

import (
	"encoding/json"
	"time"

	"github.com/Sagararora90/ynme/internal/model"
)

// Inbound event names (client → hub).
const (
	EventRegisterDevice = "register_device"
	EventJoinPlaylist   = "join_playlist"
	EventAddToPlaylist  = "add_to_playlist"
	EventAddMedia       = "add_media"
	EventStartRoom      = "start_room"
	EventJoinRoom       = "join_room"
	EventPlaybackUpdate = "playback_update"
	EventPlayMedia      = "play_media"
	EventRequestSTT     = "request_stt"
	EventSTTChunk       = "stt_chunk"
	EventAskAI          = "ask_ai"
	EventChatMessage    = "chat_message"
	EventMediaCommand   = "media_command"
	EventMediaStatus    = "media_status"
)

// Outbound event names (hub → clients).
const (
	EventDeviceListUpdate     = "device_list_update"
	EventPlaylistUpdated      = "playlist_updated"
	EventPlaylistItemAdded    = "playlist_item_added"
	EventRoomState            = "room_state"
	EventSyncPlayback         = "sync_playback"
	EventExecutePlay          = "execute_play"
	EventExecuteCommand       = "execute_command"
	EventStartAudioCapture    = "start_audio_capture"
	EventAIProcessingStart    = "ai_processing_start"
	EventChatTranscriptUpdate = "chat_transcript_update"
	EventAIAnalysisComplete   = "ai_analysis_complete"
	EventSubtitleUpdate       = "subtitle_update"
	EventAIChatResponse       = "ai_chat_response"
	EventAIAnalysisError      = "ai_analysis_error"
	EventNewMessage           = "new_message"
	EventUpdateStatus         = "update_status"
)

// Envelope is the wire frame for every bus message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Marshal frames an event and payload for the wire.
func Marshal(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// RegisterDevicePayload is the register_device payload.
type RegisterDevicePayload struct {
	UserID     string `json:"userId"`
	DeviceName string `json:"deviceName"`
	DeviceType string `json:"deviceType"`
}

// JoinPlaylistPayload is the join_playlist payload.
type JoinPlaylistPayload struct {
	PlaylistID string `json:"playlistId"`
}

// AddMediaPayload is the add_media / add_to_playlist payload.
type AddMediaPayload struct {
	UserID     string          `json:"userId"`
	PlaylistID string          `json:"playlistId"`
	Media      model.MediaItem `json:"media"`
}

// ItemAddedPayload is the playlist_item_added ack to the sender.
type ItemAddedPayload struct {
	Success      bool   `json:"success"`
	PlaylistName string `json:"playlistName,omitempty"`
	Error        string `json:"error,omitempty"`
}

// StartRoomPayload is the start_room payload.
type StartRoomPayload struct {
	PlaylistID string `json:"playlistId"`
	UserID     string `json:"userId"`
}

// JoinRoomPayload is the join_room payload.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// PlaybackStatus is the synced subset of playback state inside a room.
type PlaybackStatus struct {
	CurrentTime float64 `json:"currentTime"`
	Paused      bool    `json:"paused"`
}

// PlaybackUpdatePayload is the playback_update payload.
type PlaybackUpdatePayload struct {
	RoomID string         `json:"roomId"`
	Status PlaybackStatus `json:"status"`
}

// PlayMediaPayload is the play_media payload.
type PlayMediaPayload struct {
	UserID   string          `json:"userId"`
	DeviceID string          `json:"deviceId,omitempty"`
	Media    model.MediaItem `json:"media"`
}

// RequestSTTPayload is the request_stt payload.
type RequestSTTPayload struct {
	UserID     string `json:"userId"`
	DurationMs int    `json:"duration"`
	Mode       string `json:"mode"`
}

// StartCapturePayload is the start_audio_capture command to the agent.
type StartCapturePayload struct {
	DurationMs int    `json:"duration"`
	Mode       string `json:"mode"`
}

// STTChunkPayload is the stt_chunk pipeline entry.
type STTChunkPayload struct {
	UserID    string `json:"userId"`
	AudioData string `json:"audioData"` // data URL, base64 encoded audio
	Mode      string `json:"mode"`
}

// AskAIPayload is the ask_ai payload.
type AskAIPayload struct {
	UserID   string `json:"userId"`
	Question string `json:"question"`
}

// ChatMessagePayload is the chat_message payload.
type ChatMessagePayload struct {
	RoomID  string `json:"roomId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// NewMessagePayload is the new_message fan-out to the room.
type NewMessagePayload struct {
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// MediaCommandPayload is the media_command payload.
type MediaCommandPayload struct {
	UserID  string  `json:"userId"`
	Command string  `json:"command"`
	Value   float64 `json:"value,omitempty"`
}

// ExecuteCommandPayload is the execute_command fan-out to the user's devices.
type ExecuteCommandPayload struct {
	Command string  `json:"command"`
	Value   float64 `json:"value,omitempty"`
}

// MediaStatusPayload is the media_status payload.
type MediaStatusPayload struct {
	UserID string            `json:"userId"`
	Status model.MediaStatus `json:"status"`
}

// TranscriptUpdatePayload is the chat_transcript_update payload.
type TranscriptUpdatePayload struct {
	Text    string            `json:"text"`
	History []TranscriptEntry `json:"history"`
}

// AnalysisCompletePayload is the ai_analysis_complete payload.
type AnalysisCompletePayload struct {
	Analysis           string `json:"analysis"`
	OriginalAnalysis   string `json:"originalAnalysis"`
	Transcript         string `json:"transcript"`
	OriginalTranscript string `json:"originalTranscript"`
}

// SubtitlePayload is the subtitle_update payload.
type SubtitlePayload struct {
	Text string `json:"text"`
}

// ChatResponsePayload is the ai_chat_response payload.
type ChatResponsePayload struct {
	Answer string `json:"answer"`
}

// AnalysisErrorPayload is the ai_analysis_error payload.
type AnalysisErrorPayload struct {
	Message string `json:"message"`
}
