package media

// Playback commands relayed from the hub to tabs.
const (
	CommandPlay         = "PLAY"
	CommandPause        = "PAUSE"
	CommandSeekForward  = "SEEK_FORWARD"
	CommandSeekBackward = "SEEK_BACKWARD"
	CommandSeekTo       = "SEEK_TO"
	CommandSetVolume    = "SET_VOLUME"
	CommandSetSpeed     = "SET_SPEED"
)

const seekStep = 10 // seconds

// Apply executes a playback command against the page's media element.
// Best effort and idempotent: returns false when no media element exists,
// true once the mutation was applied. No acknowledgement beyond that.
func Apply(page *Page, command string, value float64) bool {
	if page == nil {
		return false
	}
	m := FindMedia(page.Root)
	if m == nil || m.Playback == nil {
		return false
	}
	pb := m.Playback
	switch command {
	case CommandPlay:
		pb.Paused = false
	case CommandPause:
		pb.Paused = true
	case CommandSeekForward:
		pb.CurrentTime += seekStep
	case CommandSeekBackward:
		pb.CurrentTime -= seekStep
		if pb.CurrentTime < 0 {
			pb.CurrentTime = 0
		}
	case CommandSeekTo:
		pb.CurrentTime = value
	case CommandSetVolume:
		pb.Volume = value
	case CommandSetSpeed:
		pb.Rate = value
	default:
		return false
	}
	return true
}
