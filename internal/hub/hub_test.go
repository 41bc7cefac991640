package hub

import (
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func drain(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case raw := <-c.Send:
			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestBroadcastReachesAllUserConnections(t *testing.T) {
	h := New(zap.NewNop())
	a, cleanupA := h.Register("")
	defer cleanupA()
	b, cleanupB := h.Register("")
	defer cleanupB()

	h.Join(a, UserChannel("u1"))
	h.Join(b, UserChannel("u1"))

	h.Broadcast(UserChannel("u1"), EventExecuteCommand, ExecuteCommandPayload{Command: "PLAY"})

	for name, c := range map[string]*Client{"first": a, "second": b} {
		got := drain(t, c)
		if len(got) != 1 || got[0].Event != EventExecuteCommand {
			t.Errorf("%s connection: got %v, want one execute_command", name, got)
		}
	}
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	h := New(zap.NewNop())
	sender, cleanupS := h.Register("")
	defer cleanupS()
	other, cleanupO := h.Register("")
	defer cleanupO()

	h.Join(sender, RoomChannel("r1"))
	h.Join(other, RoomChannel("r1"))

	h.BroadcastExcept(RoomChannel("r1"), sender, EventSyncPlayback, PlaybackStatus{CurrentTime: 42})

	if got := drain(t, sender); len(got) != 0 {
		t.Errorf("sender received its own playback update: %v", got)
	}
	got := drain(t, other)
	if len(got) != 1 || got[0].Event != EventSyncPlayback {
		t.Fatalf("other member: got %v, want one sync_playback", got)
	}
	var status PlaybackStatus
	if err := json.Unmarshal(got[0].Data, &status); err != nil || status.CurrentTime != 42 {
		t.Errorf("sync_playback payload = %+v, err %v", status, err)
	}
}

func TestCleanupRemovesMembership(t *testing.T) {
	h := New(zap.NewNop())
	c, cleanup := h.Register("")
	h.Join(c, PlaylistChannel("p1"))
	if n := h.MemberCount(PlaylistChannel("p1")); n != 1 {
		t.Fatalf("member count = %d, want 1", n)
	}
	cleanup()
	if n := h.MemberCount(PlaylistChannel("p1")); n != 0 {
		t.Errorf("member count after cleanup = %d, want 0", n)
	}
	if _, open := <-c.Send; open {
		t.Error("send queue still open after cleanup")
	}
}

func TestSendToUnregisteredClientIsDropped(t *testing.T) {
	h := New(zap.NewNop())
	c, cleanup := h.Register("")
	cleanup()

	// Must not panic on the closed queue.
	h.SendTo(c, EventExecutePlay, nil)
}

func TestBroadcastRacesCleanup(t *testing.T) {
	h := New(zap.NewNop())
	const rounds = 2000

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				h.Broadcast(UserChannel("u1"), EventUpdateStatus, nil)
			}
		}()
	}
	for i := 0; i < rounds; i++ {
		c, cleanup := h.Register("")
		h.Join(c, UserChannel("u1"))
		cleanup()
	}
	wg.Wait()
}

func TestSendToConnection(t *testing.T) {
	h := New(zap.NewNop())
	c, cleanup := h.Register("")
	defer cleanup()

	if !h.SendToConnection(c.ID, EventExecutePlay, nil) {
		t.Fatal("SendToConnection returned false for a live connection")
	}
	if h.SendToConnection("missing", EventExecutePlay, nil) {
		t.Error("SendToConnection returned true for an unknown connection")
	}
	if got := drain(t, c); len(got) != 1 || got[0].Event != EventExecutePlay {
		t.Errorf("got %v, want one execute_play", got)
	}
}
