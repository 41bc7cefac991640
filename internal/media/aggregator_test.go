package media

import (
	"errors"
	"testing"

	"github.com/Sagararora90/ynme/internal/errs"
)

func video(pb *PlaybackState) *Node { return &Node{Tag: "video", Playback: pb} }
func audio(pb *PlaybackState) *Node { return &Node{Tag: "audio", Playback: pb} }

func page(host, title string, root *Node) *Page {
	return &Page{
		Title:          title,
		Host:           host,
		URL:            "https://" + host + "/page",
		Root:           root,
		TopLevel:       true,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

func TestFindMediaPriorities(t *testing.T) {
	playing := &PlaybackState{CurrentTime: 30, Paused: false, Volume: 0.8}
	pausedPB := &PlaybackState{CurrentTime: 10, Paused: true, Volume: 1}

	shadowHost := &Node{Tag: "div", ShadowRoot: &Node{Tag: "div", Children: []*Node{video(pausedPB)}}}

	tests := []struct {
		name    string
		root    *Node
		wantTag string
		wantCur float64
	}{
		{
			name: "playing element beats earlier paused video",
			root: &Node{Tag: "body", Children: []*Node{
				video(pausedPB),
				audio(playing),
			}},
			wantTag: "audio",
			wantCur: 30,
		},
		{
			name: "shadow media beats paused light video",
			root: &Node{Tag: "body", Children: []*Node{
				shadowHost,
				video(&PlaybackState{Paused: true}),
			}},
			wantTag: "video",
			wantCur: 10,
		},
		{
			name: "first video wins over audio when nothing plays",
			root: &Node{Tag: "body", Children: []*Node{
				audio(pausedPB),
				video(&PlaybackState{Paused: true, CurrentTime: 5}),
			}},
			wantTag: "video",
			wantCur: 5,
		},
		{
			name: "audio as last resort",
			root: &Node{Tag: "body", Children: []*Node{
				&Node{Tag: "div"},
				audio(pausedPB),
			}},
			wantTag: "audio",
			wantCur: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindMedia(tt.root)
			if got == nil {
				t.Fatal("FindMedia returned nil")
			}
			if got.Tag != tt.wantTag || got.Playback.CurrentTime != tt.wantCur {
				t.Errorf("got %s@%v, want %s@%v", got.Tag, got.Playback.CurrentTime, tt.wantTag, tt.wantCur)
			}
		})
	}
}

func TestFindMediaHandlesCycles(t *testing.T) {
	a := &Node{Tag: "div"}
	b := &Node{Tag: "div", Children: []*Node{a}}
	a.Children = []*Node{b, video(&PlaybackState{Paused: true})}
	if got := FindMedia(a); got == nil || got.Tag != "video" {
		t.Errorf("got %v, want the video despite the cycle", got)
	}
}

func TestQueryStatusSmallFrame(t *testing.T) {
	p := page("example.com", "x", &Node{Tag: "body", Children: []*Node{video(&PlaybackState{})}})
	p.TopLevel = false
	p.ViewportWidth = 40
	p.ViewportHeight = 40
	if _, err := QueryStatus(p); !errors.Is(err, errs.ErrSmallFrame) {
		t.Errorf("err = %v, want ErrSmallFrame", err)
	}
}

func TestQueryStatusNoMedia(t *testing.T) {
	if _, err := QueryStatus(page("example.com", "Blog", &Node{Tag: "body"})); !errors.Is(err, errs.ErrNoMedia) {
		t.Errorf("err = %v, want ErrNoMedia", err)
	}
}

func TestQueryStatusKnownSiteWithoutElement(t *testing.T) {
	st, err := QueryStatus(page("open.spotify.com", "Song • Artist - Spotify", &Node{Tag: "body"}))
	if err != nil {
		t.Fatalf("err = %v, want metadata-only status", err)
	}
	if st.IsReady {
		t.Error("isReady = true with no media element")
	}
	if st.CurrentTime != 0 || !st.Paused || st.Volume != 1 {
		t.Errorf("playback fields not zeroed: %+v", st)
	}
}

func TestQueryStatusYouTubeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"(3) Never Gonna Give You Up - YouTube", "Never Gonna Give You Up"},
		{"Lecture 1 - YouTube", "Lecture 1"},
		{"Plain title", "Plain title"},
	}
	for _, tt := range tests {
		root := &Node{Tag: "body", Children: []*Node{video(&PlaybackState{CurrentTime: 12, Volume: 0.5})}}
		st, err := QueryStatus(page("www.youtube.com", tt.title, root))
		if err != nil {
			t.Fatal(err)
		}
		if st.Title != tt.want {
			t.Errorf("title %q -> %q, want %q", tt.title, st.Title, tt.want)
		}
		if !st.IsReady || st.CurrentTime != 12 || st.Volume != 0.5 {
			t.Errorf("status = %+v", st)
		}
	}
}

func TestQueryStatusSpotifyWidget(t *testing.T) {
	root := &Node{Tag: "body", Children: []*Node{
		&Node{Tag: "a", Attrs: map[string]string{"data-testid": "context-item-link"}, Text: "Weightless"},
		&Node{Tag: "span", Attrs: map[string]string{"data-testid": "context-item-info-artist"}, Text: "Marconi Union"},
		audio(&PlaybackState{CurrentTime: 100, Duration: 480, Volume: 0.7}),
	}}
	st, err := QueryStatus(page("open.spotify.com", "Spotify", root))
	if err != nil {
		t.Fatal(err)
	}
	if st.Title != "Weightless - Marconi Union" {
		t.Errorf("title = %q", st.Title)
	}
}

func TestSpotifyDocumentTitleFallback(t *testing.T) {
	st, err := QueryStatus(page("open.spotify.com", "Spotify", &Node{Tag: "body"}))
	if err != nil {
		t.Fatal(err)
	}
	// widget absent and title carries no separator: keep it as-is
	if st.Title != "Spotify" {
		t.Errorf("title = %q", st.Title)
	}

	st2, err := QueryStatus(page("open.spotify.com", "Weightless • Marconi Union", &Node{Tag: "body"}))
	if err != nil {
		t.Fatal(err)
	}
	if st2.Title != "Weightless - Marconi Union" {
		t.Errorf("fallback title = %q, want track - artist", st2.Title)
	}
}

func TestApplyCommands(t *testing.T) {
	pb := &PlaybackState{CurrentTime: 50, Paused: true, Volume: 0.4, Rate: 1}
	p := page("example.com", "x", &Node{Tag: "body", Children: []*Node{video(pb)}})

	tests := []struct {
		command string
		value   float64
		check   func() bool
	}{
		{CommandPlay, 0, func() bool { return !pb.Paused }},
		{CommandSeekForward, 0, func() bool { return pb.CurrentTime == 60 }},
		{CommandSeekBackward, 0, func() bool { return pb.CurrentTime == 50 }},
		{CommandSeekTo, 5, func() bool { return pb.CurrentTime == 5 }},
		{CommandSeekBackward, 0, func() bool { return pb.CurrentTime == 0 }}, // clamped
		{CommandSetVolume, 0.9, func() bool { return pb.Volume == 0.9 }},
		{CommandSetSpeed, 1.5, func() bool { return pb.Rate == 1.5 }},
		{CommandPause, 0, func() bool { return pb.Paused }},
	}
	for _, tt := range tests {
		if !Apply(p, tt.command, tt.value) {
			t.Fatalf("Apply(%s) returned false", tt.command)
		}
		if !tt.check() {
			t.Errorf("%s: state = %+v", tt.command, pb)
		}
	}

	if Apply(p, "UNKNOWN", 0) {
		t.Error("unknown command reported success")
	}
	empty := page("example.com", "x", &Node{Tag: "body"})
	if Apply(empty, CommandPlay, 0) {
		t.Error("Apply on medialess page reported success")
	}
}
