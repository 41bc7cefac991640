package agent

import "testing"

func TestCandidateTabsOrderAndDedupe(t *testing.T) {
	tabs := []Tab{
		{ID: 1, URL: "https://news.example.com", Active: true},
		{ID: 2, URL: "https://www.youtube.com/watch?v=abc", Audible: true},
		{ID: 3, URL: "https://open.spotify.com", Audible: true},
		{ID: 4, URL: "https://docs.example.com"},
	}

	got := CandidateTabs(tabs, 4)
	wantIDs := []int{2, 3, 1, 4} // audible, then active, then sticky
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d candidates, want %d", len(got), len(wantIDs))
	}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("candidate[%d] = tab %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestCandidateTabsDedupesOverlap(t *testing.T) {
	tabs := []Tab{
		{ID: 1, URL: "https://www.youtube.com", Audible: true, Active: true},
	}
	got := CandidateTabs(tabs, 1) // audible + active + sticky, all the same tab
	if len(got) != 1 {
		t.Errorf("got %d candidates, want 1", len(got))
	}
}

func TestCandidateTabsExcludesUnpollable(t *testing.T) {
	tabs := []Tab{
		{ID: 1, URL: "chrome://settings", Active: true},
		{ID: 2, URL: "about:blank", Audible: true},
		{ID: 3, URL: "https://www.youtube.com", Privileged: true, Audible: true},
	}
	if got := CandidateTabs(tabs, noTab); len(got) != 0 {
		t.Errorf("got %v, want no candidates", got)
	}
}

func TestCandidateTabsStaleSticky(t *testing.T) {
	tabs := []Tab{{ID: 1, URL: "https://example.com", Active: true}}
	got := CandidateTabs(tabs, 99) // sticky tab was closed
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("got %v, want just the active tab", got)
	}
}

func TestResolveCaptureTargetRanking(t *testing.T) {
	tests := []struct {
		name   string
		cands  []CaptureCandidate
		wantID int
		wantOK bool
	}{
		{
			name: "sticky beats media site and active",
			cands: []CaptureCandidate{
				{TabID: 1, Active: true},
				{TabID: 2, MediaSite: true},
				{TabID: 3, Sticky: true},
			},
			wantID: 3, wantOK: true,
		},
		{
			name: "media site beats active",
			cands: []CaptureCandidate{
				{TabID: 1, Active: true},
				{TabID: 2, MediaSite: true},
			},
			wantID: 2, wantOK: true,
		},
		{
			name:   "active as fallback",
			cands:  []CaptureCandidate{{TabID: 1, Active: true}},
			wantID: 1, wantOK: true,
		},
		{
			name: "dashboard never wins even when sticky",
			cands: []CaptureCandidate{
				{TabID: 1, Sticky: true, Dashboard: true},
				{TabID: 2, MediaSite: true},
			},
			wantID: 2, wantOK: true,
		},
		{
			name:   "nothing eligible",
			cands:  []CaptureCandidate{{TabID: 1, Dashboard: true, Active: true}},
			wantOK: false,
		},
		{
			name:   "empty input",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ResolveCaptureTarget(tt.cands)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("tab = %d, want %d", id, tt.wantID)
			}
		})
	}
}

func TestDescribeCandidates(t *testing.T) {
	tabs := []Tab{
		{ID: 1, URL: "https://www.youtube.com/watch?v=x", Active: false},
		{ID: 2, URL: "http://localhost:5173/dashboard", Active: true},
		{ID: 3, URL: "chrome://extensions"},
	}
	got := DescribeCandidates(tabs, 1, []string{"localhost:5173"})
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2 (privileged excluded)", len(got))
	}
	if !got[0].Sticky || !got[0].MediaSite || got[0].Dashboard {
		t.Errorf("youtube tab = %+v", got[0])
	}
	if !got[1].Dashboard || !got[1].Active {
		t.Errorf("dashboard tab = %+v", got[1])
	}
}
