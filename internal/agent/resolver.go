package agent

import "strings"

// Hosts recognized as media sources when resolving a capture target.
var mediaHosts = []string{"youtube.com", "spotify.com"}

// CaptureCandidate describes one tab considered as the audio source for a
// capture request. Built once per request so the ranking is a pure function.
type CaptureCandidate struct {
	TabID     int
	Sticky    bool // the last tab that successfully answered a status query
	Active    bool
	MediaSite bool // URL matches a known media-site host pattern
	Dashboard bool // the dashboard's own tab; never an audio source
}

// ResolveCaptureTarget ranks candidates for audio capture: the sticky
// last-good tab wins, then any known media-site tab, then the active tab.
// Dashboard tabs are excluded outright. Returns false when nothing qualifies.
func ResolveCaptureTarget(cands []CaptureCandidate) (int, bool) {
	eligible := cands[:0:0]
	for _, c := range cands {
		if !c.Dashboard {
			eligible = append(eligible, c)
		}
	}
	for _, c := range eligible {
		if c.Sticky {
			return c.TabID, true
		}
	}
	for _, c := range eligible {
		if c.MediaSite {
			return c.TabID, true
		}
	}
	for _, c := range eligible {
		if c.Active {
			return c.TabID, true
		}
	}
	return 0, false
}

// DescribeCandidates converts tabs into capture candidates.
func DescribeCandidates(tabs []Tab, lastGood int, dashboardHosts []string) []CaptureCandidate {
	out := make([]CaptureCandidate, 0, len(tabs))
	for _, t := range tabs {
		if t.Privileged || !pollable(t) {
			continue
		}
		out = append(out, CaptureCandidate{
			TabID:     t.ID,
			Sticky:    t.ID == lastGood && lastGood != noTab,
			Active:    t.Active,
			MediaSite: matchesAny(t.URL, mediaHosts),
			Dashboard: matchesAny(t.URL, dashboardHosts),
		})
	}
	return out
}

func matchesAny(url string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(url, f) {
			return true
		}
	}
	return false
}
