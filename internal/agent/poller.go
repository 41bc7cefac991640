package agent

import "strings"

// noTab marks an unset sticky tab id.
const noTab = -1

// CandidateTabs builds the ordered poll set for one tick: tabs producing
// audible output, then the focused tab, then the sticky last-good tab.
// Indiscriminate polling of every tab is wasteful; this three-way set keeps
// responsiveness on audible/focused tabs and continuity on the sticky one.
// Privileged and non-http tabs are excluded.
func CandidateTabs(tabs []Tab, lastGood int) []Tab {
	byID := make(map[int]Tab, len(tabs))
	for _, t := range tabs {
		byID[t.ID] = t
	}

	var ids []int
	for _, t := range tabs {
		if t.Audible {
			ids = append(ids, t.ID)
		}
	}
	for _, t := range tabs {
		if t.Active {
			ids = append(ids, t.ID)
		}
	}
	if lastGood != noTab {
		ids = append(ids, lastGood)
	}

	seen := make(map[int]struct{}, len(ids))
	var out []Tab
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		t, ok := byID[id]
		if !ok || t.Privileged || !pollable(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func pollable(t Tab) bool {
	return strings.HasPrefix(t.URL, "http://") || strings.HasPrefix(t.URL, "https://")
}
