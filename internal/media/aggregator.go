package media

import (
	"regexp"
	"strings"

	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/model"
)

// Frames smaller than this that are not top-level are treated as ad/tracking
// iframes and never report media.
const minFrameSize = 100

// maxWalkDepth bounds the tree walk against pathological nesting.
const maxWalkDepth = 64

// FindMedia locates the most relevant playable element in a render tree:
//  1. any element currently playing past position 0,
//  2. a playing element anywhere behind shadow boundaries,
//  3. the first video regardless of play state,
//  4. the first audio.
//
// Pure: no side effects, bounded by depth and a visited set.
func FindMedia(root *Node) *Node {
	if root == nil {
		return nil
	}
	light := collectMedia(root, false)
	for _, m := range light {
		if m.Playback != nil && !m.Playback.Paused && m.Playback.CurrentTime > 0 {
			return m
		}
	}
	if shadow := firstMediaInShadow(root, 0, map[*Node]struct{}{}); shadow != nil {
		return shadow
	}
	for _, m := range light {
		if m.Tag == "video" {
			return m
		}
	}
	for _, m := range light {
		if m.Tag == "audio" {
			return m
		}
	}
	return nil
}

// collectMedia gathers media nodes in document order. crossShadow controls
// whether shadow trees are entered.
func collectMedia(root *Node, crossShadow bool) []*Node {
	var out []*Node
	var walk func(n *Node, depth int)
	visited := map[*Node]struct{}{}
	walk = func(n *Node, depth int) {
		if n == nil || depth > maxWalkDepth {
			return
		}
		if _, seen := visited[n]; seen {
			return
		}
		visited[n] = struct{}{}
		if n.IsMedia() {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
		if crossShadow && n.ShadowRoot != nil {
			walk(n.ShadowRoot, depth+1)
		}
	}
	walk(root, 0)
	return out
}

// firstMediaInShadow searches shadow trees for any media element.
func firstMediaInShadow(n *Node, depth int, visited map[*Node]struct{}) *Node {
	if n == nil || depth > maxWalkDepth {
		return nil
	}
	if _, seen := visited[n]; seen {
		return nil
	}
	visited[n] = struct{}{}
	if n.ShadowRoot != nil {
		for _, m := range collectMedia(n.ShadowRoot, true) {
			return m
		}
	}
	for _, c := range n.Children {
		if found := firstMediaInShadow(c, depth+1, visited); found != nil {
			return found
		}
	}
	return nil
}

var (
	ytCountPrefix = regexp.MustCompile(`^\(\d+\)\s`)
	ytSuffix      = regexp.MustCompile(` - YouTube$`)
)

// QueryStatus answers a point-in-time status query for a page. Read-only.
// Returns errs.ErrSmallFrame for undersized non-top frames and errs.ErrNoMedia
// when the page has no media element and is not a recognized media site.
func QueryStatus(page *Page) (*model.MediaStatus, error) {
	if page == nil {
		return nil, errs.ErrNoMedia
	}
	if !page.TopLevel && (page.ViewportWidth < minFrameSize || page.ViewportHeight < minFrameSize) {
		return nil, errs.ErrSmallFrame
	}

	m := FindMedia(page.Root)

	title := page.Title
	artist := ""
	knownMediaSite := false

	if strings.Contains(page.Host, "spotify.com") {
		knownMediaSite = true
		title, artist = spotifyNowPlaying(page)
	}
	if strings.Contains(page.Host, "youtube.com") {
		knownMediaSite = true
		title = ytSuffix.ReplaceAllString(ytCountPrefix.ReplaceAllString(title, ""), "")
	}

	if m == nil && !knownMediaSite {
		return nil, errs.ErrNoMedia
	}

	if artist != "" {
		title = title + " - " + artist
	}
	status := &model.MediaStatus{
		Title:   title,
		Volume:  1,
		Paused:  true,
		URL:     page.URL,
		IsReady: m != nil,
	}
	if m != nil && m.Playback != nil {
		status.CurrentTime = m.Playback.CurrentTime
		status.Duration = m.Playback.Duration
		status.Paused = m.Playback.Paused
		status.Volume = m.Playback.Volume
	}
	return status, nil
}

// spotifyNowPlaying extracts track and artist from the now-playing widget,
// falling back to splitting the document title on its separator.
func spotifyNowPlaying(page *Page) (title, artist string) {
	title = page.Title
	track := findByTestID(page.Root, "context-item-link", "track-info-name")
	artistNode := findByTestID(page.Root, "context-item-info-artist", "track-info-artists")
	if track != nil {
		title = track.Text
	}
	if artistNode != nil {
		artist = artistNode.Text
	}
	if track == nil {
		if parts := strings.Split(page.Title, " • "); len(parts) > 1 {
			title = parts[0]
			artist = parts[1]
		}
	}
	return title, artist
}

// findByTestID returns the first node whose data-testid matches any given id.
func findByTestID(root *Node, ids ...string) *Node {
	if root == nil {
		return nil
	}
	var found *Node
	var walk func(n *Node, depth int)
	visited := map[*Node]struct{}{}
	walk = func(n *Node, depth int) {
		if n == nil || found != nil || depth > maxWalkDepth {
			return
		}
		if _, seen := visited[n]; seen {
			return
		}
		visited[n] = struct{}{}
		got := n.Attr("data-testid")
		for _, id := range ids {
			if got == id {
				found = n
				return
			}
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
		if n.ShadowRoot != nil {
			walk(n.ShadowRoot, depth+1)
		}
	}
	walk(root, 0)
	return found
}
