package media

// PlaybackState is the live state of one playable element.
type PlaybackState struct {
	CurrentTime float64
	Duration    float64
	Paused      bool
	Volume      float64
	Rate        float64
}

// Node is a handle to one element in a page's render tree. A node may own a
// shadow tree in addition to its regular children.
type Node struct {
	Tag        string
	Attrs      map[string]string
	Text       string
	Children   []*Node
	ShadowRoot *Node
	Playback   *PlaybackState // non-nil for video/audio elements
}

// Attr returns the value of an attribute, or "".
func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// IsMedia reports whether the node is a playable element.
func (n *Node) IsMedia() bool {
	return n.Tag == "video" || n.Tag == "audio"
}

// Page is one frame's view of a document.
type Page struct {
	Title          string
	Host           string
	URL            string
	Root           *Node
	TopLevel       bool
	ViewportWidth  int
	ViewportHeight int
}
