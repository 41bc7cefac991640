package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Sagararora90/ynme/internal/capture"
	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/media"
	"github.com/Sagararora90/ynme/internal/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// CDPBrowser drives a browser over its DevTools endpoint. Tab audio capture is
// not reachable over this transport; capture chunks arrive through the local
// AUDIO_CHUNK surface instead.
type CDPBrowser struct {
	base string
	hc   *http.Client
	log  *zap.Logger

	mu     sync.Mutex
	ids    map[string]int // devtools target id -> stable tab id
	byID   map[int]cdpTarget
	nextID int
}

type cdpTarget struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	WSDebug  string `json:"webSocketDebuggerUrl"`
	assigned int
}

// NewCDPBrowser creates a browser backend for a DevTools base URL
// (e.g. http://127.0.0.1:9222).
func NewCDPBrowser(baseURL string, log *zap.Logger) *CDPBrowser {
	return &CDPBrowser{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 5 * time.Second},
		ids:  make(map[string]int),
		byID: make(map[int]cdpTarget),
		log:  log,
	}
}

// Tabs lists page targets. DevTools orders targets most recently focused
// first, which stands in for the active flag; audibility is not exposed over
// this transport.
func (b *CDPBrowser) Tabs(ctx context.Context) ([]Tab, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.base+"/json/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("devtools list: %w", err)
	}
	defer resp.Body.Close()

	var targets []cdpTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("devtools list: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tabs := make([]Tab, 0, len(targets))
	first := true
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		id, ok := b.ids[t.ID]
		if !ok {
			b.nextID++
			id = b.nextID
			b.ids[t.ID] = id
		}
		t.assigned = id
		b.byID[id] = t
		tabs = append(tabs, Tab{
			ID:         id,
			URL:        t.URL,
			Title:      t.Title,
			Active:     first,
			Privileged: !strings.HasPrefix(t.URL, "http"),
		})
		first = false
	}
	return tabs, nil
}

// Frames reports only the top-level frame; cross-origin frame inspection is
// not wired over this transport.
func (b *CDPBrowser) Frames(ctx context.Context, tabID int) ([]int, error) {
	return []int{0}, nil
}

// pageSnapshotJS serializes the parts of a document the status aggregator
// inspects: media elements (descending open shadow roots) and now-playing
// widget nodes.
const pageSnapshotJS = `(function(){
  function pb(m){return {currentTime:m.currentTime||0,duration:isFinite(m.duration)?m.duration:0,paused:m.paused,volume:m.volume,rate:m.playbackRate||1};}
  var nodes=[];
  function walk(el,inShadow){
    if(!el||nodes.length>256)return;
    var tag=el.tagName?el.tagName.toLowerCase():'';
    if(tag==='video'||tag==='audio'){nodes.push({tag:tag,shadow:inShadow,playback:pb(el)});}
    var tid=el.getAttribute&&el.getAttribute('data-testid');
    if(tid){nodes.push({tag:tag,testid:tid,text:(el.textContent||'').slice(0,200),shadow:inShadow});}
    if(el.shadowRoot){var sc=el.shadowRoot.children;for(var i=0;i<sc.length;i++)walk(sc[i],true);}
    var c=el.children;if(c){for(var j=0;j<c.length;j++)walk(c[j],inShadow);}
  }
  walk(document.documentElement,false);
  return JSON.stringify({title:document.title,host:location.hostname,url:location.href,w:innerWidth,h:innerHeight,nodes:nodes});
})()`

type wireSnapshot struct {
	Title string     `json:"title"`
	Host  string     `json:"host"`
	URL   string     `json:"url"`
	W     int        `json:"w"`
	H     int        `json:"h"`
	Nodes []wireNode `json:"nodes"`
}

type wireNode struct {
	Tag      string `json:"tag"`
	TestID   string `json:"testid"`
	Text     string `json:"text"`
	Shadow   bool   `json:"shadow"`
	Playback *struct {
		CurrentTime float64 `json:"currentTime"`
		Duration    float64 `json:"duration"`
		Paused      bool    `json:"paused"`
		Volume      float64 `json:"volume"`
		Rate        float64 `json:"rate"`
	} `json:"playback"`
}

// QueryStatus snapshots the tab's document and runs the status aggregator
// over it.
func (b *CDPBrowser) QueryStatus(ctx context.Context, tabID, frameID int) (*model.MediaStatus, error) {
	raw, err := b.evaluate(ctx, tabID, pageSnapshotJS)
	if err != nil {
		return nil, err
	}
	var snap wireSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("snapshot decode: %w", err)
	}
	return media.QueryStatus(snapshotToPage(&snap))
}

func snapshotToPage(snap *wireSnapshot) *media.Page {
	root := &media.Node{Tag: "body"}
	for _, wn := range snap.Nodes {
		n := &media.Node{Tag: wn.Tag, Text: wn.Text}
		if wn.TestID != "" {
			n.Attrs = map[string]string{"data-testid": wn.TestID}
		}
		if wn.Playback != nil {
			n.Playback = &media.PlaybackState{
				CurrentTime: wn.Playback.CurrentTime,
				Duration:    wn.Playback.Duration,
				Paused:      wn.Playback.Paused,
				Volume:      wn.Playback.Volume,
				Rate:        wn.Playback.Rate,
			}
		}
		if wn.Shadow {
			root.Children = append(root.Children, &media.Node{
				Tag:        "div",
				ShadowRoot: &media.Node{Tag: "div", Children: []*media.Node{n}},
			})
		} else {
			root.Children = append(root.Children, n)
		}
	}
	return &media.Page{
		Title:          snap.Title,
		Host:           snap.Host,
		URL:            snap.URL,
		Root:           root,
		TopLevel:       true,
		ViewportWidth:  snap.W,
		ViewportHeight: snap.H,
	}
}

// SendCommand applies a playback command to the tab's first media element.
func (b *CDPBrowser) SendCommand(ctx context.Context, tabID int, command string, value float64) error {
	var body string
	switch command {
	case media.CommandPlay:
		body = "m.play()"
	case media.CommandPause:
		body = "m.pause()"
	case media.CommandSeekForward:
		body = "m.currentTime+=10"
	case media.CommandSeekBackward:
		body = "m.currentTime-=10"
	case media.CommandSeekTo:
		body = fmt.Sprintf("m.currentTime=%g", value)
	case media.CommandSetVolume:
		body = fmt.Sprintf("m.volume=%g", value)
	case media.CommandSetSpeed:
		body = fmt.Sprintf("m.playbackRate=%g", value)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	expr := "(function(){var m=document.querySelector('video,audio');if(m){" + body + ";}})()"
	_, err := b.evaluate(ctx, tabID, expr)
	return err
}

// ShowSubtitle renders translated text in a fixed overlay inside the tab.
func (b *CDPBrowser) ShowSubtitle(ctx context.Context, tabID int, text string) error {
	quoted, err := json.Marshal(text)
	if err != nil {
		return err
	}
	expr := `(function(t){
	  var el=document.getElementById('ynme-subtitle');
	  if(!el){el=document.createElement('div');el.id='ynme-subtitle';
	    el.style.cssText='position:fixed;bottom:8%;left:50%;transform:translateX(-50%);z-index:2147483647;background:rgba(0,0,0,.75);color:#fff;padding:6px 14px;border-radius:6px;font-size:20px;max-width:80%;text-align:center;';
	    document.body.appendChild(el);}
	  el.textContent=t;
	})(` + string(quoted) + `)`
	_, err = b.evaluate(ctx, tabID, expr)
	return err
}

// OpenTab opens a URL in a new foreground tab.
func (b *CDPBrowser) OpenTab(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.base+"/json/new?"+url, nil)
	if err != nil {
		return err
	}
	resp, err := b.hc.Do(req)
	if err != nil {
		return fmt.Errorf("devtools open tab: %w", err)
	}
	resp.Body.Close()
	return nil
}

// CaptureSource is unsupported over DevTools; audio arrives through the local
// AUDIO_CHUNK surface instead.
func (b *CDPBrowser) CaptureSource(ctx context.Context, tabID int) (capture.AudioSource, error) {
	return nil, fmt.Errorf("devtools transport: %w", errs.ErrNoCaptureSource)
}

type cdpRequest struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type cdpResponse struct {
	ID     int `json:"id"`
	Result struct {
		Result struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// evaluate runs one expression in the tab's page context and returns the
// string value it produced.
func (b *CDPBrowser) evaluate(ctx context.Context, tabID int, expression string) (string, error) {
	b.mu.Lock()
	target, ok := b.byID[tabID]
	b.mu.Unlock()
	if !ok || target.WSDebug == "" {
		return "", fmt.Errorf("tab %d: no devtools target", tabID)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target.WSDebug, nil)
	if err != nil {
		return "", fmt.Errorf("devtools dial: %w", err)
	}
	defer conn.Close()

	req := cdpRequest{
		ID:     1,
		Method: "Runtime.evaluate",
		Params: map[string]any{"expression": expression, "returnByValue": true},
	}
	if err := conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("devtools write: %w", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	for {
		var resp cdpResponse
		if err := conn.ReadJSON(&resp); err != nil {
			return "", fmt.Errorf("devtools read: %w", err)
		}
		if resp.ID != req.ID {
			continue // event frame, not our reply
		}
		if resp.Error != nil {
			return "", fmt.Errorf("devtools evaluate: %s", resp.Error.Message)
		}
		var value string
		if len(resp.Result.Result.Value) > 0 {
			_ = json.Unmarshal(resp.Result.Result.Value, &value)
		}
		return value, nil
	}
}
