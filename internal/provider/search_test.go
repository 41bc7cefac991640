package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sagararora90/ynme/internal/errs"
	"go.uber.org/zap"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		name  string
		title string
		query string
		want  float64
	}{
		{"full containment", "Imagine Dragons - Believer (Official Video)", "believer", 0.95},
		{"case insensitive", "BELIEVER", "Believer", 0.95},
		{"partial word match", "Imagine Dragons - Thunder", "imagine dragons believer", 2.0 / 3.0},
		{"no significant words", "anything", "a of", 0},
		{"no overlap", "Thunder", "weightless marconi", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confidence(tt.title, tt.query); got != tt.want {
				t.Errorf("Confidence(%q, %q) = %v, want %v", tt.title, tt.query, got, tt.want)
			}
		})
	}
}

func ytFixture(titles map[string][]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		var items []map[string]any
		for i, title := range titles[q] {
			items = append(items, map[string]any{
				"id":      map[string]any{"videoId": q + "-vid" + string(rune('0'+i))},
				"snippet": map[string]any{"title": title},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	}
}

func TestSearchBiasesVideoMode(t *testing.T) {
	var gotQueries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQueries = append(gotQueries, r.URL.Query().Get("q"))
		ytFixture(map[string][]string{
			"believer official music video": {"Imagine Dragons - Believer"},
			"believer music video":          {"Imagine Dragons - Believer"},
		})(w, r)
	}))
	defer srv.Close()

	s := NewSearchService("test-key", nil, zap.NewNop())
	s.SetBaseURL(srv.URL)

	if _, err := s.Search(context.Background(), "believer", "video"); err != nil {
		t.Fatal(err)
	}
	if gotQueries[0] != "believer official music video" {
		t.Errorf("video-mode query = %q", gotQueries[0])
	}

	// a query already asking for video is not rewritten
	if _, err := s.Search(context.Background(), "believer music video", "video"); err != nil {
		t.Fatal(err)
	}
	if gotQueries[1] != "believer music video" {
		t.Errorf("query = %q, want unmodified", gotQueries[1])
	}
}

func TestSearchScoresAgainstOriginalQuery(t *testing.T) {
	srv := httptest.NewServer(ytFixture(map[string][]string{
		"believer": {"Imagine Dragons - Believer (Official)", "Unrelated Compilation"},
	}))
	defer srv.Close()

	s := NewSearchService("test-key", nil, zap.NewNop())
	s.SetBaseURL(srv.URL)

	items, err := s.Search(context.Background(), "believer", "song")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Confidence != 0.95 || items[1].Confidence != 0 {
		t.Errorf("confidences = %v, %v", items[0].Confidence, items[1].Confidence)
	}
	if items[0].PlayURL == "" || items[0].Platform != "youtube" {
		t.Errorf("item = %+v", items[0])
	}
}

func TestSearchWithoutKey(t *testing.T) {
	s := NewSearchService("", nil, zap.NewNop())
	if _, err := s.Search(context.Background(), "anything", "song"); err == nil {
		t.Error("want error with no api key")
	}
}

type fakeRecommender struct {
	titles []string
	err    error
	seeds  []string
}

func (f *fakeRecommender) RecommendTitles(_ context.Context, seed string) ([]string, error) {
	f.seeds = append(f.seeds, seed)
	return f.titles, f.err
}

func TestRelatedResolvesRecommendedTitles(t *testing.T) {
	srv := httptest.NewServer(ytFixture(map[string][]string{
		"Thunder - Imagine Dragons":     {"Thunder (Official Video)"},
		"Radioactive - Imagine Dragons": {"Radioactive (Official Video)"},
	}))
	defer srv.Close()

	rec := &fakeRecommender{titles: []string{
		"Thunder - Imagine Dragons",
		"Radioactive - Imagine Dragons",
		"Unfindable - Nobody",
	}}
	s := NewSearchService("test-key", rec, zap.NewNop())
	s.SetBaseURL(srv.URL)

	items, err := s.Related(context.Background(), "Believer - Imagine Dragons")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.seeds) != 1 || rec.seeds[0] != "Believer - Imagine Dragons" {
		t.Errorf("seeds = %v", rec.seeds)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 (unresolvable title skipped)", len(items))
	}
	// the AI's title is kept over YouTube's
	if items[0].Title != "Thunder - Imagine Dragons" {
		t.Errorf("title = %q", items[0].Title)
	}
}

func TestRelatedWithoutRecommender(t *testing.T) {
	s := NewSearchService("test-key", nil, zap.NewNop())
	if _, err := s.Related(context.Background(), "seed"); !errors.Is(err, errs.ErrNoSearchResults) {
		t.Errorf("err = %v, want ErrNoSearchResults", err)
	}
}

func TestRelatedNothingResolvable(t *testing.T) {
	srv := httptest.NewServer(ytFixture(nil))
	defer srv.Close()
	rec := &fakeRecommender{titles: []string{"Ghost Track - Nobody"}}
	s := NewSearchService("test-key", rec, zap.NewNop())
	s.SetBaseURL(srv.URL)

	if _, err := s.Related(context.Background(), "seed"); !errors.Is(err, errs.ErrNoSearchResults) {
		t.Errorf("err = %v, want ErrNoSearchResults", err)
	}
}
