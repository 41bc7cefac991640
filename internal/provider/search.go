package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/model"
	"go.uber.org/zap"
)

const youtubeSearchURL = "https://www.googleapis.com/youtube/v3/search"

// Recommender produces similar-song titles for a seed title.
type Recommender interface {
	RecommendTitles(ctx context.Context, seedTitle string) ([]string, error)
}

// SearchService resolves free-text queries to playable media via the YouTube
// Data API, with an AI title-list fallback for recommendations.
type SearchService struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	recommender Recommender
	log         *zap.Logger
}

// NewSearchService creates the search service. recommender may be nil, which
// disables the related-media fallback.
func NewSearchService(apiKey string, recommender Recommender, log *zap.Logger) *SearchService {
	return &SearchService{
		apiKey:      apiKey,
		baseURL:     youtubeSearchURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		recommender: recommender,
		log:         log,
	}
}

// SetBaseURL overrides the YouTube endpoint (tests).
func (s *SearchService) SetBaseURL(u string) { s.baseURL = u }

// Confidence scores how well a result title matches the query: 0.95 when the
// title contains the whole query, otherwise the fraction of significant query
// words (longer than 2 chars) present in the title.
func Confidence(title, query string) float64 {
	r := strings.ToLower(title)
	o := strings.ToLower(query)
	if strings.Contains(r, o) {
		return 0.95
	}
	var total, hit int
	for _, w := range strings.Fields(o) {
		if len(w) <= 2 {
			continue
		}
		total++
		if strings.Contains(r, w) {
			hit++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hit) / float64(total)
}

// Search returns ranked media items for a query. In video mode the query is
// biased toward official music videos unless it already asks for video.
func (s *SearchService) Search(ctx context.Context, query, mode string) ([]model.MediaItem, error) {
	q := query
	if mode == "video" && !strings.Contains(strings.ToLower(query), "video") {
		q = query + " official music video"
	}
	return s.searchYouTube(ctx, q, query)
}

// Related returns playable recommendations for a seed title: an AI-generated
// list of similar titles, each resolved back through search.
func (s *SearchService) Related(ctx context.Context, seedTitle string) ([]model.MediaItem, error) {
	if s.recommender == nil {
		return nil, errs.ErrNoSearchResults
	}
	titles, err := s.recommender.RecommendTitles(ctx, seedTitle)
	if err != nil {
		return nil, err
	}
	var out []model.MediaItem
	for _, title := range titles {
		results, err := s.searchYouTube(ctx, title, title)
		if err != nil || len(results) == 0 {
			continue
		}
		item := results[0]
		item.Title = title
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, errs.ErrNoSearchResults
	}
	return out, nil
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Thumbnails  struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *SearchService) searchYouTube(ctx context.Context, query, scoreAgainst string) ([]model.MediaItem, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("youtube api key not configured")
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("maxResults", "10")
	params.Set("type", "video")
	params.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search: status %d", resp.StatusCode)
	}

	var body ytSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("youtube search decode: %w", err)
	}

	items := make([]model.MediaItem, 0, len(body.Items))
	for _, it := range body.Items {
		if it.ID.VideoID == "" {
			continue
		}
		items = append(items, model.MediaItem{
			Title:      it.Snippet.Title,
			ID:         it.ID.VideoID,
			Platform:   "youtube",
			Type:       "video",
			Thumbnail:  it.Snippet.Thumbnails.High.URL,
			PlayURL:    "https://www.youtube.com/watch?v=" + it.ID.VideoID,
			Confidence: Confidence(it.Snippet.Title, scoreAgainst),
		})
	}
	return items, nil
}
