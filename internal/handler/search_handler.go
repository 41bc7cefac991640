package handler

import (
	"errors"
	"net/http"

	"github.com/Sagararora90/ynme/internal/errs"
	"github.com/Sagararora90/ynme/internal/provider"
	"github.com/gin-gonic/gin"
)

// SearchHandler handles REST media search for the dashboard.
type SearchHandler struct {
	svc *provider.SearchService
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(svc *provider.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search godoc
// GET /api/search?q=<query>&mode=<video|song>
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q required"})
		return
	}
	items, err := h.svc.Search(c.Request.Context(), query, c.DefaultQuery("mode", "song"))
	if err != nil {
		if errors.Is(err, errs.ErrNoSearchResults) {
			c.JSON(http.StatusOK, gin.H{"results": []any{}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// Related godoc
// GET /api/search/related?title=<seed title>
func (h *SearchHandler) Related(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	items, err := h.svc.Related(c.Request.Context(), title)
	if err != nil {
		if errors.Is(err, errs.ErrNoSearchResults) {
			c.JSON(http.StatusOK, gin.H{"results": []any{}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "related lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}
