package router

import (
	"net/http"

	"github.com/Sagararora90/ynme/internal/handler"
	"github.com/gin-gonic/gin"
)

// New builds the HTTP router.
func New(
	busWS *handler.BusWSHandler,
	search *handler.SearchHandler,
	devices *handler.DeviceHandler,
	health *handler.HealthHandler,
	jwtSecret string,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)

	// REST API, bearer-token authenticated
	api := r.Group("/api", handler.AuthMiddleware(jwtSecret))
	{
		api.GET("/search", search.Search)
		api.GET("/search/related", search.Related)
		api.GET("/devices", devices.ListDevices)
		api.GET("/playlists/:id", devices.GetPlaylist)
		api.GET("/playlists/:id/room", devices.GetRoom)
	}

	// WebSocket message bus: /ws?token=<jwt>
	r.GET("/ws", busWS.ServeWS)

	return r
}
