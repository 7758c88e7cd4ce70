package api

import (
	"clipwebapi/config"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP surface. files may be nil when clips are not
// stored on the local filesystem.
func SetupRouter(clips ClipService, formats FormatLister, files LocalFiles, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(CORSMiddleware(cfg))
	h := NewHandler(clips, formats, files, cfg)

	r.GET("/health", h.handleHealth)

	if files != nil {
		r.GET("/files/*key", h.handleGetFile)
	}

	api := r.Group("/api")
	{
		api.POST("/clip", h.handleCreateClip)
		api.GET("/clip/:id", h.handleGetClipStatus)
		api.GET("/clip/:id/events", h.handleClipEvents)
		api.DELETE("/clip/:id/cleanup", h.handleCleanupClip)

		// Runs yt-dlp synchronously.
		api.GET("/formats", h.handleGetFormats)
	}
	return r
}
