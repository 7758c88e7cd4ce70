package api

import (
	"net/http"
	"time"

	"clipwebapi/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware admits browser calls from the configured frontend only.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// originAllowed is the websocket counterpart of CORSMiddleware.
func originAllowed(cfg *config.Config, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == cfg.AllowedOrigin
}
