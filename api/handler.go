package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"clipwebapi/config"
	"clipwebapi/job"
	"clipwebapi/store"
	"clipwebapi/ytdlp"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ClipService is the job manager as seen by the HTTP layer.
type ClipService interface {
	Submit(ctx context.Context, req job.Request) (*store.Job, error)
	Get(ctx context.Context, id string) (*store.Job, error)
	Cleanup(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	WorkDir() string
}

type FormatLister interface {
	Formats(ctx context.Context, url string) (*ytdlp.FormatList, error)
}

// LocalFiles resolves object keys to files on disk.
type LocalFiles interface {
	Path(key string) (string, error)
}

type Handler struct {
	clips    ClipService
	formats  FormatLister
	files    LocalFiles
	cfg      *config.Config
	upgrader websocket.Upgrader
	sample   func(dir string) hostStats
}

func NewHandler(clips ClipService, formats FormatLister, files LocalFiles, cfg *config.Config) *Handler {
	return &Handler{
		clips:   clips,
		formats: formats,
		files:   files,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(cfg, r)
			},
		},
		sample: sampleHost,
	}
}

// statusPayload is the polling view of a job.
func statusPayload(j *store.Job) gin.H {
	resp := gin.H{"status": j.Status}
	if j.Error != "" {
		resp["error"] = j.Error
	}
	if j.PublicURL != "" {
		resp["url"] = j.PublicURL
	}
	if j.StoragePath != "" {
		resp["storagePath"] = j.StoragePath
	}
	return resp
}

// handleCreateClip accepts a clip request and starts processing in the background.
func (h *Handler) handleCreateClip(c *gin.Context) {
	var req job.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	j, err := h.clips.Submit(c.Request.Context(), req)
	if err != nil {
		var verr *job.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		log.Printf("Failed to create job: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": j.ID})
}

func (h *Handler) handleGetClipStatus(c *gin.Context) {
	j, err := h.clips.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusPayload(j))
}

// handleCleanupClip forgets a job. A running pipeline is not interrupted.
func (h *Handler) handleCleanupClip(c *gin.Context) {
	if err := h.clips.Cleanup(c.Request.Context(), c.Param("id")); err != nil {
		h.jobError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) jobError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	log.Printf("Job store error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *Handler) handleGetFormats(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url"})
		return
	}
	if err := ytdlp.ValidateURL(url); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.formats.Formats(c.Request.Context(), url)
	if err != nil {
		log.Printf("Failed to fetch formats for %s: %v", url, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch formats", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// handleGetFile serves a clip kept in local storage.
func (h *Handler) handleGetFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	filePath, err := h.files.Path(key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.File(filePath)
}
