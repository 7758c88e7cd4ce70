package api

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"clipwebapi/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// handleClipEvents pushes the job's status payload whenever it changes and
// closes the socket once the job is terminal or gone.
func (h *Handler) handleClipEvents(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	// Refuse unknown ids before upgrading so clients get a plain 404.
	if _, err := h.clips.Get(ctx, id); err != nil {
		h.jobError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	// The client never sends anything useful; reading detects disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.cfg.EventsPollInterval)
	defer ticker.Stop()

	var last []byte
	for {
		j, err := h.clips.Get(ctx, id)
		if err != nil {
			reason := "job store error"
			if errors.Is(err, store.ErrNotFound) {
				reason = "job not found"
			}
			closeWith(conn, websocket.ClosePolicyViolation, reason)
			return
		}

		msg, err := json.Marshal(statusPayload(j))
		if err != nil {
			log.Printf("[job %s] failed to encode status: %v", id, err)
			return
		}
		if string(msg) != string(last) {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			last = msg
		}
		if j.Status.Terminal() {
			closeWith(conn, websocket.CloseNormalClosure, string(j.Status))
			return
		}

		select {
		case <-gone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		log.Printf("Failed to close WebSocket: %v", err)
	}
}
