package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"
)

// JobStatusEvent represents an SSE payload for generation job progress.
type JobStatusEvent struct {
	Type     string `json:"type"`
	JobID    string `json:"job_id"`
	Lane     string `json:"lane"`
	Status   string `json:"status"`
	MediaID  string `json:"media_id,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Hub maintains subscribers listening for job status events. Subscribers are
// global; this is a single-operator tool with no per-user scoping.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan JobStatusEvent]struct{}
}

func NewJobHub() *Hub {
	return &Hub{subs: make(map[chan JobStatusEvent]struct{})}
}

// Serve registers an SSE stream on the gin context.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan JobStatusEvent, 8)
	h.addSubscriber(ch)
	defer h.removeSubscriber(ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: job_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(ch chan JobStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = struct{}{}
}

func (h *Hub) removeSubscriber(ch chan JobStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// BroadcastJobStatus fans an event out to every subscriber without blocking.
func (h *Hub) BroadcastJobStatus(evt JobStatusEvent) {
	h.mu.RLock()
	for ch := range h.subs {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
