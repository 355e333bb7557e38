package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
)

// streamEvents writes each event as a "data: <json>\n\n" frame and flushes
// it. After a write failure the remaining events are drained so the producer
// can exit once the request context ends.
func (h *Handler) streamEvents(c *gin.Context, events <-chan plan.Event) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		for range events {
		}
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("marshal event failed", "type", ev.Type, "error", err)
			continue
		}
		if _, err := c.Writer.Write(frame(payload)); err != nil {
			h.logger.Info("client stream closed", "error", err)
			for range events {
			}
			return
		}
		flusher.Flush()
	}
}

func frame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+8)
	out = append(out, "data: "...)
	out = append(out, payload...)
	return append(out, '\n', '\n')
}
