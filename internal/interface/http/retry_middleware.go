package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/ai-fitcoach/internal/infra/config"
)

const maxReplayBody = 1 << 20

var errReplayBodyTooLarge = errors.New("request body too large")

// streamSuffixes name the SSE routes. They are never buffered, whatever the
// configured exclusions say.
var streamSuffixes = []string{"/plans/stream", "/chat/stream"}

// retryPolicy decides which requests are replayed. Only buffered JSON
// endpoints qualify; non-idempotent creates are listed in the exclusions.
type retryPolicy struct {
	attempts int
	base     time.Duration
	exclude  map[string]struct{}
}

func newRetryPolicy(cfg config.RetryConfig) (retryPolicy, bool) {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return retryPolicy{}, false
	}
	p := retryPolicy{
		attempts: cfg.MaxAttempts,
		base:     cfg.BaseBackoff,
		exclude:  make(map[string]struct{}, len(cfg.Exclude)),
	}
	for _, path := range cfg.Exclude {
		p.exclude[normalizePath(path)] = struct{}{}
	}
	return p, true
}

func (p retryPolicy) applies(r *http.Request) bool {
	if r.Method != http.MethodPost || isStreamRequest(r) {
		return false
	}
	_, excluded := p.exclude[normalizePath(r.URL.Path)]
	return !excluded
}

func isStreamRequest(r *http.Request) bool {
	if strings.Contains(strings.ToLower(r.Header.Get("Accept")), "text/event-stream") {
		return true
	}
	path := normalizePath(r.URL.Path)
	for _, suffix := range streamSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// backoff doubles from base: base, 2*base, 4*base...
func (p retryPolicy) backoff(attempt int) time.Duration {
	return p.base << (attempt - 2)
}

// Upstream failures (model, embeddings, vector store) are worth a second
// try. Configuration errors and bugs are not.
func retryableStatus(status int) bool {
	return status == http.StatusBadGateway || status == http.StatusGatewayTimeout
}

func normalizePath(p string) string {
	if trimmed := strings.TrimRight(p, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}

// withRetry buffers the request body and replays the request while the
// response status is retryable. Only the final attempt reaches the client.
func withRetry(next http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	policy, ok := newRetryPolicy(cfg)
	if !ok {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !policy.applies(r) {
			next.ServeHTTP(w, r)
			return
		}
		body, err := bufferBody(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errReplayBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		for attempt := 1; ; attempt++ {
			if attempt > 1 {
				timer := time.NewTimer(policy.backoff(attempt))
				select {
				case <-timer.C:
				case <-r.Context().Done():
					timer.Stop()
					return
				}
			}

			replay := r.Clone(r.Context())
			replay.Body = io.NopCloser(bytes.NewReader(body))
			replay.ContentLength = int64(len(body))

			buf := newBufferedResponse()
			next.ServeHTTP(buf, replay)
			if !retryableStatus(buf.status) || attempt >= policy.attempts {
				if attempt > 1 {
					buf.header.Set("X-Retry-Attempts", strconv.Itoa(attempt))
				}
				buf.writeTo(w)
				return
			}
			logger.Warn("upstream failure, replaying request",
				"path", r.URL.Path,
				"status", buf.status,
				"attempt", attempt,
				"max_attempts", policy.attempts,
			)
		}
	})
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxReplayBody+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxReplayBody {
		return nil, errReplayBodyTooLarge
	}
	return data, nil
}

// bufferedResponse holds one attempt's response until it is known to be final.
type bufferedResponse struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if !b.wroteHeader {
		b.status = status
		b.wroteHeader = true
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}

// Flush is a no-op; gin probes for http.Flusher.
func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) writeTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = append([]string(nil), v...)
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}
