package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-fitcoach/internal/domain/chat"
	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/domain/persona"
	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
	"github.com/yanqian/ai-fitcoach/internal/infra/config"
	apperrors "github.com/yanqian/ai-fitcoach/pkg/errors"
)

const nutritionProfile = `{"name":"Sam","height":187,"weight":80,"age":30,"gender":"male","goal":"bulking","activityLevel":"moderate","experienceLevel":"intermediate","focusArea":"strength"}`

func TestRouter_StreamPlan(t *testing.T) {
	events := []plan.Event{
		plan.ChunkEvent("Let's "),
		plan.ChunkEvent("go"),
		{Type: plan.EventParsing},
		plan.DoneEvent(plan.TypeWorkout),
	}
	deps := newTestDeps()
	deps.plan.generateFn = func(_ context.Context, req plan.GenerateRequest) (<-chan plan.Event, error) {
		require.Equal(t, plan.TypeWorkout, req.Type)
		require.Equal(t, "mike", req.Persona)
		require.Equal(t, "Sam", req.Profile.Name)
		return feed(events), nil
	}

	body := `{"planType":"workout","persona":"mike","userProfile":` + nutritionProfile + `}`
	recorder := performRequest(t, deps, http.MethodPost, "/api/v1/plans/stream", body)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))

	frames := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n\n")
	require.Len(t, frames, len(events))
	for i, frame := range frames {
		require.True(t, strings.HasPrefix(frame, "data: "))
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &got))
		require.Equal(t, string(events[i].Type), got["type"])
	}
	require.Contains(t, frames[3], `"planType":"workout"`)
}

func TestRouter_StreamPlanSyncErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid input", err: apperrors.Wrap(apperrors.CodeInvalidInput, "plan type must be workout or nutrition", nil), wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "missing provider", err: apperrors.Wrap(apperrors.CodeConfig, "language model provider is not configured", plan.ErrProviderNotConfigured), wantStatus: http.StatusServiceUnavailable, wantCode: "config_error"},
		{name: "retrieval", err: apperrors.Wrap(apperrors.CodeRetrieval, "failed to retrieve foods", nil), wantStatus: http.StatusBadGateway, wantCode: "retrieval_error"},
		{name: "unknown", err: io.ErrUnexpectedEOF, wantStatus: http.StatusInternalServerError, wantCode: "plan_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.plan.generateFn = func(context.Context, plan.GenerateRequest) (<-chan plan.Event, error) {
				return nil, tt.err
			}
			recorder := performRequest(t, deps, http.MethodPost, "/api/v1/plans/stream", `{"planType":"workout","persona":"mike","userProfile":{}}`)
			require.Equal(t, tt.wantStatus, recorder.Code)
			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tt.wantCode, errBody["error"]["code"])
			require.NotEmpty(t, errBody["error"]["message"])
		})
	}
}

func TestRouter_StreamPlanInvalidJSON(t *testing.T) {
	recorder := performRequest(t, newTestDeps(), http.MethodPost, "/api/v1/plans/stream", `{"planType":`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_StreamChat(t *testing.T) {
	deps := newTestDeps()
	deps.chat.streamFn = func(_ context.Context, req chat.Request) (<-chan plan.Event, error) {
		require.Len(t, req.Messages, 1)
		require.Equal(t, "goggins", req.Persona)
		return feed([]plan.Event{plan.ChunkEvent("Stay hard"), {Type: plan.EventDone}}), nil
	}

	body := `{"persona":"goggins","messages":[{"role":"user","content":"motivate me"}]}`
	recorder := performRequest(t, deps, http.MethodPost, "/api/v1/chat/stream", body)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "data: {\"type\":\"chunk\",\"content\":\"Stay hard\"}\n\ndata: {\"type\":\"done\"}\n\n", recorder.Body.String())
}

func TestRouter_NutritionTargets(t *testing.T) {
	recorder := performRequest(t, newTestDeps(), http.MethodPost, "/api/v1/nutrition/targets", `{"userProfile":`+nutritionProfile+`}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got nutrition.Targets
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Positive(t, got.Calories)
	require.Positive(t, got.Macros.Protein)

	recorder = performRequest(t, newTestDeps(), http.MethodPost, "/api/v1/nutrition/targets", `{"userProfile":{"height":0,"weight":80,"age":30}}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_LookupFoods(t *testing.T) {
	deps := newTestDeps()
	deps.foods.foods = []nutrition.Food{{ID: "fdc_1", FDCID: 1, Description: "Oats"}}

	recorder := performRequest(t, deps, http.MethodPost, "/api/v1/nutrition/foods", `{"fdcIds":[1,2]}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, []int{1, 2}, deps.foods.requested)
	require.Contains(t, recorder.Body.String(), `"description":"Oats"`)

	recorder = performRequest(t, deps, http.MethodPost, "/api/v1/nutrition/foods", `{"fdcIds":[]}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_Personas(t *testing.T) {
	deps := newTestDeps()

	recorder := performRequest(t, deps, http.MethodGet, "/api/v1/personas", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed struct {
		Personas []persona.Persona `json:"personas"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	require.Len(t, listed.Personas, 1)
	require.Empty(t, listed.Personas[0].SystemPrompt)

	recorder = performRequest(t, deps, http.MethodPost, "/api/v1/personas", `{"name":"Ana","description":"Kettlebells","systemPrompt":"You are Ana."}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotContains(t, recorder.Body.String(), "You are Ana.")

	recorder = performRequest(t, deps, http.MethodDelete, "/api/v1/personas/custom-missing", "")
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = performRequest(t, deps, http.MethodDelete, "/api/v1/personas/custom-1", "")
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = performRequest(t, deps, http.MethodPost, "/api/v1/personas/recommendations", `{"userProfile":`+nutritionProfile+`}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"persona":"arnold"`)
}

func TestRouter_RateLimit(t *testing.T) {
	deps := newTestDeps()
	deps.plan.generateFn = func(context.Context, plan.GenerateRequest) (<-chan plan.Event, error) {
		return feed(nil), nil
	}
	server := newRouterUnderTest(t, deps, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	first := serve(server, http.MethodPost, "/api/v1/plans/stream", `{}`)
	require.Equal(t, http.StatusOK, first.Code)
	second := serve(server, http.MethodPost, "/api/v1/plans/stream", `{}`)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "60", second.Header().Get("Retry-After"))
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, second.Body.Bytes())["error"]["code"])

	// non-generation routes are not limited
	for range 3 {
		require.Equal(t, http.StatusOK, serve(server, http.MethodGet, "/healthz", "").Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, newTestDeps(), func(cfg *config.Config) {
		cfg.HTTP.AllowedOrigins = []string{"https://coach.example"}
	})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/plans/stream", nil)
	req.Header.Set("Origin", "https://coach.example")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://coach.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	require.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestOriginSet(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "empty list allows any", allowed: nil, origin: "https://a.example", want: "*"},
		{name: "wildcard", allowed: []string{"https://b.example", "*"}, origin: "https://a.example", want: "*"},
		{name: "listed origin echoed", allowed: []string{"https://a.example/"}, origin: "https://a.example", want: "https://a.example"},
		{name: "case insensitive", allowed: []string{"https://A.example"}, origin: "https://a.example", want: "https://a.example"},
		{name: "unlisted origin", allowed: []string{"https://a.example"}, origin: "https://evil.example", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, newOriginSet(tt.allowed).allow(tt.origin))
		})
	}
}

func TestRetryMiddleware(t *testing.T) {
	attempts := 0
	flaky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, `{"fdcIds":[1]}`, string(body))
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	cfg := config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond, Exclude: []string{"/api/v1/plans/stream"}}
	handler := withRetry(flaky, cfg, newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/nutrition/foods", strings.NewReader(`{"fdcIds":[1]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, "3", rec.Header().Get("X-Retry-Attempts"))
	require.Equal(t, 3, attempts)

	attempts = 0
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plans/stream", strings.NewReader(`{"fdcIds":[1]}`)))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 1, attempts)
}

func TestRetryMiddleware_NeverBuffersStreams(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
	}{
		{name: "plan stream", path: "/api/v1/plans/stream"},
		{name: "chat stream trailing slash", path: "/api/v1/chat/stream/"},
		{name: "event-stream accept", path: "/api/v1/nutrition/foods", accept: "text/event-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			streaming := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.Header().Set("Content-Type", "text/event-stream")
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("data: {}\n\n"))
				w.(http.Flusher).Flush()
			})
			cfg := config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(`{}`))
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			withRetry(streaming, cfg, newTestLogger()).ServeHTTP(rec, req)

			require.Equal(t, 1, attempts)
			require.True(t, rec.Flushed)
			require.Equal(t, http.StatusBadGateway, rec.Code)
			require.Empty(t, rec.Header().Get("X-Retry-Attempts"))
		})
	}
}

func TestRetryMiddleware_SkipsNonUpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		method string
		status int
	}{
		{name: "config error", method: http.MethodPost, status: http.StatusServiceUnavailable},
		{name: "internal error", method: http.MethodPost, status: http.StatusInternalServerError},
		{name: "get request", method: http.MethodGet, status: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(tt.status)
			})
			cfg := config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
			rec := httptest.NewRecorder()
			withRetry(failing, cfg, newTestLogger()).ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/v1/nutrition/targets", strings.NewReader(`{}`)))
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, 1, attempts)
			require.Empty(t, rec.Header().Get("X-Retry-Attempts"))
		})
	}
}

func TestIPRateLimiterReserve(t *testing.T) {
	limiter := newIPRateLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 2})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.Zero(t, limiter.reserve("1.1.1.1", now))
	require.Zero(t, limiter.reserve("1.1.1.1", now))
	require.Equal(t, time.Second, limiter.reserve("1.1.1.1", now))
	require.Zero(t, limiter.reserve("2.2.2.2", now))
	require.Equal(t, 500*time.Millisecond, limiter.reserve("1.1.1.1", now.Add(500*time.Millisecond)))
	require.Zero(t, limiter.reserve("1.1.1.1", now.Add(time.Second)))

	// idle buckets are swept
	require.Zero(t, limiter.reserve("3.3.3.3", now.Add(10*time.Minute)))
	require.Len(t, limiter.buckets, 1)
}

// test doubles

type testDeps struct {
	plan    *stubPlan
	chat    *stubChat
	persona *stubPersona
	foods   *stubFoods
}

func newTestDeps() *testDeps {
	return &testDeps{plan: &stubPlan{}, chat: &stubChat{}, persona: &stubPersona{}, foods: &stubFoods{}}
}

func feed(events []plan.Event) <-chan plan.Event {
	ch := make(chan plan.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func performRequest(t *testing.T, deps *testDeps, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(newRouterUnderTest(t, deps, nil), method, path, body)
}

func serve(server *http.Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, deps *testDeps, mutate func(*config.Config)) *http.Server {
	t.Helper()
	handler := NewHandler(deps.plan, deps.chat, deps.persona, deps.foods, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(cfg, handler)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubPlan struct {
	generateFn func(ctx context.Context, req plan.GenerateRequest) (<-chan plan.Event, error)
}

func (s *stubPlan) Generate(ctx context.Context, req plan.GenerateRequest) (<-chan plan.Event, error) {
	if s.generateFn != nil {
		return s.generateFn(ctx, req)
	}
	return feed(nil), nil
}

type stubChat struct {
	streamFn func(ctx context.Context, req chat.Request) (<-chan plan.Event, error)
}

func (s *stubChat) Stream(ctx context.Context, req chat.Request) (<-chan plan.Event, error) {
	if s.streamFn != nil {
		return s.streamFn(ctx, req)
	}
	return feed(nil), nil
}

type stubPersona struct{}

func (stubPersona) List(context.Context) ([]persona.Persona, error) {
	return []persona.Persona{{ID: "mike", Name: "Mike"}}, nil
}

func (stubPersona) Resolve(_ context.Context, id string) (persona.Persona, error) {
	return persona.Persona{ID: id, SystemPrompt: "prompt"}, nil
}

func (stubPersona) SystemPrompt(context.Context, string) (string, error) {
	return "prompt", nil
}

func (stubPersona) Create(_ context.Context, req persona.CreateRequest) (persona.Persona, error) {
	return persona.Persona{ID: "custom-1", Name: req.Name, Description: req.Description, SystemPrompt: req.SystemPrompt, Custom: true}, nil
}

func (stubPersona) Delete(_ context.Context, id string) error {
	if id == "custom-1" {
		return nil
	}
	return apperrors.Wrap(apperrors.CodeNotFound, "persona not found", persona.ErrNotFound)
}

func (stubPersona) Recommend(profile.Profile) []persona.Recommendation {
	return []persona.Recommendation{{Persona: "arnold", Score: 5, Reasons: []string{"bulking"}}}
}

type stubFoods struct {
	foods     []nutrition.Food
	requested []int
}

func (s *stubFoods) LookupByFDCIDs(_ context.Context, ids []int) ([]nutrition.Food, error) {
	s.requested = ids
	return s.foods, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
