package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary-ai/llm-decision-engine/internal/audit"
	"github.com/tributary-ai/llm-decision-engine/internal/catalog"
	"github.com/tributary-ai/llm-decision-engine/internal/classify"
	"github.com/tributary-ai/llm-decision-engine/internal/engine"
	"github.com/tributary-ai/llm-decision-engine/internal/override"
	"github.com/tributary-ai/llm-decision-engine/internal/scoring"
	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

func newTestServer(t *testing.T, config *Config) *Server {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	cat := catalog.Default()
	scorer := scoring.NewScorer(cat, scoring.DefaultRules(), logger)
	overrides := override.NewLayer(cat, override.DefaultConfig(), logger)

	eng, err := engine.New(cat, classify.NewHeuristic(), scorer, overrides, cat.Models(), logger)
	require.NoError(t, err)

	if config == nil {
		config = &Config{Port: "0"}
	}
	trail := audit.NewTrail(&audit.Config{Enabled: false}, logger)

	srv, err := NewServer(eng, trail, config, logger)
	require.NoError(t, err)
	return srv
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestDecideEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Routes()

	rec := postJSON(t, handler, "/v1/decide", types.DecideRequest{
		Prompt: "Fix this bug: TypeError: cannot read property 'x' of undefined",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var decision types.RoutingDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, "claude-3-5-sonnet", decision.ChosenModel)
	assert.Equal(t, types.CategoryDebug, decision.Category)
	assert.NotEmpty(t, decision.RequestID)
	assert.NotEmpty(t, decision.Explanation)
	assert.Equal(t, decision.RequestID, rec.Header().Get("X-Request-ID"))
}

func TestDecideEndpointWithAttachments(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Routes()

	rec := postJSON(t, handler, "/v1/decide", types.DecideRequest{
		Prompt:      "what is in this picture?",
		Attachments: &types.AttachmentContext{ImageCount: 1},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var decision types.RoutingDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, "gpt-4o-mini", decision.ChosenModel)
	assert.Equal(t, types.DecisionSourceOverride, decision.Source)
}

func TestDecideEndpointValidation(t *testing.T) {
	srv := newTestServer(t, &Config{Port: "0", MaxPromptBytes: 64})
	handler := srv.Routes()

	t.Run("empty prompt", func(t *testing.T) {
		rec := postJSON(t, handler, "/v1/decide", types.DecideRequest{Prompt: "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/decide", bytes.NewReader([]byte("{nope")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized prompt", func(t *testing.T) {
		rec := postJSON(t, handler, "/v1/decide", types.DecideRequest{
			Prompt: "this prompt is deliberately longer than the configured sixty four byte limit",
		})
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/decide", bytes.NewReader([]byte("prompt=x")))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestExplainEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Routes()

	rec := postJSON(t, handler, "/v1/explain", types.ExplainRequest{
		Prompt: "compare redis and memcached",
		Model:  "claude-3-haiku",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.ScoringResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "claude-3-haiku", result.ModelID)
	assert.NotEmpty(t, result.KeyFactors)
	assert.NotEmpty(t, result.Rationale)

	rec = postJSON(t, handler, "/v1/explain", types.ExplainRequest{
		Prompt: "anything",
		Model:  "phantom-model",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModelsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Routes()

	req := httptest.NewRequest("GET", "/v1/models", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Models []types.ModelSummary `json:"models"`
		Count  int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Count)
	assert.Len(t, body.Models, 5)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Routes()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var health types.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 5, health.Models)
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Routes()

	data, _ := json.Marshal(types.DecideRequest{Prompt: "what is dns?"})
	req := httptest.NewRequest("POST", "/v1/decide", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "caller-supplied-id")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var decision types.RoutingDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, "caller-supplied-id", decision.RequestID)
}
