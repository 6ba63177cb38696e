package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/application/command"
	"github.com/edscope/edscope/internal/application/query"
	"github.com/edscope/edscope/internal/domain/admin"
	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
	"github.com/edscope/edscope/internal/interface/http/handlers"
	"github.com/edscope/edscope/pkg/logger"
)

var testNow = time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func testRegistry(t *testing.T) *admin.StaticRegistry {
	t.Helper()

	amit, err := admin.NewProfile("amit", "Amit",
		[]shared.Grade{8},
		[]shared.ClassCode{"8A", "8B"},
		shared.RegionEast)
	require.NoError(t, err)

	registry, err := admin.NewStaticRegistry([]*admin.Profile{amit})
	require.NoError(t, err)
	return registry
}

type staticProvider struct {
	table *roster.Table
}

func (p *staticProvider) Current() (*roster.Table, error) {
	if p.table == nil {
		return nil, shared.ErrTableNotLoaded
	}
	return p.table, nil
}

type failingReloader struct{}

func (failingReloader) Reload(ctx context.Context) (*roster.LoadResult, error) {
	return nil, shared.ErrNoUsableRows
}

func testProvider(t *testing.T) *staticProvider {
	t.Helper()

	records := []roster.Record{
		{StudentName: "Aarav", Grade: 8, Class: "8A", Region: shared.RegionEast,
			HomeworkSubmitted: true, SubmissionDate: day(t, "2024-04-10"),
			QuizScore: 82, QuizDate: day(t, "2024-04-09")},
		{StudentName: "Dev", Grade: 8, Class: "8B", Region: shared.RegionEast,
			HomeworkSubmitted: false,
			QuizScore:         71, QuizDate: day(t, "2024-04-12")},
		{StudentName: "Rohan", Grade: 9, Class: "9A", Region: shared.RegionNorth,
			HomeworkSubmitted: false,
			QuizScore:         55, QuizDate: day(t, "2024-04-10")},
	}
	table, err := roster.NewTable(records, "test.csv", testNow)
	require.NoError(t, err)
	return &staticProvider{table: table}
}

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()

	registry := testRegistry(t)
	resolver := admin.NewResolver(registry)
	provider := testProvider(t)
	log := logger.Default()

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	if mutate != nil {
		mutate(&config)
	}

	deps := Dependencies{
		AskQuestionHandler:     query.NewAskQuestionHandler(resolver, provider, nil, nil, log),
		ExplainQuestionHandler: query.NewExplainQuestionHandler(resolver, nil, log),
		GetAdminScopeHandler:   query.NewGetAdminScopeHandler(resolver, provider),
		Registry:               registry,
		Logger:                 log,
		HealthChecker:          handlers.NewNoopHealthChecker(),
	}

	return NewServer(config, deps)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServer_AskQuestion(t *testing.T) {
	server := newTestServer(t, nil)

	rec := postJSON(t, server.Handler(), "/api/v1/query", QueryRequest{
		AdminID:  "amit",
		Question: "which 8th graders have not submitted homework?",
		AsOf:     "2024-04-16",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.RequestID)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result query.AskQuestionResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "amit", result.AdminID)
	assert.Equal(t, 1, result.RowCount)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []string{"Dev", "Grade 8", "8B", "East", "no", "", "71", "2024-04-12"}, result.Rows[0])
}

func TestServer_AskQuestion_UnknownAdmin(t *testing.T) {
	server := newTestServer(t, nil)

	rec := postJSON(t, server.Handler(), "/api/v1/query", QueryRequest{
		AdminID:  "mallory",
		Question: "show everything",
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "unknown_admin", resp.Error.Code)
}

func TestServer_AskQuestion_Validation(t *testing.T) {
	server := newTestServer(t, nil)

	tests := []struct {
		name string
		req  QueryRequest
	}{
		{"missing admin", QueryRequest{Question: "who submitted?"}},
		{"missing question", QueryRequest{AdminID: "amit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, server.Handler(), "/api/v1/query", tt.req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "invalid_request", resp.Error.Code)
		})
	}
}

func TestServer_AskQuestion_BadJSON(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ExplainQuestion(t *testing.T) {
	server := newTestServer(t, nil)

	rec := postJSON(t, server.Handler(), "/api/v1/query/explain", QueryRequest{
		AdminID:  "amit",
		Question: "quiz scores for 8A last week",
		AsOf:     "2024-04-16",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result query.ExplainQuestionResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "PERFORMANCE", result.Action)
	assert.NotEmpty(t, result.Trace)
}

func TestServer_ExplainDisabled(t *testing.T) {
	server := newTestServer(t, func(c *Config) { c.EnableExplain = false })

	rec := postJSON(t, server.Handler(), "/api/v1/query/explain", QueryRequest{
		AdminID:  "amit",
		Question: "quiz scores",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_GetAdminScope(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admins/amit/scope", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var scope query.AdminScopeDTO
	require.NoError(t, json.Unmarshal(data, &scope))

	assert.Equal(t, "amit", scope.AdminID)
	assert.Equal(t, []string{"Grade 8"}, scope.Grades)
	assert.False(t, scope.Sealed)
}

func TestServer_GetAdminScope_NotFound(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admins/nobody/scope", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListAdmins(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admins", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestServer_Health(t *testing.T) {
	server := newTestServer(t, nil)

	for _, path := range []string{"/health", "/healthz", "/ready", "/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_ReloadRequiresAPIKey(t *testing.T) {
	registry := testRegistry(t)
	resolver := admin.NewResolver(registry)
	provider := testProvider(t)
	log := logger.Default()

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.APIKeys = []string{"secret-key"}

	deps := Dependencies{
		AskQuestionHandler:     query.NewAskQuestionHandler(resolver, provider, nil, nil, log),
		ExplainQuestionHandler: query.NewExplainQuestionHandler(resolver, nil, log),
		GetAdminScopeHandler:   query.NewGetAdminScopeHandler(resolver, provider),
		ReloadRosterHandler:    command.NewReloadRosterHandler(failingReloader{}, log),
		Registry:               registry,
		Logger:                 log,
		HealthChecker:          handlers.NewNoopHealthChecker(),
	}
	server := NewServer(config, deps)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/roster/reload", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Queries stay open even when the reload endpoint is keyed.
	askRec := postJSON(t, server.Handler(), "/api/v1/query", QueryRequest{
		AdminID:  "amit",
		Question: "who submitted homework?",
	})
	assert.Equal(t, http.StatusOK, askRec.Code)
}

func TestServer_RateLimit(t *testing.T) {
	server := newTestServer(t, func(c *Config) { c.RateLimitPerMinute = 2 })

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}
