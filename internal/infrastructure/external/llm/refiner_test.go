package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/query"
	"github.com/edscope/edscope/internal/domain/shared"
)

var testNow = time.Date(2024, 4, 16, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRefiner(t *testing.T, handler http.HandlerFunc) *Refiner {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultClientConfig(server.URL, "test-key")
	config.Logger = testLogger()
	config.RetryConfig.MaxRetries = 0

	return NewRefiner(NewClient(config), 2*time.Second, testLogger())
}

func completionReply(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
}

func TestRefiner_ParsesIntent(t *testing.T) {
	refiner := newTestRefiner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, completionReply(
			`{"action":"PERFORMANCE","filters":{"grade":"8","class":["8A","8B"]},"date_range":"last_week"}`))
	})

	seed := query.Parse("show me grade 8", testNow)
	candidate, err := refiner.Refine(context.Background(), "show me grade 8", seed, testNow)
	require.NoError(t, err)

	assert.Equal(t, query.ActionPerformance, candidate.Action)
	assert.Equal(t, []string{"8"}, candidate.Filters[query.FilterGrade])
	assert.Equal(t, []string{"8A", "8B"}, candidate.Filters[query.FilterClass])
	require.NotNil(t, candidate.DateRange)
	assert.Equal(t, query.RangeLastWeek, candidate.DateRange.Kind)
	assert.Equal(t, time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC), candidate.DateRange.Start)
}

func TestRefiner_DateKeywordResolvesAgainstReferenceTime(t *testing.T) {
	refiner := newTestRefiner(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionReply(`{"action":"PERFORMANCE","filters":{},"date_range":"last_week"}`))
	})

	// Two different reference times must anchor two different windows,
	// regardless of when the test itself runs.
	first, err := refiner.Refine(context.Background(), "scores last week", query.GenericIntent(), testNow)
	require.NoError(t, err)
	require.NotNil(t, first.DateRange)
	assert.Equal(t, time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC), first.DateRange.Start)
	assert.Equal(t, time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC), first.DateRange.End)

	later := testNow.AddDate(0, 0, 7)
	second, err := refiner.Refine(context.Background(), "scores last week", query.GenericIntent(), later)
	require.NoError(t, err)
	require.NotNil(t, second.DateRange)
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), second.DateRange.Start)
}

func TestRefiner_ExtractsJSONFromProse(t *testing.T) {
	refiner := newTestRefiner(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionReply(
			"Sure! Here is the parsed intent:\n```json\n{\"action\":\"GENERIC\",\"filters\":{}}\n``` hope that helps"))
	})

	candidate, err := refiner.Refine(context.Background(), "anything", query.GenericIntent(), testNow)
	require.NoError(t, err)
	assert.Equal(t, query.ActionGeneric, candidate.Action)
}

func TestRefiner_NumericGradeTolerated(t *testing.T) {
	refiner := newTestRefiner(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionReply(`{"action":"PERFORMANCE","filters":{"grade":8}}`))
	})

	candidate, err := refiner.Refine(context.Background(), "grade eight scores", query.GenericIntent(), testNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"8"}, candidate.Filters[query.FilterGrade])
}

func TestRefiner_GarbageReply(t *testing.T) {
	refiner := newTestRefiner(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionReply("I cannot parse that question, sorry."))
	})

	_, err := refiner.Refine(context.Background(), "anything", query.GenericIntent(), testNow)
	require.Error(t, err)
	assert.True(t, shared.IsRefinementUnavailable(err))
}

func TestRefiner_ProviderDown(t *testing.T) {
	refiner := newTestRefiner(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusInternalServerError)
	})

	_, err := refiner.Refine(context.Background(), "anything", query.GenericIntent(), testNow)
	require.Error(t, err)
	assert.True(t, shared.IsRefinementUnavailable(err))
}

func TestRefiner_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, completionReply(`{"action":"GENERIC","filters":{}}`))
	}))
	t.Cleanup(server.Close)

	config := DefaultClientConfig(server.URL, "test-key")
	config.Logger = testLogger()
	config.RetryConfig.MaxRetries = 0
	refiner := NewRefiner(NewClient(config), 50*time.Millisecond, testLogger())

	_, err := refiner.Refine(context.Background(), "anything", query.GenericIntent(), testNow)
	require.Error(t, err)
	assert.True(t, shared.IsRefinementUnavailable(err))
}

func TestClient_RateLimitResponse(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	config := DefaultClientConfig(server.URL, "test-key")
	config.Logger = testLogger()
	config.RetryConfig.MaxRetries = 1
	config.RetryConfig.InitialBackoff = time.Millisecond
	client := NewClient(config)

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}
