package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteCounters(t *testing.T) {
	m := New(prometheus.NewRegistry(), nil)

	m.VoteAccepted()
	m.VoteAccepted()
	m.VoteRejected("invalid_choice")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VotesAccepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesRejected.WithLabelValues("invalid_choice")))
	// One series regardless of how many questions receive votes.
	assert.Equal(t, 1, testutil.CollectAndCount(m.VotesAccepted))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry(), func() int { return 3 })

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/questions/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/questions/{id}"`), body)
	assert.Contains(t, body, "polls_live_subscribers 3")
}
