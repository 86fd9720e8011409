package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSource struct {
	groups  []suggestions.Group
	items   map[uint64]*suggestions.Suggestion
	listErr error
}

func (f *fakeSource) List(context.Context) ([]suggestions.Group, error) {
	return f.groups, f.listErr
}

func (f *fakeSource) Get(_ context.Context, id uint64) (*suggestions.Suggestion, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, suggestions.ErrNotFound
	}
	return s, nil
}

func (f *fakeSource) Link(s *suggestions.Suggestion) string {
	return "https://chat.example/" + s.MessageRef()
}

func newSource() *fakeSource {
	ref := "m-1"
	return &fakeSource{
		groups: []suggestions.Group{
			{Status: suggestions.StatusOpen, Entries: []suggestions.Entry{{ID: 1, Title: "Dark mode", Link: "https://chat.example/m-1"}}},
			{Status: suggestions.StatusConsidered},
			{Status: suggestions.StatusApproved},
		},
		items: map[uint64]*suggestions.Suggestion{
			1: {ID: 1, MessageID: &ref, Title: "Dark mode", Description: "Please", AuthorID: "u1",
				Status: suggestions.StatusOpen, VotesFor: 3, VotesAgainst: 1, VoteLedger: suggestions.Ledger{"u1": suggestions.VoteUp}},
		},
	}
}

func quietLogger() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return l.WithField("module", "api")
}

func do(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListWithETag(t *testing.T) {
	h := New(newSource(), Options{Logger: quietLogger()})

	rec := do(t, h, "/v1/suggestions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body []listGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 3)
	assert.Equal(t, "Open", body[0].Status)
	assert.Equal(t, []listEntry{{ID: 1, Title: "Dark mode", Link: "https://chat.example/m-1"}}, body[0].Suggestions)
	assert.Empty(t, body[1].Suggestions)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = do(t, h, "/v1/suggestions", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestListFailureHidesDetail(t *testing.T) {
	src := newSource()
	src.listErr = errors.New("dial tcp: connection refused")
	rec := do(t, New(src, Options{Logger: quietLogger()}), "/v1/suggestions", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestGetSuggestion(t *testing.T) {
	h := New(newSource(), Options{Logger: quietLogger()})

	rec := do(t, h, "/v1/suggestions/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Dark mode", view["title"])
	assert.Equal(t, float64(3), view["votes_for"])
	assert.Equal(t, "https://chat.example/m-1", view["link"])
	assert.NotContains(t, view, "vote_ledger")

	assert.Equal(t, http.StatusNotFound, do(t, h, "/v1/suggestions/2", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "/v1/suggestions/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "/v1/suggestions/0", nil).Code)
}

func TestJWTGuard(t *testing.T) {
	secret := "s3cret"
	h := New(newSource(), Options{JWTSecret: secret, Logger: quietLogger()})

	assert.Equal(t, http.StatusUnauthorized, do(t, h, "/v1/suggestions", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, "/v1/suggestions", http.Header{"Authorization": {"Bearer nope"}}).Code)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "dashboard",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(t, h, "/v1/suggestions", http.Header{"Authorization": {"Bearer " + signed}}).Code)

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("other"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, "/v1/suggestions", http.Header{"Authorization": {"Bearer " + wrongKey}}).Code)

	// health and metrics stay open
	assert.Equal(t, http.StatusOK, do(t, h, "/healthz", nil).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := suggestions.NewMetrics(reg)
	m.ObserveCommand("list", "ok")

	healthy := true
	h := New(newSource(), Options{
		Logger:   quietLogger(),
		Gatherer: reg,
		Ping: func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("db down")
		},
	})

	rec := do(t, h, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, "/healthz", nil).Code)

	rec = do(t, h, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `suggestions_commands_total{command="list",result="ok"} 1`)
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
	ok, wait := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	ok, _ = rl.Allow("b")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := New(newSource(), Options{Logger: quietLogger(), RateLimit: 1, RateWindow: time.Hour})

	assert.Equal(t, http.StatusOK, do(t, h, "/v1/suggestions", nil).Code)
	rec := do(t, h, "/v1/suggestions", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
