package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"glean/internal/history"
	"glean/internal/journal"
	"glean/internal/score"
	"glean/internal/score/grade"
	"glean/internal/score/rule"
	"glean/internal/score/scorer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRules struct {
	rules  rule.Set
	issues []rule.Issue
}

func (s staticRules) Rules() rule.Set {
	return s.rules
}

func (s staticRules) Issues() []rule.Issue {
	return s.issues
}

type memoryJournal struct {
	entries []history.Entry
}

func (m *memoryJournal) Append(e history.Entry) {
	m.entries = append(m.entries, e)
}

func (m *memoryJournal) Close() {}

var _ journal.Journal = (*memoryJournal)(nil)

func newTestRouter(t *testing.T, token string) (http.Handler, *memoryJournal) {
	t.Helper()

	spam, err := rule.New("Spam words", rule.CheckContains, 50, rule.AllFields(), []any{"viagra"})
	require.NoError(t, err)
	odd := rule.Rule{Name: "Rhymes", Check: "sounds_like", Score: 5, Target: rule.AllFields()}
	rules := staticRules{
		rules:  rule.Set{spam, odd},
		issues: []rule.Issue{{Index: 1, Name: "Broken", Err: assert.AnError}},
	}

	engine := score.NewEngine()
	j := &memoryJournal{}
	router := NewApiV1Router(
		token,
		scorer.NewRulesScorer(engine, rules, "_"),
		engine.Bands(),
		rules,
		history.NewRepository(5, time.Hour),
		j,
	)
	return router.Mux(), j
}

const form = `{
	"id": "form-1",
	"fields": {"name": "Bob", "message": "Buy viagra now"},
	"meta": {"ip_address": "192.0.2.1", "duration": 12}
}`

func TestApiV1Router_Evaluate(t *testing.T) {
	mux, j := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations?detailed=true", strings.NewReader(form))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "form-1", body["submission_id"])
	assert.Equal(t, float64(50), body["score"])
	assert.Equal(t, "quality", body["grade"])

	result := body["result"].(map[string]any)
	assert.Equal(t, "scored", result["outcome"])
	assert.Equal(t, []any{"Spam words which added 50 points."}, result["explanation"])

	require.Len(t, j.entries, 1)
	assert.Equal(t, "form-1", j.entries[0].SubmissionID)
}

func TestApiV1Router_History(t *testing.T) {
	mux, _ := newTestRouter(t, "")

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", strings.NewReader(form))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/form-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/form-1/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var latest map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, entries[1]["id"], latest["id"])
	assert.Equal(t, "form-1", latest["submission_id"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/unknown/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApiV1Router_Evaluate_BadRequests(t *testing.T) {
	mux, j := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	noFields := `{"meta": {"duration": 3}}`
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", strings.NewReader(noFields)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	badGrade := `{"fields": {"name": "x"}, "meta": {"duration": 3}, "grade": "bogus"}`
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", strings.NewReader(badGrade)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Empty(t, j.entries)
}

func TestApiV1Router_Authentication(t *testing.T) {
	mux, _ := newTestRouter(t, "s3cret")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/grades", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/grades", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/grades", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApiV1Router_Grades(t *testing.T) {
	mux, _ := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/grades", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var bands grade.Bands
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bands))
	assert.Equal(t, grade.Default, bands)
}

func TestApiV1Router_Rules(t *testing.T) {
	mux, _ := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body rulesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Rules)
	require.Len(t, body.Skipped, 1)
	assert.Contains(t, body.Skipped[0], "Broken")
	require.Len(t, body.Unknown, 1)
	assert.Contains(t, body.Unknown[0], "sounds_like")
}
