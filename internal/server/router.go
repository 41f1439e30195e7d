package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"glean/internal/history"
	"glean/internal/journal"
	"glean/internal/score"
	"glean/internal/score/grade"
	"glean/internal/score/rule"
	"glean/internal/submission"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxBodyBytes limits the size of a submitted form.
const maxBodyBytes = 1 << 20

// RulesInspector exposes the currently loaded rule set.
type RulesInspector interface {
	Rules() rule.Set
	Issues() []rule.Issue
}

// ApiV1Router manages routes for API version 1.
type ApiV1Router struct {
	token   string
	scorer  score.SubmissionScorer
	bands   grade.Bands
	rules   RulesInspector
	history *history.Repository
	journal journal.Journal
}

type evaluationResponse struct {
	history.Entry
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

type rulesResponse struct {
	Rules   int      `json:"rules"`
	Skipped []string `json:"skipped"`
	Unknown []string `json:"unknown"`
}

// Mux returns the router with the following routes:
// - POST /api/v1/evaluations: scores a submitted form, ?detailed=true adds explanations
// - GET /api/v1/evaluations/{id}: evaluation history of a submission
// - GET /api/v1/evaluations/{id}/latest: most recent evaluation of a submission
// - GET /api/v1/grades: grade bands
// - GET /api/v1/rules: loaded and skipped rules
func (ar *ApiV1Router) Mux() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ar.authenticate)
		r.Post("/evaluations", ar.evaluateHandler)
		r.Get("/evaluations/{id}", ar.historyHandler)
		r.Get("/evaluations/{id}/latest", ar.latestHandler)
		r.Get("/grades", ar.gradesHandler)
		r.Get("/rules", ar.rulesHandler)
	})

	return r
}

// authenticate requires "Authorization: Bearer <token>" when a token is configured.
func (ar *ApiV1Router) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ar.token != "" {
			given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(ar.token)) != 1 {
				slog.Warn("Unauthorized API request", "path", r.URL.Path, "remote", r.RemoteAddr)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// evaluateHandler decodes a form, scores it and records the evaluation.
func (ar *ApiV1Router) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var form submission.Form
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&form); err != nil {
		slog.Warn("Unable to decode submission", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if form.ID == "" {
		form.ID = uuid.NewString()
	}

	sub, err := submission.FromForm(form)
	if err != nil {
		slog.Warn("Invalid submission", "id", form.ID, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	result, err := ar.scorer.Score(sub, detailed)
	if err != nil {
		var invalid *score.InvalidViewError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("Submission scoring failed", "id", sub.ID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	entry := history.Entry{
		ID:           uuid.NewString(),
		SubmissionID: sub.ID,
		EvaluatedAt:  time.Now().UTC(),
		Result:       result,
	}
	ar.history.Append(sub.ID, entry)
	ar.journal.Append(entry)

	writeJSON(w, http.StatusOK, evaluationResponse{Entry: entry, Score: sub.Score, Grade: sub.Grade})
}

// historyHandler returns the evaluations of the submission in the URL path.
func (ar *ApiV1Router) historyHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := ar.history.Get(id)
	if err != nil {
		slog.Warn("Evaluation history not found", "id", id)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// latestHandler returns the most recent evaluation of the submission in the URL path.
func (ar *ApiV1Router) latestHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := ar.history.Latest(id)
	if err != nil {
		slog.Warn("Evaluation history not found", "id", id)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (ar *ApiV1Router) gradesHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ar.bands)
}

func (ar *ApiV1Router) rulesHandler(w http.ResponseWriter, _ *http.Request) {
	rules := ar.rules.Rules()
	resp := rulesResponse{Rules: len(rules), Skipped: []string{}, Unknown: []string{}}
	for _, issue := range ar.rules.Issues() {
		resp.Skipped = append(resp.Skipped, issue.Error())
	}
	for _, r := range rules.Unknown() {
		resp.Unknown = append(resp.Unknown, r.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Unable to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// NewApiV1Router creates a new API v1 router.
// Parameters:
// - token: bearer token required on requests, empty disables authentication
// - scorer: scores submissions
// - bands: grade bands reported by /grades
// - rules: current rule set, reported by /rules
// - historyRepo: evaluation history
// - journal: evaluation journal, use journal.Discard{} to disable
func NewApiV1Router(
	token string,
	scorer score.SubmissionScorer,
	bands grade.Bands,
	rules RulesInspector,
	historyRepo *history.Repository,
	journal journal.Journal,
) *ApiV1Router {
	return &ApiV1Router{
		token:   token,
		scorer:  scorer,
		bands:   bands,
		rules:   rules,
		history: historyRepo,
		journal: journal,
	}
}
