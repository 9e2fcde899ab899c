package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mockmate/mockmate/internal/model"
	"github.com/mockmate/mockmate/internal/resume"
	"github.com/mockmate/mockmate/internal/session"
	"github.com/mockmate/mockmate/internal/store"
)

// maxResumeSize bounds uploaded resume files.
const maxResumeSize = 10 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	machine *session.Machine
	store   *store.Store
}

// New creates a new Handler.
func New(m *session.Machine, s *store.Store) *Handler {
	return &Handler{machine: m, store: s}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/session", h.handleSessionState)
	r.Post("/api/session/resume", h.handleUploadResume)
	r.Post("/api/session/details", h.handleProvideDetail)
	r.Post("/api/session/start", h.handleStart)
	r.Post("/api/session/draft", h.handleDraft)
	r.Post("/api/session/answer", h.handleAnswer)
	r.Post("/api/session/continue", h.handleContinue)
	r.Post("/api/session/restart", h.handleRestart)

	r.Get("/api/interviews", h.handleListInterviews)
	r.Get("/api/interviews/stats", h.handleStats)
	r.Get("/api/interviews/{id}", h.handleGetInterview)
	r.Delete("/api/interviews", h.handleClearInterviews)
	r.Post("/api/interviews/{id}/retain", h.handleRetainInterview)
}

// sessionView is the candidate-facing session snapshot. The full question
// list and collected answers stay server-side.
type sessionView struct {
	Stage            model.Stage             `json:"stage"`
	Details          *model.CandidateDetails `json:"details,omitempty"`
	MissingFields    []model.Field           `json:"missing_fields,omitempty"`
	ChatPrompt       string                  `json:"chat_prompt,omitempty"`
	QuestionNumber   int                     `json:"question_number"`
	TotalQuestions   int                     `json:"total_questions"`
	CurrentQuestion  *model.Question         `json:"current_question,omitempty"`
	RemainingSeconds int                     `json:"remaining_seconds"`
	Score            int                     `json:"score"`
	Summary          string                  `json:"summary,omitempty"`
	ResumePending    bool                    `json:"resume_pending,omitempty"`
}

func (h *Handler) currentView() sessionView {
	snap := h.machine.Snapshot()
	view := sessionView{
		Stage:         snap.Stage,
		ResumePending: h.machine.ResumePending(),
	}

	switch snap.Stage {
	case model.StageCollectDetails:
		details := snap.Details
		view.Details = &details
		view.MissingFields = details.MissingFields()
		view.ChatPrompt = h.machine.NextPrompt()
	case model.StageReady:
		details := snap.Details
		view.Details = &details
	case model.StageInProgress:
		view.TotalQuestions = len(snap.Questions)
		// Between the last answer and the evaluation result the stage is
		// still in_progress but no question is active.
		if snap.Current < len(snap.Questions) {
			q := snap.Questions[snap.Current]
			view.QuestionNumber = snap.Current + 1
			view.CurrentQuestion = &q
			view.RemainingSeconds = snap.RemainingSeconds
		}
	case model.StageComplete:
		view.Score = snap.Score
		view.Summary = snap.Summary
	}
	return view
}

func (h *Handler) handleSessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *Handler) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxResumeSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing resume file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxResumeSize))
	if err != nil {
		http.Error(w, "read resume file", http.StatusInternalServerError)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	details, err := resume.Parse(bytes.NewReader(data), int64(len(data)), mimeType)
	if errors.Is(err, resume.ErrUnsupportedType) {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		slog.Error("resume parsing failed", "error", err, "mime_type", mimeType)
		http.Error(w, "failed to parse resume: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.machine.SetDetails(details); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *Handler) handleProvideDetail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.machine.ProvideDetail(req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Start(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.machine.SetDraft(req.Text); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAnswer submits the final text for the current question and
// advances. On the last question this runs the evaluation, so the response
// may take a while.
func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.machine.SetDraft(req.Text); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err := h.machine.Next(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *Handler) handleContinue(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Continue(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	if err := h.machine.Restart(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *Handler) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("q")
	sortBy := model.SortKey(r.URL.Query().Get("sort"))
	switch sortBy {
	case "", model.SortByName, model.SortByTimestamp, model.SortByScore:
	default:
		http.Error(w, fmt.Sprintf("invalid sort key %q", sortBy), http.StatusBadRequest)
		return
	}

	records, err := h.store.List(filter, sortBy)
	if err != nil {
		slog.Error("failed to list interviews", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.InterviewRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("failed to load interview", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "interview not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		slog.Error("failed to compute stats", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
