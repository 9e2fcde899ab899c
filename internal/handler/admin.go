package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleClearInterviews(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(); err != nil {
		slog.Error("failed to clear interviews", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRetainInterview deletes every interview except the named one.
func (h *Handler) handleRetainInterview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.Get(id)
	if err != nil {
		slog.Error("failed to load interview", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "interview not found", http.StatusNotFound)
		return
	}
	if err := h.store.Retain(id); err != nil {
		slog.Error("failed to retain interview", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
