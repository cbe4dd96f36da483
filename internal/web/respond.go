package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ready4exam/worksheet/internal/quiz"
)

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: apiError{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	}})
}

// fail maps engine and store errors to HTTP responses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quiz.ErrSessionNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "Worksheet session not found.")
	case errors.Is(err, quiz.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden", "This worksheet belongs to another account.")
	case errors.Is(err, quiz.ErrInvalidOption),
		errors.Is(err, quiz.ErrUnknownQuestion),
		errors.Is(err, quiz.ErrUnknownAction),
		errors.Is(err, quiz.ErrNotStarted),
		errors.Is(err, quiz.ErrNotSubmitted):
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal", "Something went wrong.")
	}
}

// render writes a full HTML page. Template errors become a 500 because the
// page is buffered before anything is sent.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := s.view.Render(&buf, page, data); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
