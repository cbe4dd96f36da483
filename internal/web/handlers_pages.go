package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ready4exam/worksheet/internal/catalog"
	"github.com/ready4exam/worksheet/internal/quiz"
	"github.com/ready4exam/worksheet/internal/render"
)

const readyTimeout = 2 * time.Second

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleChapters lists the chapters of one subject. Missing parameters fall
// back to the first class and subject in the catalog.
func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	class := strings.TrimSpace(q.Get("class"))
	if class == "" {
		if classes := s.catalog.Classes(); len(classes) > 0 {
			class = classes[0]
		} else {
			class = s.opts.Defaults.Class
		}
	}
	grade, ok := s.catalog.Grade(class)
	if !ok {
		grade = catalog.Grade{Class: class}
	}

	subject := strings.TrimSpace(q.Get("subject"))
	if sub, ok := s.catalog.Subject(class, subject); ok {
		subject = sub.Name
	} else if len(grade.Subjects) > 0 {
		subject = grade.Subjects[0].Name
	}

	difficulty := quiz.NormalizeDifficulty(q.Get("difficulty"), s.opts.Defaults.Difficulty)
	s.render(w, r, http.StatusOK, render.PageChapters, render.NewChaptersPage(grade, subject, difficulty, greeting(r)))
}
