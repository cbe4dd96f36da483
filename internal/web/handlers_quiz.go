package web

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ready4exam/worksheet/internal/auth"
	"github.com/ready4exam/worksheet/internal/profile"
	"github.com/ready4exam/worksheet/internal/quiz"
	"github.com/ready4exam/worksheet/internal/render"
)

const maxEventBytes = 16 << 10

// descriptor resolves the worksheet query. A known table fills in the class
// and subject the link left out.
func (s *Server) descriptor(q url.Values) quiz.Descriptor {
	d := quiz.ResolveParams(q, s.opts.Defaults)
	if e, ok := s.catalog.Lookup(d.Topic); ok {
		if q.Get("class") == "" {
			d.Class = e.Class
		}
		if q.Get("subject") == "" {
			d.Subject = e.Subject
		}
	}
	return d
}

func (s *Server) paywall(w http.ResponseWriter, r *http.Request, status int, reason string) {
	s.render(w, r, status, render.PagePaywall, render.PaywallPage{
		Header:   render.Header{Title: "Sign in to continue", Greeting: greeting(r)},
		Reason:   reason,
		LoginURL: loginURL(r),
	})
}

// handleStart opens a worksheet. The question fetch and the access check run
// concurrently; a denied user's session is discarded.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		s.paywall(w, r, http.StatusUnauthorized, "")
		return
	}
	d := s.descriptor(r.URL.Query())

	var (
		sess     *quiz.Session
		decision profile.Decision
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		sess, err = s.engine.Start(gctx, user.UID, d)
		return err
	})
	g.Go(func() error {
		decision = s.access.Check(gctx, identity(user), d.Class)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}

	if !decision.Allowed {
		if err := s.engine.Discard(r.Context(), sess.ID); err != nil {
			slog.Warn("failed to discard denied session", "session_id", sess.ID, "error", err)
		}
		s.paywall(w, r, http.StatusForbidden, decision.Reason)
		return
	}
	http.Redirect(w, r, "/quiz/"+sess.ID, http.StatusSeeOther)
}

// handleShow renders a session: the worksheet while in progress, the score
// once submitted, and every question with marking under ?view=review.
func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		s.paywall(w, r, http.StatusUnauthorized, "")
		return
	}
	sess, err := s.engine.Session(r.Context(), chi.URLParam(r, "id"), user.UID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	switch {
	case sess.Submitted && r.URL.Query().Get("view") == "review":
		items, err := sess.Review()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, render.PageReview, render.NewReviewPage(sess, items, user.Greeting()))
	case sess.Submitted:
		s.render(w, r, http.StatusOK, render.PageResults, render.NewResultsPage(sess, user.Greeting()))
	default:
		s.render(w, r, http.StatusOK, render.PageQuiz, render.NewQuizPage(sess, user.Greeting()))
	}
}

type eventResponse struct {
	Screen   quiz.Screen       `json:"screen"`
	State    quiz.State        `json:"state"`
	Position int               `json:"position"`
	Total    int               `json:"total"`
	Answers  map[string]string `json:"answers"`
	Summary  *quiz.Summary     `json:"summary,omitempty"`
	Status   string            `json:"status,omitempty"`
	Location string            `json:"location"`
}

// handleEvent applies one UI event. Form posts are answered with a redirect
// to the next screen, JSON posts with the resulting session state.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "Please sign in to continue.")
		return
	}
	in, isJSON, err := decodeInput(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "Malformed event.")
		return
	}

	sess, screen, err := s.engine.Apply(r.Context(), chi.URLParam(r, "id"), user.UID, in)
	if err != nil && (isJSON || sess == nil) {
		s.fail(w, r, err)
		return
	}
	if err != nil {
		// A rejected click on a form page redraws the current screen.
		slog.Debug("event rejected", "session_id", sess.ID, "action", in.Action, "error", err)
	}

	loc := location(sess, screen)
	if !isJSON {
		http.Redirect(w, r, loc, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{
		Screen:   screen,
		State:    sess.State(),
		Position: sess.Position,
		Total:    len(sess.Questions),
		Answers:  sess.Answers,
		Summary:  sess.Summary,
		Status:   sess.Status,
		Location: loc,
	})
}

func decodeInput(w http.ResponseWriter, r *http.Request) (quiz.Input, bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBytes)

	var in quiz.Input
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, true, err
		}
		in.Option = quiz.NormalizeOptionKey(in.Option)
		return in, true, nil
	}

	if err := r.ParseForm(); err != nil {
		return in, false, err
	}
	in = quiz.Input{
		Action:     quiz.Action(r.PostForm.Get("action")),
		QuestionID: r.PostForm.Get("question_id"),
		Option:     quiz.NormalizeOptionKey(r.PostForm.Get("option")),
		Difficulty: r.PostForm.Get("difficulty"),
	}
	return in, false, nil
}

// location is the page that shows screen for the session.
func location(sess *quiz.Session, screen quiz.Screen) string {
	switch screen {
	case quiz.ScreenReview:
		return "/quiz/" + sess.ID + "?view=review"
	case quiz.ScreenChapters:
		return render.ChaptersURL(sess.Descriptor.Class, sess.Descriptor.Subject)
	default:
		return "/quiz/" + sess.ID
	}
}
