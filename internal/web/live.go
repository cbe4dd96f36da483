package web

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/ready4exam/worksheet/internal/auth"
	"github.com/ready4exam/worksheet/internal/quiz"
	"github.com/ready4exam/worksheet/internal/render"
)

const liveWriteTimeout = 10 * time.Second

// liveFrame is pushed after every input on the live channel. In-progress
// worksheets carry the redrawn question block; every other screen carries
// the page to navigate to.
type liveFrame struct {
	Screen   quiz.Screen `json:"screen"`
	HTML     string      `json:"html,omitempty"`
	Location string      `json:"location,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// handleLive upgrades to a websocket that accepts quiz.Input messages and
// answers each with a liveFrame.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthenticated", "Please sign in to continue.")
		return
	}
	id := chi.URLParam(r, "id")
	sess, err := s.engine.Session(r.Context(), id, user.UID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// The server's request deadlines would otherwise cut the socket.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.opts.AllowedOrigins})
	if err != nil {
		slog.Warn("websocket upgrade failed", "session_id", id, "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	if err := s.push(ctx, conn, s.frame(sess, quiz.ScreenQuestion, user.Greeting())); err != nil {
		return
	}

	for {
		var in quiz.Input
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("live channel closed", "session_id", id, "error", err)
			}
			return
		}
		in.Option = quiz.NormalizeOptionKey(in.Option)

		next, screen, err := s.engine.Apply(ctx, id, user.UID, in)
		if next == nil {
			_ = s.push(ctx, conn, liveFrame{Error: err.Error()})
			conn.Close(websocket.StatusPolicyViolation, "session unavailable")
			return
		}
		frame := s.frame(next, screen, user.Greeting())
		if err != nil {
			frame.Error = err.Error()
		}
		if err := s.push(ctx, conn, frame); err != nil {
			return
		}
	}
}

func (s *Server) frame(sess *quiz.Session, screen quiz.Screen, greeting string) liveFrame {
	if screen != quiz.ScreenQuestion || sess.Submitted {
		return liveFrame{Screen: screen, Location: location(sess, screen)}
	}
	var buf bytes.Buffer
	if err := s.view.Fragment(&buf, render.NewQuizPage(sess, greeting)); err != nil {
		slog.Error("failed to render live fragment", "session_id", sess.ID, "error", err)
		return liveFrame{Screen: screen, Location: location(sess, screen)}
	}
	return liveFrame{Screen: screen, HTML: buf.String()}
}

func (s *Server) push(ctx context.Context, conn *websocket.Conn, f liveFrame) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, f); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Debug("live write failed", "error", err)
		}
		return err
	}
	return nil
}
