package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"
)

const resultTimeout = 10 * time.Second

var (
	// ErrForbidden is returned when a user acts on someone else's session.
	ErrForbidden     = errors.New("session belongs to another user")
	ErrUnknownAction = errors.New("unknown action")
)

// Action names the UI control that triggered an event. The values match the
// button identifiers of the worksheet page.
type Action string

const (
	ActionAnswer           Action = "answer"
	ActionPrev             Action = "prev-btn"
	ActionNext             Action = "next-btn"
	ActionSubmit           Action = "submit-btn"
	ActionReview           Action = "btn-review-errors"
	ActionChangeDifficulty Action = "difficulty-change"
	ActionBack             Action = "back-to-chapters-btn"
)

// Input is a single UI event applied to a session.
type Input struct {
	Action     Action `json:"action"`
	QuestionID string `json:"question_id,omitempty"`
	Option     string `json:"option,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Screen tells the presentation layer what to show after an input.
type Screen string

const (
	ScreenQuestion Screen = "question"
	ScreenResults  Screen = "results"
	ScreenReview   Screen = "review"
	ScreenChapters Screen = "chapters"
)

// QuestionSource fetches the question set for a descriptor.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, topicID, difficulty string) ([]Question, error)
}

// Result is what gets persisted when a session is submitted.
type Result struct {
	SessionID  string            `json:"session_id"`
	UserID     string            `json:"user_id"`
	Descriptor Descriptor        `json:"descriptor"`
	Score      int               `json:"score"`
	Total      int               `json:"total"`
	Summary    Summary           `json:"summary"`
	Answers    map[string]string `json:"answers"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ResultSaver persists submitted results.
type ResultSaver interface {
	SaveResult(ctx context.Context, r Result) error
}

// EngineConfig holds dependencies for the quiz engine.
type EngineConfig struct {
	Questions QuestionSource
	Results   ResultSaver // optional
	Store     SessionStore
	Events    EventLogger
}

// Engine drives sessions through their state machine.
type Engine struct {
	questions QuestionSource
	results   ResultSaver
	store     SessionStore
	events    EventLogger
	locks     sessionLocks
}

// NewEngine creates a quiz engine.
func NewEngine(cfg EngineConfig) *Engine {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	return &Engine{
		questions: cfg.Questions,
		results:   cfg.Results,
		store:     store,
		events:    events,
		locks:     sessionLocks{entries: map[string]*lockEntry{}},
	}
}

// Start creates a session for the user and loads its questions. Fetch
// failures and empty sets leave the session loading with a status message;
// only storage failures are returned as errors.
func (e *Engine) Start(ctx context.Context, userID string, d Descriptor) (*Session, error) {
	sess := NewSession(userID, d)
	if _, err := e.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	e.load(ctx, sess)

	if err := e.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	e.logEvent(sess, EventQuizStarted, map[string]any{
		"topic":      d.Topic,
		"difficulty": d.Difficulty,
		"questions":  len(sess.Questions),
	})
	return sess, nil
}

// Session returns the stored session after checking ownership.
func (e *Engine) Session(ctx context.Context, id, userID string) (*Session, error) {
	sess, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrForbidden
	}
	return sess, nil
}

// Discard removes a session, e.g. when access is denied after it was started.
func (e *Engine) Discard(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

// Apply runs one input against a session and returns the updated session
// with the screen to show next.
func (e *Engine) Apply(ctx context.Context, id, userID string, in Input) (*Session, Screen, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	sess, err := e.Session(ctx, id, userID)
	if err != nil {
		return nil, "", err
	}

	screen := ScreenQuestion
	switch in.Action {
	case ActionAnswer:
		if sess.Submitted {
			break
		}
		if err := sess.Select(in.QuestionID, in.Option); err != nil {
			return sess, screen, err
		}
		e.logEvent(sess, EventAnswerSelected, map[string]any{
			"question_id": in.QuestionID,
			"option":      in.Option,
		})
	case ActionPrev:
		sess.Move(-1)
	case ActionNext:
		sess.Move(1)
	case ActionSubmit:
		sum, err := sess.Submit()
		if errors.Is(err, ErrAlreadySubmitted) {
			return sess, ScreenResults, nil
		}
		if err != nil {
			return sess, screen, err
		}
		screen = ScreenResults
		e.saveResult(ctx, sess, sum)
		e.logEvent(sess, EventQuizSubmitted, map[string]any{
			"score": sum.Correct,
			"total": sum.Total,
		})
	case ActionReview:
		if !sess.Submitted {
			return sess, screen, ErrNotSubmitted
		}
		screen = ScreenReview
	case ActionChangeDifficulty:
		from := sess.Descriptor.Difficulty
		sess.Reset(NormalizeDifficulty(in.Difficulty, from))
		e.load(ctx, sess)
		e.logEvent(sess, EventDifficultyChanged, map[string]any{
			"from": from,
			"to":   sess.Descriptor.Difficulty,
		})
	case ActionBack:
		return sess, ScreenChapters, nil
	default:
		return sess, screen, fmt.Errorf("%w %q", ErrUnknownAction, in.Action)
	}

	if err := e.store.Save(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}
	return sess, screen, nil
}

func (e *Engine) load(ctx context.Context, sess *Session) {
	if e.questions == nil {
		sess.Fail(fmt.Errorf("question source not configured"))
		return
	}
	d := sess.Descriptor
	questions, err := e.questions.FetchQuestions(ctx, d.Topic, d.Difficulty)
	if err != nil {
		slog.Warn("question fetch failed",
			"session_id", sess.ID,
			"topic", d.Topic,
			"difficulty", d.Difficulty,
			"error", err,
		)
		sess.Fail(err)
		return
	}
	switch err := sess.Load(questions); {
	case errors.Is(err, ErrNoQuestions):
		slog.Info("worksheet has no questions", "topic", d.Topic, "difficulty", d.Difficulty)
	case err != nil:
		slog.Warn("failed to load questions", "session_id", sess.ID, "state", sess.State(), "error", err)
	}
}

// saveResult writes the result in the background; the caller never waits.
func (e *Engine) saveResult(ctx context.Context, sess *Session, sum Summary) {
	if e.results == nil {
		return
	}
	r := Result{
		SessionID:  sess.ID,
		UserID:     sess.UserID,
		Descriptor: sess.Descriptor,
		Score:      sum.Correct,
		Total:      sum.Total,
		Summary:    sum,
		Answers:    maps.Clone(sess.Answers),
		CreatedAt:  time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resultTimeout)
		defer cancel()
		if err := e.results.SaveResult(ctx, r); err != nil {
			slog.Warn("failed to save result", "session_id", r.SessionID, "error", err)
		}
	}()
}

func (e *Engine) logEvent(sess *Session, eventType string, data map[string]any) {
	if err := e.events.LogEvent(Event{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		EventType: eventType,
		Data:      data,
	}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "error", err)
	}
}

// sessionLocks serializes inputs per session id.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
