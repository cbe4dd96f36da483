package quiz

import (
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle stage of a session.
type State string

const (
	StateLoading    State = "loading"
	StateInProgress State = "in-progress"
	StateSubmitted  State = "submitted"
)

var (
	ErrNoQuestions      = errors.New("no questions available")
	ErrNotStarted       = errors.New("session has no questions loaded")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrNotSubmitted     = errors.New("session not submitted")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrInvalidOption    = errors.New("invalid option")
)

// Session is one attempt at a worksheet.
type Session struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Descriptor Descriptor        `json:"descriptor"`
	Questions  []Question        `json:"questions"`
	Position   int               `json:"position"`
	Answers    map[string]string `json:"answers"`
	Submitted  bool              `json:"submitted"`
	Summary    *Summary          `json:"summary,omitempty"`
	Status     string            `json:"status,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewSession returns a session in the loading state.
func NewSession(userID string, d Descriptor) *Session {
	now := time.Now()
	return &Session{
		UserID:     userID,
		Descriptor: d,
		Answers:    map[string]string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// State derives the lifecycle stage.
func (s *Session) State() State {
	switch {
	case s.Submitted:
		return StateSubmitted
	case len(s.Questions) == 0:
		return StateLoading
	default:
		return StateInProgress
	}
}

// Load moves a loading session to in-progress. An empty question list keeps
// the session loading and records a status message.
func (s *Session) Load(questions []Question) error {
	if s.State() != StateLoading {
		return fmt.Errorf("load in state %s", s.State())
	}
	if len(questions) == 0 {
		s.Status = "No questions found for this worksheet yet."
		return ErrNoQuestions
	}
	s.Questions = questions
	s.Position = 0
	s.Status = ""
	s.touch()
	return nil
}

// Fail records a fetch failure. The session stays loading.
func (s *Session) Fail(err error) {
	s.Status = fmt.Sprintf("Error: %v", err)
	s.touch()
}

// Current returns the question at the current position.
func (s *Session) Current() (Question, bool) {
	if s.Position < 0 || s.Position >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Position], true
}

// Select records or overwrites the answer for a question. It is a no-op
// after submission.
func (s *Session) Select(questionID, option string) error {
	switch s.State() {
	case StateSubmitted:
		return nil
	case StateLoading:
		return ErrNotStarted
	}
	if !ValidOption(option) {
		return fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}
	if _, ok := s.question(questionID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	s.Answers[questionID] = option
	s.touch()
	return nil
}

// Move steps the position by delta, clamped to the question range.
func (s *Session) Move(delta int) {
	if len(s.Questions) == 0 {
		return
	}
	s.Position = clamp(s.Position+delta, 0, len(s.Questions)-1)
	s.touch()
}

// Submit freezes the session and scores it. It succeeds once.
func (s *Session) Submit() (Summary, error) {
	switch s.State() {
	case StateSubmitted:
		return *s.Summary, ErrAlreadySubmitted
	case StateLoading:
		return Summary{}, ErrNotStarted
	}
	sum := Score(s.Questions, s.Answers)
	s.Submitted = true
	s.Summary = &sum
	s.touch()
	return sum, nil
}

// Reset restarts the attempt at the given difficulty: questions, answers,
// position and submission are all cleared.
func (s *Session) Reset(difficulty string) {
	s.Descriptor.Difficulty = difficulty
	s.Questions = nil
	s.Answers = map[string]string{}
	s.Position = 0
	s.Submitted = false
	s.Summary = nil
	s.Status = ""
	s.touch()
}

// ReviewItem is one row of the post-submission review.
type ReviewItem struct {
	Position int
	Question Question
	Selected string
	Correct  bool
}

// Review lists every question with the recorded answer.
func (s *Session) Review() ([]ReviewItem, error) {
	if !s.Submitted {
		return nil, ErrNotSubmitted
	}
	items := make([]ReviewItem, 0, len(s.Questions))
	for i, q := range s.Questions {
		sel := s.Answers[q.ID]
		items = append(items, ReviewItem{
			Position: i + 1,
			Question: q,
			Selected: sel,
			Correct:  q.IsCorrect(sel),
		})
	}
	return items, nil
}

func (s *Session) question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
