package quiz_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ready4exam/worksheet/internal/quiz"
)

type fakeSource struct {
	mu    sync.Mutex
	sets  map[string][]quiz.Question // keyed by difficulty
	err   error
	calls int
}

func (f *fakeSource) FetchQuestions(_ context.Context, _, difficulty string) ([]quiz.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sets[difficulty], nil
}

type fakeResults struct {
	saved chan quiz.Result
}

func (f *fakeResults) SaveResult(_ context.Context, r quiz.Result) error {
	f.saved <- r
	return nil
}

func newTestEngine(t *testing.T, src *fakeSource) (*quiz.Engine, *fakeResults, *quiz.MemoryEventLogger) {
	t.Helper()
	results := &fakeResults{saved: make(chan quiz.Result, 1)}
	events := quiz.NewMemoryEventLogger()
	engine := quiz.NewEngine(quiz.EngineConfig{
		Questions: src,
		Results:   results,
		Events:    events,
	})
	return engine, results, events
}

func threeMCQ() *fakeSource {
	return &fakeSource{sets: map[string][]quiz.Question{
		"Simple": {mcq("q1", "A"), mcq("q2", "C"), mcq("q3", "D")},
		"Medium": {mcq("m1", "B")},
	}}
}

var testDescriptor = quiz.Descriptor{Class: "10", Subject: "Science", Topic: "science_acids_salts_10_quiz", Difficulty: "Simple"}

func TestEngine_StartLoadsQuestions(t *testing.T) {
	engine, _, events := newTestEngine(t, threeMCQ())

	sess, err := engine.Start(context.Background(), "user-1", testDescriptor)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("Start() returned session without ID")
	}
	if sess.State() != quiz.StateInProgress {
		t.Errorf("State() = %s, want in-progress", sess.State())
	}
	if len(sess.Questions) != 3 {
		t.Errorf("len(Questions) = %d, want 3", len(sess.Questions))
	}

	evs := events.Events()
	if len(evs) != 1 || evs[0].EventType != quiz.EventQuizStarted {
		t.Errorf("events = %+v, want one quiz_started", evs)
	}
}

func TestEngine_StartFetchErrorStaysLoading(t *testing.T) {
	src := &fakeSource{err: errors.New("backend unavailable")}
	engine, _, _ := newTestEngine(t, src)

	sess, err := engine.Start(context.Background(), "user-1", testDescriptor)
	if err != nil {
		t.Fatalf("Start() should not fail on fetch errors, got %v", err)
	}
	if sess.State() != quiz.StateLoading {
		t.Errorf("State() = %s, want loading", sess.State())
	}
	if sess.Status == "" {
		t.Error("Status should carry the fetch error")
	}
	if src.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (no retry)", src.calls)
	}
}

func TestEngine_StartEmptySetLogsNoQuestions(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	engine, _, _ := newTestEngine(t, threeMCQ())
	d := testDescriptor
	d.Difficulty = quiz.DifficultyAdvanced

	sess, err := engine.Start(context.Background(), "user-1", d)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.State() != quiz.StateLoading || sess.Status == "" {
		t.Errorf("session = %s %q, want loading with a status", sess.State(), sess.Status)
	}
	if out := buf.String(); !strings.Contains(out, "worksheet has no questions") || strings.Contains(out, "failed to load questions") {
		t.Errorf("log = %q", out)
	}
}

func TestEngine_AnswerNavigateSubmit(t *testing.T) {
	engine, results, _ := newTestEngine(t, threeMCQ())
	ctx := context.Background()

	sess, _ := engine.Start(ctx, "user-1", testDescriptor)

	steps := []quiz.Input{
		{Action: quiz.ActionAnswer, QuestionID: "q1", Option: "A"},
		{Action: quiz.ActionNext},
		{Action: quiz.ActionAnswer, QuestionID: "q2", Option: "B"},
		{Action: quiz.ActionNext},
		{Action: quiz.ActionNext},
	}
	for _, in := range steps {
		if _, _, err := engine.Apply(ctx, sess.ID, "user-1", in); err != nil {
			t.Fatalf("Apply(%s) error = %v", in.Action, err)
		}
	}

	got, screen, err := engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionSubmit})
	if err != nil {
		t.Fatalf("Apply(submit) error = %v", err)
	}
	if screen != quiz.ScreenResults {
		t.Errorf("screen = %s, want results", screen)
	}
	if got.Position != 2 {
		t.Errorf("Position = %d, want 2", got.Position)
	}

	want := quiz.Summary{Total: 3, Correct: 1, MCQ: quiz.Tally{Correct: 1, Wrong: 2, Total: 3}}
	if got.Summary == nil || *got.Summary != want {
		t.Errorf("Summary = %+v, want %+v", got.Summary, want)
	}

	select {
	case r := <-results.saved:
		if r.Score != 1 || r.Total != 3 || r.UserID != "user-1" {
			t.Errorf("saved result = %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("result was not saved")
	}
}

func TestEngine_SubmitTwiceShowsResults(t *testing.T) {
	engine, results, _ := newTestEngine(t, threeMCQ())
	ctx := context.Background()
	sess, _ := engine.Start(ctx, "user-1", testDescriptor)

	_, _, _ = engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionSubmit})
	<-results.saved

	_, screen, err := engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionSubmit})
	if err != nil {
		t.Fatalf("second submit error = %v", err)
	}
	if screen != quiz.ScreenResults {
		t.Errorf("screen = %s, want results", screen)
	}
	select {
	case r := <-results.saved:
		t.Errorf("result saved twice: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_ReviewRequiresSubmit(t *testing.T) {
	engine, _, _ := newTestEngine(t, threeMCQ())
	ctx := context.Background()
	sess, _ := engine.Start(ctx, "user-1", testDescriptor)

	_, _, err := engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionReview})
	if !errors.Is(err, quiz.ErrNotSubmitted) {
		t.Fatalf("review before submit error = %v, want ErrNotSubmitted", err)
	}

	_, _, _ = engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionSubmit})
	_, screen, err := engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionReview})
	if err != nil {
		t.Fatalf("review error = %v", err)
	}
	if screen != quiz.ScreenReview {
		t.Errorf("screen = %s, want review", screen)
	}
}

func TestEngine_ChangeDifficultyResets(t *testing.T) {
	src := threeMCQ()
	engine, _, events := newTestEngine(t, src)
	ctx := context.Background()
	sess, _ := engine.Start(ctx, "user-1", testDescriptor)

	_, _, _ = engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionAnswer, QuestionID: "q1", Option: "A"})
	_, _, _ = engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionNext})

	got, screen, err := engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionChangeDifficulty, Difficulty: "medium"})
	if err != nil {
		t.Fatalf("change difficulty error = %v", err)
	}
	if screen != quiz.ScreenQuestion {
		t.Errorf("screen = %s, want question", screen)
	}
	if got.Position != 0 {
		t.Errorf("Position = %d, want 0", got.Position)
	}
	if len(got.Answers) != 0 {
		t.Errorf("Answers = %v, want empty", got.Answers)
	}
	if got.Descriptor.Difficulty != "Medium" {
		t.Errorf("Difficulty = %q, want Medium", got.Descriptor.Difficulty)
	}
	if len(got.Questions) != 1 || got.Questions[0].ID != "m1" {
		t.Errorf("Questions = %+v, want the Medium set", got.Questions)
	}
	if src.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", src.calls)
	}

	last := events.Events()[len(events.Events())-1]
	if last.EventType != quiz.EventDifficultyChanged {
		t.Errorf("last event = %s, want difficulty_changed", last.EventType)
	}
}

func TestEngine_BackShowsChapters(t *testing.T) {
	engine, _, _ := newTestEngine(t, threeMCQ())
	ctx := context.Background()
	sess, _ := engine.Start(ctx, "user-1", testDescriptor)

	_, screen, err := engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionBack})
	if err != nil {
		t.Fatalf("back error = %v", err)
	}
	if screen != quiz.ScreenChapters {
		t.Errorf("screen = %s, want chapters", screen)
	}
}

func TestEngine_RejectsOtherUser(t *testing.T) {
	engine, _, _ := newTestEngine(t, threeMCQ())
	ctx := context.Background()
	sess, _ := engine.Start(ctx, "user-1", testDescriptor)

	_, _, err := engine.Apply(ctx, sess.ID, "user-2", quiz.Input{Action: quiz.ActionNext})
	if !errors.Is(err, quiz.ErrForbidden) {
		t.Errorf("Apply() by other user error = %v, want ErrForbidden", err)
	}
}

func TestEngine_UnknownAction(t *testing.T) {
	engine, _, _ := newTestEngine(t, threeMCQ())
	ctx := context.Background()
	sess, _ := engine.Start(ctx, "user-1", testDescriptor)

	if _, _, err := engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: "explode"}); !errors.Is(err, quiz.ErrUnknownAction) {
		t.Error("Apply() should reject unknown actions")
	}
}

func TestEngine_ConcurrentAnswers(t *testing.T) {
	engine, _, _ := newTestEngine(t, threeMCQ())
	ctx := context.Background()
	sess, _ := engine.Start(ctx, "user-1", testDescriptor)

	var wg sync.WaitGroup
	for _, id := range []string{"q1", "q2", "q3"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = engine.Apply(ctx, sess.ID, "user-1", quiz.Input{Action: quiz.ActionAnswer, QuestionID: id, Option: "A"})
		}()
	}
	wg.Wait()

	got, err := engine.Session(ctx, sess.ID, "user-1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if len(got.Answers) != 3 {
		t.Errorf("Answers = %v, want all three recorded", got.Answers)
	}
}
