//go:build integration

package question_test

import (
	"context"
	"slices"
	"testing"

	"github.com/ready4exam/worksheet/internal/platform/database/dbtest"
	"github.com/ready4exam/worksheet/internal/question"
)

func TestPostgresStore_UpsertFetch(t *testing.T) {
	db := dbtest.New(t)
	store, err := question.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	ctx := context.Background()

	records := []question.Record{
		{ID: "q1", TopicID: "science_acids_salts_10_quiz", Difficulty: "Simple", QuestionType: "mcq",
			QuestionText: "Which is acidic?", Options: map[string]string{"A": "Lemon", "B": "Soap", "C": "Water", "D": "Salt"},
			CorrectAnswer: "A"},
		{ID: "q2", TopicID: "science_acids_salts_10_quiz", Difficulty: "Simple", QuestionType: "ar",
			QuestionText: "Assertion (A): HCl is strong.", ScenarioReasonText: "Reason (R): It ionizes fully.",
			CorrectAnswer: "A"},
	}
	if n, err := store.Upsert(ctx, records); err != nil || n != 2 {
		t.Fatalf("Upsert() = %d, %v", n, err)
	}

	records[0].QuestionText = "Which one is acidic?"
	if _, err := store.Upsert(ctx, records[:1]); err != nil {
		t.Fatalf("re-Upsert() error = %v", err)
	}

	qs, err := question.NewSource(store).FetchQuestions(ctx, "science_acids_salts_10_quiz", "simple")
	if err != nil {
		t.Fatalf("FetchQuestions() error = %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("len = %d, want 2", len(qs))
	}
	if qs[0].Text != "Which one is acidic?" || qs[0].Option("A") != "Lemon" {
		t.Errorf("qs[0] = %+v", qs[0])
	}
	if qs[1].Text != "HCl is strong." || qs[1].ScenarioReason != "It ionizes fully." {
		t.Errorf("qs[1] = %+v", qs[1])
	}
}

func TestPostgresResultStore_SaveResult(t *testing.T) {
	db := dbtest.New(t)
	results := question.NewPostgresResultStore(db.Pool)
	ctx := context.Background()

	if err := results.SaveResult(ctx, quizResult("user-1")); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	var score, total int
	if err := db.Pool.QueryRow(ctx,
		`SELECT score, total FROM quiz_results WHERE user_id = $1`, "user-1",
	).Scan(&score, &total); err != nil {
		t.Fatalf("query: %v", err)
	}
	if score != 2 || total != 3 {
		t.Errorf("score/total = %d/%d, want 2/3", score, total)
	}
}

func TestPostgresStore_OrderAndPositionalIDs(t *testing.T) {
	db := dbtest.New(t)
	store, err := question.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	ctx := context.Background()

	records := []question.Record{
		{TopicID: "t", Difficulty: "Simple", QuestionType: "mcq", Text: "no id", CorrectAnswer: "A"},
		{ID: "q1", TopicID: "t", Difficulty: "Simple", QuestionType: "mcq", Text: "real id", CorrectAnswer: "B"},
		{ID: "q10", TopicID: "t", Difficulty: "Simple", QuestionType: "mcq", Text: "tenth", CorrectAnswer: "C"},
	}
	if _, err := store.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := store.FetchRecords(ctx, "t", "Simple")
	if err != nil {
		t.Fatalf("FetchRecords() error = %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if want := []string{"q2", "q1", "q10"}; !slices.Equal(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}
