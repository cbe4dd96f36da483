package quiz_test

import (
	"testing"

	"github.com/ready4exam/worksheet/internal/quiz"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		typ  string
		want quiz.Category
	}{
		{"mcq", quiz.CategoryMCQ},
		{"MCQ", quiz.CategoryMCQ},
		{"", quiz.CategoryMCQ},
		{"ar", quiz.CategoryAssertionReason},
		{"AR", quiz.CategoryAssertionReason},
		{"assertion-reason", quiz.CategoryAssertionReason},
		{"case-study", quiz.CategoryCaseStudy},
		{"Case Based", quiz.CategoryCaseStudy},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got := quiz.Classify(tt.typ)
			if got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.typ, got, tt.want)
			}
			if again := quiz.Classify(tt.typ); again != got {
				t.Errorf("Classify(%q) unstable: %s then %s", tt.typ, got, again)
			}
		})
	}
}

func TestScore_ThreeMCQ(t *testing.T) {
	questions := []quiz.Question{mcq("q1", "A"), mcq("q2", "C"), mcq("q3", "D")}
	answers := map[string]string{"q1": "A", "q2": "B"}

	got := quiz.Score(questions, answers)

	want := quiz.Summary{
		Total:   3,
		Correct: 1,
		MCQ:     quiz.Tally{Correct: 1, Wrong: 2, Total: 3},
	}
	if got != want {
		t.Errorf("Score() = %+v, want %+v", got, want)
	}
}

func TestScore_MixedCategories(t *testing.T) {
	questions := []quiz.Question{
		mcq("q1", "A"),
		{ID: "q2", Type: "ar", CorrectAnswer: "B"},
		{ID: "q3", Type: "case-study", CorrectAnswer: "C"},
		{ID: "q4", Type: "assertion-reason", CorrectAnswer: "D"},
	}
	answers := map[string]string{"q1": "B", "q2": "B", "q3": "C", "q4": "A"}

	got := quiz.Score(questions, answers)

	if got.Total != 4 || got.Correct != 2 {
		t.Fatalf("Total/Correct = %d/%d, want 4/2", got.Total, got.Correct)
	}
	if got.AssertionReason != (quiz.Tally{Correct: 1, Wrong: 1, Total: 2}) {
		t.Errorf("AssertionReason = %+v", got.AssertionReason)
	}
	if got.CaseStudy != (quiz.Tally{Correct: 1, Wrong: 0, Total: 1}) {
		t.Errorf("CaseStudy = %+v", got.CaseStudy)
	}

	sum := 0
	for _, c := range []quiz.Category{quiz.CategoryMCQ, quiz.CategoryAssertionReason, quiz.CategoryCaseStudy} {
		tally := got.Tally(c)
		if tally.Correct+tally.Wrong != tally.Total {
			t.Errorf("%s: c+w = %d, want %d", c, tally.Correct+tally.Wrong, tally.Total)
		}
		sum += tally.Total
	}
	if sum != got.Total {
		t.Errorf("category totals = %d, want %d", sum, got.Total)
	}
}

func TestScore_EmptyAnswerNeverCorrect(t *testing.T) {
	questions := []quiz.Question{{ID: "q1", Type: "mcq", CorrectAnswer: ""}}

	got := quiz.Score(questions, nil)

	if got.Correct != 0 || got.MCQ.Wrong != 1 {
		t.Errorf("Score() = %+v, want unanswered counted wrong", got)
	}
}

func TestSummary_Percent(t *testing.T) {
	tests := []struct {
		sum  quiz.Summary
		want int
	}{
		{quiz.Summary{}, 0},
		{quiz.Summary{Total: 3, Correct: 1}, 33},
		{quiz.Summary{Total: 3, Correct: 2}, 67},
		{quiz.Summary{Total: 4, Correct: 4}, 100},
	}
	for _, tt := range tests {
		if got := tt.sum.Percent(); got != tt.want {
			t.Errorf("Percent(%d/%d) = %d, want %d", tt.sum.Correct, tt.sum.Total, got, tt.want)
		}
	}
}

func TestNormalizeOptionKey(t *testing.T) {
	tests := map[string]string{
		"A":        "A",
		" b ":      "B",
		"(C)":      "C",
		"Option d": "D",
		"option_a": "A",
		"E":        "",
		"":         "",
	}
	for in, want := range tests {
		if got := quiz.NormalizeOptionKey(in); got != want {
			t.Errorf("NormalizeOptionKey(%q) = %q, want %q", in, got, want)
		}
	}
}
