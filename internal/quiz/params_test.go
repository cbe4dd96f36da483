package quiz_test

import (
	"net/url"
	"testing"

	"github.com/ready4exam/worksheet/internal/quiz"
)

func TestResolveParams_Defaults(t *testing.T) {
	d := quiz.ResolveParams(url.Values{}, quiz.DefaultParams)

	want := quiz.Descriptor{Class: "11", Subject: "Physics", Difficulty: "Simple"}
	if d != want {
		t.Errorf("ResolveParams() = %+v, want %+v", d, want)
	}
}

func TestResolveParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  quiz.Descriptor
	}{
		{
			name:  "table wins over topic",
			query: "table=science_acids_salts_10_quiz&topic=other&class=10&subject=Science&difficulty=Medium",
			want:  quiz.Descriptor{Class: "10", Subject: "Science", Topic: "science_acids_salts_10_quiz", Difficulty: "Medium"},
		},
		{
			name:  "topic alias",
			query: "topic=physics_motion_11_quiz",
			want:  quiz.Descriptor{Class: "11", Subject: "Physics", Topic: "physics_motion_11_quiz", Difficulty: "Simple"},
		},
		{
			name:  "difficulty case-insensitive",
			query: "difficulty=advance",
			want:  quiz.Descriptor{Class: "11", Subject: "Physics", Difficulty: "Advanced"},
		},
		{
			name:  "unknown difficulty degrades",
			query: "difficulty=insane",
			want:  quiz.Descriptor{Class: "11", Subject: "Physics", Difficulty: "Simple"},
		},
		{
			name:  "class out of range degrades",
			query: "class=42",
			want:  quiz.Descriptor{Class: "11", Subject: "Physics", Difficulty: "Simple"},
		},
		{
			name:  "class not a number degrades",
			query: "class=ten",
			want:  quiz.Descriptor{Class: "11", Subject: "Physics", Difficulty: "Simple"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery() error = %v", err)
			}
			got := quiz.ResolveParams(q, quiz.DefaultParams)
			if got != tt.want {
				t.Errorf("ResolveParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChapterName(t *testing.T) {
	tests := []struct {
		topic   string
		subject string
		want    string
	}{
		{"science_chemical_equations_10_quiz", "Science", "Chemical Equations"},
		{"physics_laws_of_motion_11_quiz", "Physics", "Laws Of Motion"},
		{"mathematics_real_numbers_10_quiz", "Physics", "Mathematics Real Numbers"},
		{"Quiz_Science_Light", "science", "Light"},
		{"", "Physics", ""},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			if got := quiz.ChapterName(tt.topic, tt.subject); got != tt.want {
				t.Errorf("ChapterName(%q, %q) = %q, want %q", tt.topic, tt.subject, got, tt.want)
			}
		})
	}
}

func TestDescriptor_Title(t *testing.T) {
	d := quiz.Descriptor{Class: "10", Subject: "Science", Topic: "science_acids_salts_10_quiz"}

	want := "Class 10: Science - Acids Salts Worksheet"
	if got := d.Title(); got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}
