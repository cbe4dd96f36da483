package quiz

// Tally counts results for one category.
type Tally struct {
	Correct int `json:"c"`
	Wrong   int `json:"w"`
	Total   int `json:"t"`
}

// Summary is the score of a submitted session.
type Summary struct {
	Total           int   `json:"total"`
	Correct         int   `json:"correct"`
	MCQ             Tally `json:"mcq"`
	AssertionReason Tally `json:"ar"`
	CaseStudy       Tally `json:"case"`
}

// Tally returns the counters for category c.
func (s Summary) Tally(c Category) Tally {
	switch c {
	case CategoryAssertionReason:
		return s.AssertionReason
	case CategoryCaseStudy:
		return s.CaseStudy
	default:
		return s.MCQ
	}
}

// Wrong is the number of questions not answered correctly, unanswered included.
func (s Summary) Wrong() int {
	return s.Total - s.Correct
}

// Percent is the rounded share of correct answers, 0 for an empty sheet.
func (s Summary) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Correct*100 + s.Total/2) / s.Total
}

func (s *Summary) tally(c Category) *Tally {
	switch c {
	case CategoryAssertionReason:
		return &s.AssertionReason
	case CategoryCaseStudy:
		return &s.CaseStudy
	default:
		return &s.MCQ
	}
}

// Score walks the questions once and counts each into its category.
// A missing answer is wrong.
func Score(questions []Question, answers map[string]string) Summary {
	s := Summary{Total: len(questions)}
	for _, q := range questions {
		t := s.tally(q.Category())
		t.Total++
		if q.IsCorrect(answers[q.ID]) {
			s.Correct++
			t.Correct++
		} else {
			t.Wrong++
		}
	}
	return s
}
