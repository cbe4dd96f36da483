package render

import (
	"net/url"

	"github.com/ready4exam/worksheet/internal/catalog"
	"github.com/ready4exam/worksheet/internal/quiz"
)

// Header is shared by every page.
type Header struct {
	Title    string
	Greeting string
}

// QuizPage is the worksheet screen.
type QuizPage struct {
	Header
	SessionID    string
	Difficulty   string
	Difficulties []string
	Status       string
	Question     *QuestionView
	Nav          Navigation
	BackURL      string
}

// NewQuizPage builds the worksheet screen for the session's current
// question. A session still loading carries only its status message.
func NewQuizPage(s *quiz.Session, greeting string) QuizPage {
	p := QuizPage{
		Header:       Header{Title: s.Descriptor.Title(), Greeting: greeting},
		SessionID:    s.ID,
		Difficulty:   s.Descriptor.Difficulty,
		Difficulties: quiz.Difficulties,
		Status:       s.Status,
		BackURL:      ChaptersURL(s.Descriptor.Class, s.Descriptor.Subject),
	}
	if q, ok := s.Current(); ok {
		qv := BuildQuestionView(q, s.Position+1, s.Answers[q.ID], s.Submitted)
		p.Question = &qv
		p.Nav = BuildNavigation(s.Position, len(s.Questions), s.Submitted)
	} else if p.Status == "" {
		p.Status = "Preparing worksheet..."
	}
	return p
}

// CategoryRow is one line of the results breakdown.
type CategoryRow struct {
	Label string
	Tally quiz.Tally
}

// ResultsPage is the score screen.
type ResultsPage struct {
	Header
	SessionID    string
	Difficulty   string
	Difficulties []string
	Summary      quiz.Summary
	Percent      int
	Rows         []CategoryRow
	BackURL      string
}

// NewResultsPage builds the score screen. Categories without questions are
// omitted from the breakdown.
func NewResultsPage(s *quiz.Session, greeting string) ResultsPage {
	var sum quiz.Summary
	if s.Summary != nil {
		sum = *s.Summary
	}
	p := ResultsPage{
		Header:       Header{Title: s.Descriptor.Title(), Greeting: greeting},
		SessionID:    s.ID,
		Difficulty:   s.Descriptor.Difficulty,
		Difficulties: quiz.Difficulties,
		Summary:      sum,
		Percent:      sum.Percent(),
		BackURL:      ChaptersURL(s.Descriptor.Class, s.Descriptor.Subject),
	}
	for _, row := range []CategoryRow{
		{Label: "Multiple Choice", Tally: sum.MCQ},
		{Label: "Assertion-Reason", Tally: sum.AssertionReason},
		{Label: "Case Study", Tally: sum.CaseStudy},
	} {
		if row.Tally.Total > 0 {
			p.Rows = append(p.Rows, row)
		}
	}
	return p
}

// ReviewEntry is one question on the review screen.
type ReviewEntry struct {
	Question   QuestionView
	Mistake    bool
	Unanswered bool
}

// ReviewPage lists every question with mistakes flagged.
type ReviewPage struct {
	Header
	SessionID string
	Entries   []ReviewEntry
	Mistakes  int
	BackURL   string
}

// NewReviewPage builds the review screen from the session's review items.
func NewReviewPage(s *quiz.Session, items []quiz.ReviewItem, greeting string) ReviewPage {
	p := ReviewPage{
		Header:    Header{Title: s.Descriptor.Title(), Greeting: greeting},
		SessionID: s.ID,
		BackURL:   ChaptersURL(s.Descriptor.Class, s.Descriptor.Subject),
	}
	for _, it := range items {
		e := ReviewEntry{
			Question:   BuildQuestionView(it.Question, it.Position, it.Selected, true),
			Mistake:    !it.Correct,
			Unanswered: it.Selected == "",
		}
		if e.Mistake {
			p.Mistakes++
		}
		p.Entries = append(p.Entries, e)
	}
	return p
}

// PaywallPage asks the user to sign in or explains why access was denied.
type PaywallPage struct {
	Header
	Reason   string
	LoginURL string
}

// ChapterLink is a chapter in the chapter list.
type ChapterLink struct {
	Title string
	URL   string // empty when the chapter is coming soon
}

// UnitGroup is a unit heading with its chapters.
type UnitGroup struct {
	Title    string
	Chapters []ChapterLink
}

// ChaptersPage is the chapter selection screen.
type ChaptersPage struct {
	Header
	Class    string
	Subject  string
	Subjects []string
	Units    []UnitGroup
}

// NewChaptersPage builds the chapter list for one subject of a grade.
func NewChaptersPage(g catalog.Grade, subject, difficulty, greeting string) ChaptersPage {
	p := ChaptersPage{
		Header:  Header{Title: "Class " + g.Class + " Chapters", Greeting: greeting},
		Class:   g.Class,
		Subject: subject,
	}
	for _, s := range g.Subjects {
		p.Subjects = append(p.Subjects, s.Name)
		if s.Name != subject {
			continue
		}
		for _, u := range s.Units {
			group := UnitGroup{Title: u.Title}
			for _, c := range u.Chapters {
				link := ChapterLink{Title: c.Title}
				if c.Available() {
					d := quiz.Descriptor{Class: g.Class, Subject: s.Name, Topic: c.TableID, Difficulty: difficulty}
					link.URL = "/quiz?" + d.Query().Encode()
				}
				group.Chapters = append(group.Chapters, link)
			}
			p.Units = append(p.Units, group)
		}
	}
	return p
}

// AuthErrorPage reports a failed sign-in.
type AuthErrorPage struct {
	Header
	Code     string
	LoginURL string
}

// Message is the user-facing explanation of the failure.
func (p AuthErrorPage) Message() string {
	return "Login failed (" + p.Code + "). Please ensure pop-ups are allowed and the domain is whitelisted."
}

// ChaptersURL links back to the chapter list of a subject.
func ChaptersURL(class, subject string) string {
	q := url.Values{}
	if subject != "" {
		q.Set("subject", subject)
	}
	if class != "" {
		q.Set("class", class)
	}
	if len(q) == 0 {
		return "/chapters"
	}
	return "/chapters?" + q.Encode()
}
