package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

var (
	//go:embed templates/*.html
	templates embed.FS

	//go:embed static
	static embed.FS
)

// Static returns the stylesheet directory served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page template names.
const (
	PageQuiz      = "quiz"
	PageResults   = "results"
	PageReview    = "review"
	PagePaywall   = "paywall"
	PageChapters  = "chapters"
	PageAuthError = "auth_error"
)

var pageNames = []string{PageQuiz, PageResults, PageReview, PagePaywall, PageChapters, PageAuthError}

// View holds the parsed page templates.
type View struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// New parses every template. Handlers share the returned View.
func New() (*View, error) {
	base, err := template.New("layout.html").ParseFS(templates, "templates/layout.html", "templates/question.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	v := &View{pages: make(map[string]*template.Template, len(pageNames)), fragments: base}
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		t, err := clone.ParseFS(templates, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// Render writes a full page. The output is buffered so a template error
// never leaves a half-written response.
func (v *View) Render(w io.Writer, page string, data any) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Fragment renders the question block of a quiz page on its own, for live
// updates.
func (v *View) Fragment(w io.Writer, p QuizPage) error {
	var buf bytes.Buffer
	if err := v.fragments.ExecuteTemplate(&buf, "worksheet", p); err != nil {
		return fmt.Errorf("render fragment: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
