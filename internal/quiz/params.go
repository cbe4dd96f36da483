package quiz

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Difficulty tiers.
const (
	DifficultySimple   = "Simple"
	DifficultyMedium   = "Medium"
	DifficultyAdvanced = "Advanced"
)

// Difficulties lists the tiers in ascending order.
var Difficulties = []string{DifficultySimple, DifficultyMedium, DifficultyAdvanced}

const (
	minClass = 6
	maxClass = 12
)

var (
	slugNoise = regexp.MustCompile(`[_\d]`)
	quizWord  = regexp.MustCompile(`(?i)quiz`)
)

// Defaults are the values used when a query parameter is missing or unusable.
type Defaults struct {
	Class      string
	Subject    string
	Difficulty string
}

// DefaultParams mirrors the historical worksheet defaults.
var DefaultParams = Defaults{
	Class:      "11",
	Subject:    "Physics",
	Difficulty: DifficultySimple,
}

// Descriptor identifies what a session is about.
type Descriptor struct {
	Class      string `json:"class"`
	Subject    string `json:"subject"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// ResolveParams reads table|topic, difficulty, class and subject from a
// query string. Missing or malformed values fall back to def.
func ResolveParams(q url.Values, def Defaults) Descriptor {
	d := Descriptor{
		Topic:      strings.TrimSpace(firstNonEmpty(q.Get("table"), q.Get("topic"))),
		Difficulty: NormalizeDifficulty(q.Get("difficulty"), def.Difficulty),
		Class:      normalizeClass(q.Get("class"), def.Class),
		Subject:    strings.TrimSpace(q.Get("subject")),
	}
	if d.Subject == "" {
		d.Subject = def.Subject
	}
	return d
}

// NormalizeDifficulty matches raw against the known tiers case-insensitively.
// "Advance" is accepted for Advanced.
func NormalizeDifficulty(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	for _, d := range Difficulties {
		if strings.EqualFold(raw, d) {
			return d
		}
	}
	if strings.EqualFold(raw, "advance") {
		return DifficultyAdvanced
	}
	return fallback
}

func normalizeClass(raw, fallback string) string {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < minClass || n > maxClass {
		return fallback
	}
	return strconv.Itoa(n)
}

// ChapterName derives a readable chapter name from a dataset identifier such
// as "physics_laws_of_motion_11_quiz".
func ChapterName(topic, subject string) string {
	name := slugNoise.ReplaceAllString(topic, " ")
	name = quizWord.ReplaceAllString(name, " ")
	name = collapse(name)
	if subject != "" {
		echo := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(subject) + `\s*`)
		name = strings.TrimSpace(echo.ReplaceAllString(name, ""))
	}
	// Casers keep state and are not shared between goroutines.
	return cases.Title(language.English).String(name)
}

// Title is the worksheet header, e.g. "Class 11: Physics - Laws Of Motion Worksheet".
func (d Descriptor) Title() string {
	return fmt.Sprintf("Class %s: %s - %s Worksheet", d.Class, d.Subject, ChapterName(d.Topic, d.Subject))
}

// Query encodes the descriptor back into worksheet query parameters.
func (d Descriptor) Query() url.Values {
	return url.Values{
		"table":      {d.Topic},
		"difficulty": {d.Difficulty},
		"class":      {d.Class},
		"subject":    {d.Subject},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
