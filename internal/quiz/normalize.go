package quiz

import (
	"regexp"
	"strings"
)

var (
	reasonMarker    = regexp.MustCompile(`(?i)Reason\s*\(R\)\s*:?`)
	assertionMarker = regexp.MustCompile(`(?i)Assertion\s*\(A\)\s*:?`)
	sentenceEnd     = regexp.MustCompile(`[.!?]\s`)
)

// AssertionReason is the two-statement body of an assertion-reason question.
type AssertionReason struct {
	Assertion string
	Reason    string
}

// NormalizeAssertionReason separates the assertion and reason statements of
// an assertion-reason question whose source text may carry both labels in
// one field, split them across the two fields, or omit them entirely.
//
// Precedence: an explicit "Reason (R):" marker anywhere wins; otherwise the
// field boundary is used when both fields are filled; otherwise the first
// sentence is the assertion and the rest the reason. The sentence fallback
// misreads multi-sentence assertions.
//
// Passes repeat until the output stops changing, so label fragments left on
// both sides of a split cannot form a new marker when the halves are fed
// back in. Every pass that changes its input shortens it or moves a lone
// reason into the assertion, so the loop ends.
func NormalizeAssertionReason(text, scenario string) AssertionReason {
	ar := normalizeOnce(text, scenario)
	for {
		next := normalizeOnce(ar.Assertion, ar.Reason)
		if next == ar {
			return ar
		}
		ar = next
	}
}

func normalizeOnce(text, scenario string) AssertionReason {
	text = collapse(text)
	scenario = collapse(scenario)
	combined := collapse(text + " " + scenario)

	var assertion, reason string
	switch {
	case reasonMarker.MatchString(combined):
		loc := reasonMarker.FindStringIndex(combined)
		assertion = stripLabels(combined[:loc[0]])
		reason = stripLabels(combined[loc[1]:])
		switch {
		case reason == "":
			assertion, reason = splitFirstSentence(assertion)
		case assertion == "":
			assertion, reason = splitFirstSentence(reason)
		}
	case stripLabels(text) != "" && stripLabels(scenario) != "":
		assertion = stripLabels(text)
		reason = stripLabels(scenario)
	default:
		assertion, reason = splitFirstSentence(stripLabels(combined))
	}

	return AssertionReason{
		Assertion: dedupe(assertion, reason),
		Reason:    reason,
	}
}

func stripLabels(s string) string {
	s = assertionMarker.ReplaceAllString(s, " ")
	s = reasonMarker.ReplaceAllString(s, " ")
	return collapse(s)
}

func splitFirstSentence(s string) (string, string) {
	loc := sentenceEnd.FindStringIndex(s)
	if loc == nil {
		return s, ""
	}
	return collapse(s[:loc[0]+1]), collapse(s[loc[1]:])
}

// dedupe removes reason from assertion while it is still contained, unless
// doing so would leave nothing behind.
func dedupe(assertion, reason string) string {
	if reason == "" {
		return assertion
	}
	for strings.Contains(assertion, reason) {
		next := collapse(strings.Replace(assertion, reason, " ", 1))
		if next == "" {
			break
		}
		assertion = next
	}
	return assertion
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
