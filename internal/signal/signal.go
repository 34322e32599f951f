// Package signal scans free-form agent replies for recommendation lines
// and category-tagged sentences. Every function here is pure and total:
// no model calls, no panics on odd input.
package signal

import (
	"strings"
	"unicode/utf8"

	"basegraph.app/advisor/internal/model"
)

const (
	MaxKeyPoints      = 10
	MaxTagged         = 5
	maxKeyPointRunes  = 200
	minTaggedRunes    = 20
	sentenceDelimiter = "."
)

// KeywordSet is a named list of lower-case keywords matched by substring.
type KeywordSet struct {
	Name     string
	Keywords []string
}

var (
	Insights = KeywordSet{
		Name:     "insights",
		Keywords: []string{"insight", "key finding", "important", "critical", "essential", "crucial", "significant"},
	}
	Risks = KeywordSet{
		Name:     "risks",
		Keywords: []string{"risk", "challenge", "concern", "issue", "problem", "limitation"},
	}
	Costs = KeywordSet{
		Name:     "costs",
		Keywords: []string{"cost", "budget", "price", "expensive", "cheap", "affordable", "optimization"},
	}
	Actions = KeywordSet{
		Name:     "actions",
		Keywords: []string{"recommend", "suggest", "propose", "consider", "implement", "use", "deploy"},
	}
)

var (
	numberedPrefixes = []string{"1.", "2.", "3.", "4.", "5.", "6.", "7.", "8.", "9."}
	bulletPrefixes   = []string{"-", "•", "*", "→"}
)

// Matches reports whether lowered contains any keyword of the set.
// The caller lower-cases once so long texts are not copied per keyword.
func (s KeywordSet) Matches(lowered string) bool {
	for _, kw := range s.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// ExtractKeyPoints returns up to ten lines that look like recommendations:
// numbered items, bullets, or short lines using an action verb.
func ExtractKeyPoints(text string) []string {
	points := make([]string, 0)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isKeyPoint(line) {
			points = append(points, line)
			if len(points) == MaxKeyPoints {
				break
			}
		}
	}
	return points
}

func isKeyPoint(line string) bool {
	if hasAnyPrefix(line, numberedPrefixes) || hasAnyPrefix(line, bulletPrefixes) {
		return true
	}
	return Actions.Matches(strings.ToLower(line)) && utf8.RuneCountInString(line) < maxKeyPointRunes
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ExtractTagged returns up to five sentences mentioning a keyword of set.
// Sentences are split on periods and must be longer than 20 characters
// once trimmed.
func ExtractTagged(text string, set KeywordSet) []string {
	tagged := make([]string, 0)
	if !set.Matches(strings.ToLower(text)) {
		return tagged
	}
	for _, sentence := range strings.Split(text, sentenceDelimiter) {
		trimmed := strings.TrimSpace(sentence)
		if utf8.RuneCountInString(trimmed) <= minTaggedRunes {
			continue
		}
		if set.Matches(strings.ToLower(trimmed)) {
			tagged = append(tagged, trimmed)
			if len(tagged) == MaxTagged {
				break
			}
		}
	}
	return tagged
}

// CollectTagged runs ExtractTagged over every specialist turn in order and
// keeps the first five hits overall. A sentence may appear under several
// sets; nothing is deduplicated across sets.
func CollectTagged(turns []model.Turn, set KeywordSet) []string {
	out := make([]string, 0, MaxTagged)
	for _, t := range turns {
		if t.Speaker.IsRequester() {
			continue
		}
		out = append(out, ExtractTagged(t.Text, set)...)
		if len(out) >= MaxTagged {
			return out[:MaxTagged]
		}
	}
	return out
}

// KeyPointsFor tags each extracted line with the turn it came from.
func KeyPointsFor(t model.Turn) []model.KeyPoint {
	lines := ExtractKeyPoints(t.Text)
	points := make([]model.KeyPoint, len(lines))
	for i, l := range lines {
		points[i] = model.KeyPoint{Text: l, Sequence: t.Sequence}
	}
	return points
}
