package classifyformat

import (
	"math"
	"regexp"
	"strings"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
)

// Scores holds the intermediate values a verdict is derived from.
type Scores struct {
	Structured   float64
	Unstructured float64
	Indicator    float64
}

// Classify decides whether text is a delimited deal batch, free-text deals, or neither.
// It is a pure function of text.
func Classify(text string) models.FormatVerdict {
	verdict, _ := classify(text)
	return verdict
}

// Explain is Classify plus the scores behind the verdict.
func Explain(text string) (models.FormatVerdict, Scores) {
	return classify(text)
}

func classify(text string) (models.FormatVerdict, Scores) {
	var scores Scores
	if strings.TrimSpace(text) == "" || IsProgressText(text) {
		return unknown(), scores
	}

	lines := splitLines(text)
	if len(lines) == 0 {
		return unknown(), scores
	}

	if partnerAnchor.MatchString(lines[0]) {
		return models.FormatVerdict{
			Kind:          models.FormatUnstructured,
			Confidence:    1.0,
			SampleMatches: []string{lines[0]},
		}, scores
	}

	var structuredSamples []string
	matched := 0
	for _, line := range lines {
		if matchesAny(structuredPatterns, line) {
			matched++
			if len(structuredSamples) < maxSamples {
				structuredSamples = append(structuredSamples, line)
			}
		}
	}
	scores.Structured = float64(matched) / float64(len(lines))

	var unstructuredSamples []string
	unstructuredMatches := 0
	for _, p := range unstructuredPatterns {
		for _, m := range p.FindAllString(text, -1) {
			unstructuredMatches++
			if len(unstructuredSamples) < maxSamples {
				unstructuredSamples = append(unstructuredSamples, strings.TrimSpace(m))
			}
		}
	}
	scores.Unstructured = float64(unstructuredMatches) / float64(2*len(lines))
	scores.Indicator = indicatorScore(text)

	switch {
	case scores.Structured > structuredThreshold:
		return models.FormatVerdict{
			Kind:          models.FormatStructured,
			Confidence:    clamp(scores.Structured + structuredIndicatorWeight*scores.Indicator),
			SampleMatches: structuredSamples,
		}, scores
	case (scores.Unstructured > unstructuredThreshold && scores.Indicator > indicatorThreshold) ||
		scores.Indicator > indicatorOnlyThreshold:
		return models.FormatVerdict{
			Kind:          models.FormatUnstructured,
			Confidence:    clamp(scores.Unstructured + unstructuredIndicatorWeight*scores.Indicator),
			SampleMatches: unstructuredSamples,
		}, scores
	}
	return unknown(), scores
}

// indicatorScore weighs strong cues fully and supporting cues by half, each pattern counted once.
func indicatorScore(text string) float64 {
	strong := countMatching(strongIndicators, text)
	supporting := countMatching(supportingIndicators, text)
	total := float64(len(strongIndicators)) + supportingWeight*float64(len(supportingIndicators))
	return (float64(strong) + supportingWeight*float64(supporting)) / total
}

// IsProgressText reports whether text contains one of the bot's own status phrases.
func IsProgressText(text string) bool {
	for _, phrase := range progressPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// UnknownError converts an UNKNOWN verdict into an invalid-format error; other verdicts yield nil.
func UnknownError(v models.FormatVerdict) error {
	if v.Kind != models.FormatUnknown {
		return nil
	}
	return &apperrors.ClassificationUnknownError{Confidence: v.Confidence}
}

func unknown() models.FormatVerdict {
	return models.FormatVerdict{Kind: models.FormatUnknown}
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func countMatching(patterns []*regexp.Regexp, s string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(s) {
			n++
		}
	}
	return n
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
