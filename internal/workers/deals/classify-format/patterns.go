package classifyformat

import "regexp"

const (
	structuredThreshold    = 0.7
	unstructuredThreshold  = 0.3
	indicatorThreshold     = 0.3
	indicatorOnlyThreshold = 0.5

	structuredIndicatorWeight   = 0.2
	unstructuredIndicatorWeight = 0.3

	supportingWeight = 0.5
	maxSamples       = 5
)

// Status phrases the bot itself emits. Text containing any of them is never treated as a deal.
const (
	PhraseParsingProgress  = "Deal Parsing Progress"
	PhraseProcessingDeal   = "Processing deal"
	PhraseProcessingSubmit = "Processing Submission"
	PhraseStartingAnalysis = "Starting deal analysis"
)

var progressPhrases = []string{
	PhraseParsingProgress,
	PhraseProcessingDeal,
	PhraseProcessingSubmit,
	PhraseStartingAnalysis,
}

const (
	sep     = `\s*-\s*`
	numeric = `(?:\d+(?:\.\d+)?|&)`
	list    = `[^-|]+(?:\|[^-|]+)*`
	text    = `[^-]+`
)

// structuredPatterns recognise one full delimited deal line each.
var structuredPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?i:TIER[123]|NORDICS|LATAM|BALTICS)` +
		sep + text + // partner
		sep + list + // geo
		sep + text + // language
		sep + list + // source
		sep + `(?i:cpa_crg|cpa)` +
		sep + numeric + // cpa
		sep + numeric + // crg
		sep + numeric + // cpl
		sep + list + // funnels
		sep + text + // cr
		sep + numeric + // deduction limit
		`\s*$`),
}

var partnerAnchor = regexp.MustCompile(`(?i)^Partner:\s*(.+)`)

// unstructuredPatterns search the whole text for loosely labelled fields.
var unstructuredPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)Partner:\s*[^\n]+`),
	regexp.MustCompile(`(?im)GEO:\s*[^\n]+`),
	regexp.MustCompile(`(?im)Source:\s*[^\n]+`),
	regexp.MustCompile(`(?im)Landing Page:\s*[^\n]+`),
	regexp.MustCompile(`(?i)CPA\s*\+\s*CRG:\s*\d+(?:\.\d+)?\s*\$\s*\+\s*\d+(?:\.\d+)?\s*%`),
}

var strongIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\d+(?:\.\d+)?\s*\$?\s*\+\s*\d+(?:\.\d+)?\s*%|\$\s*\d+|\d+\s*\$`),
	regexp.MustCompile(`(?i)\b(?:Price|CPA|CPL)\s*:`),
	regexp.MustCompile(`(?i)\b(?:Partner|Company)\s*:`),
	regexp.MustCompile(`(?i)\b(?:GEO|Country)\s*:`),
}

var supportingIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:facebook|fb|google|gg|native|seo|tiktok|push|email)\b`),
	regexp.MustCompile(`(?i)\b(?:funnels?|landing|model|crg)\b`),
	regexp.MustCompile(`\b[A-Z]{2}\s+[a-z]{2}\b`),
}
