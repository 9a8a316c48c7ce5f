package bot

import (
	"fmt"
	"strings"
)

const (
	submissionBarCells = 10
	parsingBarCells    = 20
)

func filled(current, total, cells int) int {
	if total <= 0 {
		return 0
	}
	if current > total {
		current = total
	}
	return current * cells / total
}

// SubmissionBar renders a 10-cell ▓░ bar.
func SubmissionBar(current, total int) string {
	n := filled(current, total, submissionBarCells)
	return strings.Repeat("▓", n) + strings.Repeat("░", submissionBarCells-n)
}

// ParsingBar renders a 20-cell █░ bar with percentage and counts.
func ParsingBar(current, total int) string {
	n := filled(current, total, parsingBarCells)
	pct := 0
	if total > 0 {
		pct = current * 100 / total
	}
	return fmt.Sprintf("[%s%s] %d%% (%d/%d)",
		strings.Repeat("█", n), strings.Repeat("░", parsingBarCells-n), pct, current, total)
}

// Submission milestones for the delimited batch flow.
const (
	stageCollecting = iota
	stageConnecting
	stageSubmitting
)

func submissionText(stage int, store string, current, total int, partner string) string {
	var b strings.Builder
	b.WriteString("🔄 Processing Submission...\n\n")
	switch stage {
	case stageCollecting:
		b.WriteString("1️⃣ Collecting approved deals...")
	case stageConnecting:
		b.WriteString("1️⃣ Approved deals collected\n")
		fmt.Fprintf(&b, "2️⃣ Initializing %s connection...", store)
	default:
		b.WriteString("1️⃣ Approved deals collected\n")
		fmt.Fprintf(&b, "2️⃣ %s connection established\n", store)
		b.WriteString("3️⃣ Submitting deals...\n\n")
		fmt.Fprintf(&b, "Progress: [%s] %d/%d\n", SubmissionBar(current, total), current, total)
		fmt.Fprintf(&b, "Current: %s", partner)
	}
	return b.String()
}

const parsingHeader = "--Deal Parsing Progress--\n\n"

// parsingText renders the review flow's progress message. current 0 is the initial stage.
func parsingText(current, total int) string {
	if current <= 0 || total <= 0 {
		return parsingHeader + "🔄 Starting Deal Parser Bot..."
	}
	return parsingHeader +
		"✅ Deal Parser Bot Started\n" +
		"✅ Structure Analysis Complete\n" +
		fmt.Sprintf("🔄 Processing deal %d of %d\n", current, total) +
		ParsingBar(current, total)
}

func storeLabel(name string) string {
	if name == "" {
		return "store"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
