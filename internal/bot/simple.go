package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/models"
	parsedelimited "deal-intake/internal/workers/deals/parse-delimited"
	routemessage "deal-intake/internal/workers/deals/route-message"
	submitdeals "deal-intake/internal/workers/deals/submit-deals"
)

const summaryRule = "━━━━━━━━━━━━━━━━━━━━"

// handleSimple runs a delimited batch: parse every line, warn about bad ones, submit the rest
// with progress, then summarise.
func (d *Dispatcher) handleSimple(ctx context.Context, u *models.Update, decision routemessage.Decision, log logger.Logger) error {
	if cb := u.CallbackQuery; cb != nil {
		d.answer(ctx, cb, "")
		return nil
	}
	msg := u.Message
	chatID := msg.Chat.ID
	text := decision.Payload

	if limit := d.config.MaxMessageLength; limit > 0 && len([]rune(text)) > limit {
		return apperrors.NewMessageTooLongError(len([]rune(text)), limit)
	}

	parsed, err := d.deps.Delimited.Execute(ctx, &parsedelimited.Input{Text: text})
	if err != nil {
		if errors.Is(err, parsedelimited.ErrEmptyInput) {
			d.send(ctx, chatID, msgInvalidFormat, nil)
			return nil
		}
		return err
	}

	status, err := d.send(ctx, chatID, msgStartingAnalysis, nil)
	if err != nil {
		return err
	}
	statusID := status.MessageID

	lineErrors := formatLineFailures(parsed.Failures)
	d.deps.Observability.RecordDeals(ctx, "parsed", len(parsed.Deals))
	d.deps.Observability.RecordDeals(ctx, "invalid", len(parsed.Failures))

	if parsed.AllFailed() {
		summary := "❌ No valid deals found.\n\nIssues found:\n\n" + joinBlocks(lineErrors) +
			"\n\nPlease fix the issues and try again."
		d.replace(ctx, chatID, statusID, summary)
		d.notifyFailures(ctx, u.SessionID(), nil, parsed.Total, lineFailureLines(parsed.Failures))
		return nil
	}

	if len(parsed.Failures) > 0 {
		warning := fmt.Sprintf("⚠️ Found %d invalid deals:\n\n", len(parsed.Failures)) + joinBlocks(lineErrors) +
			fmt.Sprintf("\n\nProceeding with %d valid deals...", len(parsed.Deals))
		if len([]rune(warning)) > d.config.ChunkSize {
			d.send(ctx, chatID, warning, nil)
		} else {
			d.edit(ctx, chatID, statusID, warning, nil)
		}
		d.sleep(ctx, d.config.WarningPause)
	}

	store := storeLabel(d.deps.Submitter.StoreName())
	d.edit(ctx, chatID, statusID, submissionText(stageCollecting, store, 0, 0, ""), nil)
	d.edit(ctx, chatID, statusID, submissionText(stageConnecting, store, 0, 0, ""), nil)

	out, subErr := d.deps.Submitter.Execute(ctx, &submitdeals.Input{
		Records: parsed.Deals,
		Progress: func(ctx context.Context, current, total int, rec models.DealRecord) {
			d.edit(ctx, chatID, statusID, submissionText(stageSubmitting, store, current, total, rec.Partner), nil)
		},
	})
	if out == nil {
		return subErr
	}
	d.deps.Observability.RecordDeals(ctx, "submitted", out.Submitted)
	d.deps.Observability.RecordDeals(ctx, "failed", len(out.Failed))

	failureBlocks := append(append([]string(nil), lineErrors...), formatSubmissionFailures(out.Failed)...)
	summary := submissionSummary(parsed.Total, out, len(parsed.Failures), failureBlocks)
	if subErr != nil {
		std := apperrors.Normalize(subErr)
		summary = apperrors.UserMessage(std) + "\n\n" + summary
		log.Error("batch aborted", map[string]interface{}{
			"batchId":   out.BatchID,
			"errorCode": string(std.Code),
			"attempted": out.Attempted(),
		})
	}
	d.replace(ctx, chatID, statusID, summary)

	failures := append(lineFailureLines(parsed.Failures), submissionFailureLines(out.Failed)...)
	d.notifyFailures(ctx, u.SessionID(), out, parsed.Total, failures)
	return nil
}

func submissionSummary(total int, out *submitdeals.Output, invalid int, failureBlocks []string) string {
	var b strings.Builder
	b.WriteString("✅ Submission Complete!\n\n")
	b.WriteString("📊 Results:\n")
	fmt.Fprintf(&b, "• Total Deals: %d\n", total)
	fmt.Fprintf(&b, "• Successfully Processed: %d\n", out.Submitted)
	fmt.Fprintf(&b, "• Failed to Process: %d\n", invalid+len(out.Failed))
	if skipped := out.Total - out.Attempted(); skipped > 0 {
		fmt.Fprintf(&b, "• Not Attempted: %d\n", skipped)
	}
	b.WriteString(summaryRule + "\n\n")
	if len(failureBlocks) > 0 {
		b.WriteString("❌ Failed Deals:\n\n")
		b.WriteString(joinBlocks(failureBlocks))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLineFailures(failures []parsedelimited.LineFailure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, fmt.Sprintf("Deal #%d:\n━━━━━━━━━━━━━━━\n📝 Input:\n%s\n\n❌ Error:\n%s\n",
			f.Index, f.Line, f.Err))
	}
	return out
}

func formatSubmissionFailures(failures []submitdeals.SubmissionFailure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, fmt.Sprintf("Submission #%d (%s):\n❌ %s\n", f.Index, f.Partner, failureReason(f.Err)))
	}
	return out
}

func lineFailureLines(failures []parsedelimited.LineFailure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, fmt.Sprintf("line %d: %s", f.Index, f.Err))
	}
	return out
}

func submissionFailureLines(failures []submitdeals.SubmissionFailure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, fmt.Sprintf("%s: %s", f.Partner, failureReason(f.Err)))
	}
	return out
}

func failureReason(err error) string {
	if err == nil {
		return "rejected by store"
	}
	std := apperrors.Normalize(err)
	if std.Details != "" {
		return std.Message + " (" + std.Details + ")"
	}
	return std.Message
}
