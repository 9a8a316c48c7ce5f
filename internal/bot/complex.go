package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/models"
	"deal-intake/internal/telegram"
	parsefreetext "deal-intake/internal/workers/deals/parse-freetext"
	routemessage "deal-intake/internal/workers/deals/route-message"
	submitdeals "deal-intake/internal/workers/deals/submit-deals"
	validatedeal "deal-intake/internal/workers/deals/validate-deal"
)

// handleComplex drives the free-text review: extract, review card, field edits, approve or reject.
func (d *Dispatcher) handleComplex(ctx context.Context, u *models.Update, decision routemessage.Decision,
	state *models.ConversationState, log logger.Logger) error {
	if cb := u.CallbackQuery; cb != nil {
		return d.handleCallback(ctx, u.ChatID(), cb, state, log)
	}

	chatID := u.Message.Chat.ID
	if state.Mode() == models.ModeEditing {
		return d.applyEdit(ctx, chatID, decision.Payload, state, log)
	}

	text := decision.Payload
	if limit := d.config.MaxMessageLength; limit > 0 && len([]rune(text)) > limit {
		return apperrors.NewMessageTooLongError(len([]rune(text)), limit)
	}

	out, err := d.deps.FreeText.Execute(ctx, &parsefreetext.Input{Text: text})
	if err != nil {
		if errors.Is(err, parsefreetext.ErrNoDeals) {
			d.send(ctx, chatID, msgNoDealsFound, nil)
			return nil
		}
		return err
	}
	d.deps.Observability.RecordDeals(ctx, "extracted", len(out.Deals))

	state.Reset()
	state.PendingDeals = out.Records()
	return d.showCard(ctx, chatID, state)
}

// showCard posts a fresh review card for state.ReviewIndex and remembers its message.
func (d *Dispatcher) showCard(ctx context.Context, chatID int64, state *models.ConversationState) error {
	i := state.ReviewIndex
	msg, err := d.send(ctx, chatID, reviewCard(state.PendingDeals, i), reviewKeyboard(len(state.PendingDeals), i))
	if err != nil {
		return err
	}
	state.ReviewMessageID = msg.MessageID
	return nil
}

func (d *Dispatcher) applyEdit(ctx context.Context, chatID int64, value string, state *models.ConversationState, log logger.Logger) error {
	idx, field := state.EditingIndex, state.EditingField
	if idx < 0 || idx >= len(state.PendingDeals) {
		state.StopEditing()
		d.send(ctx, chatID, msgSessionExpired, nil)
		return nil
	}

	deal := &state.PendingDeals[idx]
	if err := parsefreetext.ApplyEdit(deal, field, value); err != nil {
		d.send(ctx, chatID, fmt.Sprintf("❌ %s\nSend another value, or /cancel to stop.", err), nil)
		return nil
	}
	log.Info("deal field edited", map[string]interface{}{
		"dealIndex": idx + 1,
		"field":     field,
		"valid":     validatedeal.IsValid(deal),
	})

	state.StopEditing()
	state.ReviewIndex = idx
	return d.showCard(ctx, chatID, state)
}

func (d *Dispatcher) handleCallback(ctx context.Context, chatID int64, cbq *models.CallbackQuery,
	state *models.ConversationState, log logger.Logger) error {
	if !state.HasPending() {
		d.answer(ctx, cbq, msgSessionExpired)
		return nil
	}
	cb, ok := parseCallback(cbq.Data)
	if !ok {
		log.Warn("unrecognised callback", map[string]interface{}{"data": cbq.Data})
		d.answer(ctx, cbq, msgUnknownAction)
		return nil
	}

	msgID := state.ReviewMessageID
	if cbq.Message != nil {
		msgID = cbq.Message.MessageID
	}
	total := len(state.PendingDeals)
	i := cb.index
	if i >= total {
		i = total - 1
	}

	switch cb.action {
	case cbApproveAll:
		return d.approve(ctx, chatID, msgID, cbq, state, log)

	case cbRejectAll:
		d.answer(ctx, cbq, "Rejected")
		d.edit(ctx, chatID, msgID, msgRejected, nil)
		log.Info("pending deals rejected", map[string]interface{}{"total": total})
		state.Reset()
		return nil

	case cbPrev, cbNext, cbBack:
		switch cb.action {
		case cbPrev:
			if i > 0 {
				i--
			}
		case cbNext:
			if i < total-1 {
				i++
			}
		}
		state.StopEditing()
		state.ReviewIndex = i
		d.answer(ctx, cbq, "")
		d.edit(ctx, chatID, msgID, reviewCard(state.PendingDeals, i), reviewKeyboard(total, i))

	case cbEdit:
		state.ReviewIndex = i
		d.answer(ctx, cbq, "")
		d.edit(ctx, chatID, msgID, reviewCard(state.PendingDeals, i)+"\n\nChoose a field to edit:", fieldKeyboard(i))

	case cbEditField:
		state.StartEditing(i, cb.field)
		state.ReviewIndex = i
		d.answer(ctx, cbq, "Send the new value")
		back := telegram.Keyboard(telegram.Row(telegram.Button("🔙 Back", callbackData(cbBack, i))))
		d.edit(ctx, chatID, msgID, editPrompt(&state.PendingDeals[i], cb.field), back)
	}

	state.ReviewMessageID = msgID
	return nil
}

// approve submits every complete pending deal and reports the incomplete ones as skipped.
func (d *Dispatcher) approve(ctx context.Context, chatID, msgID int64, cbq *models.CallbackQuery,
	state *models.ConversationState, log logger.Logger) error {
	var ready []models.DealRecord
	var skipped, skippedLines []string
	for i := range state.PendingDeals {
		deal := &state.PendingDeals[i]
		if missing := validatedeal.MissingFields(deal); len(missing) > 0 {
			reason := "missing " + strings.Join(missing, ", ")
			skipped = append(skipped, fmt.Sprintf("Deal #%d %s (%s):\n⚠️ Skipped, %s\n",
				i+1, partnerName(deal), deal.Geo, reason))
			skippedLines = append(skippedLines, fmt.Sprintf("deal %d %s: %s", i+1, partnerName(deal), reason))
			continue
		}
		ready = append(ready, *deal)
	}
	if len(ready) == 0 {
		d.answer(ctx, cbq, msgNothingToSend)
		return nil
	}
	d.answer(ctx, cbq, "Submitting...")
	d.edit(ctx, chatID, msgID, parsingText(0, len(ready)), nil)

	out, subErr := d.deps.Submitter.Execute(ctx, &submitdeals.Input{
		Records: ready,
		Progress: func(ctx context.Context, current, total int, rec models.DealRecord) {
			d.edit(ctx, chatID, msgID, parsingText(current, total), nil)
		},
	})
	if out == nil {
		return subErr
	}
	d.deps.Observability.RecordDeals(ctx, "submitted", out.Submitted)
	d.deps.Observability.RecordDeals(ctx, "failed", len(out.Failed))

	blocks := append(append([]string(nil), skipped...), formatSubmissionFailures(out.Failed)...)
	summary := submissionSummary(len(state.PendingDeals), out, len(skipped), blocks)
	if subErr != nil {
		std := apperrors.Normalize(subErr)
		summary = apperrors.UserMessage(std) + "\n\n" + summary
		log.Error("batch aborted", map[string]interface{}{
			"batchId":   out.BatchID,
			"errorCode": string(std.Code),
			"attempted": out.Attempted(),
		})
	}
	d.send(ctx, chatID, summary, nil)

	failures := append(submissionFailureLines(out.Failed), skippedLines...)
	d.notifyFailures(ctx, state.SessionID, out, len(state.PendingDeals), failures)
	state.Reset()
	return nil
}
