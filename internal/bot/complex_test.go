package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-intake/internal/models"
)

const (
	readyDeal      = "Partner: Acme Media\nGEO: UK\nPrice: $1200+10%\nSource: fb\nLanguage: en\nFunnels: QuantumAI"
	noFunnelsDeal  = "Partner: Acme\nGEO: DE\nLanguage: de\nSource: fb\nCPA: 1000"
	twoPartnerDeal = "Partner: A\nGEO: DE\nCPA: 1000\nFunnels: F\nSource: Native\nLanguage: de\n" +
		"Company: B\nGEO: SE\nCPL: 20\nFunnels: G\nSource: gg\nLanguage: sv"
)

func TestComplexFlow_ReviewAndApprove(t *testing.T) {
	h := newHarness(t)
	h.text(t, readyDeal)

	card := h.msgr.lastSent()
	assert.True(t, strings.HasPrefix(card.text, "📋 Deal 1 of 1  ✅ Ready"))
	assert.Contains(t, card.text, "Partner: Acme Media\n")
	assert.Contains(t, card.text, "Region: TIER1\n")
	assert.Equal(t, []string{"edit_0", "approve_all", "reject_all"}, buttonData(card.markup))

	st := h.state(t)
	require.Len(t, st.PendingDeals, 1)
	assert.Equal(t, card.id, st.ReviewMessageID)

	h.press(t, card.id, "approve_all")

	require.Len(t, h.records.calls, 1)
	assert.Equal(t, "Acme Media", h.records.calls[0].String("company_name"))
	assert.Equal(t, "Submitting...", h.msgr.answers[0])

	edits := h.msgr.editTexts()
	assert.Contains(t, edits, parsingText(0, 1))
	assert.Contains(t, edits, parsingText(1, 1))
	assert.Contains(t, parsingText(1, 1), "[████████████████████] 100% (1/1)")

	summary := h.msgr.lastSent().text
	assert.True(t, strings.HasPrefix(summary, "✅ Submission Complete!"))
	assert.Contains(t, summary, "• Successfully Processed: 1\n")

	assert.False(t, h.state(t).HasPending())
	assert.Zero(t, h.sessions.Len())
	assert.Empty(t, h.notifier.reports)
}

func TestComplexFlow_EditMissingField(t *testing.T) {
	h := newHarness(t)
	h.text(t, noFunnelsDeal)

	card := h.msgr.lastSent()
	assert.Contains(t, card.text, "⚠️ Missing: Funnels")

	h.press(t, card.id, "edit_0")
	fields := h.msgr.lastEdit()
	assert.Equal(t, card.id, fields.id)
	assert.Contains(t, buttonData(fields.markup), "editfield_0_funnels")
	assert.Contains(t, buttonData(fields.markup), "editfield_0_pricing_model")
	assert.Contains(t, buttonData(fields.markup), "back_0")

	h.press(t, card.id, "editfield_0_funnels")
	st := h.state(t)
	assert.Equal(t, models.ModeEditing, st.Mode())
	assert.Equal(t, "funnels", st.EditingField)
	assert.Contains(t, h.msgr.lastEdit().text, "✏️ Editing Funnels for Acme")

	h.text(t, "QuantumAI, Nova")

	updated := h.msgr.lastSent()
	assert.True(t, strings.HasPrefix(updated.text, "📋 Deal 1 of 1  ✅ Ready"), updated.text)
	assert.Contains(t, updated.text, "Funnels: QuantumAI, Nova\n")
	st = h.state(t)
	assert.Equal(t, models.ModeIdle, st.Mode())
	assert.Equal(t, updated.id, st.ReviewMessageID)

	h.press(t, updated.id, "approve_all")
	require.Len(t, h.records.calls, 1)
	assert.Equal(t, []string{"QuantumAI", "Nova"}, h.records.calls[0].Funnels())
}

func TestComplexFlow_RejectsBadEditValue(t *testing.T) {
	h := newHarness(t)
	h.text(t, noFunnelsDeal)
	card := h.msgr.lastSent()

	h.press(t, card.id, "editfield_0_cpa")
	h.text(t, "lots")

	assert.True(t, strings.HasPrefix(h.msgr.lastSent().text, "❌ "))
	st := h.state(t)
	assert.Equal(t, models.ModeEditing, st.Mode())
	assert.Equal(t, 1000.0, *st.PendingDeals[0].CPA)
}

func TestComplexFlow_NavigateAndReject(t *testing.T) {
	h := newHarness(t)
	h.text(t, twoPartnerDeal)

	card := h.msgr.lastSent()
	require.True(t, strings.HasPrefix(card.text, "📋 Deal 1 of 2"))
	assert.Equal(t, []string{"edit_0", "next_0", "approve_all", "reject_all"}, buttonData(card.markup))

	h.press(t, card.id, "next_0")
	second := h.msgr.lastEdit()
	assert.True(t, strings.HasPrefix(second.text, "📋 Deal 2 of 2"))
	assert.Equal(t, []string{"prev_1", "edit_1", "approve_all", "reject_all"}, buttonData(second.markup))
	assert.Equal(t, 1, h.state(t).ReviewIndex)

	h.press(t, card.id, "next_1")
	assert.True(t, strings.HasPrefix(h.msgr.lastEdit().text, "📋 Deal 2 of 2"))

	h.press(t, card.id, "prev_1")
	assert.True(t, strings.HasPrefix(h.msgr.lastEdit().text, "📋 Deal 1 of 2"))

	h.press(t, card.id, "reject_all")
	assert.Equal(t, msgRejected, h.msgr.lastEdit().text)
	assert.Empty(t, h.records.calls)
	assert.False(t, h.state(t).HasPending())
}

func TestComplexFlow_ApproveSkipsIncompleteDeals(t *testing.T) {
	h := newHarness(t)
	h.text(t, readyDeal+"\n"+noFunnelsDeal)
	card := h.msgr.lastSent()
	require.Len(t, h.state(t).PendingDeals, 2)

	h.press(t, card.id, "approve_all")

	require.Len(t, h.records.calls, 1)
	summary := h.msgr.lastSent().text
	assert.Contains(t, summary, "• Total Deals: 2\n")
	assert.Contains(t, summary, "• Failed to Process: 1\n")
	assert.Contains(t, summary, "Deal #2 Acme (DE):\n⚠️ Skipped, missing funnels")

	require.Len(t, h.notifier.reports, 1)
	assert.Equal(t, []string{"deal 2 Acme: missing funnels"}, h.notifier.reports[0].Failures)
}

func TestComplexFlow_NothingReadyToApprove(t *testing.T) {
	h := newHarness(t)
	h.text(t, noFunnelsDeal)
	card := h.msgr.lastSent()

	h.press(t, card.id, "approve_all")

	assert.Empty(t, h.records.calls)
	assert.Equal(t, msgNothingToSend, h.msgr.answers[len(h.msgr.answers)-1])
	assert.True(t, h.state(t).HasPending())
}

func TestComplexFlow_CallbackWithoutSession(t *testing.T) {
	h := newHarness(t)
	h.press(t, 42, "approve_all")
	assert.Equal(t, []string{msgSessionExpired}, h.msgr.answers)
	assert.Empty(t, h.records.calls)
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want callback
		ok   bool
	}{
		{"approve_all", callback{action: cbApproveAll}, true},
		{"reject_all", callback{action: cbRejectAll}, true},
		{"edit_2", callback{action: cbEdit, index: 2}, true},
		{"next_0", callback{action: cbNext}, true},
		{"prev_3", callback{action: cbPrev, index: 3}, true},
		{"back_1", callback{action: cbBack, index: 1}, true},
		{"editfield_1_deduction_limit", callback{action: cbEditField, index: 1, field: "deduction_limit"}, true},
		{"editfield_1_colour", callback{}, false},
		{"edit_x", callback{}, false},
		{"edit_-1", callback{}, false},
		{"next_1_extra", callback{}, false},
		{"edit_0_partner", callback{}, false},
		{"back_2_", callback{}, false},
		{"delete_1", callback{}, false},
		{"approve", callback{}, false},
		{"", callback{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, ok := parseCallback(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
