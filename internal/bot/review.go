package bot

import (
	"fmt"
	"strconv"
	"strings"

	"deal-intake/internal/models"
	"deal-intake/internal/telegram"
	parsefreetext "deal-intake/internal/workers/deals/parse-freetext"
	validatedeal "deal-intake/internal/workers/deals/validate-deal"
)

// Callback data for the review card buttons.
const (
	cbApproveAll = "approve_all"
	cbRejectAll  = "reject_all"
	cbEdit       = "edit"
	cbEditField  = "editfield"
	cbPrev       = "prev"
	cbNext       = "next"
	cbBack       = "back"
)

var fieldLabels = map[string]string{
	validatedeal.FieldRegion:          "Region",
	validatedeal.FieldPartner:         "Partner",
	validatedeal.FieldGeo:             "GEO",
	validatedeal.FieldLanguage:        "Language",
	validatedeal.FieldSource:          "Source",
	validatedeal.FieldPricingModel:    "Model",
	validatedeal.FieldCPA:             "CPA",
	validatedeal.FieldCRG:             "CRG",
	validatedeal.FieldCPL:             "CPL",
	validatedeal.FieldFunnels:         "Funnels",
	parsefreetext.FieldCR:             "CR",
	parsefreetext.FieldDeductionLimit: "Deduction",
}

func fieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

// callback is parsed button data: <action>[_<index>[_<field>]].
type callback struct {
	action string
	index  int
	field  string
}

func parseCallback(data string) (callback, bool) {
	switch data {
	case cbApproveAll, cbRejectAll:
		return callback{action: data}, true
	}
	parts := strings.SplitN(data, "_", 3)
	if len(parts) < 2 {
		return callback{}, false
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 {
		return callback{}, false
	}
	cb := callback{action: parts[0], index: idx}
	switch cb.action {
	case cbEdit, cbPrev, cbNext, cbBack:
		if len(parts) != 2 {
			return callback{}, false
		}
		return cb, true
	case cbEditField:
		if len(parts) != 3 || !parsefreetext.IsEditable(parts[2]) {
			return callback{}, false
		}
		cb.field = parts[2]
		return cb, true
	}
	return callback{}, false
}

func callbackData(action string, index int) string {
	return fmt.Sprintf("%s_%d", action, index)
}

func validCount(deals []models.DealRecord) int {
	n := 0
	for i := range deals {
		if validatedeal.IsValid(&deals[i]) {
			n++
		}
	}
	return n
}

// reviewCard renders deal i of the pending deals.
func reviewCard(deals []models.DealRecord, i int) string {
	d := &deals[i]
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Deal %d of %d", i+1, len(deals))
	if missing := validatedeal.MissingFields(d); len(missing) > 0 {
		labels := make([]string, len(missing))
		for j, f := range missing {
			labels[j] = fieldLabel(f)
		}
		fmt.Fprintf(&b, "  ⚠️ Missing: %s", strings.Join(labels, ", "))
	} else {
		b.WriteString("  ✅ Ready")
	}
	b.WriteString("\n\n")
	for _, f := range parsefreetext.EditableFields {
		fmt.Fprintf(&b, "%s: %s\n", fieldLabel(f), parsefreetext.FieldValue(d, f))
	}
	fmt.Fprintf(&b, "\n%d of %d deals ready to submit", validCount(deals), len(deals))
	return b.String()
}

func reviewKeyboard(total, i int) *telegram.InlineKeyboardMarkup {
	nav := telegram.Row()
	if i > 0 {
		nav = append(nav, telegram.Button("⬅️ Prev", callbackData(cbPrev, i)))
	}
	nav = append(nav, telegram.Button("✏️ Edit", callbackData(cbEdit, i)))
	if i < total-1 {
		nav = append(nav, telegram.Button("Next ➡️", callbackData(cbNext, i)))
	}
	return telegram.Keyboard(
		nav,
		telegram.Row(
			telegram.Button("✅ Approve All", cbApproveAll),
			telegram.Button("❌ Reject All", cbRejectAll),
		),
	)
}

const fieldButtonsPerRow = 3

func fieldKeyboard(i int) *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	var row []telegram.InlineKeyboardButton
	for _, f := range parsefreetext.EditableFields {
		row = append(row, telegram.Button(fieldLabel(f), fmt.Sprintf("%s_%d_%s", cbEditField, i, f)))
		if len(row) == fieldButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, telegram.Row(telegram.Button("🔙 Back", callbackData(cbBack, i))))
	return telegram.Keyboard(rows...)
}

func editPrompt(d *models.DealRecord, field string) string {
	return fmt.Sprintf("✏️ Editing %s for %s\nCurrent value: %s\n\nSend the new value, or '&' to clear it.",
		fieldLabel(field), partnerName(d), parsefreetext.FieldValue(d, field))
}

func partnerName(d *models.DealRecord) string {
	if d.Partner == "" {
		return "(no partner)"
	}
	return d.Partner
}
