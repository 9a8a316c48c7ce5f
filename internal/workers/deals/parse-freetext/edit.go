package parsefreetext

import (
	"fmt"
	"strings"

	"deal-intake/internal/models"
	parsedelimited "deal-intake/internal/workers/deals/parse-delimited"
	validatedeal "deal-intake/internal/workers/deals/validate-deal"
)

// Optional fields that can still be edited.
const (
	FieldCR             = "cr"
	FieldDeductionLimit = "deduction_limit"
)

// EditableFields lists the fields the review card offers for editing, in display order.
var EditableFields = []string{
	validatedeal.FieldRegion,
	validatedeal.FieldPartner,
	validatedeal.FieldGeo,
	validatedeal.FieldLanguage,
	validatedeal.FieldSource,
	validatedeal.FieldPricingModel,
	validatedeal.FieldCPA,
	validatedeal.FieldCRG,
	validatedeal.FieldCPL,
	validatedeal.FieldFunnels,
	FieldCR,
	FieldDeductionLimit,
}

// IsEditable reports whether field can be changed from the review card.
func IsEditable(field string) bool {
	for _, f := range EditableFields {
		if f == field {
			return true
		}
	}
	return false
}

// ApplyEdit replaces one field of d with value, using the delimited format's rules:
// "&" clears optional values and crg/deduction above 1 are read as percentages.
func ApplyEdit(d *models.DealRecord, field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case validatedeal.FieldRegion:
		d.Region = strings.ToUpper(value)
	case validatedeal.FieldPartner:
		d.Partner = value
	case validatedeal.FieldGeo:
		d.Geo = strings.ToUpper(value)
	case validatedeal.FieldLanguage:
		d.Language = value
	case validatedeal.FieldSource:
		d.Source = NormalizeSource(value)
	case validatedeal.FieldPricingModel:
		d.PricingModel = models.ParsePricingModel(value)
	case validatedeal.FieldCPA:
		v, err := parsedelimited.ParseAmount(field, strings.Trim(value, "$ "))
		if err != nil {
			return err
		}
		d.CPA = v
	case validatedeal.FieldCPL:
		v, err := parsedelimited.ParseAmount(field, strings.Trim(value, "$ "))
		if err != nil {
			return err
		}
		d.CPL = v
	case validatedeal.FieldCRG:
		v, err := parsedelimited.ParseFraction(field, strings.TrimSuffix(value, "%"))
		if err != nil {
			return err
		}
		d.CRG = v
	case FieldDeductionLimit:
		v, err := parsedelimited.ParseFraction(field, strings.TrimSuffix(value, "%"))
		if err != nil {
			return err
		}
		d.DeductionLimit = v
	case validatedeal.FieldFunnels:
		d.Funnels = SplitFunnels(value)
	case FieldCR:
		if value == "" || value == models.Placeholder {
			d.CR = nil
		} else {
			d.CR = &value
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// FieldValue renders the current value of field for display.
func FieldValue(d *models.DealRecord, field string) string {
	switch field {
	case validatedeal.FieldRegion:
		return d.Region
	case validatedeal.FieldPartner:
		return d.Partner
	case validatedeal.FieldGeo:
		return d.Geo
	case validatedeal.FieldLanguage:
		return d.Language
	case validatedeal.FieldSource:
		return d.Source
	case validatedeal.FieldPricingModel:
		return d.PricingModel.Label()
	case validatedeal.FieldCPA:
		return models.FormatAmount(d.CPA)
	case validatedeal.FieldCRG:
		return models.FormatPercent(d.CRG)
	case validatedeal.FieldCPL:
		return models.FormatAmount(d.CPL)
	case validatedeal.FieldFunnels:
		return strings.Join(d.Funnels, ", ")
	case FieldCR:
		if d.CR != nil {
			return *d.CR
		}
		return "-"
	case FieldDeductionLimit:
		return models.FormatPercent(d.DeductionLimit)
	}
	return ""
}
