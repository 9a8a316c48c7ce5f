package validatedeal

import (
	"strings"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
)

// Field names reported by MissingFields.
const (
	FieldRegion       = "region"
	FieldPartner      = "partner"
	FieldGeo          = "geo"
	FieldLanguage     = "language"
	FieldSource       = "source"
	FieldFunnels      = "funnels"
	FieldPricingModel = "pricing_model"
	FieldCPA          = "cpa"
	FieldCRG          = "crg"
	FieldCPL          = "cpl"
)

// requiredPrices lists the price fields each pricing model needs.
var requiredPrices = map[models.PricingModel][]string{
	models.PricingCPA:    {FieldCPA},
	models.PricingCPACRG: {FieldCPA, FieldCRG},
	models.PricingCPL:    {FieldCPL},
}

// IsValid reports whether d satisfies every required-field rule.
func IsValid(d *models.DealRecord) bool {
	return len(MissingFields(d)) == 0
}

// MissingFields names every missing or invalid field of d, in record order.
func MissingFields(d *models.DealRecord) []string {
	if d == nil {
		return []string{FieldRegion, FieldPartner, FieldGeo, FieldLanguage, FieldSource, FieldFunnels, FieldPricingModel}
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{FieldRegion, d.Region},
		{FieldPartner, d.Partner},
		{FieldGeo, d.Geo},
		{FieldLanguage, d.Language},
	} {
		if blank(f.value) {
			missing = append(missing, f.name)
		}
	}

	if blank(d.Source) || strings.TrimSpace(d.Source) == models.Placeholder {
		missing = append(missing, FieldSource)
	}

	if !hasFunnels(d.Funnels) {
		missing = append(missing, FieldFunnels)
	}

	prices, ok := requiredPrices[d.PricingModel]
	if !ok {
		return append(missing, FieldPricingModel)
	}
	for _, p := range prices {
		if priceOf(d, p) == nil {
			missing = append(missing, p)
		}
	}
	return missing
}

// Validate returns a *ValidationError naming every missing field, or nil.
func Validate(d *models.DealRecord) error {
	if missing := MissingFields(d); len(missing) > 0 {
		return &apperrors.ValidationError{Fields: missing}
	}
	return nil
}

// RequiredPrices returns the price fields model needs, or nil for an unknown model.
func RequiredPrices(model models.PricingModel) []string {
	return requiredPrices[model]
}

func priceOf(d *models.DealRecord, field string) *float64 {
	switch field {
	case FieldCPA:
		return d.CPA
	case FieldCRG:
		return d.CRG
	case FieldCPL:
		return d.CPL
	}
	return nil
}

func hasFunnels(funnels []string) bool {
	if len(funnels) == 0 {
		return false
	}
	if len(funnels) == 1 && strings.TrimSpace(funnels[0]) == models.Placeholder {
		return false
	}
	for _, f := range funnels {
		if !blank(f) {
			return true
		}
	}
	return false
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
