package parsedelimited

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
	validatedeal "deal-intake/internal/workers/deals/validate-deal"
)

// FieldCount is the number of dash-separated fields in a delimited deal line.
const FieldCount = 12

// decimalToken is the accepted number shape. NaN, Inf and exponent forms are rejected.
var decimalToken = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

const (
	idxRegion = iota
	idxPartner
	idxGeo
	idxLanguage
	idxSource
	idxPricingModel
	idxCPA
	idxCRG
	idxCPL
	idxFunnels
	idxCR
	idxDeduction
)

// ParseLine parses REGION-PARTNER-GEO-LANGUAGE-SOURCE-MODEL-CPA-CRG-CPL-FUNNELS-CR-DEDUCTION.
func ParseLine(line string) (*models.DealRecord, error) {
	fields := strings.Split(strings.TrimSpace(line), "-")
	if len(fields) != FieldCount {
		return nil, &apperrors.FieldCountError{Expected: FieldCount, Actual: len(fields)}
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	cpa, err := ParseAmount("cpa", fields[idxCPA])
	if err != nil {
		return nil, err
	}
	cpl, err := ParseAmount("cpl", fields[idxCPL])
	if err != nil {
		return nil, err
	}
	crg, err := ParseFraction("crg", fields[idxCRG])
	if err != nil {
		return nil, err
	}
	deduction, err := ParseFraction("deduction_limit", fields[idxDeduction])
	if err != nil {
		return nil, err
	}

	deal := &models.DealRecord{
		Region:         strings.ToUpper(fields[idxRegion]),
		Partner:        fields[idxPartner],
		Geo:            fields[idxGeo],
		Language:       fields[idxLanguage],
		Source:         fields[idxSource],
		PricingModel:   models.ParsePricingModel(fields[idxPricingModel]),
		CPA:            cpa,
		CRG:            crg,
		CPL:            cpl,
		Funnels:        SplitList(fields[idxFunnels]),
		DeductionLimit: deduction,
	}
	if cr := fields[idxCR]; cr != "" && cr != models.Placeholder {
		deal.CR = &cr
	}

	if err := validatedeal.Validate(deal); err != nil {
		return nil, err
	}
	return deal, nil
}

// ParseAmount parses a decimal or the placeholder (absent).
func ParseAmount(field, token string) (*float64, error) {
	token = strings.TrimSpace(token)
	if token == models.Placeholder {
		return nil, nil
	}
	if !decimalToken.MatchString(token) {
		return nil, &apperrors.NumericFormatError{Field: field, Token: token}
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &apperrors.NumericFormatError{Field: field, Token: token}
	}
	return &v, nil
}

// ParseFraction is ParseAmount followed by percentage normalization:
// values greater than 1 are divided by 100.
func ParseFraction(field, token string) (*float64, error) {
	v, err := ParseAmount(field, token)
	if err != nil || v == nil {
		return v, err
	}
	n := NormalizeFraction(*v)
	return &n, nil
}

// NormalizeFraction converts a percentage to a 0..1 fraction when v > 1.
func NormalizeFraction(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

// SplitList splits a |-joined list. The placeholder yields nil.
func SplitList(token string) []string {
	token = strings.TrimSpace(token)
	if token == "" || token == models.Placeholder {
		return nil
	}
	var out []string
	for _, part := range strings.Split(token, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FormatLine renders d back into the delimited wire format.
func FormatLine(d *models.DealRecord) string {
	funnels := models.Placeholder
	if len(d.Funnels) > 0 {
		funnels = strings.Join(d.Funnels, "|")
	}
	cr := models.Placeholder
	if d.CR != nil {
		cr = *d.CR
	}
	return strings.Join([]string{
		orPlaceholder(d.Region),
		orPlaceholder(d.Partner),
		orPlaceholder(d.Geo),
		orPlaceholder(d.Language),
		orPlaceholder(d.Source),
		orPlaceholder(string(d.PricingModel)),
		models.FormatAmount(d.CPA),
		models.FormatAmount(d.CRG),
		models.FormatAmount(d.CPL),
		funnels,
		cr,
		models.FormatAmount(d.DeductionLimit),
	}, "-")
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.Placeholder
	}
	return s
}
