package submitdeals

import "deal-intake/internal/models"

// Assemble maps deal records onto the attribute shape the record store expects.
// Absent values are kept as explicit nils.
func Assemble(records []models.DealRecord) []models.Attributes {
	out := make([]models.Attributes, 0, len(records))
	for _, r := range records {
		out = append(out, AssembleOne(r))
	}
	return out
}

func AssembleOne(r models.DealRecord) models.Attributes {
	return models.Attributes{
		models.AttrCompanyName: r.Partner,
		models.AttrGeo:         r.Geo,
		models.AttrLanguage:    r.Language,
		models.AttrSource:      r.Source,
		models.AttrFunnels:     append([]string{}, r.Funnels...),
		models.AttrCPA:         optional(r.CPA),
		models.AttrCRG:         optional(r.CRG),
		models.AttrCPL:         optional(r.CPL),
		models.AttrDeduction:   optional(r.DeductionLimit),
	}
}

func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
