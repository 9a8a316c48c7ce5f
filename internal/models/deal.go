package models

import (
	"strconv"
	"strings"
)

// Placeholder marks an intentionally absent field in the delimited wire format.
const Placeholder = "&"

// PricingModel selects which price fields a deal needs.
type PricingModel string

const (
	PricingCPA    PricingModel = "cpa"
	PricingCPACRG PricingModel = "cpa_crg"
	PricingCPL    PricingModel = "cpl"
)

// ParsePricingModel maps a wire token onto a PricingModel. Unknown tokens are kept
// verbatim so validation can reject them.
func ParsePricingModel(token string) PricingModel {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "cpa+crg", "cpa/crg", "cpa crg":
		return PricingCPACRG
	}
	return PricingModel(t)
}

// Known reports whether m is one of the supported models.
func (m PricingModel) Known() bool {
	switch m {
	case PricingCPA, PricingCPACRG, PricingCPL:
		return true
	}
	return false
}

// Label is the human form shown in chat.
func (m PricingModel) Label() string {
	switch m {
	case PricingCPA:
		return "CPA"
	case PricingCPACRG:
		return "CPA+CRG"
	case PricingCPL:
		return "CPL"
	}
	if m == "" {
		return "unknown"
	}
	return string(m)
}

// Regions is the closed set of region tags.
var Regions = []string{"TIER1", "TIER2", "TIER3", "NORDICS", "LATAM", "BALTICS"}

// KnownRegion reports whether region is in Regions (case-insensitive).
func KnownRegion(region string) bool {
	for _, r := range Regions {
		if strings.EqualFold(r, region) {
			return true
		}
	}
	return false
}

// DealRecord is one parsed advertising deal. Nil pointers and a nil Funnels slice mean absent.
type DealRecord struct {
	Region         string       `json:"region"`
	Partner        string       `json:"partner"`
	Geo            string       `json:"geo"`
	Language       string       `json:"language"`
	Source         string       `json:"source"`
	PricingModel   PricingModel `json:"pricingModel"`
	CPA            *float64     `json:"cpa,omitempty"`
	CRG            *float64     `json:"crg,omitempty"`
	CPL            *float64     `json:"cpl,omitempty"`
	Funnels        []string     `json:"funnels,omitempty"`
	CR             *string      `json:"cr,omitempty"`
	DeductionLimit *float64     `json:"deductionLimit,omitempty"`
}

// Clone returns a deep copy.
func (d DealRecord) Clone() DealRecord {
	out := d
	out.CPA = cloneFloat(d.CPA)
	out.CRG = cloneFloat(d.CRG)
	out.CPL = cloneFloat(d.CPL)
	out.DeductionLimit = cloneFloat(d.DeductionLimit)
	if d.CR != nil {
		cr := *d.CR
		out.CR = &cr
	}
	if d.Funnels != nil {
		out.Funnels = append([]string(nil), d.Funnels...)
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// FormatAmount renders an optional amount, using the placeholder when absent.
func FormatAmount(f *float64) string {
	if f == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// FormatPercent renders an optional 0..1 fraction as a percentage.
func FormatPercent(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f*100, 'f', -1, 64) + "%"
}

// Attributes is one record in the shape the external store expects.
type Attributes map[string]interface{}

// Store attribute keys.
const (
	AttrCompanyName = "company_name"
	AttrGeo         = "geo"
	AttrLanguage    = "language"
	AttrSource      = "source"
	AttrFunnels     = "funnels"
	AttrCPA         = "cpa"
	AttrCRG         = "crg"
	AttrCPL         = "cpl"
	AttrDeduction   = "deduction"
)

// String returns the string attribute at key, or "".
func (a Attributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Amount returns the numeric attribute at key, or nil when absent.
func (a Attributes) Amount(key string) *float64 {
	switch v := a[key].(type) {
	case float64:
		return &v
	case *float64:
		return v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

// Funnels returns the funnels attribute.
func (a Attributes) Funnels() []string {
	f, _ := a[AttrFunnels].([]string)
	return f
}
