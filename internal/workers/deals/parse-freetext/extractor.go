package parsefreetext

import (
	"regexp"
	"strconv"
	"strings"

	"deal-intake/internal/models"
	parsedelimited "deal-intake/internal/workers/deals/parse-delimited"
	validatedeal "deal-intake/internal/workers/deals/validate-deal"
	"deal-intake/pkg/registry"
)

var (
	labelPattern     = regexp.MustCompile(`^([A-Za-z][A-Za-z +/_]*?)\s*:\s*(.*)$`)
	cpaCRGPattern    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\$?\s*\+\s*(\d+(?:\.\d+)?)\s*%`)
	amountPattern    = regexp.MustCompile(`\$?\s*(\d+(?:\.\d+)?)`)
	geoLangPattern   = regexp.MustCompile(`^([A-Za-z]{2}(?:\s*[|,/]\s*[A-Za-z]{2})*)(?:\s+([a-z]{2}))?\b\s*[-:]?\s*(.*)$`)
	geoLinePattern   = regexp.MustCompile(`^([A-Z]{2}(?:\s*[|,/]\s*[A-Z]{2})*)(?:\s+([a-z]{2}))?\b\s*[-:]?\s*(.*)$`)
	speakingPattern  = regexp.MustCompile(`(?i)^([a-z]+)\s+speaking$`)
	listSeparators   = regexp.MustCompile(`[,|/]`)
	sourceSeparators = regexp.MustCompile(`\s*[,|/]\s*|\s+and\s+`)
)

// sharedLabels always apply to the whole partner section, even when they follow a GEO line.
var sharedLabels = map[string]bool{
	"source":          true,
	"traffic":         true,
	"traffic source":  true,
	"model":           true,
	"pricing model":   true,
	"deal type":       true,
	"deduction":       true,
	"deduction limit": true,
	"deductions":      true,
	"region":          true,
	"tier":            true,
}

var sourceAliases = map[string]string{
	"fb":       "Facebook",
	"facebook": "Facebook",
	"meta":     "Facebook",
	"gg":       "Google",
	"google":   "Google",
	"tt":       "TikTok",
	"tiktok":   "TikTok",
	"native":   "Native",
	"seo":      "SEO",
	"push":     "Push",
	"email":    "Email",
}

// fields holds what one section or block declares. Block values override section values.
type fields struct {
	partner   string
	region    string
	geo       string
	language  string
	source    string
	model     models.PricingModel
	cpa       *float64
	crg       *float64
	cpl       *float64
	price     *float64
	funnels   []string
	cr        *string
	deduction *float64
	raw       []string
}

func (f *fields) empty() bool {
	return f.geo == "" && f.cpa == nil && f.crg == nil && f.cpl == nil && f.price == nil && len(f.funnels) == 0
}

// Extractor turns label-based deal text into deal records.
type Extractor struct {
	registry *registry.GeoRegistry
}

func NewExtractor(reg *registry.GeoRegistry) *Extractor {
	return &Extractor{registry: reg}
}

// Extract returns every deal found in text, in order of appearance.
func (e *Extractor) Extract(text string) []ExtractedDeal {
	var (
		out     []ExtractedDeal
		section = &fields{}
		block   *fields
		emitted bool
	)

	flushBlock := func() {
		if block != nil {
			out = append(out, e.build(section, block))
			emitted = true
			block = nil
		}
	}
	flushSection := func() {
		flushBlock()
		if !emitted && (section.partner != "" || !section.empty()) {
			out = append(out, e.build(section, &fields{}))
		}
		section = &fields{}
		emitted = false
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := labelPattern.FindStringSubmatch(line); m != nil {
			key := normalizeKey(m[1])
			value := strings.TrimSpace(m[2])

			switch key {
			case "partner", "company", "advertiser":
				flushSection()
				section.partner = value
				section.raw = append(section.raw, line)
				continue
			case "geo", "country", "countries":
				flushBlock()
				block = &fields{}
				applyGeo(block, value)
				block.raw = append(block.raw, line)
				continue
			}

			target := section
			if block != nil && !sharedLabels[key] {
				target = block
			}
			if applyLabel(target, key, value) {
				target.raw = append(target.raw, line)
				continue
			}
		}

		if m := speakingPattern.FindStringSubmatch(line); m != nil {
			section.language = strings.ToUpper(m[1])
			section.raw = append(section.raw, line)
			continue
		}

		if m := geoLinePattern.FindStringSubmatch(line); m != nil && (m[3] == "" || hasPrice(m[3])) {
			flushBlock()
			block = &fields{}
			applyGeo(block, line)
			block.raw = append(block.raw, line)
			continue
		}

		if hasPrice(line) {
			target := section
			if block != nil {
				target = block
			}
			applyPrice(target, line)
			target.raw = append(target.raw, line)
		}
	}
	flushSection()
	return out
}

func (e *Extractor) build(section, block *fields) ExtractedDeal {
	deal := models.DealRecord{
		Partner:        section.partner,
		Region:         pick(block.region, section.region),
		Geo:            pick(block.geo, section.geo),
		Language:       pick(block.language, section.language),
		Source:         pick(block.source, section.source),
		PricingModel:   models.PricingModel(pick(string(block.model), string(section.model))),
		CPA:            pickFloat(block.cpa, section.cpa),
		CRG:            pickFloat(block.crg, section.crg),
		CPL:            pickFloat(block.cpl, section.cpl),
		Funnels:        block.funnels,
		CR:             block.cr,
		DeductionLimit: pickFloat(block.deduction, section.deduction),
	}
	if deal.Funnels == nil {
		deal.Funnels = section.funnels
	}
	if deal.CR == nil {
		deal.CR = section.cr
	}

	price := pickFloat(block.price, section.price)
	if deal.PricingModel == "" {
		deal.PricingModel = inferModel(deal, price)
	}
	if price != nil {
		switch deal.PricingModel {
		case models.PricingCPL:
			if deal.CPL == nil {
				deal.CPL = price
			}
		default:
			if deal.CPA == nil {
				deal.CPA = price
			}
		}
	}

	if deal.Region == "" {
		if region, ok := e.registry.Lookup(deal.Geo); ok {
			deal.Region = region
		}
	}

	raw := append(append([]string{}, section.raw...), block.raw...)
	return ExtractedDeal{
		Deal:    deal,
		Missing: validatedeal.MissingFields(&deal),
		Raw:     strings.Join(raw, "\n"),
	}
}

func inferModel(d models.DealRecord, price *float64) models.PricingModel {
	switch {
	case d.CPA != nil && d.CRG != nil:
		return models.PricingCPACRG
	case d.CPL != nil:
		return models.PricingCPL
	case d.CPA != nil, price != nil:
		return models.PricingCPA
	}
	return ""
}

// applyLabel stores one labelled value. It reports false for labels it does not know.
func applyLabel(f *fields, key, value string) bool {
	switch key {
	case "region", "tier":
		f.region = strings.ToUpper(value)
	case "language", "lang":
		f.language = value
	case "source", "traffic", "traffic source":
		f.source = NormalizeSource(value)
	case "model", "pricing model", "deal type":
		f.model = models.ParsePricingModel(value)
	case "price", "payout", "cpa + crg", "cpa+crg", "cpa/crg":
		applyPrice(f, value)
	case "cpa":
		if strings.Contains(value, "%") {
			applyPrice(f, value)
		} else {
			f.cpa = firstAmount(value)
		}
	case "crg":
		f.crg = percent(value)
	case "cpl":
		f.cpl = firstAmount(value)
		if f.model == "" {
			f.model = models.PricingCPL
		}
	case "funnels", "funnel", "landing page", "landing pages", "landing", "offer", "offers":
		f.funnels = SplitFunnels(value)
	case "deduction", "deduction limit", "deductions":
		f.deduction = percent(value)
	case "cr", "conversion rate":
		if value != "" {
			f.cr = &value
		}
	default:
		return false
	}
	return true
}

func applyGeo(f *fields, value string) {
	m := geoLangPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		f.geo = strings.ToUpper(strings.TrimSpace(value))
		return
	}
	codes := listSeparators.Split(m[1], -1)
	for i := range codes {
		codes[i] = strings.ToUpper(strings.TrimSpace(codes[i]))
	}
	f.geo = strings.Join(codes, "|")
	if m[2] != "" {
		f.language = m[2]
	}
	if hasPrice(m[3]) {
		applyPrice(f, m[3])
	}
}

// applyPrice reads "1350+13%", "1200$ + 10%" or a single amount.
func applyPrice(f *fields, value string) {
	if m := cpaCRGPattern.FindStringSubmatch(value); m != nil {
		cpa, _ := strconv.ParseFloat(m[1], 64)
		crg, _ := strconv.ParseFloat(m[2], 64)
		crg /= 100
		f.cpa, f.crg = &cpa, &crg
		return
	}
	f.price = firstAmount(value)
}

func hasPrice(s string) bool {
	return cpaCRGPattern.MatchString(s) || strings.Contains(s, "$")
}

func firstAmount(s string) *float64 {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// percent reads "13%" as 0.13 and a bare number with the delimited normalization.
func percent(s string) *float64 {
	v := firstAmount(s)
	if v == nil {
		return nil
	}
	n := *v
	if strings.Contains(s, "%") {
		n /= 100
	} else {
		n = parsedelimited.NormalizeFraction(n)
	}
	return &n
}

// NormalizeSource maps traffic source shorthands (fb, gg, tt) onto their display names.
func NormalizeSource(value string) string {
	var out []string
	for _, part := range sourceSeparators.Split(strings.TrimSpace(value), -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if alias, ok := sourceAliases[strings.ToLower(part)]; ok {
			part = alias
		}
		out = append(out, part)
	}
	return strings.Join(out, "|")
}

// SplitFunnels splits a funnel list on commas, pipes and slashes.
func SplitFunnels(value string) []string {
	var out []string
	for _, part := range listSeparators.Split(value, -1) {
		if part = strings.TrimSpace(part); part != "" && part != models.Placeholder {
			out = append(out, part)
		}
	}
	return out
}

func normalizeKey(k string) string {
	return strings.Join(strings.Fields(strings.ToLower(k)), " ")
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func pickFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}
