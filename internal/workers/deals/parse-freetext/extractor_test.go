package parsefreetext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-intake/internal/models"
	"deal-intake/pkg/registry"
)

func testRegistry() *registry.GeoRegistry {
	return &registry.GeoRegistry{Regions: []registry.Region{
		{Name: "TIER1", Geos: []string{"UK", "BE", "NL", "DE"}},
		{Name: "NORDICS", Geos: []string{"SE"}},
	}}
}

func TestExtract_SingleDeal(t *testing.T) {
	text := "Partner: Acme Media\nGEO: UK\nPrice: $1200+10%\nSource: fb\nLanguage: en\nFunnels: QuantumAI, Nova"

	deals := NewExtractor(testRegistry()).Extract(text)
	require.Len(t, deals, 1)

	d := deals[0]
	assert.True(t, d.Valid(), "missing: %v", d.Missing)
	assert.Equal(t, "Acme Media", d.Deal.Partner)
	assert.Equal(t, "TIER1", d.Deal.Region)
	assert.Equal(t, "UK", d.Deal.Geo)
	assert.Equal(t, "en", d.Deal.Language)
	assert.Equal(t, "Facebook", d.Deal.Source)
	assert.Equal(t, models.PricingCPACRG, d.Deal.PricingModel)
	assert.Equal(t, 1200.0, *d.Deal.CPA)
	assert.InDelta(t, 0.10, *d.Deal.CRG, 1e-9)
	assert.Equal(t, []string{"QuantumAI", "Nova"}, d.Deal.Funnels)
	assert.Contains(t, d.Raw, "GEO: UK")
}

func TestExtract_SharedSectionWithGeoBlocks(t *testing.T) {
	text := `Partner: Beta
Source: gg/tt
model: cpa+crg
Funnels: Alpha
Deduction: 5%
BE fr 1100$ + 9%
NL nl 1300+12%`

	deals := NewExtractor(testRegistry()).Extract(text)
	require.Len(t, deals, 2)

	be, nl := deals[0].Deal, deals[1].Deal
	assert.Equal(t, "BE", be.Geo)
	assert.Equal(t, "fr", be.Language)
	assert.Equal(t, 1100.0, *be.CPA)
	assert.InDelta(t, 0.09, *be.CRG, 1e-9)
	assert.Equal(t, "NL", nl.Geo)
	assert.Equal(t, "nl", nl.Language)
	assert.InDelta(t, 0.12, *nl.CRG, 1e-9)

	for _, d := range deals {
		assert.True(t, d.Valid(), "missing: %v", d.Missing)
		assert.Equal(t, "Beta", d.Deal.Partner)
		assert.Equal(t, "Google|TikTok", d.Deal.Source)
		assert.Equal(t, []string{"Alpha"}, d.Deal.Funnels)
		assert.InDelta(t, 0.05, *d.Deal.DeductionLimit, 1e-9)
		assert.Equal(t, "TIER1", d.Deal.Region)
	}
}

func TestExtract_MultiplePartners(t *testing.T) {
	text := `Partner: A
GEO: DE
CPA: 1000
Funnels: F
Source: Native
Language: de
Company: B
GEO: SE sv
CPL: 20
Funnels: G
Source: push`

	deals := NewExtractor(testRegistry()).Extract(text)
	require.Len(t, deals, 2)

	a, b := deals[0].Deal, deals[1].Deal
	assert.Equal(t, "A", a.Partner)
	assert.Equal(t, models.PricingCPA, a.PricingModel)
	assert.Equal(t, "Native", a.Source)
	assert.True(t, deals[0].Valid(), "missing: %v", deals[0].Missing)

	assert.Equal(t, "B", b.Partner)
	assert.Equal(t, "NORDICS", b.Region)
	assert.Equal(t, "sv", b.Language)
	assert.Equal(t, models.PricingCPL, b.PricingModel)
	assert.Equal(t, 20.0, *b.CPL)
	assert.Equal(t, "Push", b.Source)
	assert.True(t, deals[1].Valid(), "missing: %v", deals[1].Missing)
}

func TestExtract_IncompleteDealIsKept(t *testing.T) {
	deals := NewExtractor(nil).Extract("Partner: Gamma\nCPL: 35\nSource: SEO")
	require.Len(t, deals, 1)
	assert.False(t, deals[0].Valid())
	assert.Equal(t, []string{"region", "geo", "language", "funnels"}, deals[0].Missing)
	assert.Equal(t, "SEO", deals[0].Deal.Source)
}

func TestExtract_SpeakingLanguage(t *testing.T) {
	deals := NewExtractor(nil).Extract("Partner: Delta\nENG speaking\nGEO: UK, IE\nPrice: 900$")
	require.Len(t, deals, 1)
	assert.Equal(t, "ENG", deals[0].Deal.Language)
	assert.Equal(t, "UK|IE", deals[0].Deal.Geo)
	assert.Equal(t, models.PricingCPA, deals[0].Deal.PricingModel)
	assert.Equal(t, 900.0, *deals[0].Deal.CPA)
}

func TestExtract_NothingFound(t *testing.T) {
	assert.Empty(t, NewExtractor(nil).Extract("hello there\nhow are you"))
}

func TestNormalizeSource(t *testing.T) {
	assert.Equal(t, "Facebook|Google|TikTok", NormalizeSource("fb, Google and tt"))
	assert.Equal(t, "Snapchat", NormalizeSource(" Snapchat "))
	assert.Equal(t, "", NormalizeSource(""))
}

func TestSplitFunnels(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, SplitFunnels("A, B | C"))
	assert.Nil(t, SplitFunnels("&"))
}
