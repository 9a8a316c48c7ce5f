package classifyformat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/models"
)

const (
	dealLine1 = "TIER1-FTD Company-UK|IE|NL-Native-Facebook|Google-cpa_crg-1200-0.10-&-QuantumAI-&-0.05"
	dealLine2 = "TIER1-FTD Company-UK-Native-Facebook-cpa_crg-1200-10-&-QuantumAI-&-5"
)

func TestClassify(t *testing.T) {
	facebookOnly := supportingWeight / 5.5

	tests := []struct {
		name       string
		text       string
		kind       models.FormatKind
		confidence float64
		samples    []string
	}{
		{
			name:       "delimited batch",
			text:       dealLine1 + "\n" + dealLine2,
			kind:       models.FormatStructured,
			confidence: 1.0,
			samples:    []string{dealLine1, dealLine2},
		},
		{
			name:       "lowercase region",
			text:       "latam-Beta-BR-pt-google-cpa-900-&-&-Alpha-&-&",
			kind:       models.FormatStructured,
			confidence: 1.0,
		},
		{
			name:       "three of four lines delimited",
			text:       strings.Repeat(dealLine2+"\n", 3) + "thanks",
			kind:       models.FormatStructured,
			confidence: 0.75 + structuredIndicatorWeight*facebookOnly,
		},
		{
			name: "two of three lines is not enough",
			text: strings.Repeat(dealLine2+"\n", 2) + "thanks",
			kind: models.FormatUnknown,
		},
		{
			name:       "partner anchor",
			text:       "Partner: Acme\nGEO: UK",
			kind:       models.FormatUnstructured,
			confidence: 1.0,
			samples:    []string{"Partner: Acme"},
		},
		{
			name:       "partner anchor ignores other content",
			text:       "partner: Acme\n" + dealLine1,
			kind:       models.FormatUnstructured,
			confidence: 1.0,
			samples:    []string{"partner: Acme"},
		},
		{
			name:       "strong indicators alone",
			text:       "GEO: UK\nPrice: 1200+10%\nSource: Facebook\nFunnels: X\nCompany: Acme",
			kind:       models.FormatUnstructured,
			confidence: 0.2 + unstructuredIndicatorWeight*(5.0/5.5),
			samples:    []string{"GEO: UK", "Source: Facebook"},
		},
		{
			name:       "labels plus moderate indicators",
			text:       "GEO: UK\nSource: fb\nLanding Page: X",
			kind:       models.FormatUnstructured,
			confidence: 0.5 + unstructuredIndicatorWeight*(2.0/5.5),
			samples:    []string{"GEO: UK", "Source: fb", "Landing Page: X"},
		},
		{
			name: "labels with weak indicators",
			text: "GEO: UK\nSource: fb",
			kind: models.FormatUnknown,
		},
		{
			name: "chatter",
			text: "hello, how are you?",
			kind: models.FormatUnknown,
		},
		{
			name: "empty",
			text: " \n\t\n",
			kind: models.FormatUnknown,
		},
		{
			name: "own progress message",
			text: "--Deal Parsing Progress--\n\n✅ Structure Analysis Complete\n🔄 Processing deal 1 of 3",
			kind: models.FormatUnknown,
		},
		{
			name: "progress phrase beats anchor",
			text: "Partner: Acme\n🔄 Processing Submission...",
			kind: models.FormatUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.text)
			assert.Equal(t, tt.kind, v.Kind)
			assert.InDelta(t, tt.confidence, v.Confidence, 1e-9)
			if tt.samples != nil {
				assert.Equal(t, tt.samples, v.SampleMatches)
			}
			if tt.kind == models.FormatUnknown {
				assert.Empty(t, v.SampleMatches)
			}
			assert.LessOrEqual(t, v.Confidence, 1.0)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for _, text := range []string{dealLine1, "Partner: Acme\nGEO: UK", "GEO: UK\nSource: fb\nLanding Page: X", "random"} {
		assert.Equal(t, Classify(text), Classify(text))
	}
}

func TestClassify_SampleLimit(t *testing.T) {
	v := Classify(strings.Repeat(dealLine1+"\n", 8))
	assert.Equal(t, models.FormatStructured, v.Kind)
	assert.Len(t, v.SampleMatches, maxSamples)
}

func TestExplain_Scores(t *testing.T) {
	_, scores := Explain("GEO: UK\nSource: fb\nLanding Page: X")
	assert.Zero(t, scores.Structured)
	assert.InDelta(t, 0.5, scores.Unstructured, 1e-9)
	assert.InDelta(t, 2.0/5.5, scores.Indicator, 1e-9)
}

func TestUnknownError(t *testing.T) {
	err := UnknownError(Classify("hello"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeClassificationUnknown, apperrors.CodeOf(err))

	assert.NoError(t, UnknownError(Classify(dealLine1)))
}

func TestIsProgressText(t *testing.T) {
	assert.True(t, IsProgressText("🔄 Starting deal analysis...\nPlease wait while I process your deals."))
	assert.False(t, IsProgressText("Partner: Acme"))
}

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Text: dealLine1})
	require.NoError(t, err)
	assert.Equal(t, models.FormatStructured, out.Verdict.Kind)
	assert.Equal(t, 1.0, out.Scores.Structured)
}
