package parsedelimited

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
)

func TestParseLine_CPACRG(t *testing.T) {
	deal, err := ParseLine("TIER1-Acme Media-DE-de-facebook-cpa_crg-1200-0.10-&-QuantumAI-8%-&")
	require.NoError(t, err)

	assert.Equal(t, "TIER1", deal.Region)
	assert.Equal(t, "Acme Media", deal.Partner)
	assert.Equal(t, "DE", deal.Geo)
	assert.Equal(t, "de", deal.Language)
	assert.Equal(t, "facebook", deal.Source)
	assert.Equal(t, models.PricingCPACRG, deal.PricingModel)
	assert.Equal(t, 1200.0, *deal.CPA)
	assert.InDelta(t, 0.10, *deal.CRG, 1e-9)
	assert.Nil(t, deal.CPL)
	assert.Equal(t, []string{"QuantumAI"}, deal.Funnels)
	require.NotNil(t, deal.CR)
	assert.Equal(t, "8%", *deal.CR)
	assert.Nil(t, deal.DeductionLimit)
}

func TestParseLine_PercentNormalization(t *testing.T) {
	deal, err := ParseLine("LATAM - Beta - BR - pt - google - cpa_crg - 900 - 10 - & - Alpha | Beta | - & - 5")
	require.NoError(t, err)

	assert.InDelta(t, 0.10, *deal.CRG, 1e-9)
	assert.InDelta(t, 0.05, *deal.DeductionLimit, 1e-9)
	assert.Equal(t, []string{"Alpha", "Beta"}, deal.Funnels)
	assert.Nil(t, deal.CR)
}

func TestParseLine_Errors(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantCode apperrors.ErrorCode
		check    func(t *testing.T, err error)
	}{
		{
			name:     "too few fields",
			line:     "TIER1-Acme-DE",
			wantCode: apperrors.ErrCodeFieldCountMismatch,
			check: func(t *testing.T, err error) {
				var fc *apperrors.FieldCountError
				require.ErrorAs(t, err, &fc)
				assert.Equal(t, 12, fc.Expected)
				assert.Equal(t, 3, fc.Actual)
			},
		},
		{
			name:     "hyphenated partner shifts fields",
			line:     "TIER1-Acme-Media-DE-de-facebook-cpa-1200-&-&-QuantumAI-&-&",
			wantCode: apperrors.ErrCodeFieldCountMismatch,
		},
		{
			name:     "non numeric cpa",
			line:     "TIER1-Acme-DE-de-facebook-cpa-abc-&-&-QuantumAI-&-&",
			wantCode: apperrors.ErrCodeNumericFormatInvalid,
			check: func(t *testing.T, err error) {
				var nf *apperrors.NumericFormatError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "cpa", nf.Field)
				assert.Equal(t, "abc", nf.Token)
			},
		},
		{
			name:     "missing required price",
			line:     "TIER1-Acme-DE-de-facebook-cpa_crg-1200-&-&-QuantumAI-&-&",
			wantCode: apperrors.ErrCodeDealValidationFailed,
			check: func(t *testing.T, err error) {
				var ve *apperrors.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, []string{"crg"}, ve.Fields)
			},
		},
		{
			name:     "every missing field reported",
			line:     "TIER1- -DE-de-&-cpl-&-&-&-&-&-&",
			wantCode: apperrors.ErrCodeDealValidationFailed,
			check: func(t *testing.T, err error) {
				var ve *apperrors.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, []string{"partner", "source", "funnels", "cpl"}, ve.Fields)
			},
		},
		{
			name:     "unknown pricing model",
			line:     "TIER1-Acme-DE-de-facebook-revshare-1200-&-&-QuantumAI-&-&",
			wantCode: apperrors.ErrCodeDealValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal, err := ParseLine(tt.line)
			require.Error(t, err)
			assert.Nil(t, deal)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestParseAmount_PlainDecimalsOnly(t *testing.T) {
	for _, token := range []string{"NaN", "nan", "Inf", "+Inf", "Infinity", "1e3", "0x10", ".5", "1_000", "-5"} {
		t.Run(token, func(t *testing.T) {
			v, err := ParseAmount("cpa", token)
			assert.Nil(t, v)
			var nf *apperrors.NumericFormatError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, token, nf.Token)
		})
	}

	v, err := ParseAmount("cpa", " 12.50 ")
	require.NoError(t, err)
	assert.Equal(t, 12.5, *v)
}

func TestParseLine_RejectsNonFinitePrice(t *testing.T) {
	for _, token := range []string{"NaN", "Inf", "1e3"} {
		t.Run(token, func(t *testing.T) {
			deal, err := ParseLine("TIER1-Acme-UK-en-Facebook-cpa-" + token + "-&-&-F-&-&")
			assert.Nil(t, deal)
			assert.Equal(t, apperrors.ErrCodeNumericFormatInvalid, apperrors.CodeOf(err))
		})
	}
}

func TestParseLine_ZeroPriceIsPresent(t *testing.T) {
	deal, err := ParseLine("TIER2-Acme-PL-pl-native-cpl-&-&-0-Funnel-&-&")
	require.NoError(t, err)
	assert.Equal(t, 0.0, *deal.CPL)
}

func TestNormalizeFraction(t *testing.T) {
	assert.Equal(t, 0.5, NormalizeFraction(0.5))
	assert.Equal(t, 1.0, NormalizeFraction(1))
	assert.InDelta(t, 0.13, NormalizeFraction(13), 1e-9)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList("&"))
	assert.Nil(t, SplitList(" "))
	assert.Equal(t, []string{"A", "B"}, SplitList(" A || B "))
}

func TestFormatLine_RoundTrip(t *testing.T) {
	line := "TIER1-Acme-DE-de-facebook-cpa_crg-1200-0.1-&-QuantumAI|Nova-8%-0.05"
	deal, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, line, FormatLine(deal))
}

func TestParseLine_SampleDeals(t *testing.T) {
	deal, err := ParseLine("TIER1-FTD Company-UK|IE|NL-Native-Facebook|Google-cpa_crg-1200-0.10-&-QuantumAI-&-0.05")
	require.NoError(t, err)
	assert.Equal(t, "UK|IE|NL", deal.Geo)
	assert.Equal(t, "Facebook|Google", deal.Source)
	assert.Equal(t, 1200.0, *deal.CPA)
	assert.InDelta(t, 0.10, *deal.CRG, 1e-9)
	assert.Nil(t, deal.CPL)
	assert.Equal(t, []string{"QuantumAI"}, deal.Funnels)
	assert.InDelta(t, 0.05, *deal.DeductionLimit, 1e-9)

	deal, err = ParseLine("TIER1-FTD Company-UK-Native-Facebook-cpa_crg-1200-10-&-QuantumAI-&-5")
	require.NoError(t, err)
	assert.InDelta(t, 0.10, *deal.CRG, 1e-9)
	assert.InDelta(t, 0.05, *deal.DeductionLimit, 1e-9)
}

func TestParseFraction_Idempotent(t *testing.T) {
	for _, token := range []string{"13", "0.13"} {
		v, err := ParseFraction("crg", token)
		require.NoError(t, err)
		assert.InDelta(t, 0.13, *v, 1e-9, token)
	}
	v, err := ParseFraction("crg", "&")
	require.NoError(t, err)
	assert.Nil(t, v)
}
