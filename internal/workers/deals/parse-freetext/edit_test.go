package parsefreetext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/models"
)

func TestApplyEdit(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
		check func(t *testing.T, d *models.DealRecord)
	}{
		{"crg percent", "crg", "13", func(t *testing.T, d *models.DealRecord) { assert.InDelta(t, 0.13, *d.CRG, 1e-9) }},
		{"crg with sign", "crg", "13%", func(t *testing.T, d *models.DealRecord) { assert.InDelta(t, 0.13, *d.CRG, 1e-9) }},
		{"cpa dollars", "cpa", "$1200", func(t *testing.T, d *models.DealRecord) { assert.Equal(t, 1200.0, *d.CPA) }},
		{"cpa cleared", "cpa", "&", func(t *testing.T, d *models.DealRecord) { assert.Nil(t, d.CPA) }},
		{"funnels", "funnels", "A, B", func(t *testing.T, d *models.DealRecord) { assert.Equal(t, []string{"A", "B"}, d.Funnels) }},
		{"model alias", "pricing_model", "CPA+CRG", func(t *testing.T, d *models.DealRecord) { assert.Equal(t, models.PricingCPACRG, d.PricingModel) }},
		{"source alias", "source", "fb", func(t *testing.T, d *models.DealRecord) { assert.Equal(t, "Facebook", d.Source) }},
		{"geo upper", "geo", "uk|ie", func(t *testing.T, d *models.DealRecord) { assert.Equal(t, "UK|IE", d.Geo) }},
		{"deduction", "deduction_limit", "5", func(t *testing.T, d *models.DealRecord) { assert.InDelta(t, 0.05, *d.DeductionLimit, 1e-9) }},
		{"cr", "cr", "8%", func(t *testing.T, d *models.DealRecord) { assert.Equal(t, "8%", *d.CR) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &models.DealRecord{CPA: models.Float(1)}
			require.NoError(t, ApplyEdit(d, tt.field, tt.value))
			tt.check(t, d)
		})
	}
}

func TestApplyEdit_Errors(t *testing.T) {
	d := &models.DealRecord{}

	err := ApplyEdit(d, "cpa", "abc")
	var nf *apperrors.NumericFormatError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "cpa", nf.Field)

	assert.ErrorIs(t, ApplyEdit(d, "nickname", "x"), ErrUnknownField)
}

func TestApplyEdit_RejectsNonFinite(t *testing.T) {
	tests := []struct{ field, value string }{
		{"cpa", "nan"},
		{"cpl", "Inf"},
		{"crg", "NaN%"},
		{"deduction_limit", "1e3"},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			d := &models.DealRecord{CPA: models.Float(1200)}
			err := ApplyEdit(d, tt.field, tt.value)
			assert.Equal(t, apperrors.ErrCodeNumericFormatInvalid, apperrors.CodeOf(err))
			assert.Equal(t, 1200.0, *d.CPA)
			assert.Nil(t, d.CPL)
		})
	}
}

func TestFieldValue(t *testing.T) {
	d := &models.DealRecord{Partner: "Acme", CRG: models.Float(0.1), PricingModel: models.PricingCPACRG, Funnels: []string{"A", "B"}}
	assert.Equal(t, "Acme", FieldValue(d, "partner"))
	assert.Equal(t, "10%", FieldValue(d, "crg"))
	assert.Equal(t, "CPA+CRG", FieldValue(d, "pricing_model"))
	assert.Equal(t, "A, B", FieldValue(d, "funnels"))
	assert.Equal(t, "&", FieldValue(d, "cpl"))
	assert.Equal(t, "-", FieldValue(d, "cr"))
	assert.True(t, IsEditable("deduction_limit"))
	assert.False(t, IsEditable("nickname"))
}
