package services

import (
	"testing"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatRateAdjustmentPolicy_SolarCredit(t *testing.T) {
	policy := NewFlatRateAdjustmentPolicy(7.00)
	billDate := date(2025, time.March, 31)

	credit, err := policy.SolarCredit(12.5, models.UtilityElectricity, billDate)
	require.NoError(t, err)
	assert.Equal(t, 87.50, credit)
}

func TestFlatRateAdjustmentPolicy_SolarCreditZeroAndNegativeExport(t *testing.T) {
	policy := NewFlatRateAdjustmentPolicy(7.00)
	billDate := date(2025, time.March, 31)

	credit, err := policy.SolarCredit(0, models.UtilityElectricity, billDate)
	require.NoError(t, err)
	assert.Equal(t, 0.00, credit)

	credit, err = policy.SolarCredit(-4, models.UtilityElectricity, billDate)
	require.NoError(t, err)
	assert.Equal(t, 0.00, credit)
}

func TestFlatRateAdjustmentPolicy_SubsidyIsZero(t *testing.T) {
	policy := NewFlatRateAdjustmentPolicy(7.00)

	subsidy, err := policy.Subsidy(uuid.New(), 1500.00, date(2025, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, 0.00, subsidy)
}
