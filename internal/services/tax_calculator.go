package services

import (
	"log/slog"
	"time"

	"billing-service/internal/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CalculateTaxes applies every tax config active on the billing date to the
// taxable amount. Taxes are additive, never compounded on each other. An
// empty result is a configuration gap, not an error; it is logged so
// operators notice a tax table that expired unnoticed.
func CalculateTaxes(taxableAmount float64, billDate time.Time, configs []models.TaxConfig) []models.TaxLine {
	active := lo.Filter(configs, func(c models.TaxConfig, _ int) bool {
		return c.IsActiveOn(billDate)
	})

	if len(active) == 0 {
		slog.Warn("no active tax configs for billing date, proceeding with zero tax",
			"bill_date", billDate.Format("2006-01-02"))
		return []models.TaxLine{}
	}

	base := decimal.NewFromFloat(taxableAmount)
	lines := make([]models.TaxLine, 0, len(active))
	for _, cfg := range active {
		amount, _ := base.
			Mul(decimal.NewFromFloat(cfg.RatePercent)).
			Div(decimal.NewFromInt(100)).
			Round(2).
			Float64()

		lines = append(lines, models.TaxLine{
			TaxID:       cfg.ID,
			TaxName:     cfg.TaxName,
			RatePercent: cfg.RatePercent,
			Amount:      amount,
		})
	}

	return lines
}

// TotalTax sums the tax line amounts.
func TotalTax(lines []models.TaxLine) float64 {
	return models.RoundMoney(lo.SumBy(lines, func(l models.TaxLine) float64 { return l.Amount }))
}
