// Package profit implements the season profit calculator.
package profit

import (
	"math"
	"strconv"
	"strings"

	"github.com/atinyakov/AgriVision/internal/models"
)

// Calculate derives profit figures from total investment and expected
// revenue. ProfitPerAcre equals the total profit; no area is collected.
// ROI is zero when nothing was invested.
func Calculate(investment, revenue float64) models.ProfitCalculation {
	profit := revenue - investment
	var roi float64
	if investment > 0 {
		roi = profit / investment * 100
	}
	return models.ProfitCalculation{
		TotalInvestment: investment,
		ExpectedRevenue: revenue,
		EstimatedProfit: profit,
		ProfitPerAcre:   profit,
		ROI:             roi,
	}
}

// ParseAndCalculate parses user-entered amounts, counting empty,
// unparsable or non-finite input as zero, and calls Calculate.
func ParseAndCalculate(investment, revenue string) models.ProfitCalculation {
	return Calculate(parseAmount(investment), parseAmount(revenue))
}

func parseAmount(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
