// Package valuation holds the auto-loan valuation arithmetic and the
// valuation-provider contract. Every function in math.go is pure: the same
// inputs always yield the same outputs, so forecasts are reproducible. Callers
// pass the reference year or month instead of reading the clock here.
package valuation

import (
	"strings"
	"time"

	"collateral-service/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	baseVehicleValue = decimal.NewFromInt(25000)

	ltvLowCeiling    = decimal.RequireFromString("0.70")
	ltvMediumCeiling = decimal.RequireFromString("0.80")
	ltvHighCeiling   = decimal.RequireFromString("0.85")

	maxLoanFactor  = decimal.RequireFromString("0.85")
	loanValueRatio = decimal.RequireFromString("0.80")

	ageStep       = decimal.RequireFromString("0.12")
	ageFloor      = decimal.RequireFromString("0.2")
	hundred       = decimal.NewFromInt(100)
	ratioPlaces   = int32(4)
	currencyPlace = int32(2)
)

type RiskTier string

const (
	RiskLow       RiskTier = "LOW"
	RiskMedium    RiskTier = "MEDIUM"
	RiskHigh      RiskTier = "HIGH"
	RiskExcessive RiskTier = "EXCESSIVE"
)

type DemandLevel string

const (
	DemandHigh   DemandLevel = "HIGH"
	DemandMedium DemandLevel = "MEDIUM"
	DemandLow    DemandLevel = "LOW"
)

type Season string

const (
	SeasonSpring        Season = "SPRING"
	SeasonSummerPeak    Season = "SUMMER_PEAK"
	SeasonFallClearance Season = "FALL_CLEARANCE"
	SeasonWinterSlow    Season = "WINTER_SLOW"
)

var demandByMake = map[string]DemandLevel{
	"TOYOTA":    DemandHigh,
	"HONDA":     DemandHigh,
	"LEXUS":     DemandHigh,
	"ACURA":     DemandHigh,
	"FORD":      DemandMedium,
	"CHEVROLET": DemandMedium,
	"NISSAN":    DemandMedium,
	"HYUNDAI":   DemandMedium,
}

// LTVRatio is loanAmount / vehicleValue rounded half-up to 4 places.
func LTVRatio(loanAmount, vehicleValue decimal.Decimal) (decimal.Decimal, error) {
	if !vehicleValue.IsPositive() {
		return decimal.Zero, errs.Validation("vehicle value must be greater than zero")
	}
	return loanAmount.DivRound(vehicleValue, ratioPlaces), nil
}

// RiskTierFor classifies an LTV ratio; each upper bound is inclusive.
func RiskTierFor(ratio decimal.Decimal) RiskTier {
	switch {
	case ratio.LessThanOrEqual(ltvLowCeiling):
		return RiskLow
	case ratio.LessThanOrEqual(ltvMediumCeiling):
		return RiskMedium
	case ratio.LessThanOrEqual(ltvHighCeiling):
		return RiskHigh
	default:
		return RiskExcessive
	}
}

func IsApproved(ratio decimal.Decimal) bool {
	return ratio.LessThanOrEqual(ltvHighCeiling)
}

func MaxRecommendedLoan(vehicleValue decimal.Decimal) decimal.Decimal {
	return vehicleValue.Mul(maxLoanFactor)
}

// LoanValue is the lendable portion of an appraised market value.
func LoanValue(marketValue decimal.Decimal) decimal.Decimal {
	return marketValue.Mul(loanValueRatio)
}

// DemandLevelFor classifies a manufacturer, case-insensitively.
func DemandLevelFor(brand string) DemandLevel {
	if lvl, ok := demandByMake[strings.ToUpper(strings.TrimSpace(brand))]; ok {
		return lvl
	}
	return DemandLow
}

func brandMultiplier(lvl DemandLevel) decimal.Decimal {
	switch lvl {
	case DemandHigh:
		return decimal.RequireFromString("1.2")
	case DemandMedium:
		return decimal.NewFromInt(1)
	default:
		return decimal.RequireFromString("0.8")
	}
}

func depreciationMultiplier(lvl DemandLevel) decimal.Decimal {
	switch lvl {
	case DemandHigh:
		return decimal.RequireFromString("0.8")
	case DemandMedium:
		return decimal.NewFromInt(1)
	default:
		return decimal.RequireFromString("1.2")
	}
}

// EstimateMarketValue is the heuristic used when no provider valuation is
// available: base value x brand multiplier x max(0.2, 1 - age*0.12).
func EstimateMarketValue(year int, brand, _ string, currentYear int) decimal.Decimal {
	age := decimal.NewFromInt(int64(currentYear - year))
	ageMul := decimal.NewFromInt(1).Sub(age.Mul(ageStep))
	if ageMul.LessThan(ageFloor) {
		ageMul = ageFloor
	}
	return baseVehicleValue.
		Mul(brandMultiplier(DemandLevelFor(brand))).
		Mul(ageMul).
		Round(currencyPlace)
}

// MonthlyDepreciationRate: 0.8% base, 1.5% under two years, 1.0% under five,
// scaled by demand tier.
func MonthlyDepreciationRate(year int, brand string, currentYear int) decimal.Decimal {
	age := currentYear - year
	rate := decimal.RequireFromString("0.008")
	switch {
	case age < 2:
		rate = decimal.RequireFromString("0.015")
	case age < 5:
		rate = decimal.RequireFromString("0.010")
	}
	return rate.Mul(depreciationMultiplier(DemandLevelFor(brand)))
}

type MonthlyDepreciation struct {
	Month              int             `json:"month"`
	ProjectedValue     decimal.Decimal `json:"projected_value"`
	DepreciationAmount decimal.Decimal `json:"depreciation_amount"`
}

// DepreciationForecast compounds value*(1-rate) month by month, rounding each
// period's value half-up to cents before the next period is applied.
func DepreciationForecast(currentValue decimal.Decimal, months int, rate decimal.Decimal) ([]MonthlyDepreciation, error) {
	if months <= 0 {
		return nil, errs.Validation("forecast months must be greater than zero")
	}
	if !currentValue.IsPositive() {
		return nil, errs.Validation("current value must be greater than zero")
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errs.Validation("depreciation rate must be in [0, 1)")
	}
	keep := decimal.NewFromInt(1).Sub(rate)
	out := make([]MonthlyDepreciation, 0, months)
	value := currentValue
	for i := 1; i <= months; i++ {
		value = value.Mul(keep).Round(currencyPlace)
		out = append(out, MonthlyDepreciation{
			Month:              i,
			ProjectedValue:     value,
			DepreciationAmount: currentValue.Sub(value),
		})
	}
	return out, nil
}

type ForecastSummary struct {
	FinalValue             decimal.Decimal
	TotalDepreciation      decimal.Decimal
	DepreciationPercentage decimal.Decimal
}

// Summarize totals a forecast. The percentage is the 4-place ratio of total
// depreciation to the starting value, expressed in percent.
func Summarize(currentValue decimal.Decimal, schedule []MonthlyDepreciation) (ForecastSummary, error) {
	if len(schedule) == 0 {
		return ForecastSummary{}, errs.Validation("empty forecast")
	}
	if !currentValue.IsPositive() {
		return ForecastSummary{}, errs.Validation("current value must be greater than zero")
	}
	final := schedule[len(schedule)-1].ProjectedValue
	total := currentValue.Sub(final)
	return ForecastSummary{
		FinalValue:             final,
		TotalDepreciation:      total,
		DepreciationPercentage: total.DivRound(currentValue, ratioPlaces).Mul(hundred),
	}, nil
}

// SeasonFor maps a calendar month to the used-vehicle selling season.
func SeasonFor(month time.Month) Season {
	switch {
	case month >= time.March && month <= time.May:
		return SeasonSpring
	case month >= time.June && month <= time.August:
		return SeasonSummerPeak
	case month >= time.September && month <= time.November:
		return SeasonFallClearance
	default:
		return SeasonWinterSlow
	}
}

// AverageDaysOnMarket: popular makes sell faster.
func AverageDaysOnMarket(lvl DemandLevel) int {
	switch lvl {
	case DemandHigh:
		return 25
	case DemandMedium:
		return 35
	default:
		return 50
	}
}
