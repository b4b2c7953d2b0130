package autoloan

import (
	"time"

	"collateral-service/internal/domain/valuation"

	"github.com/shopspring/decimal"
)

type AppraisalStatus string

const (
	// AppraisalCompleted means the valuation provider priced the vehicle.
	AppraisalCompleted AppraisalStatus = "APPRAISAL_COMPLETED"
	// AppraisalEstimated means the provider could not answer and the value
	// comes from the make/year heuristic.
	AppraisalEstimated AppraisalStatus = "APPRAISAL_ESTIMATED"
)

const (
	StatusSuccess     = "SUCCESS"
	StatusUnavailable = "UNAVAILABLE"
)

type AppraisalInput struct {
	CollateralID   string `json:"collateral_id"`
	CollateralType string `json:"collateral_type"`
	VIN            string `json:"vin"`
	Year           int    `json:"year"`
	Make           string `json:"make"`
	Model          string `json:"model"`
	Trim           string `json:"trim"`
	Mileage        int    `json:"mileage"`
	Condition      string `json:"condition"`
	ZipCode        string `json:"zip_code"`
}

type Appraisal struct {
	CollateralID                 string          `json:"collateral_id"`
	VIN                          string          `json:"vin"`
	Year                         int             `json:"year"`
	Make                         string          `json:"make"`
	Model                        string          `json:"model"`
	Condition                    string          `json:"condition,omitempty"`
	Status                       AppraisalStatus `json:"status"`
	MarketValue                  decimal.Decimal `json:"market_value"`
	LoanValue                    decimal.Decimal `json:"loan_value"`
	DepreciationRate             decimal.Decimal `json:"depreciation_rate"`
	EstimatedMonthlyDepreciation decimal.Decimal `json:"estimated_monthly_depreciation"`
	Currency                     string          `json:"currency"`
	AppraisalDate                time.Time       `json:"appraisal_date"`
	Message                      string          `json:"message,omitempty"`
}

type MarketAnalysisInput struct {
	Make    string `json:"make" query:"make"`
	Model   string `json:"model" query:"model"`
	Year    int    `json:"year" query:"year"`
	ZipCode string `json:"zip_code" query:"zip_code"`
}

// MarketAnalysis always carries the demand and season classifiers. The
// provider fields are only set when Status is SUCCESS.
type MarketAnalysis struct {
	Make                string                `json:"make"`
	Model               string                `json:"model"`
	Year                int                   `json:"year"`
	ZipCode             string                `json:"zip_code"`
	Status              string                `json:"status"`
	Message             string                `json:"message,omitempty"`
	AverageMarketValue  *decimal.Decimal      `json:"average_market_value,omitempty"`
	PriceChangePercent  *float64              `json:"price_change_percent,omitempty"`
	DemandLevel         valuation.DemandLevel `json:"demand_level"`
	AverageDaysOnMarket int                   `json:"average_days_on_market"`
	SeasonalTrend       valuation.Season      `json:"seasonal_trend"`
	AnalysisDate        time.Time             `json:"analysis_date"`
}

type ComparableInput struct {
	CollateralID string `json:"collateral_id"`
	Year         int    `json:"year"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Mileage      int    `json:"mileage"`
	ZipCode      string `json:"zip_code"`
}

type Comparable struct {
	VIN             string          `json:"vin"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	SaleDate        *time.Time      `json:"sale_date,omitempty"`
	Location        string          `json:"location"`
	SimilarityScore float64         `json:"similarity_score"`
}

type ComparableSales struct {
	CollateralID           string          `json:"collateral_id"`
	Status                 string          `json:"status"`
	EstimatedValue         decimal.Decimal `json:"estimated_value"`
	Comparables            []Comparable    `json:"comparables"`
	AverageComparablePrice decimal.Decimal `json:"average_comparable_price"`
	PriceRangeHigh         decimal.Decimal `json:"price_range_high"`
	PriceRangeLow          decimal.Decimal `json:"price_range_low"`
}

type LTVInput struct {
	CollateralID string          `json:"collateral_id"`
	LoanAmount   decimal.Decimal `json:"loan_amount"`
	VehicleValue decimal.Decimal `json:"vehicle_value"`
}

type LTVResult struct {
	CollateralID       string             `json:"collateral_id"`
	LoanAmount         decimal.Decimal    `json:"loan_amount"`
	VehicleValue       decimal.Decimal    `json:"vehicle_value"`
	LTVRatio           decimal.Decimal    `json:"ltv_ratio"`
	LTVPercentage      decimal.Decimal    `json:"ltv_percentage"`
	RiskAssessment     valuation.RiskTier `json:"risk_assessment"`
	Approved           bool               `json:"approved"`
	MaxRecommendedLoan decimal.Decimal    `json:"max_recommended_loan"`
	CalculationDate    time.Time          `json:"calculation_date"`
}

type ForecastInput struct {
	CollateralID   string          `json:"collateral_id"`
	Year           int             `json:"year"`
	Make           string          `json:"make"`
	Model          string          `json:"model"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	ForecastMonths int             `json:"forecast_months"`
}

type Forecast struct {
	CollateralID           string                          `json:"collateral_id"`
	CurrentValue           decimal.Decimal                 `json:"current_value"`
	ProjectedValue         decimal.Decimal                 `json:"projected_value"`
	TotalDepreciation      decimal.Decimal                 `json:"total_depreciation"`
	DepreciationPercentage decimal.Decimal                 `json:"depreciation_percentage"`
	MonthlyRate            decimal.Decimal                 `json:"monthly_rate"`
	ForecastMonths         int                             `json:"forecast_months"`
	MonthlyForecast        []valuation.MonthlyDepreciation `json:"monthly_forecast"`
	ForecastDate           time.Time                       `json:"forecast_date"`
}
