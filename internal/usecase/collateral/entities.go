package collateral

import (
	"time"

	domain "collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/valuation"

	"github.com/shopspring/decimal"
)

type CreateInput struct {
	CustomerID         string          `json:"customer_id"`
	AccountID          string          `json:"account_id"`
	Type               string          `json:"type"`
	Description        string          `json:"description"`
	EstimatedValue     decimal.Decimal `json:"estimated_value"`
	MarketValue        decimal.Decimal `json:"market_value"`
	Currency           string          `json:"currency"`
	Status             string          `json:"status"`
	Location           string          `json:"location"`
	EvaluationDate     *time.Time      `json:"evaluation_date"`
	LegalDescription   string          `json:"legal_description"`
	OwnershipDocuments string          `json:"ownership_documents"`
	LastInspectionDate *time.Time      `json:"last_inspection_date"`
	RiskRating         string          `json:"risk_rating"`
	CreatedBy          string          `json:"created_by"`
}

// UpdateInput changes only the non-nil fields. Derived values cannot be set.
type UpdateInput struct {
	Description        *string          `json:"description"`
	EstimatedValue     *decimal.Decimal `json:"estimated_value"`
	MarketValue        *decimal.Decimal `json:"market_value"`
	Currency           *string          `json:"currency"`
	Status             *string          `json:"status"`
	Location           *string          `json:"location"`
	EvaluationDate     *time.Time       `json:"evaluation_date"`
	LegalDescription   *string          `json:"legal_description"`
	OwnershipDocuments *string          `json:"ownership_documents"`
	LastInspectionDate *time.Time       `json:"last_inspection_date"`
	RiskRating         *string          `json:"risk_rating"`
	UpdatedBy          string           `json:"updated_by"`
}

// CreationReport is the outcome of CreateWithValidation. The collateral
// exists whenever the report is returned; the title and valuation steps
// report their own outcome instead of failing the whole call.
type CreationReport struct {
	Collateral       *domain.Collateral `json:"collateral"`
	TitleChecked     bool               `json:"title_checked"`
	TitleVerified    bool               `json:"title_verified"`
	Title            *title.Record     `json:"title,omitempty"`
	TitleError       string            `json:"title_error,omitempty"`
	ValuationApplied bool              `json:"valuation_applied"`
	Valuation        *valuation.Record `json:"valuation,omitempty"`
	ValuationError   string            `json:"valuation_error,omitempty"`
}

const (
	TrendAvailable   = "AVAILABLE"
	TrendUnavailable = "UNAVAILABLE"
)

// MarketTrendReport carries a provider trend, or an UNAVAILABLE marker when
// the provider could not answer.
type MarketTrendReport struct {
	CollateralID   string          `json:"collateral_id"`
	Type           string          `json:"type"`
	Location       string          `json:"location"`
	Status         string          `json:"status"`
	Message        string          `json:"message,omitempty"`
	AverageValue   decimal.Decimal `json:"average_value"`
	PriceChange    float64         `json:"price_change"`
	TrendDirection string          `json:"trend_direction,omitempty"`
	AnalysisDate   *time.Time      `json:"analysis_date,omitempty"`
}

type ComparableProperty struct {
	ID         string          `json:"property_id"`
	Location   string          `json:"location"`
	Value      decimal.Decimal `json:"sale_price"`
	SaleDate   *time.Time      `json:"sale_date,omitempty"`
	Similarity float64         `json:"similarity_score"`
}

type ComparableReport struct {
	CollateralID string               `json:"collateral_id"`
	Type         string               `json:"type"`
	Location     string               `json:"location"`
	Comparables  []ComparableProperty `json:"comparables"`
}
