package records

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationInput records a manual valuation. Empty type, location and
// currency are taken from the collateral.
type ValuationInput struct {
	CollateralID   string          `json:"collateral_id"`
	Type           string          `json:"type"`
	Location       string          `json:"location"`
	Description    string          `json:"description"`
	Status         string          `json:"status"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	LowRange       decimal.Decimal `json:"low_range"`
	HighRange      decimal.Decimal `json:"high_range"`
	Currency       string          `json:"currency"`
	Methodology    string          `json:"methodology"`
	Confidence     float64         `json:"confidence_score"`
	Reason         string          `json:"reason"`
	ValuationDate  *time.Time      `json:"valuation_date"`
	Message        string          `json:"message"`
	CreatedBy      string          `json:"created_by"`
}

// ValuationUpdate changes only the non-nil fields.
type ValuationUpdate struct {
	Status         *string          `json:"status"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
	LowRange       *decimal.Decimal `json:"low_range"`
	HighRange      *decimal.Decimal `json:"high_range"`
	Methodology    *string          `json:"methodology"`
	Confidence     *float64         `json:"confidence_score"`
	ValuationDate  *time.Time       `json:"valuation_date"`
	Message        *string          `json:"message"`
	UpdatedBy      string           `json:"updated_by"`
}

// TitleInput records a title entered by an operator. An empty legal
// description is taken from the collateral.
type TitleInput struct {
	CollateralID     string     `json:"collateral_id"`
	TitleNumber      string     `json:"title_number"`
	LegalDescription string     `json:"legal_description"`
	Status           string     `json:"status"`
	CurrentOwner     string     `json:"current_owner"`
	PreviousOwner    string     `json:"previous_owner"`
	RegistrationDate *time.Time `json:"registration_date"`
	Valid            bool       `json:"is_valid"`
	VerificationDate *time.Time `json:"verification_date"`
	Notes            string     `json:"notes"`
	CreatedBy        string     `json:"created_by"`
}

// TitleUpdate changes only the non-nil fields.
type TitleUpdate struct {
	TitleNumber      *string    `json:"title_number"`
	LegalDescription *string    `json:"legal_description"`
	Status           *string    `json:"status"`
	CurrentOwner     *string    `json:"current_owner"`
	PreviousOwner    *string    `json:"previous_owner"`
	RegistrationDate *time.Time `json:"registration_date"`
	Valid            *bool      `json:"is_valid"`
	VerificationDate *time.Time `json:"verification_date"`
	Notes            *string    `json:"notes"`
	UpdatedBy        string     `json:"updated_by"`
}
