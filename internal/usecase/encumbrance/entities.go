package encumbrance

import (
	"time"

	"collateral-service/internal/domain/collateral"
	domain "collateral-service/internal/domain/encumbrance"

	"github.com/shopspring/decimal"
)

type CreateInput struct {
	CollateralID string          `json:"collateral_id"`
	LoanID       string          `json:"loan_id"`
	CustomerID   string          `json:"customer_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Type         string          `json:"type"`
	// Status is empty (ACTIVE) or PENDING.
	Status         string     `json:"status"`
	Priority       int        `json:"priority"`
	EffectiveDate  *time.Time `json:"effective_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	Description    string     `json:"description"`
	LegalReference string     `json:"legal_reference"`
	Notes          string     `json:"notes"`
	CreatedBy      string     `json:"created_by"`
}

// UpdateInput changes only the non-nil fields.
type UpdateInput struct {
	Amount         *decimal.Decimal `json:"amount"`
	Currency       *string          `json:"currency"`
	Type           *string          `json:"type"`
	Status         *string          `json:"status"`
	Priority       *int             `json:"priority"`
	EffectiveDate  *time.Time       `json:"effective_date"`
	ExpiryDate     *time.Time       `json:"expiry_date"`
	Description    *string          `json:"description"`
	LegalReference *string          `json:"legal_reference"`
	Notes          *string          `json:"notes"`
	UpdatedBy      string           `json:"updated_by"`
}

// Result is a ledger mutation together with the collateral as reconciled in
// the same critical section.
type Result struct {
	Encumbrance *domain.Encumbrance    `json:"encumbrance,omitempty"`
	Collateral  *collateral.Collateral `json:"collateral"`
	// Unchanged is set when the call was an idempotent no-op.
	Unchanged bool `json:"unchanged,omitempty"`
}

type SweepFailure struct {
	CollateralID string `json:"collateral_id"`
	Error        string `json:"error"`
}

type SweepResult struct {
	AsOf        time.Time      `json:"as_of"`
	Expired     int            `json:"expired"`
	Collaterals int            `json:"collaterals"`
	Failures    []SweepFailure `json:"failures,omitempty"`
}
