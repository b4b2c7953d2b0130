package collateral

import (
	"fmt"
	"strings"
	"time"

	"collateral-service/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = fmt.Errorf("collateral %w", errs.ErrNotFound)
)

type Status string

const (
	StatusActive              Status = "ACTIVE"
	StatusPendingEvaluation   Status = "PENDING_EVALUATION"
	StatusUnderReview         Status = "UNDER_REVIEW"
	StatusApproved            Status = "APPROVED"
	StatusRejected            Status = "REJECTED"
	StatusEncumbered          Status = "ENCUMBERED"
	StatusPartiallyEncumbered Status = "PARTIALLY_ENCUMBERED"
	StatusReleased            Status = "RELEASED"
	StatusLiquidated          Status = "LIQUIDATED"
	StatusSuspended           Status = "SUSPENDED"
	StatusExpired             Status = "EXPIRED"
	StatusInactive            Status = "INACTIVE"
)

// Statuses lists every collateral status in display order.
var Statuses = []Status{
	StatusActive, StatusPendingEvaluation, StatusUnderReview, StatusApproved,
	StatusRejected, StatusEncumbered, StatusPartiallyEncumbered, StatusReleased,
	StatusLiquidated, StatusSuspended, StatusExpired, StatusInactive,
}

// Derived reports whether the status is owned by reconciliation (computed from
// the encumbered/market split) rather than set by an operator.
func (s Status) Derived() bool {
	switch s {
	case StatusActive, StatusPartiallyEncumbered, StatusEncumbered:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// ParseStatus accepts any case; unknown values are a validation error.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", errs.Validation("unknown collateral status %q", raw)
	}
	return s, nil
}

type Type string

const (
	TypeVehicle Type = "VEHICLE"
)

var Types = []Type{TypeVehicle}

func ParseType(raw string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(raw)))
	for _, v := range Types {
		if v == t {
			return t, nil
		}
	}
	return "", errs.Validation("unsupported collateral type %q", raw)
}

type Collateral struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	CollateralID       string          `gorm:"column:collateral_id;size:32;uniqueIndex:ux_collateral_collateral_id" json:"collateral_id"`
	CustomerID         string          `gorm:"column:customer_id;size:64;index:idx_collateral_customer" json:"customer_id"`
	AccountID          string          `gorm:"column:account_id;size:64;index:idx_collateral_account" json:"account_id"`
	Type               Type            `gorm:"column:type;size:32" json:"type"`
	Description        string          `gorm:"column:description;type:text" json:"description"`
	EstimatedValue     decimal.Decimal `gorm:"column:estimated_value;type:decimal(18,2)" json:"estimated_value"`
	MarketValue        decimal.Decimal `gorm:"column:market_value;type:decimal(18,2)" json:"market_value"`
	AvailableValue     decimal.Decimal `gorm:"column:available_value;type:decimal(18,2)" json:"available_value"`
	EncumberedValue    decimal.Decimal `gorm:"column:encumbered_value;type:decimal(18,2)" json:"encumbered_value"`
	Currency           string          `gorm:"column:currency;size:3" json:"currency"`
	Status             Status          `gorm:"column:status;size:32;index:idx_collateral_status" json:"status"`
	Location           string          `gorm:"column:location;size:128" json:"location"`
	EvaluationDate     *time.Time      `gorm:"column:evaluation_date" json:"evaluation_date,omitempty"`
	LegalDescription   string          `gorm:"column:legal_description;type:text" json:"legal_description"`
	OwnershipDocuments string          `gorm:"column:ownership_documents;type:text" json:"ownership_documents"`
	LastInspectionDate *time.Time      `gorm:"column:last_inspection_date" json:"last_inspection_date,omitempty"`
	RiskRating         string          `gorm:"column:risk_rating;size:32" json:"risk_rating"`
	CreatedBy          string          `gorm:"column:created_by;size:64" json:"created_by"`
	UpdatedBy          string          `gorm:"column:updated_by;size:64" json:"updated_by"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Collateral) TableName() string { return "collateral" }

// Clone returns a deep copy; stores hand out clones so callers never alias
// stored state.
func (c *Collateral) Clone() *Collateral {
	if c == nil {
		return nil
	}
	out := *c
	if c.EvaluationDate != nil {
		t := *c.EvaluationDate
		out.EvaluationDate = &t
	}
	if c.LastInspectionDate != nil {
		t := *c.LastInspectionDate
		out.LastInspectionDate = &t
	}
	return &out
}

// ApplyEncumbered sets the derived fields from the total contributing
// encumbrance amount. Available value is clamped at zero; the return value
// reports whether the clamp was needed. Operator-set statuses are kept.
func (c *Collateral) ApplyEncumbered(total decimal.Decimal) (overEncumbered bool) {
	c.EncumberedValue = total
	available := c.MarketValue.Sub(total)
	if available.IsNegative() {
		available = decimal.Zero
		overEncumbered = true
	}
	c.AvailableValue = available

	if c.Status.Derived() {
		switch {
		case !total.IsPositive():
			c.Status = StatusActive
		case total.LessThan(c.MarketValue):
			c.Status = StatusPartiallyEncumbered
		default:
			c.Status = StatusEncumbered
		}
	}
	return overEncumbered
}
