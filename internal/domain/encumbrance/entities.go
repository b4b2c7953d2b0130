package encumbrance

import (
	"fmt"
	"strings"
	"time"

	"collateral-service/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = fmt.Errorf("encumbrance %w", errs.ErrNotFound)
	ErrTerminal = fmt.Errorf("%w: encumbrance is in a terminal state", errs.ErrStateConflict)
)

type Status string

const (
	StatusPending           Status = "PENDING"
	StatusActive            Status = "ACTIVE"
	StatusPartiallyReleased Status = "PARTIALLY_RELEASED"
	StatusReleased          Status = "RELEASED"
	StatusExpired           Status = "EXPIRED"
	StatusSuspended         Status = "SUSPENDED"
	StatusCancelled         Status = "CANCELLED"
	StatusDefaulted         Status = "DEFAULTED"
	StatusUnderReview       Status = "UNDER_REVIEW"
	StatusTransferred       Status = "TRANSFERRED"
	StatusModified          Status = "MODIFIED"
	StatusTerminated        Status = "TERMINATED"
)

var Statuses = []Status{
	StatusPending, StatusActive, StatusPartiallyReleased, StatusReleased,
	StatusExpired, StatusSuspended, StatusCancelled, StatusDefaulted,
	StatusUnderReview, StatusTransferred, StatusModified, StatusTerminated,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Contributing reports whether an encumbrance in this status counts toward
// its collateral's encumbered value.
func (s Status) Contributing() bool {
	return s == StatusActive || s == StatusPartiallyReleased
}

func (s Status) Terminal() bool {
	switch s {
	case StatusReleased, StatusExpired, StatusCancelled, StatusTerminated:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", errs.Validation("unknown encumbrance status %q", raw)
	}
	return s, nil
}

type Type string

const (
	TypeMortgage         Type = "MORTGAGE"
	TypeLien             Type = "LIEN"
	TypePledge           Type = "PLEDGE"
	TypeSecurityInterest Type = "SECURITY_INTEREST"
	TypeCharge           Type = "CHARGE"
	TypeHypothecation    Type = "HYPOTHECATION"
	TypeAssignment       Type = "ASSIGNMENT"
	TypeGuarantee        Type = "GUARANTEE"
	TypeFloatingCharge   Type = "FLOATING_CHARGE"
	TypeFixedCharge      Type = "FIXED_CHARGE"
	TypeDeedOfTrust      Type = "DEED_OF_TRUST"
	TypeOther            Type = "OTHER"
)

var Types = []Type{
	TypeMortgage, TypeLien, TypePledge, TypeSecurityInterest, TypeCharge,
	TypeHypothecation, TypeAssignment, TypeGuarantee, TypeFloatingCharge,
	TypeFixedCharge, TypeDeedOfTrust, TypeOther,
}

func ParseType(raw string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(raw)))
	for _, v := range Types {
		if v == t {
			return t, nil
		}
	}
	return "", errs.Validation("unknown encumbrance type %q", raw)
}

type Encumbrance struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	EncumbranceID  string          `gorm:"column:encumbrance_id;size:32;uniqueIndex:ux_encumbrance_encumbrance_id" json:"encumbrance_id"`
	CollateralID   string          `gorm:"column:collateral_id;size:32;index:idx_encumbrance_collateral" json:"collateral_id"`
	LoanID         string          `gorm:"column:loan_id;size:64;index:idx_encumbrance_loan" json:"loan_id"`
	CustomerID     string          `gorm:"column:customer_id;size:64;index:idx_encumbrance_customer" json:"customer_id"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(18,2)" json:"amount"`
	Currency       string          `gorm:"column:currency;size:3" json:"currency"`
	Type           Type            `gorm:"column:type;size:32" json:"type"`
	Status         Status          `gorm:"column:status;size:32;index:idx_encumbrance_status" json:"status"`
	Priority       int             `gorm:"column:priority" json:"priority"`
	EffectiveDate  time.Time       `gorm:"column:effective_date" json:"effective_date"`
	ExpiryDate     *time.Time      `gorm:"column:expiry_date;index:idx_encumbrance_expiry" json:"expiry_date,omitempty"`
	Description    string          `gorm:"column:description;type:text" json:"description"`
	LegalReference string          `gorm:"column:legal_reference;size:128" json:"legal_reference"`
	Notes          string          `gorm:"column:notes;type:text" json:"notes"`
	CreatedBy      string          `gorm:"column:created_by;size:64" json:"created_by"`
	UpdatedBy      string          `gorm:"column:updated_by;size:64" json:"updated_by"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Encumbrance) TableName() string { return "encumbrance" }

// Contribution is the amount this record adds to its collateral's encumbered
// value: the amount while contributing, zero otherwise.
func (e *Encumbrance) Contribution() decimal.Decimal {
	if e.Status.Contributing() {
		return e.Amount
	}
	return decimal.Zero
}

// ExpiredAt reports whether an ACTIVE record has an expiry strictly before asOf.
func (e *Encumbrance) ExpiredAt(asOf time.Time) bool {
	return e.Status == StatusActive && e.ExpiryDate != nil && e.ExpiryDate.Before(asOf)
}

func (e *Encumbrance) Clone() *Encumbrance {
	if e == nil {
		return nil
	}
	out := *e
	if e.ExpiryDate != nil {
		t := *e.ExpiryDate
		out.ExpiryDate = &t
	}
	return &out
}
