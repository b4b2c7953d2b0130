// Package title describes the external title registry used to verify that a
// pledged asset is legally owned by the borrower.
package title

import (
	"context"
	"time"
)

type Status string

const (
	StatusVerified            Status = "VERIFIED"
	StatusInvalid             Status = "INVALID"
	StatusPendingVerification Status = "PENDING_VERIFICATION"
	StatusVerificationFailed  Status = "VERIFICATION_FAILED"
	StatusNotFound            Status = "NOT_FOUND"
)

type Verification struct {
	CollateralID    string `json:"collateral_id"`
	Status          Status `json:"status"`
	TitleNumber     string `json:"title_number,omitempty"`
	RegisteredOwner string `json:"registered_owner,omitempty"`
	Valid           bool   `json:"valid"`
	Message         string `json:"message,omitempty"`
}

// Verified is true only for a VERIFIED answer flagged valid by the registry.
func (v *Verification) Verified() bool {
	return v != nil && v.Status == StatusVerified && v.Valid
}

// Ownership is the registry's view of who holds a title.
type Ownership struct {
	CollateralID     string     `json:"collateral_id"`
	TitleNumber      string     `json:"title_number"`
	CurrentOwner     string     `json:"current_owner"`
	PreviousOwner    string     `json:"previous_owner,omitempty"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	Status           string     `json:"status"`
	Message          string     `json:"message,omitempty"`
}

// ExistingEncumbrance is a claim registered against a title, possibly held
// by another lender and unknown to this ledger.
type ExistingEncumbrance struct {
	EncumbranceID    string     `json:"encumbrance_id"`
	Type             string     `json:"type"`
	Amount           string     `json:"amount"`
	Priority         string     `json:"priority,omitempty"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	Status           string     `json:"status"`
}

type EncumbranceSearch struct {
	CollateralID string                `json:"collateral_id"`
	TitleNumber  string                `json:"title_number"`
	Status       string                `json:"status"`
	Message      string                `json:"message,omitempty"`
	Encumbrances []ExistingEncumbrance `json:"encumbrances"`
}

// Registry is the external title registry. Every failure, including a
// timeout, surfaces as an error wrapping errs.ErrUnavailable.
type Registry interface {
	Verify(ctx context.Context, collateralID, legalDescription string) (*Verification, error)
	Ownership(ctx context.Context, collateralID, titleNumber string) (*Ownership, error)
	SearchEncumbrances(ctx context.Context, collateralID, titleNumber string) (*EncumbranceSearch, error)
}
