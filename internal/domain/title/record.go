package title

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collateral-service/internal/domain/errs"
)

var ErrRecordNotFound = fmt.Errorf("title record %w", errs.ErrNotFound)

var Statuses = []Status{
	StatusVerified, StatusInvalid, StatusPendingVerification, StatusVerificationFailed, StatusNotFound,
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, v := range Statuses {
		if v == s {
			return s, nil
		}
	}
	return "", errs.Validation("unknown title status %q", raw)
}

// Record is what the service knows about a collateral's title: one entry per
// registry verification, plus any entered by an operator.
type Record struct {
	ID               uint64     `gorm:"primaryKey;column:id" json:"-"`
	TitleID          string     `gorm:"column:title_id;size:32;uniqueIndex:ux_title_record_title_id" json:"title_id"`
	CollateralID     string     `gorm:"column:collateral_id;size:32;index:idx_title_record_collateral" json:"collateral_id"`
	TitleNumber      string     `gorm:"column:title_number;size:64;index:idx_title_record_number" json:"title_number"`
	LegalDescription string     `gorm:"column:legal_description;type:text" json:"legal_description"`
	Status           Status     `gorm:"column:status;size:32;index:idx_title_record_status" json:"status"`
	CurrentOwner     string     `gorm:"column:current_owner;size:128;index:idx_title_record_owner" json:"current_owner"`
	PreviousOwner    string     `gorm:"column:previous_owner;size:128" json:"previous_owner"`
	RegistrationDate *time.Time `gorm:"column:registration_date" json:"registration_date,omitempty"`
	Valid            bool       `gorm:"column:is_valid" json:"is_valid"`
	VerificationDate *time.Time `gorm:"column:verification_date" json:"verification_date,omitempty"`
	Message          string     `gorm:"column:message;type:text" json:"message,omitempty"`
	Notes            string     `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedBy        string     `gorm:"column:created_by;size:64" json:"created_by"`
	UpdatedBy        string     `gorm:"column:updated_by;size:64" json:"updated_by"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Record) TableName() string { return "title_record" }

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.RegistrationDate != nil {
		t := *r.RegistrationDate
		out.RegistrationDate = &t
	}
	if r.VerificationDate != nil {
		t := *r.VerificationDate
		out.VerificationDate = &t
	}
	return &out
}

// Usable is a VERIFIED record the registry flagged valid.
func (r *Record) Usable() bool {
	return r.Status == StatusVerified && r.Valid
}

// Newer orders records by verification date, newest first. Unverified
// records sort last; ties fall back to the surrogate id.
func Newer(a, b *Record) bool {
	switch {
	case a.VerificationDate != nil && b.VerificationDate == nil:
		return true
	case a.VerificationDate == nil && b.VerificationDate != nil:
		return false
	case a.VerificationDate != nil && !a.VerificationDate.Equal(*b.VerificationDate):
		return a.VerificationDate.After(*b.VerificationDate)
	}
	return a.ID > b.ID
}

// RecordFilter selects records by predicate. Zero fields are ignored.
type RecordFilter struct {
	CollateralID string
	TitleNumber  string
	Owner        string
	Status       Status
	// UsableOnly keeps VERIFIED records flagged valid.
	UsableOnly bool
}

func (f RecordFilter) Match(r *Record) bool {
	if f.CollateralID != "" && r.CollateralID != f.CollateralID {
		return false
	}
	if f.TitleNumber != "" && r.TitleNumber != f.TitleNumber {
		return false
	}
	if f.Owner != "" && r.CurrentOwner != f.Owner {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.UsableOnly && !r.Usable() {
		return false
	}
	return true
}

type RecordRepository interface {
	Create(ctx context.Context, r *Record) error
	// GetByTitleID returns ErrRecordNotFound when the id does not resolve.
	GetByTitleID(ctx context.Context, titleID string) (*Record, error)
	Save(ctx context.Context, r *Record) error
	Delete(ctx context.Context, titleID string) error
	DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error)
	// Find returns matches newest first.
	Find(ctx context.Context, f RecordFilter) ([]Record, error)
}
