package valuation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collateral-service/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var ErrRecordNotFound = fmt.Errorf("valuation record %w", errs.ErrNotFound)

type RecordStatus string

const (
	RecordCompleted        RecordStatus = "VALUATION_COMPLETED"
	RecordPending          RecordStatus = "VALUATION_PENDING"
	RecordFailed           RecordStatus = "VALUATION_FAILED"
	RecordInsufficientData RecordStatus = "INSUFFICIENT_DATA"
	RecordUnderReview      RecordStatus = "UNDER_REVIEW"
)

var RecordStatuses = []RecordStatus{
	RecordCompleted, RecordPending, RecordFailed, RecordInsufficientData, RecordUnderReview,
}

func ParseRecordStatus(raw string) (RecordStatus, error) {
	s := RecordStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, v := range RecordStatuses {
		if v == s {
			return s, nil
		}
	}
	return "", errs.Validation("unknown valuation status %q", raw)
}

// Source tells how a record came to be.
type Source string

const (
	SourceAutoValuation Source = "AUTO_VALUATION"
	SourceRevaluation   Source = "REVALUATION"
	SourceManual        Source = "MANUAL"
)

// Record is one entry of a collateral's valuation history. Provider answers
// are recorded whether or not they changed the market value.
type Record struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	ValuationID    string          `gorm:"column:valuation_id;size:32;uniqueIndex:ux_valuation_record_valuation_id" json:"valuation_id"`
	CollateralID   string          `gorm:"column:collateral_id;size:32;index:idx_valuation_record_collateral" json:"collateral_id"`
	Source         Source          `gorm:"column:source;size:32" json:"source"`
	Type           string          `gorm:"column:type;size:32;index:idx_valuation_record_type" json:"type"`
	Location       string          `gorm:"column:location;size:128;index:idx_valuation_record_location" json:"location"`
	Description    string          `gorm:"column:description;type:text" json:"description"`
	Status         RecordStatus    `gorm:"column:status;size:32;index:idx_valuation_record_status" json:"status"`
	EstimatedValue decimal.Decimal `gorm:"column:estimated_value;type:decimal(18,2)" json:"estimated_value"`
	PreviousValue  decimal.Decimal `gorm:"column:previous_value;type:decimal(18,2)" json:"previous_value"`
	LowRange       decimal.Decimal `gorm:"column:low_range;type:decimal(18,2)" json:"low_range"`
	HighRange      decimal.Decimal `gorm:"column:high_range;type:decimal(18,2)" json:"high_range"`
	Currency       string          `gorm:"column:currency;size:3" json:"currency"`
	Methodology    string          `gorm:"column:methodology;size:64" json:"methodology"`
	Confidence     float64         `gorm:"column:confidence_score" json:"confidence_score"`
	// ChangePercentage is set on revaluations.
	ChangePercentage float64 `gorm:"column:change_percentage" json:"change_percentage,omitempty"`
	Reason         string          `gorm:"column:reason;size:255" json:"reason,omitempty"`
	ValuationDate  *time.Time      `gorm:"column:valuation_date" json:"valuation_date,omitempty"`
	RequestDate    time.Time       `gorm:"column:request_date" json:"request_date"`
	Message        string          `gorm:"column:message;type:text" json:"message,omitempty"`
	CreatedBy      string          `gorm:"column:created_by;size:64" json:"created_by"`
	UpdatedBy      string          `gorm:"column:updated_by;size:64" json:"updated_by"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Record) TableName() string { return "valuation_record" }

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.ValuationDate != nil {
		t := *r.ValuationDate
		out.ValuationDate = &t
	}
	return &out
}

// effective is the date used for "latest" ordering.
func (r *Record) effective() time.Time {
	if r.ValuationDate != nil {
		return *r.ValuationDate
	}
	return r.RequestDate
}

// Newer reports whether a sorts before b in newest-first order. Ties fall
// back to the surrogate id so the order is total.
func Newer(a, b *Record) bool {
	ea, eb := a.effective(), b.effective()
	if !ea.Equal(eb) {
		return ea.After(eb)
	}
	return a.ID > b.ID
}

// RecordFilter selects records by predicate. Zero fields are ignored.
type RecordFilter struct {
	CollateralID string
	Type         string
	Location     string
	Status       RecordStatus
}

func (f RecordFilter) Match(r *Record) bool {
	if f.CollateralID != "" && r.CollateralID != f.CollateralID {
		return false
	}
	if f.Type != "" && !strings.EqualFold(r.Type, f.Type) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(r.Location, f.Location) {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

type RecordRepository interface {
	Create(ctx context.Context, r *Record) error
	// GetByValuationID returns ErrRecordNotFound when the id does not resolve.
	GetByValuationID(ctx context.Context, valuationID string) (*Record, error)
	Save(ctx context.Context, r *Record) error
	Delete(ctx context.Context, valuationID string) error
	DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error)
	// Find returns matches newest first.
	Find(ctx context.Context, f RecordFilter) ([]Record, error)
}
