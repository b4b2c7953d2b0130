package valuation

import (
	"context"
	"fmt"
	"time"

	"collateral-service/internal/domain/errs"

	"github.com/shopspring/decimal"
)

// ErrNotCompleted is returned when a provider answered but did not produce a
// value (pending, insufficient data, under review).
var ErrNotCompleted = fmt.Errorf("%w: valuation not completed", errs.ErrUnavailable)

// IncompleteError carries the provider's status for an answer without a
// value. It matches ErrNotCompleted.
type IncompleteError struct {
	Status  RecordStatus
	Message string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrNotCompleted, e.Status, e.Message)
}

func (e *IncompleteError) Unwrap() error { return ErrNotCompleted }

type AppraisalRequest struct {
	CollateralID string
	Type         string
	Location     string
	Description  string
}

type Appraisal struct {
	CollateralID   string
	EstimatedValue decimal.Decimal
	LowRange       decimal.Decimal
	HighRange      decimal.Decimal
	Currency       string
	Methodology    string
	Confidence     float64
	ValuationDate  time.Time
}

type MarketTrend struct {
	Type           string
	Location       string
	AverageValue   decimal.Decimal
	PriceChange    float64
	TrendDirection string
	AnalysisDate   time.Time
}

type ComparableQuery struct {
	CollateralID   string
	Type           string
	Location       string
	EstimatedValue decimal.Decimal
}

type Comparable struct {
	ID         string
	Location   string
	Value      decimal.Decimal
	SaleDate   time.Time
	Similarity float64
}

type Revaluation struct {
	CollateralID     string
	PreviousValue    decimal.Decimal
	NewValue         decimal.Decimal
	Currency         string
	Reason           string
	ChangePercentage float64
	RevaluationDate  time.Time
}

// Provider is an external appraisal service. Every failure, including a
// timeout, surfaces as an error wrapping errs.ErrUnavailable.
type Provider interface {
	Appraise(ctx context.Context, req AppraisalRequest) (*Appraisal, error)
	MarketTrends(ctx context.Context, collateralType, location string) (*MarketTrend, error)
	Comparables(ctx context.Context, q ComparableQuery) ([]Comparable, error)
	Revalue(ctx context.Context, collateralID, reason string) (*Revaluation, error)
}
