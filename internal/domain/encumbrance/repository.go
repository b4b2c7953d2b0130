package encumbrance

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Filter selects encumbrances by predicate. Zero fields are ignored.
type Filter struct {
	CollateralID string
	LoanID       string
	CustomerID   string
	Statuses     []Status
	// ExpiresBefore keeps records whose expiry date is strictly earlier.
	ExpiresBefore *time.Time
}

func (f Filter) Match(e *Encumbrance) bool {
	if f.CollateralID != "" && e.CollateralID != f.CollateralID {
		return false
	}
	if f.LoanID != "" && e.LoanID != f.LoanID {
		return false
	}
	if f.CustomerID != "" && e.CustomerID != f.CustomerID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if e.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.ExpiresBefore != nil && (e.ExpiryDate == nil || !e.ExpiryDate.Before(*f.ExpiresBefore)) {
		return false
	}
	return true
}

type Repository interface {
	Create(ctx context.Context, e *Encumbrance) error
	// GetByEncumbranceID returns ErrNotFound when the id does not resolve.
	GetByEncumbranceID(ctx context.Context, encumbranceID string) (*Encumbrance, error)
	Save(ctx context.Context, e *Encumbrance) error
	Delete(ctx context.Context, encumbranceID string) error
	DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error)
	ListByCollateralID(ctx context.Context, collateralID string) ([]Encumbrance, error)
	Find(ctx context.Context, f Filter) ([]Encumbrance, error)
}

// SumContributing totals the contribution of every record in list.
func SumContributing(list []Encumbrance) decimal.Decimal {
	total := decimal.Zero
	for i := range list {
		total = total.Add(list[i].Contribution())
	}
	return total
}

// SortByPriority orders list by ascending priority (lower is senior). Ties
// fall back to effective date, then encumbrance id, so the order does not
// depend on insertion or storage order.
func SortByPriority(list []Encumbrance) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.Before(b.EffectiveDate)
		}
		return a.EncumbranceID < b.EncumbranceID
	})
}
