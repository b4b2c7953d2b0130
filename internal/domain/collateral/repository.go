package collateral

import (
	"context"

	"github.com/shopspring/decimal"
)

// Filter selects collateral by predicate. Zero fields are ignored.
type Filter struct {
	CustomerID     string
	AccountID      string
	Status         Status
	MinAvailable   *decimal.Decimal
	EncumberedOnly bool
}

func (f Filter) Match(c *Collateral) bool {
	if f.CustomerID != "" && c.CustomerID != f.CustomerID {
		return false
	}
	if f.AccountID != "" && c.AccountID != f.AccountID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.MinAvailable != nil && c.AvailableValue.LessThan(*f.MinAvailable) {
		return false
	}
	if f.EncumberedOnly && !c.EncumberedValue.IsPositive() {
		return false
	}
	return true
}

type Repository interface {
	Create(ctx context.Context, c *Collateral) error
	// GetByCollateralID returns ErrNotFound when the id does not resolve.
	GetByCollateralID(ctx context.Context, collateralID string) (*Collateral, error)
	// GetByCollateralIDForUpdate is GetByCollateralID holding a row lock when
	// the store supports one.
	GetByCollateralIDForUpdate(ctx context.Context, collateralID string) (*Collateral, error)
	Save(ctx context.Context, c *Collateral) error
	Delete(ctx context.Context, collateralID string) error
	Find(ctx context.Context, f Filter) ([]Collateral, error)
}
