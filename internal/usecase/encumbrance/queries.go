package encumbrance

import (
	"context"
	"time"

	domain "collateral-service/internal/domain/encumbrance"

	"github.com/shopspring/decimal"
)

func (u *Usecase) Get(ctx context.Context, encumbranceID string) (*domain.Encumbrance, error) {
	return u.repo.GetByEncumbranceID(ctx, encumbranceID)
}

func (u *Usecase) ListByCollateral(ctx context.Context, collateralID string) ([]domain.Encumbrance, error) {
	return u.repo.ListByCollateralID(ctx, collateralID)
}

// ActiveByCollateral returns the contributing encumbrances, senior first.
func (u *Usecase) ActiveByCollateral(ctx context.Context, collateralID string) ([]domain.Encumbrance, error) {
	list, err := u.repo.Find(ctx, domain.Filter{
		CollateralID: collateralID,
		Statuses:     []domain.Status{domain.StatusActive, domain.StatusPartiallyReleased},
	})
	if err != nil {
		return nil, err
	}
	domain.SortByPriority(list)
	return list, nil
}

func (u *Usecase) ListByLoan(ctx context.Context, loanID string) ([]domain.Encumbrance, error) {
	return u.repo.Find(ctx, domain.Filter{LoanID: loanID})
}

func (u *Usecase) ListByCustomer(ctx context.Context, customerID string) ([]domain.Encumbrance, error) {
	return u.repo.Find(ctx, domain.Filter{CustomerID: customerID})
}

func (u *Usecase) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Encumbrance, error) {
	return u.repo.Find(ctx, domain.Filter{Statuses: []domain.Status{status}})
}

// Expired lists ACTIVE encumbrances whose expiry date has passed but which
// the sweep has not yet moved to EXPIRED.
func (u *Usecase) Expired(ctx context.Context) ([]domain.Encumbrance, error) {
	return u.expiredAsOf(ctx, u.now().UTC())
}

func (u *Usecase) expiredAsOf(ctx context.Context, asOf time.Time) ([]domain.Encumbrance, error) {
	list, err := u.repo.Find(ctx, domain.Filter{
		Statuses:      []domain.Status{domain.StatusActive},
		ExpiresBefore: &asOf,
	})
	if err != nil {
		return nil, err
	}
	out := list[:0]
	for i := range list {
		if list[i].ExpiredAt(asOf) {
			out = append(out, list[i])
		}
	}
	return out, nil
}

// TotalEncumbered sums the contributing amounts for a collateral straight
// from the ledger.
func (u *Usecase) TotalEncumbered(ctx context.Context, collateralID string) (decimal.Decimal, error) {
	list, err := u.repo.ListByCollateralID(ctx, collateralID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.SumContributing(list), nil
}
