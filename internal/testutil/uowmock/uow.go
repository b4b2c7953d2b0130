package uowmock

import (
	"context"
	"errors"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn           func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinCollateralTxFn func(ctx context.Context, collateralID string, fn func(r uow.Repos, c *collateral.Collateral) error) error
}

// Passthrough runs every callback directly against repos, without a
// transaction. The collateral is loaded from repos.Collaterals.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error {
			return fn(repos)
		},
		WithinCollateralTxFn: func(ctx context.Context, collateralID string, fn func(uow.Repos, *collateral.Collateral) error) error {
			c, err := repos.Collaterals.GetByCollateralIDForUpdate(ctx, collateralID)
			if err != nil {
				return err
			}
			return fn(repos, c)
		},
	}
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinCollateralTx(ctx context.Context, collateralID string, fn func(r uow.Repos, c *collateral.Collateral) error) error {
	if m.WithinCollateralTxFn != nil {
		return m.WithinCollateralTxFn(ctx, collateralID, fn)
	}
	return errUnimplemented
}
