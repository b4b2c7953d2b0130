package uow

import (
	"context"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/valuation"
)

// Repos are bound to the running transaction.
type Repos struct {
	Collaterals  collateral.Repository
	Encumbrances encumbrance.Repository
	Valuations   valuation.RecordRepository
	Titles       title.RecordRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the collateral first, then pass it in. Returns collateral.ErrNotFound
	// without calling fn when the id does not resolve.
	WithinCollateralTx(ctx context.Context, collateralID string, fn func(r Repos, c *collateral.Collateral) error) error
}
