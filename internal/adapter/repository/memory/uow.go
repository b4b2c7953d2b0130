package memory

import (
	"context"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/uow"
)

// UoW gives all-or-nothing semantics by undoing the writes of a failed fn.
// It does not isolate concurrent units of work; callers serialize per
// collateral with a keyed lock.
type UoW struct{ s *Store }

func NewUoW(s *Store) *UoW { return &UoW{s: s} }

func (u *UoW) repos(log *undoLog) uow.Repos {
	return uow.Repos{
		Collaterals:  &CollateralRepository{s: u.s, log: log},
		Encumbrances: &EncumbranceRepository{s: u.s, log: log},
		Valuations:   &ValuationRecordRepository{s: u.s, log: log},
		Titles:       &TitleRecordRepository{s: u.s, log: log},
	}
}

func (u *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) (err error) {
	log := &undoLog{}
	defer func() {
		if p := recover(); p != nil {
			log.rollback()
			panic(p)
		}
		if err != nil {
			log.rollback()
		}
	}()
	return fn(u.repos(log))
}

func (u *UoW) WithinCollateralTx(ctx context.Context, collateralID string, fn func(r uow.Repos, c *collateral.Collateral) error) error {
	return u.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Collaterals.GetByCollateralIDForUpdate(ctx, collateralID)
		if err != nil {
			return err
		}
		return fn(r, c)
	})
}
