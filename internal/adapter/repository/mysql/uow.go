package mysql

import (
	"context"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Collaterals:  &CollateralRepository{db: tx},
		Encumbrances: &EncumbranceRepository{db: tx},
		Valuations:   &ValuationRecordRepository{db: tx},
		Titles:       &TitleRecordRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
	return errs.Unavailable("transaction", err)
}

func (u *GormUoW) WithinCollateralTx(ctx context.Context, collateralID string, fn func(r uow.Repos, c *collateral.Collateral) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		// lock the collateral row up-front so concurrent writers queue here
		c, err := r.Collaterals.GetByCollateralIDForUpdate(ctx, collateralID)
		if err != nil {
			return err
		}
		return fn(r, c)
	})
	return errs.Unavailable("transaction", err)
}
