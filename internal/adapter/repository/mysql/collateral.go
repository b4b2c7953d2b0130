package mysql

import (
	"context"

	collateralDomain "collateral-service/internal/domain/collateral"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CollateralRepository struct{ db *gorm.DB }

func NewCollateralRepository(db *gorm.DB) *CollateralRepository {
	return &CollateralRepository{db: db}
}

func (r *CollateralRepository) Create(ctx context.Context, c *collateralDomain.Collateral) error {
	return translate("create collateral", r.db.WithContext(ctx).Create(c).Error, collateralDomain.ErrNotFound)
}

func (r *CollateralRepository) Save(ctx context.Context, c *collateralDomain.Collateral) error {
	return translate("save collateral", r.db.WithContext(ctx).Save(c).Error, collateralDomain.ErrNotFound)
}

func (r *CollateralRepository) GetByCollateralID(ctx context.Context, collateralID string) (*collateralDomain.Collateral, error) {
	var out collateralDomain.Collateral
	res := r.db.WithContext(ctx).Where("collateral_id = ?", collateralID).First(&out)
	if err := translate("get collateral", res.Error, collateralDomain.ErrNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByCollateralIDForUpdate issues SELECT ... FOR UPDATE; the row stays
// locked until the surrounding transaction ends. SQLite ignores the clause.
func (r *CollateralRepository) GetByCollateralIDForUpdate(ctx context.Context, collateralID string) (*collateralDomain.Collateral, error) {
	var out collateralDomain.Collateral
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("collateral_id = ?", collateralID).
		First(&out)
	if err := translate("lock collateral", res.Error, collateralDomain.ErrNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CollateralRepository) Delete(ctx context.Context, collateralID string) error {
	res := r.db.WithContext(ctx).
		Where("collateral_id = ?", collateralID).
		Delete(&collateralDomain.Collateral{})
	if err := translate("delete collateral", res.Error, collateralDomain.ErrNotFound); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return collateralDomain.ErrNotFound
	}
	return nil
}

func (r *CollateralRepository) Find(ctx context.Context, f collateralDomain.Filter) ([]collateralDomain.Collateral, error) {
	q := r.db.WithContext(ctx).Model(&collateralDomain.Collateral{})
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.AccountID != "" {
		q = q.Where("account_id = ?", f.AccountID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.MinAvailable != nil {
		q = q.Where("available_value >= ?", *f.MinAvailable)
	}
	if f.EncumberedOnly {
		q = q.Where("encumbered_value > 0")
	}
	var out []collateralDomain.Collateral
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, translate("find collateral", err, collateralDomain.ErrNotFound)
	}
	return out, nil
}
