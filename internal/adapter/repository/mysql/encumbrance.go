package mysql

import (
	"context"

	encumbranceDomain "collateral-service/internal/domain/encumbrance"

	"gorm.io/gorm"
)

type EncumbranceRepository struct{ db *gorm.DB }

func NewEncumbranceRepository(db *gorm.DB) *EncumbranceRepository {
	return &EncumbranceRepository{db: db}
}

func (r *EncumbranceRepository) Create(ctx context.Context, e *encumbranceDomain.Encumbrance) error {
	return translate("create encumbrance", r.db.WithContext(ctx).Create(e).Error, encumbranceDomain.ErrNotFound)
}

func (r *EncumbranceRepository) Save(ctx context.Context, e *encumbranceDomain.Encumbrance) error {
	return translate("save encumbrance", r.db.WithContext(ctx).Save(e).Error, encumbranceDomain.ErrNotFound)
}

func (r *EncumbranceRepository) GetByEncumbranceID(ctx context.Context, encumbranceID string) (*encumbranceDomain.Encumbrance, error) {
	var out encumbranceDomain.Encumbrance
	res := r.db.WithContext(ctx).Where("encumbrance_id = ?", encumbranceID).First(&out)
	if err := translate("get encumbrance", res.Error, encumbranceDomain.ErrNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *EncumbranceRepository) Delete(ctx context.Context, encumbranceID string) error {
	res := r.db.WithContext(ctx).
		Where("encumbrance_id = ?", encumbranceID).
		Delete(&encumbranceDomain.Encumbrance{})
	if err := translate("delete encumbrance", res.Error, encumbranceDomain.ErrNotFound); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return encumbranceDomain.ErrNotFound
	}
	return nil
}

func (r *EncumbranceRepository) DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("collateral_id = ?", collateralID).
		Delete(&encumbranceDomain.Encumbrance{})
	if err := translate("delete encumbrances", res.Error, encumbranceDomain.ErrNotFound); err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func (r *EncumbranceRepository) ListByCollateralID(ctx context.Context, collateralID string) ([]encumbranceDomain.Encumbrance, error) {
	return r.Find(ctx, encumbranceDomain.Filter{CollateralID: collateralID})
}

func (r *EncumbranceRepository) Find(ctx context.Context, f encumbranceDomain.Filter) ([]encumbranceDomain.Encumbrance, error) {
	q := r.db.WithContext(ctx).Model(&encumbranceDomain.Encumbrance{})
	if f.CollateralID != "" {
		q = q.Where("collateral_id = ?", f.CollateralID)
	}
	if f.LoanID != "" {
		q = q.Where("loan_id = ?", f.LoanID)
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.ExpiresBefore != nil {
		q = q.Where("expiry_date IS NOT NULL AND expiry_date < ?", *f.ExpiresBefore)
	}
	var out []encumbranceDomain.Encumbrance
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, translate("find encumbrances", err, encumbranceDomain.ErrNotFound)
	}
	return out, nil
}
