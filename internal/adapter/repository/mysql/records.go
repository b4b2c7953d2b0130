package mysql

import (
	"context"

	titleDomain "collateral-service/internal/domain/title"
	valuationDomain "collateral-service/internal/domain/valuation"

	"gorm.io/gorm"
)

type ValuationRecordRepository struct{ db *gorm.DB }

func NewValuationRecordRepository(db *gorm.DB) *ValuationRecordRepository {
	return &ValuationRecordRepository{db: db}
}

func (r *ValuationRecordRepository) Create(ctx context.Context, v *valuationDomain.Record) error {
	return translate("create valuation record", r.db.WithContext(ctx).Create(v).Error, valuationDomain.ErrRecordNotFound)
}

func (r *ValuationRecordRepository) Save(ctx context.Context, v *valuationDomain.Record) error {
	return translate("save valuation record", r.db.WithContext(ctx).Save(v).Error, valuationDomain.ErrRecordNotFound)
}

func (r *ValuationRecordRepository) GetByValuationID(ctx context.Context, valuationID string) (*valuationDomain.Record, error) {
	var out valuationDomain.Record
	res := r.db.WithContext(ctx).Where("valuation_id = ?", valuationID).First(&out)
	if err := translate("get valuation record", res.Error, valuationDomain.ErrRecordNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ValuationRecordRepository) Delete(ctx context.Context, valuationID string) error {
	res := r.db.WithContext(ctx).
		Where("valuation_id = ?", valuationID).
		Delete(&valuationDomain.Record{})
	if err := translate("delete valuation record", res.Error, valuationDomain.ErrRecordNotFound); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return valuationDomain.ErrRecordNotFound
	}
	return nil
}

func (r *ValuationRecordRepository) DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("collateral_id = ?", collateralID).
		Delete(&valuationDomain.Record{})
	if err := translate("delete valuation records", res.Error, valuationDomain.ErrRecordNotFound); err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Find orders newest first: valuation date, falling back to request date.
func (r *ValuationRecordRepository) Find(ctx context.Context, f valuationDomain.RecordFilter) ([]valuationDomain.Record, error) {
	q := r.db.WithContext(ctx).Model(&valuationDomain.Record{})
	if f.CollateralID != "" {
		q = q.Where("collateral_id = ?", f.CollateralID)
	}
	if f.Type != "" {
		q = q.Where("UPPER(type) = UPPER(?)", f.Type)
	}
	if f.Location != "" {
		q = q.Where("UPPER(location) = UPPER(?)", f.Location)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []valuationDomain.Record
	err := q.Order("COALESCE(valuation_date, request_date) DESC").Order("id DESC").Find(&out).Error
	if err != nil {
		return nil, translate("find valuation records", err, valuationDomain.ErrRecordNotFound)
	}
	return out, nil
}

type TitleRecordRepository struct{ db *gorm.DB }

func NewTitleRecordRepository(db *gorm.DB) *TitleRecordRepository {
	return &TitleRecordRepository{db: db}
}

func (r *TitleRecordRepository) Create(ctx context.Context, t *titleDomain.Record) error {
	return translate("create title record", r.db.WithContext(ctx).Create(t).Error, titleDomain.ErrRecordNotFound)
}

func (r *TitleRecordRepository) Save(ctx context.Context, t *titleDomain.Record) error {
	return translate("save title record", r.db.WithContext(ctx).Save(t).Error, titleDomain.ErrRecordNotFound)
}

func (r *TitleRecordRepository) GetByTitleID(ctx context.Context, titleID string) (*titleDomain.Record, error) {
	var out titleDomain.Record
	res := r.db.WithContext(ctx).Where("title_id = ?", titleID).First(&out)
	if err := translate("get title record", res.Error, titleDomain.ErrRecordNotFound); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TitleRecordRepository) Delete(ctx context.Context, titleID string) error {
	res := r.db.WithContext(ctx).
		Where("title_id = ?", titleID).
		Delete(&titleDomain.Record{})
	if err := translate("delete title record", res.Error, titleDomain.ErrRecordNotFound); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return titleDomain.ErrRecordNotFound
	}
	return nil
}

func (r *TitleRecordRepository) DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("collateral_id = ?", collateralID).
		Delete(&titleDomain.Record{})
	if err := translate("delete title records", res.Error, titleDomain.ErrRecordNotFound); err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Find orders newest verification first; records never verified come last.
func (r *TitleRecordRepository) Find(ctx context.Context, f titleDomain.RecordFilter) ([]titleDomain.Record, error) {
	q := r.db.WithContext(ctx).Model(&titleDomain.Record{})
	if f.CollateralID != "" {
		q = q.Where("collateral_id = ?", f.CollateralID)
	}
	if f.TitleNumber != "" {
		q = q.Where("title_number = ?", f.TitleNumber)
	}
	if f.Owner != "" {
		q = q.Where("current_owner = ?", f.Owner)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UsableOnly {
		q = q.Where("status = ? AND is_valid = ?", titleDomain.StatusVerified, true)
	}
	var out []titleDomain.Record
	err := q.Order("verification_date IS NULL").Order("verification_date DESC").Order("id DESC").Find(&out).Error
	if err != nil {
		return nil, translate("find title records", err, titleDomain.ErrRecordNotFound)
	}
	return out, nil
}
