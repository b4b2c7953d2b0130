package encumbrancemock

import (
	"context"

	domain "collateral-service/internal/domain/encumbrance"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return domain.ErrNotFound; unset writes succeed.
type Repo struct {
	CreateFn               func(ctx context.Context, e *domain.Encumbrance) error
	GetByEncumbranceIDFn   func(ctx context.Context, encumbranceID string) (*domain.Encumbrance, error)
	SaveFn                 func(ctx context.Context, e *domain.Encumbrance) error
	DeleteFn               func(ctx context.Context, encumbranceID string) error
	DeleteByCollateralIDFn func(ctx context.Context, collateralID string) (int64, error)
	ListByCollateralIDFn   func(ctx context.Context, collateralID string) ([]domain.Encumbrance, error)
	FindFn                 func(ctx context.Context, f domain.Filter) ([]domain.Encumbrance, error)
}

func (m *Repo) Create(ctx context.Context, e *domain.Encumbrance) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	return nil
}

func (m *Repo) GetByEncumbranceID(ctx context.Context, encumbranceID string) (*domain.Encumbrance, error) {
	if m.GetByEncumbranceIDFn != nil {
		return m.GetByEncumbranceIDFn(ctx, encumbranceID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, e *domain.Encumbrance) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, e)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, encumbranceID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, encumbranceID)
	}
	return nil
}

func (m *Repo) DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error) {
	if m.DeleteByCollateralIDFn != nil {
		return m.DeleteByCollateralIDFn(ctx, collateralID)
	}
	return 0, nil
}

func (m *Repo) ListByCollateralID(ctx context.Context, collateralID string) ([]domain.Encumbrance, error) {
	if m.ListByCollateralIDFn != nil {
		return m.ListByCollateralIDFn(ctx, collateralID)
	}
	return nil, nil
}

func (m *Repo) Find(ctx context.Context, f domain.Filter) ([]domain.Encumbrance, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, f)
	}
	return nil, nil
}
