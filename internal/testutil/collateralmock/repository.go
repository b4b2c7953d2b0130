package collateralmock

import (
	"context"

	domain "collateral-service/internal/domain/collateral"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups return domain.ErrNotFound; unset writes succeed.
type Repo struct {
	CreateFn                     func(ctx context.Context, c *domain.Collateral) error
	GetByCollateralIDFn          func(ctx context.Context, collateralID string) (*domain.Collateral, error)
	GetByCollateralIDForUpdateFn func(ctx context.Context, collateralID string) (*domain.Collateral, error)
	SaveFn                       func(ctx context.Context, c *domain.Collateral) error
	DeleteFn                     func(ctx context.Context, collateralID string) error
	FindFn                       func(ctx context.Context, f domain.Filter) ([]domain.Collateral, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.Collateral) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByCollateralID(ctx context.Context, collateralID string) (*domain.Collateral, error) {
	if m.GetByCollateralIDFn != nil {
		return m.GetByCollateralIDFn(ctx, collateralID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByCollateralIDForUpdate(ctx context.Context, collateralID string) (*domain.Collateral, error) {
	if m.GetByCollateralIDForUpdateFn != nil {
		return m.GetByCollateralIDForUpdateFn(ctx, collateralID)
	}
	return m.GetByCollateralID(ctx, collateralID)
}

func (m *Repo) Save(ctx context.Context, c *domain.Collateral) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c)
	}
	return nil
}

func (m *Repo) Delete(ctx context.Context, collateralID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, collateralID)
	}
	return nil
}

func (m *Repo) Find(ctx context.Context, f domain.Filter) ([]domain.Collateral, error) {
	if m.FindFn != nil {
		return m.FindFn(ctx, f)
	}
	return nil, nil
}
