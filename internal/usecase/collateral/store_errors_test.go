package collateral

import (
	"context"
	"errors"
	"testing"

	domain "collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/uow"
	"collateral-service/internal/testutil/collateralmock"
	"collateral-service/internal/testutil/encumbrancemock"
	"collateral-service/internal/testutil/uowmock"
	"collateral-service/internal/usecase/reconcile"
)

func lockedCollateral(_ context.Context, id string) (*domain.Collateral, error) {
	return &domain.Collateral{CollateralID: id, MarketValue: d("20000"), AvailableValue: d("20000"), Status: domain.StatusActive}, nil
}

func TestUpdate_SaveFails(t *testing.T) {
	cols := &collateralmock.Repo{
		GetByCollateralIDForUpdateFn: lockedCollateral,
		SaveFn: func(context.Context, *domain.Collateral) error {
			return errs.Unavailable("save collateral", errors.New("read-only replica"))
		},
	}
	rec := reconcile.New(uowmock.Passthrough(uow.Repos{Collaterals: cols, Encumbrances: &encumbrancemock.Repo{}}))
	uc := NewUsecase(rec, cols)

	desc := "new description"
	if _, err := uc.Update(context.Background(), "COL-1", UpdateInput{Description: &desc}); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
}

func TestDelete_LedgerDeleteFails(t *testing.T) {
	deleted := false
	cols := &collateralmock.Repo{
		GetByCollateralIDForUpdateFn: lockedCollateral,
		DeleteFn: func(context.Context, string) error {
			deleted = true
			return nil
		},
	}
	encs := &encumbrancemock.Repo{
		DeleteByCollateralIDFn: func(context.Context, string) (int64, error) {
			return 0, errs.Unavailable("delete encumbrances", errors.New("deadlock"))
		},
	}
	rec := reconcile.New(uowmock.Passthrough(uow.Repos{Collaterals: cols, Encumbrances: encs}))
	uc := NewUsecase(rec, cols)

	if err := uc.Delete(context.Background(), "COL-1"); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	if deleted {
		t.Fatalf("collateral deleted although its ledger was not")
	}
}

func TestUpdateValue_MissingCollateral(t *testing.T) {
	cols := &collateralmock.Repo{
		GetByCollateralIDForUpdateFn: func(context.Context, string) (*domain.Collateral, error) {
			return nil, domain.ErrNotFound
		},
	}
	rec := reconcile.New(uowmock.Passthrough(uow.Repos{Collaterals: cols, Encumbrances: &encumbrancemock.Repo{}}))
	uc := NewUsecase(rec, cols)

	if _, err := uc.UpdateValue(context.Background(), "COL-404", d("1"), "ops"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
