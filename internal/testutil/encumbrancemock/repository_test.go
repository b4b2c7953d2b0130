package encumbrancemock

import (
	"context"
	"errors"
	"testing"

	domain "collateral-service/internal/domain/encumbrance"
)

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}

	if err := m.Create(ctx, &domain.Encumbrance{}); err != nil {
		t.Fatalf("Create default: %v", err)
	}
	if err := m.Save(ctx, &domain.Encumbrance{}); err != nil {
		t.Fatalf("Save default: %v", err)
	}
	if err := m.Delete(ctx, "ENC-1"); err != nil {
		t.Fatalf("Delete default: %v", err)
	}
	if n, err := m.DeleteByCollateralID(ctx, "COL-1"); n != 0 || err != nil {
		t.Fatalf("DeleteByCollateralID default: %d %v", n, err)
	}
	if _, err := m.GetByEncumbranceID(ctx, "ENC-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByEncumbranceID default: want ErrNotFound, got %v", err)
	}
	if got, err := m.ListByCollateralID(ctx, "COL-1"); got != nil || err != nil {
		t.Fatalf("ListByCollateralID default: %+v %v", got, err)
	}
	if got, err := m.Find(ctx, domain.Filter{}); got != nil || err != nil {
		t.Fatalf("Find default: %+v %v", got, err)
	}
}

func TestRepo_UsesProvidedFuncs(t *testing.T) {
	ctx := context.Background()
	want := &domain.Encumbrance{EncumbranceID: "ENC-2", CollateralID: "COL-1"}
	sentinel := errors.New("stop")

	m := &Repo{
		GetByEncumbranceIDFn: func(_ context.Context, id string) (*domain.Encumbrance, error) {
			if id != "ENC-2" {
				t.Fatalf("id mismatch: %s", id)
			}
			return want, nil
		},
		SaveFn: func(_ context.Context, e *domain.Encumbrance) error {
			if e != want {
				t.Fatalf("Save arg mismatch")
			}
			return sentinel
		},
		DeleteByCollateralIDFn: func(context.Context, string) (int64, error) { return 3, nil },
		ListByCollateralIDFn: func(_ context.Context, id string) ([]domain.Encumbrance, error) {
			return []domain.Encumbrance{*want}, nil
		},
		FindFn: func(_ context.Context, f domain.Filter) ([]domain.Encumbrance, error) {
			if f.LoanID != "LN-1" {
				t.Fatalf("filter mismatch: %+v", f)
			}
			return nil, sentinel
		},
	}

	if got, err := m.GetByEncumbranceID(ctx, "ENC-2"); err != nil || got != want {
		t.Fatalf("GetByEncumbranceID: %+v %v", got, err)
	}
	if err := m.Save(ctx, want); !errors.Is(err, sentinel) {
		t.Fatalf("Save: want %v, got %v", sentinel, err)
	}
	if n, err := m.DeleteByCollateralID(ctx, "COL-1"); n != 3 || err != nil {
		t.Fatalf("DeleteByCollateralID: %d %v", n, err)
	}
	if got, _ := m.ListByCollateralID(ctx, "COL-1"); len(got) != 1 {
		t.Fatalf("ListByCollateralID: %+v", got)
	}
	if _, err := m.Find(ctx, domain.Filter{LoanID: "LN-1"}); !errors.Is(err, sentinel) {
		t.Fatalf("Find: want %v, got %v", sentinel, err)
	}
}
