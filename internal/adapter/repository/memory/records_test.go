package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/uow"
	"collateral-service/internal/domain/valuation"
)

func TestValuationRecords_FindOrdersNewestFirst(t *testing.T) {
	s := NewStore()
	repo := NewValuationRecordRepository(s)
	ctx := context.Background()

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, v := range []*valuation.Record{
		{ValuationID: "VAL-1", CollateralID: "COL-1", Type: "VEHICLE", Status: valuation.RecordCompleted, ValuationDate: &jan},
		{ValuationID: "VAL-2", CollateralID: "COL-1", Type: "VEHICLE", Status: valuation.RecordFailed, RequestDate: mar},
		{ValuationID: "VAL-3", CollateralID: "COL-2", Type: "VEHICLE", Location: "Austin", Status: valuation.RecordCompleted, ValuationDate: &jan},
	} {
		if err := repo.Create(ctx, v); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(ctx, &valuation.Record{ValuationID: "VAL-1"}); !errors.Is(err, errs.ErrStateConflict) {
		t.Fatalf("duplicate: want conflict, got %v", err)
	}

	got, _ := repo.Find(ctx, valuation.RecordFilter{CollateralID: "COL-1"})
	if len(got) != 2 || got[0].ValuationID != "VAL-2" || got[1].ValuationID != "VAL-1" {
		t.Fatalf("order: %+v", got)
	}
	if austin, _ := repo.Find(ctx, valuation.RecordFilter{Location: "AUSTIN", Type: "vehicle"}); len(austin) != 1 {
		t.Fatalf("filter: %d", len(austin))
	}

	got[0].Message = "mutated"
	if v, _ := repo.GetByValuationID(ctx, "VAL-2"); v.Message != "" {
		t.Fatalf("Find must return copies")
	}
}

func TestTitleRecords_UnverifiedSortLast(t *testing.T) {
	s := NewStore()
	repo := NewTitleRecordRepository(s)
	ctx := context.Background()

	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range []*title.Record{
		{TitleID: "TTL-1", CollateralID: "COL-1", Status: title.StatusPendingVerification},
		{TitleID: "TTL-2", CollateralID: "COL-1", Status: title.StatusVerified, Valid: true, CurrentOwner: "Jane", VerificationDate: &at},
	} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	got, _ := repo.Find(ctx, title.RecordFilter{CollateralID: "COL-1"})
	if len(got) != 2 || got[0].TitleID != "TTL-2" {
		t.Fatalf("order: %+v", got)
	}
	if usable, _ := repo.Find(ctx, title.RecordFilter{UsableOnly: true, Owner: "Jane"}); len(usable) != 1 {
		t.Fatalf("usable: %d", len(usable))
	}
}

func TestUoW_RollbackRestoresRecords(t *testing.T) {
	s := NewStore()
	u := NewUoW(s)
	ctx := context.Background()
	if err := NewCollateralRepository(s).Create(ctx, newCollateral("COL-1", "20000")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	vals := NewValuationRecordRepository(s)
	titles := NewTitleRecordRepository(s)
	if err := titles.Create(ctx, &title.Record{TitleID: "TTL-OLD", CollateralID: "COL-1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	err := u.WithinCollateralTx(ctx, "COL-1", func(r uow.Repos, _ *collateral.Collateral) error {
		if err := r.Valuations.Create(ctx, &valuation.Record{ValuationID: "VAL-NEW", CollateralID: "COL-1"}); err != nil {
			return err
		}
		if _, err := r.Titles.DeleteByCollateralID(ctx, "COL-1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, err := vals.GetByValuationID(ctx, "VAL-NEW"); !errors.Is(err, valuation.ErrRecordNotFound) {
		t.Fatalf("created record survived rollback: %v", err)
	}
	if _, err := titles.GetByTitleID(ctx, "TTL-OLD"); err != nil {
		t.Fatalf("deleted record not restored: %v", err)
	}
}
