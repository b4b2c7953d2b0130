package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"collateral-service/internal/adapter/repository/memory"
	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/valuation"
	"collateral-service/internal/usecase/reconcile"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	uc   *Usecase
	cols *memory.CollateralRepository
	rec  *reconcile.Reconciler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := memory.NewStore()
	rec := reconcile.New(memory.NewUoW(s))
	return &harness{
		uc: NewUsecase(rec, memory.NewValuationRecordRepository(s), memory.NewTitleRecordRepository(s),
			WithClock(func() time.Time { return fixedNow })),
		cols: memory.NewCollateralRepository(s),
		rec:  rec,
	}
}

func (h *harness) collateral(t *testing.T, id, location string) {
	t.Helper()
	err := h.cols.Create(context.Background(), &collateral.Collateral{
		CollateralID: id, CustomerID: "CUST-1", Type: collateral.TypeVehicle,
		MarketValue: d("100000"), EstimatedValue: d("100000"), AvailableValue: d("100000"),
		Currency: "USD", Status: collateral.StatusActive, Location: location, LegalDescription: "LOT 7",
	})
	if err != nil {
		t.Fatalf("seed collateral: %v", err)
	}
}

func TestCreateValuation_Defaults(t *testing.T) {
	h := newHarness(t)
	h.collateral(t, "COL-1", "Austin")
	ctx := context.Background()

	v, err := h.uc.CreateValuation(ctx, ValuationInput{CollateralID: "COL-1", EstimatedValue: d("95000"), CreatedBy: "ops"})
	if err != nil {
		t.Fatalf("CreateValuation: %v", err)
	}
	if v.Source != valuation.SourceManual || v.Status != valuation.RecordCompleted {
		t.Fatalf("unexpected record: %+v", v)
	}
	if v.Type != string(collateral.TypeVehicle) || v.Location != "Austin" || v.Currency != "USD" {
		t.Fatalf("collateral defaults not applied: %+v", v)
	}
	if !v.PreviousValue.Equal(d("100000")) || v.ValuationDate == nil || !v.ValuationDate.Equal(fixedNow) {
		t.Fatalf("unexpected record: %+v", v)
	}

	c, err := h.cols.GetByCollateralID(ctx, "COL-1")
	if err != nil || !c.MarketValue.Equal(d("100000")) {
		t.Fatalf("a manual record must not move the market value: %v %+v", err, c)
	}
}

func TestCreateValuation_Rejects(t *testing.T) {
	h := newHarness(t)
	h.collateral(t, "COL-1", "Austin")
	ctx := context.Background()

	cases := map[string]ValuationInput{
		"no collateral":      {EstimatedValue: d("1")},
		"unknown collateral": {CollateralID: "COL-404", EstimatedValue: d("1")},
		"bad status":         {CollateralID: "COL-1", Status: "DONE"},
		"negative value":     {CollateralID: "COL-1", EstimatedValue: d("-1")},
		"inverted range":     {CollateralID: "COL-1", LowRange: d("10"), HighRange: d("5")},
		"confidence":         {CollateralID: "COL-1", Confidence: 1.5},
	}
	for name, in := range cases {
		if _, err := h.uc.CreateValuation(ctx, in); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("%s: want validation error, got %v", name, err)
		}
	}
}

func TestValuationQueries(t *testing.T) {
	h := newHarness(t)
	h.collateral(t, "COL-1", "Austin")
	h.collateral(t, "COL-2", "Denver")
	ctx := context.Background()

	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	first, err := h.uc.CreateValuation(ctx, ValuationInput{CollateralID: "COL-1", EstimatedValue: d("90000"), ValuationDate: &older})
	if err != nil {
		t.Fatalf("CreateValuation: %v", err)
	}
	second, err := h.uc.CreateValuation(ctx, ValuationInput{CollateralID: "COL-1", EstimatedValue: d("98000"), ValuationDate: &newer})
	if err != nil {
		t.Fatalf("CreateValuation: %v", err)
	}
	if _, err := h.uc.CreateValuation(ctx, ValuationInput{CollateralID: "COL-2", Status: "VALUATION_PENDING"}); err != nil {
		t.Fatalf("CreateValuation: %v", err)
	}

	latest, err := h.uc.LatestValuation(ctx, "COL-1")
	if err != nil || latest.ValuationID != second.ValuationID {
		t.Fatalf("LatestValuation: %v %+v", err, latest)
	}
	byCol, _ := h.uc.ValuationsByCollateral(ctx, "COL-1")
	if len(byCol) != 2 || byCol[1].ValuationID != first.ValuationID {
		t.Fatalf("ValuationsByCollateral: %+v", byCol)
	}
	byLoc, _ := h.uc.ValuationsByLocation(ctx, "denver")
	if len(byLoc) != 1 || byLoc[0].CollateralID != "COL-2" {
		t.Fatalf("ValuationsByLocation: %+v", byLoc)
	}
	byType, _ := h.uc.ValuationsByType(ctx, "vehicle")
	if len(byType) != 3 {
		t.Fatalf("ValuationsByType: %d", len(byType))
	}
	pending, err := h.uc.ValuationsByStatus(ctx, "valuation_pending")
	if err != nil || len(pending) != 1 {
		t.Fatalf("ValuationsByStatus: %v %d", err, len(pending))
	}
	if _, err := h.uc.ValuationsByStatus(ctx, "nope"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("bad status: want validation error, got %v", err)
	}
	if _, err := h.uc.LatestValuation(ctx, "COL-404"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("no history: want not found, got %v", err)
	}
}

func TestUpdateAndDeleteValuation(t *testing.T) {
	h := newHarness(t)
	h.collateral(t, "COL-1", "Austin")
	ctx := context.Background()
	v, err := h.uc.CreateValuation(ctx, ValuationInput{CollateralID: "COL-1", Status: "UNDER_REVIEW", CreatedBy: "ops"})
	if err != nil {
		t.Fatalf("CreateValuation: %v", err)
	}

	status, value, msg := "VALUATION_COMPLETED", d("97000"), "appraiser sign-off"
	got, err := h.uc.UpdateValuation(ctx, v.ValuationID, ValuationUpdate{Status: &status, EstimatedValue: &value, Message: &msg})
	if err != nil {
		t.Fatalf("UpdateValuation: %v", err)
	}
	if got.Status != valuation.RecordCompleted || !got.EstimatedValue.Equal(value) || got.UpdatedBy != "ops" {
		t.Fatalf("unexpected record: %+v", got)
	}
	bad := d("-5")
	if _, err := h.uc.UpdateValuation(ctx, v.ValuationID, ValuationUpdate{EstimatedValue: &bad}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	stored, _ := h.uc.GetValuation(ctx, v.ValuationID)
	if !stored.EstimatedValue.Equal(value) {
		t.Fatalf("rejected update leaked: %s", stored.EstimatedValue)
	}

	if err := h.uc.DeleteValuation(ctx, v.ValuationID); err != nil {
		t.Fatalf("DeleteValuation: %v", err)
	}
	if _, err := h.uc.GetValuation(ctx, v.ValuationID); !errors.Is(err, valuation.ErrRecordNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	if err := h.uc.DeleteValuation(ctx, v.ValuationID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second delete: want not found, got %v", err)
	}
}

func TestTitleLifecycle(t *testing.T) {
	h := newHarness(t)
	h.collateral(t, "COL-1", "Austin")
	ctx := context.Background()

	pending, err := h.uc.CreateTitle(ctx, TitleInput{CollateralID: "COL-1", TitleNumber: "TX-1", CurrentOwner: "Jane Doe"})
	if err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	if pending.Status != title.StatusPendingVerification || pending.LegalDescription != "LOT 7" || pending.VerificationDate != nil {
		t.Fatalf("unexpected record: %+v", pending)
	}

	verified, valid, owner := "VERIFIED", true, "John Roe"
	got, err := h.uc.UpdateTitle(ctx, pending.TitleID, TitleUpdate{Status: &verified, Valid: &valid, CurrentOwner: &owner})
	if err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	if !got.Usable() || got.PreviousOwner != "Jane Doe" || got.CurrentOwner != owner {
		t.Fatalf("unexpected record: %+v", got)
	}

	byNumber, err := h.uc.TitleByNumber(ctx, "TX-1")
	if err != nil || byNumber.TitleID != pending.TitleID {
		t.Fatalf("TitleByNumber: %v %+v", err, byNumber)
	}
	if _, err := h.uc.TitleByNumber(ctx, "TX-404"); !errors.Is(err, title.ErrRecordNotFound) {
		t.Fatalf("unknown number: want not found, got %v", err)
	}
	if _, err := h.uc.UpdateTitle(ctx, pending.TitleID, TitleUpdate{Status: strPtr("LOST")}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("bad status: want validation error, got %v", err)
	}

	if err := h.uc.DeleteTitle(ctx, pending.TitleID); err != nil {
		t.Fatalf("DeleteTitle: %v", err)
	}
	if _, err := h.uc.GetTitle(ctx, pending.TitleID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestTitleQueries(t *testing.T) {
	h := newHarness(t)
	h.collateral(t, "COL-1", "Austin")
	h.collateral(t, "COL-2", "Austin")
	ctx := context.Background()

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mustTitle := func(in TitleInput) *title.Record {
		t.Helper()
		r, err := h.uc.CreateTitle(ctx, in)
		if err != nil {
			t.Fatalf("CreateTitle: %v", err)
		}
		return r
	}
	mustTitle(TitleInput{CollateralID: "COL-1", TitleNumber: "TX-1", CurrentOwner: "Jane", Status: "VERIFIED", Valid: true, VerificationDate: &jan})
	latest := mustTitle(TitleInput{CollateralID: "COL-1", TitleNumber: "TX-1", CurrentOwner: "Jane", Status: "INVALID", VerificationDate: &mar})
	mustTitle(TitleInput{CollateralID: "COL-2", TitleNumber: "TX-2", CurrentOwner: "Jane", Status: "VERIFIED"})
	mustTitle(TitleInput{CollateralID: "COL-2", TitleNumber: "TX-3", CurrentOwner: "Bob"})

	got, err := h.uc.LatestTitle(ctx, "COL-1")
	if err != nil || got.TitleID != latest.TitleID {
		t.Fatalf("LatestTitle: %v %+v", err, got)
	}
	if all, _ := h.uc.TitlesByCollateral(ctx, "COL-2"); len(all) != 2 {
		t.Fatalf("TitlesByCollateral: %d", len(all))
	}
	if mine, _ := h.uc.TitlesByOwner(ctx, "Jane"); len(mine) != 3 {
		t.Fatalf("TitlesByOwner: %d", len(mine))
	}
	// the COL-2 record is VERIFIED but not flagged valid
	if ok, _ := h.uc.VerifiedTitlesByOwner(ctx, "Jane"); len(ok) != 1 || ok[0].TitleNumber != "TX-1" {
		t.Fatalf("VerifiedTitlesByOwner: %+v", ok)
	}
	if valid, _ := h.uc.ValidTitles(ctx); len(valid) != 1 {
		t.Fatalf("ValidTitles: %d", len(valid))
	}
	if pend, err := h.uc.TitlesByStatus(ctx, "pending_verification"); err != nil || len(pend) != 1 {
		t.Fatalf("TitlesByStatus: %v %d", err, len(pend))
	}
	if _, err := h.uc.TitlesByOwner(ctx, " "); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("blank owner: want validation error, got %v", err)
	}
	if _, err := h.uc.CreateTitle(ctx, TitleInput{CollateralID: "COL-404"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("unknown collateral: want validation error, got %v", err)
	}
}

func TestRemovingCollateralDropsHistory(t *testing.T) {
	h := newHarness(t)
	h.collateral(t, "COL-1", "Austin")
	ctx := context.Background()
	if _, err := h.uc.CreateValuation(ctx, ValuationInput{CollateralID: "COL-1"}); err != nil {
		t.Fatalf("CreateValuation: %v", err)
	}
	if _, err := h.uc.CreateTitle(ctx, TitleInput{CollateralID: "COL-1"}); err != nil {
		t.Fatalf("CreateTitle: %v", err)
	}
	if _, err := h.rec.Remove(ctx, "COL-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	vals, _ := h.uc.ValuationsByCollateral(ctx, "COL-1")
	titles, _ := h.uc.TitlesByCollateral(ctx, "COL-1")
	if len(vals) != 0 || len(titles) != 0 {
		t.Fatalf("history survived removal: %d valuations, %d titles", len(vals), len(titles))
	}
}

func strPtr(s string) *string { return &s }
