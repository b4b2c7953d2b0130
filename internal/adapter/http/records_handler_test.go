package http

import (
	"context"
	stdhttp "net/http"
	"testing"
	"time"

	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/valuation"
	"collateral-service/internal/usecase/collateral"

	"github.com/shopspring/decimal"
)

type stubRegistry struct{}

func (stubRegistry) Verify(_ context.Context, id, _ string) (*title.Verification, error) {
	return &title.Verification{CollateralID: id, Status: title.StatusVerified, Valid: true, TitleNumber: "TX-9", RegisteredOwner: "Jane Doe"}, nil
}

func (stubRegistry) Ownership(_ context.Context, id, n string) (*title.Ownership, error) {
	return &title.Ownership{CollateralID: id, TitleNumber: n, CurrentOwner: "Jane Doe", Status: "VERIFIED"}, nil
}

func (stubRegistry) SearchEncumbrances(_ context.Context, id, n string) (*title.EncumbranceSearch, error) {
	return &title.EncumbranceSearch{CollateralID: id, TitleNumber: n, Status: "COMPLETED",
		Encumbrances: []title.ExistingEncumbrance{{EncumbranceID: "EXT-1", Type: "LIEN", Amount: "5000", Status: "ACTIVE"}}}, nil
}

type stubValuer struct{}

func (stubValuer) Appraise(_ context.Context, req valuation.AppraisalRequest) (*valuation.Appraisal, error) {
	return &valuation.Appraisal{CollateralID: req.CollateralID, EstimatedValue: decimal.NewFromInt(18000), Currency: "USD", Methodology: "AVM"}, nil
}

func (stubValuer) MarketTrends(context.Context, string, string) (*valuation.MarketTrend, error) {
	return &valuation.MarketTrend{}, nil
}

func (stubValuer) Comparables(_ context.Context, q valuation.ComparableQuery) ([]valuation.Comparable, error) {
	return []valuation.Comparable{{ID: "P-1", Location: q.Location, Value: decimal.NewFromInt(17500), SaleDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}}, nil
}

func (stubValuer) Revalue(_ context.Context, id, reason string) (*valuation.Revaluation, error) {
	return &valuation.Revaluation{CollateralID: id, NewValue: decimal.NewFromInt(21000), Reason: reason, ChangePercentage: 5}, nil
}

func TestValuationHistory_Routes(t *testing.T) {
	e := newServer(t, collateral.WithValuationProvider(stubValuer{}))
	col := createCollateral(t, e, "20000")

	rec := do(t, e, stdhttp.MethodPost, "/api/v1/collaterals/"+col.CollateralID+"/valuation", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("valuation status = %d; body=%s", rec.Code, rec.Body.String())
	}
	applied := decode[valuationResp](t, rec)
	if applied.ValuationID == "" {
		t.Fatalf("valuation id missing: %+v", applied)
	}

	rec = do(t, e, stdhttp.MethodPost, "/api/v1/auto-valuations", map[string]any{
		"collateral_id": col.CollateralID, "estimated_value": "19000", "status": "UNDER_REVIEW", "created_by": "ops",
	})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("create status = %d; body=%s", rec.Code, rec.Body.String())
	}
	manual := decode[valuation.Record](t, rec)
	if manual.Source != valuation.SourceManual {
		t.Fatalf("unexpected record: %+v", manual)
	}

	rec = do(t, e, stdhttp.MethodGet, "/api/v1/auto-valuations/collateral/"+col.CollateralID, nil)
	if got := decode[[]valuation.Record](t, rec); rec.Code != stdhttp.StatusOK || len(got) != 2 {
		t.Fatalf("history: status = %d, %d records", rec.Code, len(got))
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/auto-valuations/"+applied.ValuationID, nil)
	if got := decode[valuation.Record](t, rec); got.Source != valuation.SourceAutoValuation || !got.PreviousValue.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("auto valuation record: %+v", got)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/auto-valuations/status/under_review", nil)
	if got := decode[[]valuation.Record](t, rec); len(got) != 1 || got[0].ValuationID != manual.ValuationID {
		t.Fatalf("by status: %+v", got)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/auto-valuations/type/VEHICLE", nil)
	if got := decode[[]valuation.Record](t, rec); len(got) != 2 {
		t.Fatalf("by type: %d", len(got))
	}

	rec = do(t, e, stdhttp.MethodPut, "/api/v1/auto-valuations/"+manual.ValuationID, map[string]any{"status": "VALUATION_COMPLETED"})
	if got := decode[valuation.Record](t, rec); rec.Code != stdhttp.StatusOK || got.Status != valuation.RecordCompleted {
		t.Fatalf("update: status = %d, %+v", rec.Code, got)
	}
	if rec := do(t, e, stdhttp.MethodDelete, "/api/v1/auto-valuations/"+manual.ValuationID, nil); rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, e, stdhttp.MethodGet, "/api/v1/auto-valuations/"+manual.ValuationID, nil); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("deleted record: status = %d", rec.Code)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/auto-valuations/collateral/"+col.CollateralID+"/latest", nil)
	if got := decode[valuation.Record](t, rec); got.ValuationID != applied.ValuationID {
		t.Fatalf("latest: %+v", got)
	}
	if rec := do(t, e, stdhttp.MethodGet, "/api/v1/auto-valuations/statuses", nil); rec.Code != stdhttp.StatusOK {
		t.Fatalf("statuses: %d", rec.Code)
	}
}

func TestValuationHistory_Validation(t *testing.T) {
	e := newServer(t)
	if rec := do(t, e, stdhttp.MethodPost, "/api/v1/auto-valuations", map[string]any{"collateral_id": "nope"}); rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("bad collateral id: status = %d", rec.Code)
	}
	rec := do(t, e, stdhttp.MethodPost, "/api/v1/auto-valuations", map[string]any{"collateral_id": "COL-0000ABCD"})
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("unknown collateral: status = %d; body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(t, e, stdhttp.MethodGet, "/api/v1/auto-valuations/status/DONE", nil); rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("bad status: %d", rec.Code)
	}
}

func TestTitleRegistry_Routes(t *testing.T) {
	e := newServer(t, collateral.WithTitleRegistry(stubRegistry{}))
	col := createCollateral(t, e, "20000")

	rec := do(t, e, stdhttp.MethodPost, "/api/v1/collaterals/"+col.CollateralID+"/title/verify", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("verify status = %d; body=%s", rec.Code, rec.Body.String())
	}
	verified := decode[title.Record](t, rec)
	if !verified.Usable() || verified.TitleID == "" {
		t.Fatalf("verification record: %+v", verified)
	}

	rec = do(t, e, stdhttp.MethodPost, "/api/v1/title-registry", map[string]any{
		"collateral_id": col.CollateralID, "title_number": "TX-10", "current_owner": "Bob",
	})
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("create status = %d; body=%s", rec.Code, rec.Body.String())
	}
	manual := decode[title.Record](t, rec)

	rec = do(t, e, stdhttp.MethodGet, "/api/v1/title-registry/title-number/TX-9", nil)
	if got := decode[title.Record](t, rec); got.TitleID != verified.TitleID {
		t.Fatalf("by number: %+v", got)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/title-registry/owner/Jane%20Doe/verified", nil)
	if got := decode[[]title.Record](t, rec); len(got) != 1 {
		t.Fatalf("verified by owner: %+v", got)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/title-registry/valid", nil)
	if got := decode[[]title.Record](t, rec); len(got) != 1 {
		t.Fatalf("valid: %+v", got)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/title-registry/status/PENDING_VERIFICATION", nil)
	if got := decode[[]title.Record](t, rec); len(got) != 1 || got[0].TitleID != manual.TitleID {
		t.Fatalf("by status: %+v", got)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/title-registry/collateral/"+col.CollateralID, nil)
	if got := decode[[]title.Record](t, rec); len(got) != 2 {
		t.Fatalf("by collateral: %d", len(got))
	}
	rec = do(t, e, stdhttp.MethodPut, "/api/v1/title-registry/"+manual.TitleID, map[string]any{"notes": "deed copy on file"})
	if got := decode[title.Record](t, rec); rec.Code != stdhttp.StatusOK || got.Notes != "deed copy on file" {
		t.Fatalf("update: status = %d, %+v", rec.Code, got)
	}
	if rec := do(t, e, stdhttp.MethodDelete, "/api/v1/title-registry/"+manual.TitleID, nil); rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, e, stdhttp.MethodGet, "/api/v1/title-registry/"+manual.TitleID, nil); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("deleted record: status = %d", rec.Code)
	}

	rec = do(t, e, stdhttp.MethodGet, "/api/v1/collaterals/"+col.CollateralID+"/ownership", nil)
	if got := decode[title.Ownership](t, rec); rec.Code != stdhttp.StatusOK || got.TitleNumber != "TX-9" {
		t.Fatalf("ownership: status = %d, %+v", rec.Code, got)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/collaterals/"+col.CollateralID+"/title/encumbrances?title_number=TX-1", nil)
	if got := decode[title.EncumbranceSearch](t, rec); got.TitleNumber != "TX-1" || len(got.Encumbrances) != 1 {
		t.Fatalf("encumbrance search: %+v", got)
	}
}

func TestComparables_Route(t *testing.T) {
	e := newServer(t, collateral.WithValuationProvider(stubValuer{}))
	col := createCollateral(t, e, "20000")
	rec := do(t, e, stdhttp.MethodGet, "/api/v1/collaterals/"+col.CollateralID+"/comparables", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[collateral.ComparableReport](t, rec); len(got.Comparables) != 1 || got.Comparables[0].ID != "P-1" {
		t.Fatalf("report: %+v", got)
	}

	bare := newServer(t)
	col = createCollateral(t, bare, "20000")
	if rec := do(t, bare, stdhttp.MethodGet, "/api/v1/collaterals/"+col.CollateralID+"/ownership?title_number=TX-1", nil); rec.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("no registry: status = %d", rec.Code)
	}
}
