package http

import (
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type encumbranceResp struct {
	EncumbranceID string          `json:"encumbrance_id"`
	CollateralID  string          `json:"collateral_id"`
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
}

type resultResp struct {
	Encumbrance *encumbranceResp `json:"encumbrance"`
	Collateral  collateralResp   `json:"collateral"`
	Unchanged   bool             `json:"unchanged"`
}

func encumber(t *testing.T, e *echo.Echo, collateralID, amount string, extra map[string]any) resultResp {
	t.Helper()
	body := map[string]any{"collateral_id": collateralID, "loan_id": "LN-1", "amount": amount, "type": "LIEN"}
	for k, v := range extra {
		body[k] = v
	}
	rec := do(t, e, stdhttp.MethodPost, "/api/v1/encumbrances", body)
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("encumber status = %d; body=%s", rec.Code, rec.Body.String())
	}
	return decode[resultResp](t, rec)
}

func TestCreateEncumbrance_ReconcilesCollateral(t *testing.T) {
	e := newServer(t)
	col := createCollateral(t, e, "20000")

	first := encumber(t, e, col.CollateralID, "8000", nil)
	if first.Encumbrance == nil || first.Encumbrance.CustomerID != "CUST-1" || first.Encumbrance.Currency != "USD" {
		t.Fatalf("defaults not inherited from collateral: %+v", first.Encumbrance)
	}
	second := encumber(t, e, col.CollateralID, "5000", nil)
	got := second.Collateral
	if !got.EncumberedValue.Equal(decimal.NewFromInt(13000)) || !got.AvailableValue.Equal(decimal.NewFromInt(7000)) {
		t.Fatalf("unexpected values: %+v", got)
	}
	if got.Status != "PARTIALLY_ENCUMBERED" {
		t.Fatalf("status = %s", got.Status)
	}

	rec := do(t, e, stdhttp.MethodGet, "/api/v1/collaterals/"+col.CollateralID+"/encumbrances/total", nil)
	if tot := decode[totalResp](t, rec); !tot.EncumberedTotal.Equal(decimal.NewFromInt(13000)) {
		t.Fatalf("total = %s", tot.EncumberedTotal)
	}
}

func TestCreateEncumbrance_Validation(t *testing.T) {
	e := newServer(t)
	rec := do(t, e, stdhttp.MethodPost, "/api/v1/encumbrances", map[string]any{
		"collateral_id": "not-an-id", "amount": "0", "type": "LIEN",
	})
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	er := decode[ErrorResponse](t, rec)
	if !containsFieldMsg(er.Details, "collateral_id", "COL- or ENC-") ||
		!containsFieldMsg(er.Details, "loan_id", "is required") ||
		!containsFieldMsg(er.Details, "amount", "greater than zero") {
		t.Fatalf("unexpected details: %+v", er.Details)
	}

	// well-formed id of a collateral that does not exist
	rec = do(t, e, stdhttp.MethodPost, "/api/v1/encumbrances", map[string]any{
		"collateral_id": "COL-00000000", "loan_id": "LN-1", "amount": "10", "type": "LIEN",
	})
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("unknown collateral status = %d, want 400", rec.Code)
	}
}

func TestReleaseAndPartialRelease(t *testing.T) {
	e := newServer(t)
	col := createCollateral(t, e, "20000")
	res := encumber(t, e, col.CollateralID, "8000", nil)
	id := res.Encumbrance.EncumbranceID

	rec := do(t, e, stdhttp.MethodPost, "/api/v1/encumbrances/"+id+"/partial-release", map[string]any{"amount": "3000"})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("partial status = %d; body=%s", rec.Code, rec.Body.String())
	}
	got := decode[resultResp](t, rec)
	if got.Encumbrance.Status != "PARTIALLY_RELEASED" || !got.Encumbrance.Amount.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected encumbrance: %+v", got.Encumbrance)
	}
	if !got.Collateral.AvailableValue.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("available = %s", got.Collateral.AvailableValue)
	}

	rec = do(t, e, stdhttp.MethodPost, "/api/v1/encumbrances/"+id+"/release", map[string]any{"released_by": "ops"})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("release status = %d", rec.Code)
	}
	got = decode[resultResp](t, rec)
	if got.Collateral.Status != "ACTIVE" || !got.Collateral.EncumberedValue.IsZero() {
		t.Fatalf("collateral not freed: %+v", got.Collateral)
	}

	rec = do(t, e, stdhttp.MethodPost, "/api/v1/encumbrances/"+id+"/partial-release", map[string]any{"amount": "1"})
	if rec.Code != stdhttp.StatusConflict {
		t.Fatalf("partial on released status = %d, want 409", rec.Code)
	}
}

func TestUpdateEncumbrance(t *testing.T) {
	e := newServer(t)
	col := createCollateral(t, e, "20000")
	id := encumber(t, e, col.CollateralID, "8000", nil).Encumbrance.EncumbranceID

	if rec := do(t, e, stdhttp.MethodPut, "/api/v1/encumbrances/"+id, map[string]any{"amount": "9000"}); rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("increase status = %d, want 400", rec.Code)
	}

	rec := do(t, e, stdhttp.MethodPut, "/api/v1/encumbrances/"+id, map[string]any{"status": "SUSPENDED"})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("suspend status = %d; body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[resultResp](t, rec); !got.Collateral.EncumberedValue.IsZero() || got.Collateral.Status != "ACTIVE" {
		t.Fatalf("suspended record still contributes: %+v", got.Collateral)
	}

	rec = do(t, e, stdhttp.MethodGet, "/api/v1/collaterals/"+col.CollateralID+"/encumbrances?active=true", nil)
	if got := decode[[]encumbranceResp](t, rec); len(got) != 0 {
		t.Fatalf("active list = %+v", got)
	}
	rec = do(t, e, stdhttp.MethodGet, "/api/v1/collaterals/"+col.CollateralID+"/encumbrances", nil)
	if got := decode[[]encumbranceResp](t, rec); len(got) != 1 {
		t.Fatalf("full list = %+v", got)
	}
}

func TestDeleteEncumbrance(t *testing.T) {
	e := newServer(t)
	col := createCollateral(t, e, "20000")
	id := encumber(t, e, col.CollateralID, "8000", nil).Encumbrance.EncumbranceID

	rec := do(t, e, stdhttp.MethodDelete, "/api/v1/encumbrances/"+id, nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if got := decode[resultResp](t, rec); got.Encumbrance != nil || !got.Collateral.AvailableValue.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected result: %+v", got)
	}
	if rec := do(t, e, stdhttp.MethodGet, "/api/v1/encumbrances/"+id, nil); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestListEncumbrances(t *testing.T) {
	e := newServer(t)
	col := createCollateral(t, e, "20000")
	encumber(t, e, col.CollateralID, "1000", nil)
	encumber(t, e, col.CollateralID, "2000", map[string]any{"loan_id": "LN-2", "status": "PENDING"})

	for query, want := range map[string]int{
		"?loan_id=LN-1":      1,
		"?customer_id=CUST-1": 2,
		"?status=pending":    1,
	} {
		rec := do(t, e, stdhttp.MethodGet, "/api/v1/encumbrances"+query, nil)
		if got := decode[[]encumbranceResp](t, rec); rec.Code != stdhttp.StatusOK || len(got) != want {
			t.Fatalf("%s: status %d, got %d records, want %d", query, rec.Code, len(got), want)
		}
	}
	if rec := do(t, e, stdhttp.MethodGet, "/api/v1/encumbrances", nil); rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("no filter status = %d, want 400", rec.Code)
	}
}

func TestExpireAll(t *testing.T) {
	e := newServer(t)
	col := createCollateral(t, e, "20000")
	effective := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	encumber(t, e, col.CollateralID, "5000", map[string]any{"effective_date": effective, "expiry_date": expiry})
	encumber(t, e, col.CollateralID, "1000", nil)

	rec := do(t, e, stdhttp.MethodGet, "/api/v1/encumbrances/expired", nil)
	if got := decode[[]encumbranceResp](t, rec); len(got) != 1 {
		t.Fatalf("expired = %+v", got)
	}

	rec = do(t, e, stdhttp.MethodPost, "/api/v1/encumbrances/expire", map[string]any{"as_of": "2024-07-01T00:00:00Z"})
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("sweep status = %d; body=%s", rec.Code, rec.Body.String())
	}
	type sweep struct {
		Expired     int `json:"expired"`
		Collaterals int `json:"collaterals"`
	}
	if got := decode[sweep](t, rec); got.Expired != 1 || got.Collaterals != 1 {
		t.Fatalf("sweep = %+v", got)
	}

	rec = do(t, e, stdhttp.MethodGet, "/api/v1/collaterals/"+col.CollateralID, nil)
	if got := decode[collateralResp](t, rec); !got.EncumberedValue.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("encumbered after sweep = %s", got.EncumberedValue)
	}
}

func TestCatalogue(t *testing.T) {
	e := newServer(t)
	rec := do(t, e, stdhttp.MethodGet, "/api/v1/encumbrances/catalogue", nil)
	got := decode[catalogue](t, rec)
	if len(got.Types) != 12 || len(got.Statuses) != 12 || len(got.Terminal) != 4 {
		t.Fatalf("catalogue = %+v", got)
	}
}
