package http

import (
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"collateral-service/internal/adapter/repository/memory"
	"collateral-service/internal/usecase/autoloan"
	"collateral-service/internal/usecase/collateral"
	"collateral-service/internal/usecase/encumbrance"
	"collateral-service/internal/usecase/reconcile"
	"collateral-service/internal/usecase/records"

	"github.com/labstack/echo/v4"
)

// newServer wires the real usecases over the in-memory store.
func newServer(t *testing.T, opts ...collateral.Option) *echo.Echo {
	t.Helper()
	s := memory.NewStore()
	rec := reconcile.New(memory.NewUoW(s))
	titles := memory.NewTitleRecordRepository(s)
	opts = append([]collateral.Option{collateral.WithTitleRecords(titles)}, opts...)
	e := newEchoWithValidator()
	Routes{
		Health:       NewHandler(),
		Collaterals:  NewCollateralHandler(collateral.NewUsecase(rec, memory.NewCollateralRepository(s), opts...)),
		Encumbrances: NewEncumbranceHandler(encumbrance.NewUsecase(rec, memory.NewEncumbranceRepository(s))),
		AutoLoan:     NewAutoLoanHandler(autoloan.NewEngine()),
		Records:      NewRecordsHandler(records.NewUsecase(rec, memory.NewValuationRecordRepository(s), titles)),
	}.Register(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		rdr = mustJSON(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func TestRoutes_MetricsExposed(t *testing.T) {
	e := newServer(t)
	rec := do(t, e, stdhttp.MethodGet, "/metrics", nil)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRoutes_UnknownRoute(t *testing.T) {
	e := newServer(t)
	if rec := do(t, e, stdhttp.MethodGet, "/api/v1/nope", nil); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
