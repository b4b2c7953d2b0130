package http

import (
	"net/http"
	"strconv"
	"time"

	domain "collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/usecase/encumbrance"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type EncumbranceHandler struct{ uc *encumbrance.Usecase }

func NewEncumbranceHandler(uc *encumbrance.Usecase) *EncumbranceHandler {
	return &EncumbranceHandler{uc: uc}
}

// field order and types mirror encumbrance.CreateInput
type createEncumbranceReq struct {
	CollateralID   string          `json:"collateral_id"    validate:"required,entityid"`
	LoanID         string          `json:"loan_id"          validate:"required,max=64"`
	CustomerID     string          `json:"customer_id"      validate:"max=64"`
	Amount         decimal.Decimal `json:"amount"           validate:"dgt0,dec2"`
	Currency       string          `json:"currency"         validate:"omitempty,len=3"`
	Type           string          `json:"type"             validate:"required"`
	Status         string          `json:"status"`
	Priority       int             `json:"priority"         validate:"gte=0"`
	EffectiveDate  *time.Time      `json:"effective_date"`
	ExpiryDate     *time.Time      `json:"expiry_date"`
	Description    string          `json:"description"      validate:"max=1000"`
	LegalReference string          `json:"legal_reference"  validate:"max=255"`
	Notes          string          `json:"notes"            validate:"max=2000"`
	CreatedBy      string          `json:"created_by"       validate:"max=64"`
}

func (h *EncumbranceHandler) Create(c echo.Context) error {
	var req createEncumbranceReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := encumbrance.CreateInput(req)
	in.CreatedBy = actor(c, in.CreatedBy)
	res, err := h.uc.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *EncumbranceHandler) Get(c echo.Context) error {
	e, err := h.uc.Get(c.Request().Context(), c.Param("encumbrance_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// field order and types mirror encumbrance.UpdateInput
type updateEncumbranceReq struct {
	Amount         *decimal.Decimal `json:"amount"           validate:"omitempty,dgt0,dec2"`
	Currency       *string          `json:"currency"         validate:"omitempty,len=3"`
	Type           *string          `json:"type"`
	Status         *string          `json:"status"`
	Priority       *int             `json:"priority"         validate:"omitempty,gte=0"`
	EffectiveDate  *time.Time       `json:"effective_date"`
	ExpiryDate     *time.Time       `json:"expiry_date"`
	Description    *string          `json:"description"      validate:"omitempty,max=1000"`
	LegalReference *string          `json:"legal_reference"  validate:"omitempty,max=255"`
	Notes          *string          `json:"notes"            validate:"omitempty,max=2000"`
	UpdatedBy      string           `json:"updated_by"       validate:"max=64"`
}

func (h *EncumbranceHandler) Update(c echo.Context) error {
	var req updateEncumbranceReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := encumbrance.UpdateInput(req)
	in.UpdatedBy = actor(c, in.UpdatedBy)
	res, err := h.uc.Update(c.Request().Context(), c.Param("encumbrance_id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *EncumbranceHandler) Delete(c echo.Context) error {
	res, err := h.uc.Delete(c.Request().Context(), c.Param("encumbrance_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type releaseReq struct {
	ReleasedBy string `json:"released_by" validate:"max=64"`
}

func (h *EncumbranceHandler) Release(c echo.Context) error {
	var req releaseReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.Release(c.Request().Context(), c.Param("encumbrance_id"), actor(c, req.ReleasedBy))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type partialReleaseReq struct {
	Amount     decimal.Decimal `json:"amount"      validate:"dgt0,dec2"`
	ReleasedBy string          `json:"released_by" validate:"max=64"`
}

func (h *EncumbranceHandler) PartialRelease(c echo.Context) error {
	var req partialReleaseReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.PartialRelease(c.Request().Context(), c.Param("encumbrance_id"), req.Amount, actor(c, req.ReleasedBy))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListByCollateral returns every encumbrance on the collateral, or only the
// contributing ones in priority order with ?active=true.
func (h *EncumbranceHandler) ListByCollateral(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("collateral_id")
	var (
		out []domain.Encumbrance
		err error
	)
	if active, _ := strconv.ParseBool(c.QueryParam("active")); active {
		out, err = h.uc.ActiveByCollateral(ctx, id)
	} else {
		out, err = h.uc.ListByCollateral(ctx, id)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type totalResp struct {
	CollateralID    string          `json:"collateral_id"`
	EncumberedTotal decimal.Decimal `json:"encumbered_total"`
}

func (h *EncumbranceHandler) Total(c echo.Context) error {
	id := c.Param("collateral_id")
	total, err := h.uc.TotalEncumbered(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, totalResp{CollateralID: id, EncumberedTotal: total})
}

// List filters by exactly one of loan_id, customer_id or status.
func (h *EncumbranceHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		out []domain.Encumbrance
		err error
	)
	switch {
	case c.QueryParam("loan_id") != "":
		out, err = h.uc.ListByLoan(ctx, c.QueryParam("loan_id"))
	case c.QueryParam("customer_id") != "":
		out, err = h.uc.ListByCustomer(ctx, c.QueryParam("customer_id"))
	case c.QueryParam("status") != "":
		var st domain.Status
		if st, err = domain.ParseStatus(c.QueryParam("status")); err == nil {
			out, err = h.uc.ListByStatus(ctx, st)
		}
	default:
		err = errs.Validation("one of loan_id, customer_id or status is required")
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *EncumbranceHandler) Expired(c echo.Context) error {
	out, err := h.uc.Expired(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type expireReq struct {
	AsOf *time.Time `json:"as_of"`
}

// ExpireAll runs the expiry sweep now. Per-collateral failures are reported
// in the body; only a systemic failure fails the request.
func (h *EncumbranceHandler) ExpireAll(c echo.Context) error {
	var req expireReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}
	res, err := h.uc.ExpireAll(c.Request().Context(), asOf)
	if err != nil {
		return writeError(c, err)
	}
	code := http.StatusOK
	if len(res.Failures) > 0 {
		code = http.StatusMultiStatus
	}
	return c.JSON(code, res)
}

type catalogue struct {
	Types    []domain.Type   `json:"types"`
	Statuses []domain.Status `json:"statuses"`
	Terminal []domain.Status `json:"terminal"`
}

func (h *EncumbranceHandler) Catalogue(c echo.Context) error {
	cat := catalogue{Types: domain.Types, Statuses: domain.Statuses}
	for _, s := range domain.Statuses {
		if s.Terminal() {
			cat.Terminal = append(cat.Terminal, s)
		}
	}
	return c.JSON(http.StatusOK, cat)
}
