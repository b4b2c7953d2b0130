package http

import (
	"net/http"
	"strconv"
	"time"

	domain "collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/usecase/collateral"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CollateralHandler struct{ uc *collateral.Usecase }

func NewCollateralHandler(uc *collateral.Usecase) *CollateralHandler {
	return &CollateralHandler{uc: uc}
}

// field order and types mirror collateral.CreateInput
type createCollateralReq struct {
	CustomerID         string          `json:"customer_id"          validate:"required,max=64"`
	AccountID          string          `json:"account_id"           validate:"max=64"`
	Type               string          `json:"type"                 validate:"required"`
	Description        string          `json:"description"          validate:"max=1000"`
	EstimatedValue     decimal.Decimal `json:"estimated_value"      validate:"dgte0,dec2"`
	MarketValue        decimal.Decimal `json:"market_value"         validate:"dgte0,dec2"`
	Currency           string          `json:"currency"             validate:"omitempty,len=3"`
	Status             string          `json:"status"`
	Location           string          `json:"location"             validate:"max=255"`
	EvaluationDate     *time.Time      `json:"evaluation_date"`
	LegalDescription   string          `json:"legal_description"    validate:"max=1000"`
	OwnershipDocuments string          `json:"ownership_documents"`
	LastInspectionDate *time.Time      `json:"last_inspection_date"`
	RiskRating         string          `json:"risk_rating"          validate:"max=32"`
	CreatedBy          string          `json:"created_by"           validate:"max=64"`
}

// Create registers a collateral. With ?validate=true the title and an auto
// valuation are requested too and a creation report is returned.
func (h *CollateralHandler) Create(c echo.Context) error {
	var req createCollateralReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := collateral.CreateInput(req)
	in.CreatedBy = actor(c, in.CreatedBy)
	ctx := c.Request().Context()

	if withValidation, _ := strconv.ParseBool(c.QueryParam("validate")); withValidation {
		rep, err := h.uc.CreateWithValidation(ctx, in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, rep)
	}
	col, err := h.uc.Create(ctx, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, col)
}

func (h *CollateralHandler) Get(c echo.Context) error {
	col, err := h.uc.Get(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

// field order and types mirror collateral.UpdateInput
type updateCollateralReq struct {
	Description        *string          `json:"description"          validate:"omitempty,max=1000"`
	EstimatedValue     *decimal.Decimal `json:"estimated_value"      validate:"omitempty,dgte0,dec2"`
	MarketValue        *decimal.Decimal `json:"market_value"         validate:"omitempty,dgte0,dec2"`
	Currency           *string          `json:"currency"             validate:"omitempty,len=3"`
	Status             *string          `json:"status"`
	Location           *string          `json:"location"             validate:"omitempty,max=255"`
	EvaluationDate     *time.Time       `json:"evaluation_date"`
	LegalDescription   *string          `json:"legal_description"    validate:"omitempty,max=1000"`
	OwnershipDocuments *string          `json:"ownership_documents"`
	LastInspectionDate *time.Time       `json:"last_inspection_date"`
	RiskRating         *string          `json:"risk_rating"          validate:"omitempty,max=32"`
	UpdatedBy          string           `json:"updated_by"           validate:"max=64"`
}

func (h *CollateralHandler) Update(c echo.Context) error {
	var req updateCollateralReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := collateral.UpdateInput(req)
	in.UpdatedBy = actor(c, in.UpdatedBy)
	col, err := h.uc.Update(c.Request().Context(), c.Param("collateral_id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

type updateValueReq struct {
	MarketValue decimal.Decimal `json:"market_value" validate:"dgte0,dec2"`
	UpdatedBy   string          `json:"updated_by"   validate:"max=64"`
}

func (h *CollateralHandler) UpdateValue(c echo.Context) error {
	var req updateValueReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	col, err := h.uc.UpdateValue(c.Request().Context(), c.Param("collateral_id"), req.MarketValue, actor(c, req.UpdatedBy))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

func (h *CollateralHandler) Delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param("collateral_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CollateralHandler) Reconcile(c echo.Context) error {
	col, err := h.uc.Reconcile(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

// List filters by exactly one of status, customer_id, account_id or
// encumbered=true.
func (h *CollateralHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		out []domain.Collateral
		err error
	)
	switch {
	case c.QueryParam("status") != "":
		var st domain.Status
		if st, err = domain.ParseStatus(c.QueryParam("status")); err == nil {
			out, err = h.uc.ListByStatus(ctx, st)
		}
	case c.QueryParam("customer_id") != "":
		out, err = h.uc.ListByCustomer(ctx, c.QueryParam("customer_id"))
	case c.QueryParam("account_id") != "":
		out, err = h.uc.ListByAccount(ctx, c.QueryParam("account_id"))
	case c.QueryParam("encumbered") == "true":
		out, err = h.uc.Encumbered(ctx)
	default:
		err = errs.Validation("one of status, customer_id, account_id or encumbered=true is required")
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollateralHandler) Available(c echo.Context) error {
	minValue := decimal.Zero
	if raw := c.QueryParam("min_value"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "min_value must be a non-negative decimal"})
		}
		minValue = v
	}
	out, err := h.uc.Available(c.Request().Context(), c.Param("customer_id"), minValue)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollateralHandler) VerifyTitle(c echo.Context) error {
	v, err := h.uc.VerifyTitle(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

type valuationResp struct {
	Collateral     *domain.Collateral `json:"collateral"`
	ValuationID    string             `json:"valuation_id"`
	EstimatedValue decimal.Decimal    `json:"estimated_value"`
	Currency       string             `json:"currency,omitempty"`
	Methodology    string             `json:"methodology,omitempty"`
	Confidence     float64            `json:"confidence,omitempty"`
}

func (h *CollateralHandler) RequestValuation(c echo.Context) error {
	col, v, err := h.uc.RequestAutoValuation(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, valuationResp{
		Collateral:     col,
		ValuationID:    v.ValuationID,
		EstimatedValue: v.EstimatedValue,
		Currency:       v.Currency,
		Methodology:    v.Methodology,
		Confidence:     v.Confidence,
	})
}

type revaluationReq struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

type revaluationResp struct {
	Collateral       *domain.Collateral `json:"collateral"`
	ValuationID      string             `json:"valuation_id"`
	PreviousValue    decimal.Decimal    `json:"previous_value"`
	NewValue         decimal.Decimal    `json:"new_value"`
	ChangePercentage float64            `json:"change_percentage"`
}

func (h *CollateralHandler) RequestRevaluation(c echo.Context) error {
	var req revaluationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	col, v, err := h.uc.RequestRevaluation(c.Request().Context(), c.Param("collateral_id"), req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, revaluationResp{
		Collateral:       col,
		ValuationID:      v.ValuationID,
		PreviousValue:    v.PreviousValue,
		NewValue:         v.EstimatedValue,
		ChangePercentage: v.ChangePercentage,
	})
}

// Ownership takes an optional ?title_number; without it the latest recorded
// title number is used.
func (h *CollateralHandler) Ownership(c echo.Context) error {
	o, err := h.uc.Ownership(c.Request().Context(), c.Param("collateral_id"), c.QueryParam("title_number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *CollateralHandler) TitleEncumbrances(c echo.Context) error {
	res, err := h.uc.SearchTitleEncumbrances(c.Request().Context(), c.Param("collateral_id"), c.QueryParam("title_number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CollateralHandler) Comparables(c echo.Context) error {
	rep, err := h.uc.ComparableProperties(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *CollateralHandler) MarketTrends(c echo.Context) error {
	rep, err := h.uc.MarketTrends(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *CollateralHandler) Types(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.Types)
}

func (h *CollateralHandler) Statuses(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.Statuses)
}
