package http

import (
	"net/http"

	"collateral-service/internal/usecase/autoloan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AutoLoanHandler struct{ engine *autoloan.Engine }

func NewAutoLoanHandler(engine *autoloan.Engine) *AutoLoanHandler {
	return &AutoLoanHandler{engine: engine}
}

// field order and types mirror autoloan.AppraisalInput
type appraiseReq struct {
	CollateralID   string `json:"collateral_id"    validate:"max=64"`
	CollateralType string `json:"collateral_type"  validate:"required"`
	VIN            string `json:"vin"              validate:"omitempty,len=17"`
	Year           int    `json:"year"             validate:"required,gte=1900"`
	Make           string `json:"make"             validate:"required,max=64"`
	Model          string `json:"model"            validate:"required,max=64"`
	Trim           string `json:"trim"             validate:"max=64"`
	Mileage        int    `json:"mileage"          validate:"gte=0"`
	Condition      string `json:"condition"        validate:"max=32"`
	ZipCode        string `json:"zip_code"         validate:"max=16"`
}

func (h *AutoLoanHandler) Appraise(c echo.Context) error {
	var req appraiseReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.engine.Appraise(c.Request().Context(), autoloan.AppraisalInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type marketAnalysisReq struct {
	Make    string `query:"make"      validate:"required,max=64"`
	Model   string `query:"model"     validate:"max=64"`
	Year    int    `query:"year"      validate:"omitempty,gte=1900"`
	ZipCode string `query:"zip_code"  validate:"max=16"`
}

func (h *AutoLoanHandler) MarketAnalysis(c echo.Context) error {
	var req marketAnalysisReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.engine.MarketAnalysis(c.Request().Context(), autoloan.MarketAnalysisInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// field order and types mirror autoloan.ComparableInput
type comparableReq struct {
	CollateralID string `json:"collateral_id"  validate:"max=64"`
	Year         int    `json:"year"           validate:"required,gte=1900"`
	Make         string `json:"make"           validate:"required,max=64"`
	Model        string `json:"model"          validate:"max=64"`
	Mileage      int    `json:"mileage"        validate:"gte=0"`
	ZipCode      string `json:"zip_code"       validate:"max=16"`
}

func (h *AutoLoanHandler) ComparableSales(c echo.Context) error {
	var req comparableReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.engine.ComparableSales(c.Request().Context(), autoloan.ComparableInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type ltvReq struct {
	CollateralID string          `json:"collateral_id"  validate:"max=64"`
	LoanAmount   decimal.Decimal `json:"loan_amount"    validate:"dgte0,dec2"`
	VehicleValue decimal.Decimal `json:"vehicle_value"  validate:"dgt0,dec2"`
}

func (h *AutoLoanHandler) CalculateLTV(c echo.Context) error {
	var req ltvReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.engine.CalculateLTV(c.Request().Context(), autoloan.LTVInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type forecastReq struct {
	CollateralID   string          `json:"collateral_id"    validate:"max=64"`
	Year           int             `json:"year"             validate:"required,gte=1900"`
	Make           string          `json:"make"             validate:"required,max=64"`
	Model          string          `json:"model"            validate:"max=64"`
	CurrentValue   decimal.Decimal `json:"current_value"    validate:"dgt0,dec2"`
	ForecastMonths int             `json:"forecast_months"  validate:"gt=0,lte=120"`
}

func (h *AutoLoanHandler) ForecastDepreciation(c echo.Context) error {
	var req forecastReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	out, err := h.engine.ForecastDepreciation(c.Request().Context(), autoloan.ForecastInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
