package http

import (
	"net/http"
	"time"

	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/valuation"
	"collateral-service/internal/usecase/records"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// RecordsHandler serves the valuation and title history.
type RecordsHandler struct{ uc *records.Usecase }

func NewRecordsHandler(uc *records.Usecase) *RecordsHandler {
	return &RecordsHandler{uc: uc}
}

// field order and types mirror records.ValuationInput
type createValuationReq struct {
	CollateralID   string          `json:"collateral_id"    validate:"required,entityid"`
	Type           string          `json:"type"             validate:"max=32"`
	Location       string          `json:"location"         validate:"max=128"`
	Description    string          `json:"description"      validate:"max=1000"`
	Status         string          `json:"status"`
	EstimatedValue decimal.Decimal `json:"estimated_value"  validate:"dgte0,dec2"`
	LowRange       decimal.Decimal `json:"low_range"        validate:"dgte0,dec2"`
	HighRange      decimal.Decimal `json:"high_range"       validate:"dgte0,dec2"`
	Currency       string          `json:"currency"         validate:"omitempty,len=3"`
	Methodology    string          `json:"methodology"      validate:"max=64"`
	Confidence     float64         `json:"confidence_score" validate:"gte=0,lte=1"`
	Reason         string          `json:"reason"           validate:"max=255"`
	ValuationDate  *time.Time      `json:"valuation_date"`
	Message        string          `json:"message"          validate:"max=2000"`
	CreatedBy      string          `json:"created_by"       validate:"max=64"`
}

func (h *RecordsHandler) CreateValuation(c echo.Context) error {
	var req createValuationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := records.ValuationInput(req)
	in.CreatedBy = actor(c, in.CreatedBy)
	v, err := h.uc.CreateValuation(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *RecordsHandler) GetValuation(c echo.Context) error {
	v, err := h.uc.GetValuation(c.Request().Context(), c.Param("valuation_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// field order and types mirror records.ValuationUpdate
type updateValuationReq struct {
	Status         *string          `json:"status"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"  validate:"omitempty,dgte0,dec2"`
	LowRange       *decimal.Decimal `json:"low_range"        validate:"omitempty,dgte0,dec2"`
	HighRange      *decimal.Decimal `json:"high_range"       validate:"omitempty,dgte0,dec2"`
	Methodology    *string          `json:"methodology"      validate:"omitempty,max=64"`
	Confidence     *float64         `json:"confidence_score" validate:"omitempty,gte=0,lte=1"`
	ValuationDate  *time.Time       `json:"valuation_date"`
	Message        *string          `json:"message"          validate:"omitempty,max=2000"`
	UpdatedBy      string           `json:"updated_by"       validate:"max=64"`
}

func (h *RecordsHandler) UpdateValuation(c echo.Context) error {
	var req updateValuationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := records.ValuationUpdate(req)
	in.UpdatedBy = actor(c, in.UpdatedBy)
	v, err := h.uc.UpdateValuation(c.Request().Context(), c.Param("valuation_id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *RecordsHandler) DeleteValuation(c echo.Context) error {
	if err := h.uc.DeleteValuation(c.Request().Context(), c.Param("valuation_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RecordsHandler) ValuationsByCollateral(c echo.Context) error {
	out, err := h.uc.ValuationsByCollateral(c.Request().Context(), c.Param("collateral_id"))
	return listJSON(c, out, err)
}

func (h *RecordsHandler) LatestValuation(c echo.Context) error {
	v, err := h.uc.LatestValuation(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *RecordsHandler) ValuationsByType(c echo.Context) error {
	out, err := h.uc.ValuationsByType(c.Request().Context(), c.Param("type"))
	return listJSON(c, out, err)
}

func (h *RecordsHandler) ValuationsByLocation(c echo.Context) error {
	out, err := h.uc.ValuationsByLocation(c.Request().Context(), c.Param("location"))
	return listJSON(c, out, err)
}

func (h *RecordsHandler) ValuationsByStatus(c echo.Context) error {
	out, err := h.uc.ValuationsByStatus(c.Request().Context(), c.Param("status"))
	return listJSON(c, out, err)
}

func (h *RecordsHandler) ValuationStatuses(c echo.Context) error {
	return c.JSON(http.StatusOK, valuation.RecordStatuses)
}

// field order and types mirror records.TitleInput
type createTitleReq struct {
	CollateralID     string     `json:"collateral_id"     validate:"required,entityid"`
	TitleNumber      string     `json:"title_number"      validate:"max=64"`
	LegalDescription string     `json:"legal_description" validate:"max=1000"`
	Status           string     `json:"status"`
	CurrentOwner     string     `json:"current_owner"     validate:"max=128"`
	PreviousOwner    string     `json:"previous_owner"    validate:"max=128"`
	RegistrationDate *time.Time `json:"registration_date"`
	Valid            bool       `json:"is_valid"`
	VerificationDate *time.Time `json:"verification_date"`
	Notes            string     `json:"notes"             validate:"max=2000"`
	CreatedBy        string     `json:"created_by"        validate:"max=64"`
}

func (h *RecordsHandler) CreateTitle(c echo.Context) error {
	var req createTitleReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := records.TitleInput(req)
	in.CreatedBy = actor(c, in.CreatedBy)
	t, err := h.uc.CreateTitle(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *RecordsHandler) GetTitle(c echo.Context) error {
	t, err := h.uc.GetTitle(c.Request().Context(), c.Param("title_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// field order and types mirror records.TitleUpdate
type updateTitleReq struct {
	TitleNumber      *string    `json:"title_number"      validate:"omitempty,max=64"`
	LegalDescription *string    `json:"legal_description" validate:"omitempty,max=1000"`
	Status           *string    `json:"status"`
	CurrentOwner     *string    `json:"current_owner"     validate:"omitempty,max=128"`
	PreviousOwner    *string    `json:"previous_owner"    validate:"omitempty,max=128"`
	RegistrationDate *time.Time `json:"registration_date"`
	Valid            *bool      `json:"is_valid"`
	VerificationDate *time.Time `json:"verification_date"`
	Notes            *string    `json:"notes"             validate:"omitempty,max=2000"`
	UpdatedBy        string     `json:"updated_by"        validate:"max=64"`
}

func (h *RecordsHandler) UpdateTitle(c echo.Context) error {
	var req updateTitleReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := records.TitleUpdate(req)
	in.UpdatedBy = actor(c, in.UpdatedBy)
	t, err := h.uc.UpdateTitle(c.Request().Context(), c.Param("title_id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *RecordsHandler) DeleteTitle(c echo.Context) error {
	if err := h.uc.DeleteTitle(c.Request().Context(), c.Param("title_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RecordsHandler) TitleByNumber(c echo.Context) error {
	t, err := h.uc.TitleByNumber(c.Request().Context(), c.Param("title_number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *RecordsHandler) TitlesByCollateral(c echo.Context) error {
	out, err := h.uc.TitlesByCollateral(c.Request().Context(), c.Param("collateral_id"))
	return listJSON(c, out, err)
}

func (h *RecordsHandler) LatestTitle(c echo.Context) error {
	t, err := h.uc.LatestTitle(c.Request().Context(), c.Param("collateral_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *RecordsHandler) TitlesByOwner(c echo.Context) error {
	out, err := h.uc.TitlesByOwner(c.Request().Context(), c.Param("owner"))
	return listJSON(c, out, err)
}

func (h *RecordsHandler) VerifiedTitlesByOwner(c echo.Context) error {
	out, err := h.uc.VerifiedTitlesByOwner(c.Request().Context(), c.Param("owner"))
	return listJSON(c, out, err)
}

func (h *RecordsHandler) TitlesByStatus(c echo.Context) error {
	out, err := h.uc.TitlesByStatus(c.Request().Context(), c.Param("status"))
	return listJSON(c, out, err)
}

func (h *RecordsHandler) ValidTitles(c echo.Context) error {
	out, err := h.uc.ValidTitles(c.Request().Context())
	return listJSON(c, out, err)
}

func (h *RecordsHandler) TitleStatuses(c echo.Context) error {
	return c.JSON(http.StatusOK, title.Statuses)
}

// listJSON writes a query result, or the error mapped to its status.
func listJSON[T any](c echo.Context, out []T, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
