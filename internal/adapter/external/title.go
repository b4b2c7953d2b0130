package external

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"collateral-service/internal/domain/title"
)

// TitleClient implements title.Registry over the title registry's REST API.
type TitleClient struct {
	c *client
}

var _ title.Registry = (*TitleClient)(nil)

func NewTitleClient(cfg Config) *TitleClient {
	return &TitleClient{c: newClient("title registry", cfg)}
}

type titleVerificationRequest struct {
	CollateralID     string `json:"collateralId"`
	LegalDescription string `json:"legalDescription"`
}

type titleVerificationResponse struct {
	CollateralID    string `json:"collateralId"`
	Status          string `json:"status"`
	TitleNumber     string `json:"titleNumber"`
	Message         string `json:"message"`
	Valid           bool   `json:"isValid"`
	RegisteredOwner string `json:"registeredOwner"`
}

// Verify returns whatever the registry concluded; an INVALID or NOT_FOUND
// title is a result, not an error.
func (t *TitleClient) Verify(ctx context.Context, collateralID, legalDescription string) (*title.Verification, error) {
	var resp titleVerificationResponse
	err := t.c.do(ctx, http.MethodPost, "/api/v1/title/verify", titleVerificationRequest{
		CollateralID:     collateralID,
		LegalDescription: legalDescription,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &title.Verification{
		CollateralID:    resp.CollateralID,
		Status:          title.Status(resp.Status),
		TitleNumber:     resp.TitleNumber,
		RegisteredOwner: resp.RegisteredOwner,
		Valid:           resp.Valid,
		Message:         resp.Message,
	}, nil
}

type ownershipResponse struct {
	CollateralID     string    `json:"collateralId"`
	TitleNumber      string    `json:"titleNumber"`
	CurrentOwner     string    `json:"currentOwner"`
	PreviousOwner    string    `json:"previousOwner"`
	RegistrationDate timestamp `json:"registrationDate"`
	Status           string    `json:"status"`
	Message          string    `json:"message"`
}

func (t *TitleClient) Ownership(ctx context.Context, collateralID, titleNumber string) (*title.Ownership, error) {
	var resp ownershipResponse
	if err := t.c.do(ctx, http.MethodGet, "/api/v1/title/"+url.PathEscape(titleNumber)+"/ownership", nil, &resp); err != nil {
		return nil, err
	}
	out := &title.Ownership{
		CollateralID:     collateralID,
		TitleNumber:      resp.TitleNumber,
		CurrentOwner:     resp.CurrentOwner,
		PreviousOwner:    resp.PreviousOwner,
		RegistrationDate: optionalTime(resp.RegistrationDate),
		Status:           resp.Status,
		Message:          resp.Message,
	}
	if out.TitleNumber == "" {
		out.TitleNumber = titleNumber
	}
	return out, nil
}

type existingEncumbranceResponse struct {
	EncumbranceID    string    `json:"encumbranceId"`
	Type             string    `json:"type"`
	Amount           string    `json:"amount"`
	Priority         string    `json:"priority"`
	RegistrationDate timestamp `json:"registrationDate"`
	Status           string    `json:"status"`
}

type encumbranceSearchResponse struct {
	CollateralID string                        `json:"collateralId"`
	TitleNumber  string                        `json:"titleNumber"`
	Status       string                        `json:"status"`
	Message      string                        `json:"message"`
	Encumbrances []existingEncumbranceResponse `json:"encumbrances"`
}

// SearchEncumbrances lists the claims the registry holds against a title.
func (t *TitleClient) SearchEncumbrances(ctx context.Context, collateralID, titleNumber string) (*title.EncumbranceSearch, error) {
	var resp encumbranceSearchResponse
	if err := t.c.do(ctx, http.MethodGet, "/api/v1/title/"+url.PathEscape(titleNumber)+"/encumbrances", nil, &resp); err != nil {
		return nil, err
	}
	out := &title.EncumbranceSearch{
		CollateralID: collateralID,
		TitleNumber:  titleNumber,
		Status:       resp.Status,
		Message:      resp.Message,
		Encumbrances: make([]title.ExistingEncumbrance, 0, len(resp.Encumbrances)),
	}
	for _, e := range resp.Encumbrances {
		out.Encumbrances = append(out.Encumbrances, title.ExistingEncumbrance{
			EncumbranceID:    e.EncumbranceID,
			Type:             e.Type,
			Amount:           e.Amount,
			Priority:         e.Priority,
			RegistrationDate: optionalTime(e.RegistrationDate),
			Status:           e.Status,
		})
	}
	return out, nil
}

func optionalTime(t timestamp) *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
