package external

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"collateral-service/internal/domain/valuation"

	"github.com/shopspring/decimal"
)

const statusValuationCompleted = "VALUATION_COMPLETED"

// ValuationClient implements valuation.Provider over the auto-valuation
// service's REST API.
type ValuationClient struct {
	c   *client
	now func() time.Time
}

var _ valuation.Provider = (*ValuationClient)(nil)

func NewValuationClient(cfg Config) *ValuationClient {
	return &ValuationClient{c: newClient("valuation provider", cfg), now: time.Now}
}

type valuationRequest struct {
	CollateralID string    `json:"collateralId"`
	Type         string    `json:"type"`
	Location     string    `json:"location"`
	Description  string    `json:"description"`
	RequestDate  timestamp `json:"requestDate"`
}

type valuationResponse struct {
	CollateralID    string          `json:"collateralId"`
	Status          string          `json:"status"`
	EstimatedValue  decimal.Decimal `json:"estimatedValue"`
	LowRange        decimal.Decimal `json:"lowRange"`
	HighRange       decimal.Decimal `json:"highRange"`
	Currency        string          `json:"currency"`
	Methodology     string          `json:"methodology"`
	ValuationDate   timestamp       `json:"valuationDate"`
	Message         string          `json:"message"`
	ConfidenceScore float64         `json:"confidenceScore"`
}

func (v *ValuationClient) Appraise(ctx context.Context, req valuation.AppraisalRequest) (*valuation.Appraisal, error) {
	var resp valuationResponse
	err := v.c.do(ctx, http.MethodPost, "/api/v1/valuation/request", valuationRequest{
		CollateralID: req.CollateralID,
		Type:         req.Type,
		Location:     req.Location,
		Description:  req.Description,
		RequestDate:  timestamp{v.now().UTC()},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != statusValuationCompleted {
		return nil, &valuation.IncompleteError{Status: valuation.RecordStatus(resp.Status), Message: resp.Message}
	}
	return &valuation.Appraisal{
		CollateralID:   resp.CollateralID,
		EstimatedValue: resp.EstimatedValue,
		LowRange:       resp.LowRange,
		HighRange:      resp.HighRange,
		Currency:       resp.Currency,
		Methodology:    resp.Methodology,
		Confidence:     resp.ConfidenceScore,
		ValuationDate:  resp.ValuationDate.Time,
	}, nil
}

type marketTrendResponse struct {
	Type           string          `json:"type"`
	Location       string          `json:"location"`
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	AverageValue   decimal.Decimal `json:"averageValue"`
	PriceChange    float64         `json:"priceChange"`
	TrendDirection string          `json:"trendDirection"`
	AnalysisDate   timestamp       `json:"analysisDate"`
}

func (v *ValuationClient) MarketTrends(ctx context.Context, collateralType, location string) (*valuation.MarketTrend, error) {
	q := url.Values{}
	q.Set("type", collateralType)
	q.Set("location", location)
	var resp marketTrendResponse
	if err := v.c.do(ctx, http.MethodGet, "/api/v1/market-trends?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &valuation.MarketTrend{
		Type:           resp.Type,
		Location:       resp.Location,
		AverageValue:   resp.AverageValue,
		PriceChange:    resp.PriceChange,
		TrendDirection: resp.TrendDirection,
		AnalysisDate:   resp.AnalysisDate.Time,
	}, nil
}

type comparableSearchRequest struct {
	CollateralID   string          `json:"collateralId"`
	Type           string          `json:"type"`
	Location       string          `json:"location"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
}

type comparableSearchResponse struct {
	CollateralID string `json:"collateralId"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	Comparables  []struct {
		PropertyID      string          `json:"propertyId"`
		Address         string          `json:"address"`
		Value           decimal.Decimal `json:"value"`
		SaleDate        timestamp       `json:"saleDate"`
		SimilarityScore float64         `json:"similarityScore"`
	} `json:"comparables"`
}

func (v *ValuationClient) Comparables(ctx context.Context, q valuation.ComparableQuery) ([]valuation.Comparable, error) {
	var resp comparableSearchResponse
	err := v.c.do(ctx, http.MethodPost, "/api/v1/comparables/search", comparableSearchRequest{
		CollateralID:   q.CollateralID,
		Type:           q.Type,
		Location:       q.Location,
		EstimatedValue: q.EstimatedValue,
	}, &resp)
	if err != nil {
		return nil, err
	}
	out := make([]valuation.Comparable, 0, len(resp.Comparables))
	for _, c := range resp.Comparables {
		out = append(out, valuation.Comparable{
			ID:         c.PropertyID,
			Location:   c.Address,
			Value:      c.Value,
			SaleDate:   c.SaleDate.Time,
			Similarity: c.SimilarityScore,
		})
	}
	return out, nil
}

type revaluationRequest struct {
	CollateralID string    `json:"collateralId"`
	Reason       string    `json:"reason"`
	RequestDate  timestamp `json:"requestDate"`
}

type revaluationResponse struct {
	CollateralID          string          `json:"collateralId"`
	Status                string          `json:"status"`
	PreviousValue         decimal.Decimal `json:"previousValue"`
	NewValue              decimal.Decimal `json:"newValue"`
	Currency              string          `json:"currency"`
	Reason                string          `json:"reason"`
	RevaluationDate       timestamp       `json:"revaluationDate"`
	Message               string          `json:"message"`
	ValueChangePercentage float64         `json:"valueChangePercentage"`
}

func (v *ValuationClient) Revalue(ctx context.Context, collateralID, reason string) (*valuation.Revaluation, error) {
	var resp revaluationResponse
	err := v.c.do(ctx, http.MethodPost, "/api/v1/valuation/revalue", revaluationRequest{
		CollateralID: collateralID,
		Reason:       reason,
		RequestDate:  timestamp{v.now().UTC()},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status != statusValuationCompleted {
		return nil, &valuation.IncompleteError{Status: valuation.RecordStatus(resp.Status), Message: resp.Message}
	}
	return &valuation.Revaluation{
		CollateralID:     resp.CollateralID,
		PreviousValue:    resp.PreviousValue,
		NewValue:         resp.NewValue,
		Currency:         resp.Currency,
		Reason:           resp.Reason,
		ChangePercentage: resp.ValueChangePercentage,
		RevaluationDate:  resp.RevaluationDate.Time,
	}, nil
}
