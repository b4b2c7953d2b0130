// Package autoloan builds vehicle appraisals, market analyses, loan-to-value
// decisions and depreciation forecasts. It never touches the ledger.
package autoloan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/valuation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var providerFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "collateral",
	Subsystem: "autoloan",
	Name:      "provider_fallbacks_total",
	Help:      "Valuation provider calls answered from the local heuristic or an unavailable marker.",
}, []string{"operation"})

var errNoProvider = fmt.Errorf("%w: valuation provider not configured", errs.ErrUnavailable)

type Engine struct {
	valuer valuation.Provider
	log    *slog.Logger
	now    func() time.Time
}

type Option func(*Engine)

// WithValuationProvider enables provider-backed appraisals, trends and
// comparables. Without one, appraisals use the heuristic estimate.
func WithValuationProvider(p valuation.Provider) Option { return func(e *Engine) { e.valuer = p } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

func validateVehicle(year int, brand string, currentYear int) error {
	if strings.TrimSpace(brand) == "" {
		return errs.Validation("make is required")
	}
	if year < 1900 || year > currentYear+1 {
		return errs.Validation("year %d is out of range", year)
	}
	return nil
}

// Appraise prices a vehicle. Only vehicle collateral is supported. A provider
// failure falls back to the heuristic estimate and is reported in Status.
func (e *Engine) Appraise(ctx context.Context, in AppraisalInput) (*Appraisal, error) {
	typ, err := collateral.ParseType(in.CollateralType)
	if err != nil {
		return nil, err
	}
	if typ != collateral.TypeVehicle {
		return nil, errs.Validation("only vehicle collateral can be appraised, got %s", typ)
	}
	now := e.now().UTC()
	if err := validateVehicle(in.Year, in.Make, now.Year()); err != nil {
		return nil, err
	}

	out := &Appraisal{
		CollateralID:  in.CollateralID,
		VIN:           in.VIN,
		Year:          in.Year,
		Make:          in.Make,
		Model:         in.Model,
		Condition:     in.Condition,
		Currency:      "USD",
		AppraisalDate: now,
	}

	var provided *valuation.Appraisal
	if e.valuer != nil {
		provided, err = e.valuer.Appraise(ctx, valuation.AppraisalRequest{
			CollateralID: in.CollateralID,
			Type:         string(collateral.TypeVehicle),
			Location:     in.ZipCode,
			Description:  describe(in),
		})
		if err != nil {
			e.log.WarnContext(ctx, "vehicle appraisal fell back to estimate",
				slog.String("collateral_id", in.CollateralID), slog.Any("error", err))
			provided = nil
		} else if !provided.EstimatedValue.IsPositive() {
			provided = nil
		}
	}

	if provided != nil {
		out.Status = AppraisalCompleted
		out.MarketValue = provided.EstimatedValue
		if provided.Currency != "" {
			out.Currency = provided.Currency
		}
		if !provided.ValuationDate.IsZero() {
			out.AppraisalDate = provided.ValuationDate.UTC()
		}
		out.Message = "vehicle appraisal completed"
	} else {
		providerFallbacks.WithLabelValues("appraise").Inc()
		out.Status = AppraisalEstimated
		out.MarketValue = valuation.EstimateMarketValue(in.Year, in.Make, in.Model, now.Year())
		out.Message = "valuation provider unavailable; value estimated from make and year"
	}

	out.LoanValue = valuation.LoanValue(out.MarketValue)
	out.DepreciationRate = valuation.MonthlyDepreciationRate(in.Year, in.Make, now.Year())
	out.EstimatedMonthlyDepreciation = out.MarketValue.Mul(out.DepreciationRate).Round(2)

	e.log.InfoContext(ctx, "vehicle appraised",
		slog.String("collateral_id", in.CollateralID),
		slog.String("status", string(out.Status)),
		slog.String("market_value", out.MarketValue.String()),
	)
	return out, nil
}

func describe(in AppraisalInput) string {
	parts := []string{fmt.Sprintf("%d %s %s", in.Year, in.Make, in.Model)}
	if in.Trim != "" {
		parts[0] += " " + in.Trim
	}
	if in.VIN != "" {
		parts = append(parts, "VIN: "+in.VIN)
	}
	parts = append(parts, fmt.Sprintf("Mileage: %d", in.Mileage))
	return strings.Join(parts, ", ")
}

// MarketAnalysis classifies demand and season locally and enriches the
// result with the provider's market trend when it answers.
func (e *Engine) MarketAnalysis(ctx context.Context, in MarketAnalysisInput) (*MarketAnalysis, error) {
	if strings.TrimSpace(in.Make) == "" {
		return nil, errs.Validation("make is required")
	}
	now := e.now().UTC()
	demand := valuation.DemandLevelFor(in.Make)
	out := &MarketAnalysis{
		Make:                in.Make,
		Model:               in.Model,
		Year:                in.Year,
		ZipCode:             in.ZipCode,
		DemandLevel:         demand,
		AverageDaysOnMarket: valuation.AverageDaysOnMarket(demand),
		SeasonalTrend:       valuation.SeasonFor(now.Month()),
		AnalysisDate:        now,
	}

	trend, err := e.trend(ctx, in.ZipCode)
	if err != nil {
		providerFallbacks.WithLabelValues("market_analysis").Inc()
		e.log.WarnContext(ctx, "market trend unavailable",
			slog.String("make", in.Make), slog.Any("error", err))
		out.Status = StatusUnavailable
		out.Message = "market trend data unavailable"
		return out, nil
	}
	avg, change := trend.AverageValue, trend.PriceChange
	out.AverageMarketValue = &avg
	out.PriceChangePercent = &change
	out.Status = StatusSuccess
	out.Message = "vehicle market analysis completed"
	return out, nil
}

func (e *Engine) trend(ctx context.Context, location string) (*valuation.MarketTrend, error) {
	if e.valuer == nil {
		return nil, errNoProvider
	}
	return e.valuer.MarketTrends(ctx, string(collateral.TypeVehicle), location)
}

// ComparableSales asks the provider for recent sales near the heuristic
// estimate and summarizes their prices.
func (e *Engine) ComparableSales(ctx context.Context, in ComparableInput) (*ComparableSales, error) {
	now := e.now().UTC()
	if err := validateVehicle(in.Year, in.Make, now.Year()); err != nil {
		return nil, err
	}
	if e.valuer == nil {
		return nil, errNoProvider
	}
	estimate := valuation.EstimateMarketValue(in.Year, in.Make, in.Model, now.Year())
	comps, err := e.valuer.Comparables(ctx, valuation.ComparableQuery{
		CollateralID:   in.CollateralID,
		Type:           string(collateral.TypeVehicle),
		Location:       in.ZipCode,
		EstimatedValue: estimate,
	})
	if err != nil {
		return nil, errs.Unavailable("comparable sales", err)
	}

	out := &ComparableSales{
		CollateralID:   in.CollateralID,
		Status:         StatusSuccess,
		EstimatedValue: estimate,
		Comparables:    make([]Comparable, 0, len(comps)),
	}
	sum := decimal.Zero
	for i, c := range comps {
		comp := Comparable{
			VIN:             c.ID,
			SalePrice:       c.Value,
			Location:        c.Location,
			SimilarityScore: c.Similarity,
		}
		if !c.SaleDate.IsZero() {
			sold := c.SaleDate.UTC()
			comp.SaleDate = &sold
		}
		out.Comparables = append(out.Comparables, comp)
		sum = sum.Add(c.Value)
		if i == 0 || c.Value.GreaterThan(out.PriceRangeHigh) {
			out.PriceRangeHigh = c.Value
		}
		if i == 0 || c.Value.LessThan(out.PriceRangeLow) {
			out.PriceRangeLow = c.Value
		}
	}
	if len(comps) > 0 {
		out.AverageComparablePrice = sum.DivRound(decimal.NewFromInt(int64(len(comps))), 2)
	}
	return out, nil
}

func (e *Engine) CalculateLTV(ctx context.Context, in LTVInput) (*LTVResult, error) {
	if in.LoanAmount.IsNegative() {
		return nil, errs.Validation("loan amount must not be negative")
	}
	ratio, err := valuation.LTVRatio(in.LoanAmount, in.VehicleValue)
	if err != nil {
		return nil, err
	}
	out := &LTVResult{
		CollateralID:       in.CollateralID,
		LoanAmount:         in.LoanAmount,
		VehicleValue:       in.VehicleValue,
		LTVRatio:           ratio,
		LTVPercentage:      ratio.Mul(decimal.NewFromInt(100)),
		RiskAssessment:     valuation.RiskTierFor(ratio),
		Approved:           valuation.IsApproved(ratio),
		MaxRecommendedLoan: valuation.MaxRecommendedLoan(in.VehicleValue),
		CalculationDate:    e.now().UTC(),
	}
	e.log.InfoContext(ctx, "loan to value calculated",
		slog.String("collateral_id", in.CollateralID),
		slog.String("ltv_ratio", ratio.String()),
		slog.Bool("approved", out.Approved),
	)
	return out, nil
}

// ForecastDepreciation projects the vehicle's value month by month at the
// rate implied by its age and make.
func (e *Engine) ForecastDepreciation(ctx context.Context, in ForecastInput) (*Forecast, error) {
	now := e.now().UTC()
	if err := validateVehicle(in.Year, in.Make, now.Year()); err != nil {
		return nil, err
	}
	rate := valuation.MonthlyDepreciationRate(in.Year, in.Make, now.Year())
	schedule, err := valuation.DepreciationForecast(in.CurrentValue, in.ForecastMonths, rate)
	if err != nil {
		return nil, err
	}
	sum, err := valuation.Summarize(in.CurrentValue, schedule)
	if err != nil {
		return nil, err
	}
	e.log.DebugContext(ctx, "depreciation forecast built",
		slog.String("collateral_id", in.CollateralID),
		slog.Int("months", in.ForecastMonths),
		slog.String("rate", rate.String()),
	)
	return &Forecast{
		CollateralID:           in.CollateralID,
		CurrentValue:           in.CurrentValue,
		ProjectedValue:         sum.FinalValue,
		TotalDepreciation:      sum.TotalDepreciation,
		DepreciationPercentage: sum.DepreciationPercentage,
		MonthlyRate:            rate,
		ForecastMonths:         in.ForecastMonths,
		MonthlyForecast:        schedule,
		ForecastDate:           now,
	}, nil
}
