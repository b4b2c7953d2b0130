package collateral

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domain "collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/uow"
	"collateral-service/internal/domain/valuation"
	"collateral-service/pkg/id"
)

const (
	actorTitleRegistry = "title-registry"
	actorAutoValuation = "auto-valuation"
	actorRevaluation   = "revaluation"
)

// VerifyTitle asks the title registry about the collateral's legal
// description and records the answer in the title history. The collateral
// itself is not changed. A failed call is recorded as VERIFICATION_FAILED.
func (u *Usecase) VerifyTitle(ctx context.Context, collateralID string) (*title.Record, error) {
	c, err := u.repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return nil, err
	}
	if u.titles == nil {
		return nil, errNoProvider
	}
	now := u.now().UTC()
	rec := &title.Record{
		TitleID:          id.NewTitleID(),
		CollateralID:     collateralID,
		LegalDescription: c.LegalDescription,
		VerificationDate: &now,
		CreatedBy:        actorTitleRegistry,
		UpdatedBy:        actorTitleRegistry,
	}
	v, err := u.titles.Verify(ctx, collateralID, c.LegalDescription)
	if err != nil {
		u.log.WarnContext(ctx, "title verification failed",
			slog.String("collateral_id", collateralID), slog.Any("error", err))
		rec.Status = title.StatusVerificationFailed
		rec.Message = err.Error()
		u.recordTitle(ctx, rec)
		return nil, err
	}
	rec.Status = v.Status
	rec.TitleNumber = v.TitleNumber
	rec.CurrentOwner = v.RegisteredOwner
	rec.Valid = v.Valid
	rec.Message = v.Message
	if err := u.recordTitle(ctx, rec); err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "title verification completed",
		slog.String("collateral_id", collateralID),
		slog.String("title_id", rec.TitleID),
		slog.String("status", string(rec.Status)),
	)
	return rec, nil
}

// recordTitle appends rec to the title history. An owner differing from the
// last known one becomes the previous owner.
func (u *Usecase) recordTitle(ctx context.Context, rec *title.Record) error {
	_, err := u.rec.WithinCollateral(ctx, rec.CollateralID, func(r uow.Repos, _ *domain.Collateral) error {
		prior, err := r.Titles.Find(ctx, title.RecordFilter{CollateralID: rec.CollateralID})
		if err != nil {
			return err
		}
		for _, p := range prior {
			if p.CurrentOwner == "" {
				continue
			}
			if p.CurrentOwner != rec.CurrentOwner && rec.CurrentOwner != "" {
				rec.PreviousOwner = p.CurrentOwner
			}
			break
		}
		return r.Titles.Create(ctx, rec)
	})
	if err != nil {
		u.log.ErrorContext(ctx, "title record not written",
			slog.String("collateral_id", rec.CollateralID), slog.Any("error", err))
	}
	return err
}

// RequestAutoValuation appraises the collateral and applies the value. The
// provider is called outside the collateral's critical section; only the
// write is serialized. Every answer, including a failure, is recorded in the
// valuation history.
func (u *Usecase) RequestAutoValuation(ctx context.Context, collateralID string) (*domain.Collateral, *valuation.Record, error) {
	c, err := u.repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return nil, nil, err
	}
	if u.valuer == nil {
		return nil, nil, errNoProvider
	}
	rec := u.newValuationRecord(c, valuation.SourceAutoValuation, actorAutoValuation)
	a, err := u.valuer.Appraise(ctx, valuation.AppraisalRequest{
		CollateralID: collateralID,
		Type:         string(c.Type),
		Location:     c.Location,
		Description:  c.Description,
	})
	if err != nil {
		u.log.WarnContext(ctx, "auto valuation failed",
			slog.String("collateral_id", collateralID), slog.Any("error", err))
		u.recordValuationFailure(ctx, rec, err)
		return nil, nil, err
	}
	rec.EstimatedValue = a.EstimatedValue
	rec.LowRange = a.LowRange
	rec.HighRange = a.HighRange
	if a.Currency != "" {
		rec.Currency = strings.ToUpper(a.Currency)
	}
	rec.Methodology = a.Methodology
	rec.Confidence = a.Confidence
	if !a.ValuationDate.IsZero() {
		at := a.ValuationDate.UTC()
		rec.ValuationDate = &at
	}
	updated, err := u.applyValue(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	return updated, rec, nil
}

func (u *Usecase) RequestRevaluation(ctx context.Context, collateralID, reason string) (*domain.Collateral, *valuation.Record, error) {
	c, err := u.repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return nil, nil, err
	}
	if u.valuer == nil {
		return nil, nil, errNoProvider
	}
	rec := u.newValuationRecord(c, valuation.SourceRevaluation, actorRevaluation)
	rec.Reason = reason
	rv, err := u.valuer.Revalue(ctx, collateralID, reason)
	if err != nil {
		u.log.WarnContext(ctx, "revaluation failed",
			slog.String("collateral_id", collateralID), slog.Any("error", err))
		u.recordValuationFailure(ctx, rec, err)
		return nil, nil, err
	}
	rec.EstimatedValue = rv.NewValue
	rec.ChangePercentage = rv.ChangePercentage
	if rv.Currency != "" {
		rec.Currency = strings.ToUpper(rv.Currency)
	}
	if !rv.RevaluationDate.IsZero() {
		at := rv.RevaluationDate.UTC()
		rec.ValuationDate = &at
	}
	updated, err := u.applyValue(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	return updated, rec, nil
}

func (u *Usecase) newValuationRecord(c *domain.Collateral, src valuation.Source, actor string) *valuation.Record {
	return &valuation.Record{
		ValuationID:  id.NewValuationID(),
		CollateralID: c.CollateralID,
		Source:       src,
		Type:         string(c.Type),
		Location:     c.Location,
		Description:  c.Description,
		Currency:     c.Currency,
		RequestDate:  u.now().UTC(),
		CreatedBy:    actor,
		UpdatedBy:    actor,
	}
}

// recordValuationFailure writes a history entry for a provider call that
// produced no value. The original error is what the caller sees, so a
// failing write is only logged.
func (u *Usecase) recordValuationFailure(ctx context.Context, rec *valuation.Record, cause error) {
	rec.Status = valuation.RecordFailed
	var ie *valuation.IncompleteError
	if errors.As(cause, &ie) {
		if s, err := valuation.ParseRecordStatus(string(ie.Status)); err == nil {
			rec.Status = s
		}
	}
	rec.Message = cause.Error()
	_, err := u.rec.WithinCollateral(ctx, rec.CollateralID, func(r uow.Repos, c *domain.Collateral) error {
		rec.PreviousValue = c.MarketValue
		return r.Valuations.Create(ctx, rec)
	})
	if err != nil {
		u.log.ErrorContext(ctx, "valuation record not written",
			slog.String("collateral_id", rec.CollateralID), slog.Any("error", err))
	}
}

// applyValue sets the market and estimated value from rec and appends rec to
// the history in the same critical section.
func (u *Usecase) applyValue(ctx context.Context, rec *valuation.Record) (*domain.Collateral, error) {
	if rec.EstimatedValue.IsNegative() {
		return nil, errs.Validation("valuation must not be negative")
	}
	rec.Status = valuation.RecordCompleted
	if rec.ValuationDate == nil {
		at := u.now().UTC()
		rec.ValuationDate = &at
	}
	updated, err := u.rec.WithinCollateral(ctx, rec.CollateralID, func(r uow.Repos, c *domain.Collateral) error {
		rec.PreviousValue = c.MarketValue
		c.MarketValue = rec.EstimatedValue
		c.EstimatedValue = rec.EstimatedValue
		evaluated := *rec.ValuationDate
		c.EvaluationDate = &evaluated
		c.UpdatedBy = rec.CreatedBy
		return r.Valuations.Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "valuation applied",
		slog.String("collateral_id", rec.CollateralID),
		slog.String("valuation_id", rec.ValuationID),
		slog.String("source", string(rec.Source)),
		slog.String("market_value", rec.EstimatedValue.String()),
	)
	return updated, nil
}

// MarketTrends never fails on a provider error; it returns an UNAVAILABLE
// marker instead. An unknown collateral is still an error.
func (u *Usecase) MarketTrends(ctx context.Context, collateralID string) (*MarketTrendReport, error) {
	c, err := u.repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return nil, err
	}
	rep := &MarketTrendReport{CollateralID: collateralID, Type: string(c.Type), Location: c.Location}
	if u.valuer == nil {
		rep.Status, rep.Message = TrendUnavailable, "market trends service unavailable"
		return rep, nil
	}
	tr, err := u.valuer.MarketTrends(ctx, string(c.Type), c.Location)
	if err != nil {
		u.log.WarnContext(ctx, "market trends unavailable",
			slog.String("collateral_id", collateralID), slog.Any("error", err))
		rep.Status, rep.Message = TrendUnavailable, "market trends service unavailable"
		return rep, nil
	}
	rep.Status = TrendAvailable
	rep.AverageValue = tr.AverageValue
	rep.PriceChange = tr.PriceChange
	rep.TrendDirection = tr.TrendDirection
	if !tr.AnalysisDate.IsZero() {
		at := tr.AnalysisDate.UTC()
		rep.AnalysisDate = &at
	}
	return rep, nil
}

// ComparableProperties asks the valuation provider for recent sales similar
// to the collateral.
func (u *Usecase) ComparableProperties(ctx context.Context, collateralID string) (*ComparableReport, error) {
	c, err := u.repo.GetByCollateralID(ctx, collateralID)
	if err != nil {
		return nil, err
	}
	if u.valuer == nil {
		return nil, errNoProvider
	}
	found, err := u.valuer.Comparables(ctx, valuation.ComparableQuery{
		CollateralID:   collateralID,
		Type:           string(c.Type),
		Location:       c.Location,
		EstimatedValue: c.EstimatedValue,
	})
	if err != nil {
		u.log.WarnContext(ctx, "comparables unavailable",
			slog.String("collateral_id", collateralID), slog.Any("error", err))
		return nil, err
	}
	rep := &ComparableReport{
		CollateralID: collateralID,
		Type:         string(c.Type),
		Location:     c.Location,
		Comparables:  make([]ComparableProperty, 0, len(found)),
	}
	for _, p := range found {
		cp := ComparableProperty{ID: p.ID, Location: p.Location, Value: p.Value, Similarity: p.Similarity}
		if !p.SaleDate.IsZero() {
			at := p.SaleDate.UTC()
			cp.SaleDate = &at
		}
		rep.Comparables = append(rep.Comparables, cp)
	}
	return rep, nil
}

// Ownership asks the registry who holds the collateral's title. An empty
// titleNumber falls back to the number of the latest recorded verification.
func (u *Usecase) Ownership(ctx context.Context, collateralID, titleNumber string) (*title.Ownership, error) {
	n, err := u.resolveTitleNumber(ctx, collateralID, titleNumber)
	if err != nil {
		return nil, err
	}
	o, err := u.titles.Ownership(ctx, collateralID, n)
	if err != nil {
		u.log.WarnContext(ctx, "ownership lookup failed",
			slog.String("collateral_id", collateralID), slog.Any("error", err))
		return nil, err
	}
	return o, nil
}

// SearchTitleEncumbrances lists claims the registry holds against the
// collateral's title. They are informational and never enter the ledger.
func (u *Usecase) SearchTitleEncumbrances(ctx context.Context, collateralID, titleNumber string) (*title.EncumbranceSearch, error) {
	n, err := u.resolveTitleNumber(ctx, collateralID, titleNumber)
	if err != nil {
		return nil, err
	}
	res, err := u.titles.SearchEncumbrances(ctx, collateralID, n)
	if err != nil {
		u.log.WarnContext(ctx, "title encumbrance search failed",
			slog.String("collateral_id", collateralID), slog.Any("error", err))
		return nil, err
	}
	if res.Encumbrances == nil {
		res.Encumbrances = []title.ExistingEncumbrance{}
	}
	return res, nil
}

func (u *Usecase) resolveTitleNumber(ctx context.Context, collateralID, titleNumber string) (string, error) {
	if _, err := u.repo.GetByCollateralID(ctx, collateralID); err != nil {
		return "", err
	}
	if u.titles == nil {
		return "", errNoProvider
	}
	if n := strings.TrimSpace(titleNumber); n != "" {
		return n, nil
	}
	if u.titleRecords != nil {
		recs, err := u.titleRecords.Find(ctx, title.RecordFilter{CollateralID: collateralID})
		if err != nil {
			return "", err
		}
		for _, r := range recs {
			if r.TitleNumber != "" {
				return r.TitleNumber, nil
			}
		}
	}
	return "", errs.Validation("title_number is required: collateral %s has no recorded title", collateralID)
}

// CreateWithValidation creates the collateral, then verifies its title (when
// a legal description is given) and requests an auto valuation. Only the
// create itself can fail the call; the later steps are reported.
func (u *Usecase) CreateWithValidation(ctx context.Context, in CreateInput) (*CreationReport, error) {
	c, err := u.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	rep := &CreationReport{Collateral: c}

	if c.LegalDescription != "" {
		rep.TitleChecked = true
		v, err := u.VerifyTitle(ctx, c.CollateralID)
		if err != nil {
			rep.TitleError = err.Error()
		} else {
			rep.Title = v
			rep.TitleVerified = v.Usable()
			next := domain.StatusUnderReview
			if rep.TitleVerified {
				next = domain.StatusApproved
			}
			updated, err := u.rec.WithinCollateral(ctx, c.CollateralID, func(_ uow.Repos, c *domain.Collateral) error {
				c.Status = next
				return nil
			})
			if err != nil {
				rep.TitleError = err.Error()
			} else {
				rep.Collateral = updated
			}
		}
	}

	updated, v, err := u.RequestAutoValuation(ctx, c.CollateralID)
	if err != nil {
		rep.ValuationError = err.Error()
	} else {
		rep.ValuationApplied = true
		rep.Valuation = v
		rep.Collateral = updated
	}

	u.log.InfoContext(ctx, "collateral created with validation",
		slog.String("collateral_id", c.CollateralID),
		slog.Bool("title_verified", rep.TitleVerified),
		slog.Bool("valuation_applied", rep.ValuationApplied),
	)
	return rep, nil
}
