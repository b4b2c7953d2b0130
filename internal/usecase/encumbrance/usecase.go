package encumbrance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"collateral-service/internal/domain/collateral"
	domain "collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/uow"
	"collateral-service/internal/usecase/reconcile"
	"collateral-service/pkg/id"

	"github.com/shopspring/decimal"
)

const defaultSweepConcurrency = 8

type Usecase struct {
	rec   *reconcile.Reconciler
	repo  domain.Repository
	log   *slog.Logger
	now   func() time.Time
	sweep int
}

type Option func(*Usecase)

func WithLogger(l *slog.Logger) Option {
	return func(u *Usecase) {
		if l != nil {
			u.log = l
		}
	}
}

// WithClock replaces time.Now; tests pin it.
func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

// WithSweepConcurrency bounds how many collaterals ExpireAll processes at once.
func WithSweepConcurrency(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.sweep = n
		}
	}
}

// NewUsecase: repo serves the read paths, every write goes through rec.
func NewUsecase(rec *reconcile.Reconciler, repo domain.Repository, opts ...Option) *Usecase {
	u := &Usecase{rec: rec, repo: repo, log: slog.Default(), now: time.Now, sweep: defaultSweepConcurrency}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*Result, error) {
	if strings.TrimSpace(in.CollateralID) == "" {
		return nil, errs.Validation("collateral_id is required")
	}
	if !in.Amount.IsPositive() {
		return nil, errs.Validation("amount must be greater than zero")
	}
	typ, err := domain.ParseType(in.Type)
	if err != nil {
		return nil, err
	}
	status := domain.StatusActive
	if in.Status != "" {
		s, err := domain.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		if s != domain.StatusActive && s != domain.StatusPending {
			return nil, errs.Validation("an encumbrance is created ACTIVE or PENDING, not %s", s)
		}
		status = s
	}
	now := u.now().UTC()
	effective := now
	if in.EffectiveDate != nil {
		effective = in.EffectiveDate.UTC()
	}
	var expiry *time.Time
	if in.ExpiryDate != nil {
		t := in.ExpiryDate.UTC()
		if !t.After(effective) {
			return nil, errs.Validation("expiry_date must be after effective_date")
		}
		expiry = &t
	}

	e := &domain.Encumbrance{
		EncumbranceID:  id.NewEncumbranceID(),
		CollateralID:   in.CollateralID,
		LoanID:         in.LoanID,
		CustomerID:     in.CustomerID,
		Amount:         in.Amount,
		Currency:       strings.ToUpper(in.Currency),
		Type:           typ,
		Status:         status,
		Priority:       in.Priority,
		EffectiveDate:  effective,
		ExpiryDate:     expiry,
		Description:    in.Description,
		LegalReference: in.LegalReference,
		Notes:          in.Notes,
		CreatedBy:      in.CreatedBy,
		UpdatedBy:      in.CreatedBy,
	}

	c, err := u.rec.WithinCollateral(ctx, in.CollateralID, func(r uow.Repos, c *collateral.Collateral) error {
		if e.CustomerID == "" {
			e.CustomerID = c.CustomerID
		}
		if e.Currency == "" {
			e.Currency = c.Currency
		}
		return r.Encumbrances.Create(ctx, e)
	})
	if errors.Is(err, collateral.ErrNotFound) {
		return nil, errs.Validation("unknown collateral %s", in.CollateralID)
	}
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "encumbrance created",
		slog.String("encumbrance_id", e.EncumbranceID),
		slog.String("collateral_id", e.CollateralID),
		slog.String("amount", e.Amount.String()),
		slog.String("status", string(e.Status)),
	)
	return &Result{Encumbrance: e, Collateral: c}, nil
}

// mutate locates the encumbrance, then reloads it inside its collateral's
// critical section and hands it to fn. fn returning errUnchanged commits
// nothing but still reports success.
func (u *Usecase) mutate(ctx context.Context, encumbranceID string, fn func(r uow.Repos, e *domain.Encumbrance) error) (*Result, error) {
	found, err := u.repo.GetByEncumbranceID(ctx, encumbranceID)
	if err != nil {
		return nil, err
	}
	var (
		out       *domain.Encumbrance
		unchanged bool
	)
	c, err := u.rec.WithinCollateral(ctx, found.CollateralID, func(r uow.Repos, _ *collateral.Collateral) error {
		e, err := r.Encumbrances.GetByEncumbranceID(ctx, encumbranceID)
		if err != nil {
			return err
		}
		if err := fn(r, e); err != nil {
			if errors.Is(err, errUnchanged) {
				unchanged = true
				out = e
				return nil
			}
			return err
		}
		out = e
		return r.Encumbrances.Save(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Encumbrance: out, Collateral: c, Unchanged: unchanged}, nil
}

var errUnchanged = errors.New("unchanged")

func (u *Usecase) Release(ctx context.Context, encumbranceID, releasedBy string) (*Result, error) {
	res, err := u.mutate(ctx, encumbranceID, func(_ uow.Repos, e *domain.Encumbrance) error {
		return u.release(e, releasedBy)
	})
	if err != nil {
		return nil, err
	}
	if !res.Unchanged {
		u.log.InfoContext(ctx, "encumbrance released",
			slog.String("encumbrance_id", encumbranceID),
			slog.String("collateral_id", res.Encumbrance.CollateralID),
			slog.String("released_by", releasedBy),
		)
	}
	return res, nil
}

func (u *Usecase) release(e *domain.Encumbrance, by string) error {
	switch {
	case e.Status == domain.StatusReleased:
		return errUnchanged
	case e.Status.Terminal():
		return domain.ErrTerminal
	case !e.Status.Contributing():
		return errs.Conflict("cannot release an encumbrance in status %s", e.Status)
	}
	e.Status = domain.StatusReleased
	e.UpdatedBy = by
	return nil
}

// PartialRelease lowers the amount by releaseAmount. Releasing the whole
// remaining amount or more is a full release.
func (u *Usecase) PartialRelease(ctx context.Context, encumbranceID string, releaseAmount decimal.Decimal, releasedBy string) (*Result, error) {
	if !releaseAmount.IsPositive() {
		return nil, errs.Validation("release amount must be greater than zero")
	}
	res, err := u.mutate(ctx, encumbranceID, func(_ uow.Repos, e *domain.Encumbrance) error {
		if !e.Status.Contributing() {
			if e.Status.Terminal() {
				return domain.ErrTerminal
			}
			return errs.Conflict("cannot partially release an encumbrance in status %s", e.Status)
		}
		if releaseAmount.GreaterThanOrEqual(e.Amount) {
			return u.release(e, releasedBy)
		}
		e.Amount = e.Amount.Sub(releaseAmount)
		e.Status = domain.StatusPartiallyReleased
		e.UpdatedBy = releasedBy
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "encumbrance partially released",
		slog.String("encumbrance_id", encumbranceID),
		slog.String("release_amount", releaseAmount.String()),
		slog.String("remaining", res.Encumbrance.Amount.String()),
		slog.String("status", string(res.Encumbrance.Status)),
	)
	return res, nil
}

func (u *Usecase) Update(ctx context.Context, encumbranceID string, in UpdateInput) (*Result, error) {
	return u.mutate(ctx, encumbranceID, func(_ uow.Repos, e *domain.Encumbrance) error {
		if e.Status.Terminal() {
			return domain.ErrTerminal
		}
		if in.Amount != nil {
			if !in.Amount.IsPositive() {
				return errs.Validation("amount must be greater than zero")
			}
			if in.Amount.GreaterThan(e.Amount) {
				return errs.Validation("amount may not increase (current %s)", e.Amount)
			}
			e.Amount = *in.Amount
		}
		if in.Status != nil {
			to, err := domain.ParseStatus(*in.Status)
			if err != nil {
				return err
			}
			if !domain.CanTransition(e.Status, to) {
				return errs.Conflict("transition %s -> %s is not allowed", e.Status, to)
			}
			e.Status = to
		}
		if in.Type != nil {
			t, err := domain.ParseType(*in.Type)
			if err != nil {
				return err
			}
			e.Type = t
		}
		if in.Currency != nil {
			e.Currency = strings.ToUpper(*in.Currency)
		}
		if in.Priority != nil {
			e.Priority = *in.Priority
		}
		if in.EffectiveDate != nil {
			e.EffectiveDate = in.EffectiveDate.UTC()
		}
		if in.ExpiryDate != nil {
			t := in.ExpiryDate.UTC()
			e.ExpiryDate = &t
		}
		if e.ExpiryDate != nil && !e.ExpiryDate.After(e.EffectiveDate) {
			return errs.Validation("expiry_date must be after effective_date")
		}
		if in.Description != nil {
			e.Description = *in.Description
		}
		if in.LegalReference != nil {
			e.LegalReference = *in.LegalReference
		}
		if in.Notes != nil {
			e.Notes = *in.Notes
		}
		if in.UpdatedBy != "" {
			e.UpdatedBy = in.UpdatedBy
		}
		return nil
	})
}

// Delete removes the record whatever its status and reconciles the owner.
func (u *Usecase) Delete(ctx context.Context, encumbranceID string) (*Result, error) {
	found, err := u.repo.GetByEncumbranceID(ctx, encumbranceID)
	if err != nil {
		return nil, err
	}
	c, err := u.rec.WithinCollateral(ctx, found.CollateralID, func(r uow.Repos, _ *collateral.Collateral) error {
		return r.Encumbrances.Delete(ctx, encumbranceID)
	})
	if err != nil {
		return nil, err
	}
	u.log.InfoContext(ctx, "encumbrance deleted",
		slog.String("encumbrance_id", encumbranceID),
		slog.String("collateral_id", found.CollateralID),
		slog.String("status", string(found.Status)),
	)
	return &Result{Collateral: c}, nil
}
