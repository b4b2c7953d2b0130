// Package records keeps the valuation and title history of each collateral.
// Provider answers are recorded by the collateral usecase; this package
// serves the history and lets operators add or correct entries.
package records

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/uow"
	"collateral-service/internal/domain/valuation"
	"collateral-service/internal/usecase/reconcile"
)

type Usecase struct {
	rec        *reconcile.Reconciler
	valuations valuation.RecordRepository
	titles     title.RecordRepository
	log        *slog.Logger
	now        func() time.Time
}

type Option func(*Usecase)

func WithLogger(l *slog.Logger) Option {
	return func(u *Usecase) {
		if l != nil {
			u.log = l
		}
	}
}

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

// NewUsecase: the repositories serve the read paths. Writes run inside the
// owning collateral's critical section so they cannot race its removal.
func NewUsecase(rec *reconcile.Reconciler, valuations valuation.RecordRepository, titles title.RecordRepository, opts ...Option) *Usecase {
	u := &Usecase{rec: rec, valuations: valuations, titles: titles, log: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(u)
	}
	return u
}

// within runs fn against the collateral's repositories. An unknown
// collateral is reported as a validation error.
func (u *Usecase) within(ctx context.Context, collateralID string, fn func(r uow.Repos, c *collateral.Collateral) error) error {
	_, err := u.rec.WithinCollateral(ctx, collateralID, fn)
	if errors.Is(err, collateral.ErrNotFound) {
		return errs.Validation("unknown collateral %s", collateralID)
	}
	return err
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
