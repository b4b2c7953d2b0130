// Package reconcile keeps a collateral's derived values (encumbered value,
// available value, status) equal to what its encumbrances imply.
//
// Every ledger mutation runs through WithinCollateral: the collateral id is
// locked, a transaction is opened with the collateral row locked, the caller's
// mutation runs, and the derived fields are recomputed and saved before the
// transaction commits. Mutation and reconciliation therefore commit or roll
// back together, and writers on the same collateral are serialized while
// writers on different collaterals proceed independently.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/uow"
	"collateral-service/pkg/keylock"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("collateral-service/reconcile")

type Reconciler struct {
	uow     uow.UnitOfWork
	locks   *keylock.Map
	timeout time.Duration
	log     *slog.Logger
}

type Option func(*Reconciler)

// WithTimeout bounds each critical section, lock wait included. Zero means
// only the caller's context applies.
func WithTimeout(d time.Duration) Option { return func(r *Reconciler) { r.timeout = d } }

func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

func New(u uow.UnitOfWork, opts ...Option) *Reconciler {
	r := &Reconciler{uow: u, locks: keylock.New(), log: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Mutation changes the ledger for one collateral. c is the locked collateral;
// fn may modify its own fields (market value, descriptive data) and the
// reconciler saves them together with the derived values.
type Mutation func(r uow.Repos, c *collateral.Collateral) error

// WithinCollateral runs fn in the collateral's critical section and returns
// the reconciled collateral. Lookup failures come back as
// collateral.ErrNotFound; a lock wait or store call cut short by the deadline
// comes back as errs.ErrUnavailable and nothing is committed.
func (r *Reconciler) WithinCollateral(ctx context.Context, collateralID string, fn Mutation) (*collateral.Collateral, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "reconcile.WithinCollateral")
	span.SetAttributes(attribute.String("collateral.id", collateralID))
	defer span.End()

	out, err := r.run(ctx, collateralID, fn)
	if err != nil {
		reconciliations.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	reconciliations.WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.String("collateral.encumbered", out.EncumberedValue.String()),
		attribute.String("collateral.available", out.AvailableValue.String()),
	)
	return out, nil
}

// Reconcile recomputes the derived fields without any other change. It is
// idempotent for a given ledger state.
func (r *Reconciler) Reconcile(ctx context.Context, collateralID string) (*collateral.Collateral, error) {
	return r.WithinCollateral(ctx, collateralID, nil)
}

func (r *Reconciler) run(ctx context.Context, collateralID string, fn Mutation) (*collateral.Collateral, error) {
	start := time.Now()
	release, err := r.locks.Lock(ctx, collateralID)
	lockWait.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, errs.Unavailable("acquire collateral lock", err)
	}
	defer release()

	var out *collateral.Collateral
	err = r.uow.WithinCollateralTx(ctx, collateralID, func(repos uow.Repos, c *collateral.Collateral) error {
		if fn != nil {
			if err := fn(repos, c); err != nil {
				return err
			}
		}
		list, err := repos.Encumbrances.ListByCollateralID(ctx, collateralID)
		if err != nil {
			return err
		}
		total := encumbrance.SumContributing(list)
		if c.ApplyEncumbered(total) {
			overEncumbered.Inc()
			r.log.WarnContext(ctx, "collateral over-encumbered; available value clamped to zero",
				slog.String("collateral_id", collateralID),
				slog.String("market_value", c.MarketValue.String()),
				slog.String("encumbered_value", total.String()),
			)
		}
		if err := repos.Collaterals.Save(ctx, c); err != nil {
			return err
		}
		out = c.Clone()
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.Unavailable("reconcile collateral", err)
		}
		return nil, err
	}
	r.log.DebugContext(ctx, "collateral reconciled",
		slog.String("collateral_id", collateralID),
		slog.String("encumbered_value", out.EncumberedValue.String()),
		slog.String("available_value", out.AvailableValue.String()),
		slog.String("status", string(out.Status)),
	)
	return out, nil
}

// Remove deletes a collateral, every encumbrance against it and its
// valuation and title history inside the collateral's critical section, so
// no ledger write can land in between. It returns how many encumbrances were
// removed.
func (r *Reconciler) Remove(ctx context.Context, collateralID string) (int64, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "reconcile.Remove")
	span.SetAttributes(attribute.String("collateral.id", collateralID))
	defer span.End()

	release, err := r.locks.Lock(ctx, collateralID)
	if err != nil {
		return 0, errs.Unavailable("acquire collateral lock", err)
	}
	defer release()

	var n int64
	err = r.uow.WithinCollateralTx(ctx, collateralID, func(repos uow.Repos, _ *collateral.Collateral) error {
		var err error
		if n, err = repos.Encumbrances.DeleteByCollateralID(ctx, collateralID); err != nil {
			return err
		}
		if _, err := repos.Valuations.DeleteByCollateralID(ctx, collateralID); err != nil {
			return err
		}
		if _, err := repos.Titles.DeleteByCollateralID(ctx, collateralID); err != nil {
			return err
		}
		return repos.Collaterals.Delete(ctx, collateralID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, errs.Unavailable("remove collateral", err)
		}
		return 0, err
	}
	return n, nil
}
