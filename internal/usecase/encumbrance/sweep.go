package encumbrance

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"collateral-service/internal/domain/collateral"
	domain "collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/uow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	sweepExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "collateral",
		Subsystem: "encumbrance",
		Name:      "expired_total",
		Help:      "Encumbrances moved to EXPIRED by the sweep",
	})
	sweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "collateral",
		Subsystem: "encumbrance",
		Name:      "sweep_failures_total",
		Help:      "Collaterals the expiry sweep could not reconcile",
	})
)

// ExpireAll moves every ACTIVE encumbrance with expiry before asOf to EXPIRED
// and reconciles each affected collateral in its own critical section. A
// collateral that fails is reported in the result and does not stop the
// others; only failing to list the candidates is returned as an error.
func (u *Usecase) ExpireAll(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	asOf = asOf.UTC()
	candidates, err := u.expiredAsOf(ctx, asOf)
	if err != nil {
		return nil, err
	}

	byCollateral := make(map[string][]string)
	for _, e := range candidates {
		byCollateral[e.CollateralID] = append(byCollateral[e.CollateralID], e.EncumbranceID)
	}
	ids := make([]string, 0, len(byCollateral))
	for cid := range byCollateral {
		ids = append(ids, cid)
	}
	sort.Strings(ids)

	res := &SweepResult{AsOf: asOf, Collaterals: len(ids)}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(u.sweep)
	for _, cid := range ids {
		g.Go(func() error {
			n, err := u.expireCollateral(ctx, cid, byCollateral[cid], asOf)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sweepFailures.Inc()
				res.Failures = append(res.Failures, SweepFailure{CollateralID: cid, Error: err.Error()})
				u.log.ErrorContext(ctx, "expiry sweep failed for collateral",
					slog.String("collateral_id", cid), slog.Any("error", err))
				return nil
			}
			res.Expired += n
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].CollateralID < res.Failures[j].CollateralID })
	sweepExpired.Add(float64(res.Expired))
	u.log.InfoContext(ctx, "expiry sweep completed",
		slog.Time("as_of", asOf),
		slog.Int("expired", res.Expired),
		slog.Int("collaterals", res.Collaterals),
		slog.Int("failures", len(res.Failures)),
	)
	return res, nil
}

// expireCollateral re-checks each candidate under the lock, since a
// concurrent release may have won the race.
func (u *Usecase) expireCollateral(ctx context.Context, collateralID string, encumbranceIDs []string, asOf time.Time) (int, error) {
	n := 0
	_, err := u.rec.WithinCollateral(ctx, collateralID, func(r uow.Repos, _ *collateral.Collateral) error {
		n = 0
		for _, eid := range encumbranceIDs {
			e, err := r.Encumbrances.GetByEncumbranceID(ctx, eid)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
			if !e.ExpiredAt(asOf) {
				continue
			}
			e.Status = domain.StatusExpired
			e.UpdatedBy = "system"
			if err := r.Encumbrances.Save(ctx, e); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// RunExpirySweeper calls ExpireAll every interval until ctx is done. A
// systemic failure is logged and retried on the next tick.
func (u *Usecase) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := u.ExpireAll(ctx, u.now()); err != nil && !errors.Is(err, context.Canceled) {
				u.log.ErrorContext(ctx, "expiry sweep failed", slog.Any("error", err))
			}
		}
	}
}
