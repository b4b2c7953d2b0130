package memory

import (
	"context"
	"sync"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/errs"
)

// undoLog records the inverse of every write made inside a unit of work so
// a failed fn can be rolled back.
type undoLog struct {
	mu    sync.Mutex
	steps []func()
}

func (l *undoLog) push(step func()) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.steps = append(l.steps, step)
	l.mu.Unlock()
}

func (l *undoLog) rollback() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.steps) - 1; i >= 0; i-- {
		l.steps[i]()
	}
	l.steps = nil
}

type CollateralRepository struct {
	s   *Store
	log *undoLog
}

func NewCollateralRepository(s *Store) *CollateralRepository { return &CollateralRepository{s: s} }

func (r *CollateralRepository) restore(id string, prev *collateral.Collateral) func() {
	return func() {
		if prev == nil {
			r.s.removeCollateral(id)
			return
		}
		r.s.putCollateral(prev)
	}
}

func (r *CollateralRepository) Create(ctx context.Context, c *collateral.Collateral) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	if r.s.getCollateral(c.CollateralID) != nil {
		return errs.Conflict("collateral %s already exists", c.CollateralID)
	}
	now := r.s.now()
	if c.ID == 0 {
		c.ID = r.s.nextID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	prev := r.s.putCollateral(c)
	r.log.push(r.restore(c.CollateralID, prev))
	return nil
}

func (r *CollateralRepository) GetByCollateralID(ctx context.Context, collateralID string) (*collateral.Collateral, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	c := r.s.getCollateral(collateralID)
	if c == nil {
		return nil, collateral.ErrNotFound
	}
	return c, nil
}

// GetByCollateralIDForUpdate relies on the caller's keyed lock; the memory
// store has no row locks.
func (r *CollateralRepository) GetByCollateralIDForUpdate(ctx context.Context, collateralID string) (*collateral.Collateral, error) {
	return r.GetByCollateralID(ctx, collateralID)
}

func (r *CollateralRepository) Save(ctx context.Context, c *collateral.Collateral) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	if c.ID == 0 {
		c.ID = r.s.nextID()
	}
	c.UpdatedAt = r.s.now()
	prev := r.s.putCollateral(c)
	r.log.push(r.restore(c.CollateralID, prev))
	return nil
}

func (r *CollateralRepository) Delete(ctx context.Context, collateralID string) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	prev := r.s.removeCollateral(collateralID)
	if prev == nil {
		return collateral.ErrNotFound
	}
	r.log.push(r.restore(collateralID, prev))
	return nil
}

func (r *CollateralRepository) Find(ctx context.Context, f collateral.Filter) ([]collateral.Collateral, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	return r.s.findCollaterals(f), nil
}

type EncumbranceRepository struct {
	s   *Store
	log *undoLog
}

func NewEncumbranceRepository(s *Store) *EncumbranceRepository {
	return &EncumbranceRepository{s: s}
}

func (r *EncumbranceRepository) restore(id string, prev *encumbrance.Encumbrance) func() {
	return func() {
		if prev == nil {
			r.s.removeEncumbrance(id)
			return
		}
		r.s.putEncumbrance(prev)
	}
}

func (r *EncumbranceRepository) Create(ctx context.Context, e *encumbrance.Encumbrance) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	if r.s.getEncumbrance(e.EncumbranceID) != nil {
		return errs.Conflict("encumbrance %s already exists", e.EncumbranceID)
	}
	now := r.s.now()
	if e.ID == 0 {
		e.ID = r.s.nextID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	prev := r.s.putEncumbrance(e)
	r.log.push(r.restore(e.EncumbranceID, prev))
	return nil
}

func (r *EncumbranceRepository) GetByEncumbranceID(ctx context.Context, encumbranceID string) (*encumbrance.Encumbrance, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	e := r.s.getEncumbrance(encumbranceID)
	if e == nil {
		return nil, encumbrance.ErrNotFound
	}
	return e, nil
}

func (r *EncumbranceRepository) Save(ctx context.Context, e *encumbrance.Encumbrance) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	if e.ID == 0 {
		e.ID = r.s.nextID()
	}
	e.UpdatedAt = r.s.now()
	prev := r.s.putEncumbrance(e)
	r.log.push(r.restore(e.EncumbranceID, prev))
	return nil
}

func (r *EncumbranceRepository) Delete(ctx context.Context, encumbranceID string) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	prev := r.s.removeEncumbrance(encumbranceID)
	if prev == nil {
		return encumbrance.ErrNotFound
	}
	r.log.push(r.restore(encumbranceID, prev))
	return nil
}

func (r *EncumbranceRepository) DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error) {
	if err := errs.FromContext(ctx); err != nil {
		return 0, err
	}
	var n int64
	for _, e := range r.s.listEncumbrances(collateralID) {
		if prev := r.s.removeEncumbrance(e.EncumbranceID); prev != nil {
			r.log.push(r.restore(e.EncumbranceID, prev))
			n++
		}
	}
	return n, nil
}

func (r *EncumbranceRepository) ListByCollateralID(ctx context.Context, collateralID string) ([]encumbrance.Encumbrance, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	return r.s.listEncumbrances(collateralID), nil
}

func (r *EncumbranceRepository) Find(ctx context.Context, f encumbrance.Filter) ([]encumbrance.Encumbrance, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	return r.s.findEncumbrances(f), nil
}
