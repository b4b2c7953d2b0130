package memory

import (
	"context"
	"sort"

	"collateral-service/internal/domain/errs"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/valuation"
)

// valuation record primitives

func (s *Store) getValuation(id string) *valuation.Record {
	s.recMu.RLock()
	defer s.recMu.RUnlock()
	return s.valuations[id].Clone()
}

func (s *Store) putValuation(r *valuation.Record) *valuation.Record {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	prev := s.valuations[r.ValuationID]
	s.valuations[r.ValuationID] = r.Clone()
	return prev
}

func (s *Store) removeValuation(id string) *valuation.Record {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	prev := s.valuations[id]
	delete(s.valuations, id)
	return prev
}

func (s *Store) findValuations(f valuation.RecordFilter) []valuation.Record {
	s.recMu.RLock()
	out := make([]valuation.Record, 0)
	for _, r := range s.valuations {
		if f.Match(r) {
			out = append(out, *r.Clone())
		}
	}
	s.recMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return valuation.Newer(&out[i], &out[j]) })
	return out
}

// title record primitives

func (s *Store) getTitle(id string) *title.Record {
	s.recMu.RLock()
	defer s.recMu.RUnlock()
	return s.titles[id].Clone()
}

func (s *Store) putTitle(r *title.Record) *title.Record {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	prev := s.titles[r.TitleID]
	s.titles[r.TitleID] = r.Clone()
	return prev
}

func (s *Store) removeTitle(id string) *title.Record {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	prev := s.titles[id]
	delete(s.titles, id)
	return prev
}

func (s *Store) findTitles(f title.RecordFilter) []title.Record {
	s.recMu.RLock()
	out := make([]title.Record, 0)
	for _, r := range s.titles {
		if f.Match(r) {
			out = append(out, *r.Clone())
		}
	}
	s.recMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return title.Newer(&out[i], &out[j]) })
	return out
}

type ValuationRecordRepository struct {
	s   *Store
	log *undoLog
}

func NewValuationRecordRepository(s *Store) *ValuationRecordRepository {
	return &ValuationRecordRepository{s: s}
}

func (r *ValuationRecordRepository) restore(id string, prev *valuation.Record) func() {
	return func() {
		if prev == nil {
			r.s.removeValuation(id)
			return
		}
		r.s.putValuation(prev)
	}
}

func (r *ValuationRecordRepository) Create(ctx context.Context, v *valuation.Record) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	if r.s.getValuation(v.ValuationID) != nil {
		return errs.Conflict("valuation %s already exists", v.ValuationID)
	}
	now := r.s.now()
	if v.ID == 0 {
		v.ID = r.s.nextID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	prev := r.s.putValuation(v)
	r.log.push(r.restore(v.ValuationID, prev))
	return nil
}

func (r *ValuationRecordRepository) GetByValuationID(ctx context.Context, valuationID string) (*valuation.Record, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	v := r.s.getValuation(valuationID)
	if v == nil {
		return nil, valuation.ErrRecordNotFound
	}
	return v, nil
}

func (r *ValuationRecordRepository) Save(ctx context.Context, v *valuation.Record) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	if v.ID == 0 {
		v.ID = r.s.nextID()
	}
	v.UpdatedAt = r.s.now()
	prev := r.s.putValuation(v)
	r.log.push(r.restore(v.ValuationID, prev))
	return nil
}

func (r *ValuationRecordRepository) Delete(ctx context.Context, valuationID string) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	prev := r.s.removeValuation(valuationID)
	if prev == nil {
		return valuation.ErrRecordNotFound
	}
	r.log.push(r.restore(valuationID, prev))
	return nil
}

func (r *ValuationRecordRepository) DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error) {
	if err := errs.FromContext(ctx); err != nil {
		return 0, err
	}
	var n int64
	for _, v := range r.s.findValuations(valuation.RecordFilter{CollateralID: collateralID}) {
		if prev := r.s.removeValuation(v.ValuationID); prev != nil {
			r.log.push(r.restore(v.ValuationID, prev))
			n++
		}
	}
	return n, nil
}

func (r *ValuationRecordRepository) Find(ctx context.Context, f valuation.RecordFilter) ([]valuation.Record, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	return r.s.findValuations(f), nil
}

type TitleRecordRepository struct {
	s   *Store
	log *undoLog
}

func NewTitleRecordRepository(s *Store) *TitleRecordRepository {
	return &TitleRecordRepository{s: s}
}

func (r *TitleRecordRepository) restore(id string, prev *title.Record) func() {
	return func() {
		if prev == nil {
			r.s.removeTitle(id)
			return
		}
		r.s.putTitle(prev)
	}
}

func (r *TitleRecordRepository) Create(ctx context.Context, t *title.Record) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	if r.s.getTitle(t.TitleID) != nil {
		return errs.Conflict("title record %s already exists", t.TitleID)
	}
	now := r.s.now()
	if t.ID == 0 {
		t.ID = r.s.nextID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	prev := r.s.putTitle(t)
	r.log.push(r.restore(t.TitleID, prev))
	return nil
}

func (r *TitleRecordRepository) GetByTitleID(ctx context.Context, titleID string) (*title.Record, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	t := r.s.getTitle(titleID)
	if t == nil {
		return nil, title.ErrRecordNotFound
	}
	return t, nil
}

func (r *TitleRecordRepository) Save(ctx context.Context, t *title.Record) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	if t.ID == 0 {
		t.ID = r.s.nextID()
	}
	t.UpdatedAt = r.s.now()
	prev := r.s.putTitle(t)
	r.log.push(r.restore(t.TitleID, prev))
	return nil
}

func (r *TitleRecordRepository) Delete(ctx context.Context, titleID string) error {
	if err := errs.FromContext(ctx); err != nil {
		return err
	}
	prev := r.s.removeTitle(titleID)
	if prev == nil {
		return title.ErrRecordNotFound
	}
	r.log.push(r.restore(titleID, prev))
	return nil
}

func (r *TitleRecordRepository) DeleteByCollateralID(ctx context.Context, collateralID string) (int64, error) {
	if err := errs.FromContext(ctx); err != nil {
		return 0, err
	}
	var n int64
	for _, t := range r.s.findTitles(title.RecordFilter{CollateralID: collateralID}) {
		if prev := r.s.removeTitle(t.TitleID); prev != nil {
			r.log.push(r.restore(t.TitleID, prev))
			n++
		}
	}
	return n, nil
}

func (r *TitleRecordRepository) Find(ctx context.Context, f title.RecordFilter) ([]title.Record, error) {
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}
	return r.s.findTitles(f), nil
}
