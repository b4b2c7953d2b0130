// Package memory is an in-process store for collateral and encumbrances. Data
// is sharded by collateral id so writers on different collaterals never
// contend on the same lock. Every value is cloned on the way in and out.
package memory

import (
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"collateral-service/internal/domain/collateral"
	"collateral-service/internal/domain/encumbrance"
	"collateral-service/internal/domain/title"
	"collateral-service/internal/domain/valuation"
)

const defaultShards = 32

type shard struct {
	mu           sync.RWMutex
	collaterals  map[string]*collateral.Collateral
	encumbrances map[string]map[string]*encumbrance.Encumbrance // collateral id -> encumbrance id
}

type Store struct {
	shards []*shard
	seq    atomic.Uint64
	now    func() time.Time

	idxMu sync.RWMutex
	index map[string]string // encumbrance id -> collateral id

	// valuation and title history is low-volume; one lock covers both
	recMu      sync.RWMutex
	valuations map[string]*valuation.Record
	titles     map[string]*title.Record
}

func NewStore() *Store { return NewStoreWithShards(defaultShards) }

func NewStoreWithShards(n int) *Store {
	if n <= 0 {
		n = 1
	}
	s := &Store{
		shards: make([]*shard, n),
		now:    time.Now,
		index:  make(map[string]string),

		valuations: make(map[string]*valuation.Record),
		titles:     make(map[string]*title.Record),
	}
	for i := range s.shards {
		s.shards[i] = &shard{
			collaterals:  make(map[string]*collateral.Collateral),
			encumbrances: make(map[string]map[string]*encumbrance.Encumbrance),
		}
	}
	return s
}

func (s *Store) shardFor(collateralID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(collateralID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *Store) nextID() uint64 { return s.seq.Add(1) }

// collateral primitives

func (s *Store) getCollateral(id string) *collateral.Collateral {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.collaterals[id].Clone()
}

// putCollateral stores c and returns the previous value, if any.
func (s *Store) putCollateral(c *collateral.Collateral) *collateral.Collateral {
	sh := s.shardFor(c.CollateralID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	prev := sh.collaterals[c.CollateralID]
	sh.collaterals[c.CollateralID] = c.Clone()
	return prev
}

func (s *Store) removeCollateral(id string) *collateral.Collateral {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	prev := sh.collaterals[id]
	delete(sh.collaterals, id)
	return prev
}

func (s *Store) findCollaterals(f collateral.Filter) []collateral.Collateral {
	var out []collateral.Collateral
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, c := range sh.collaterals {
			if f.Match(c) {
				out = append(out, *c.Clone())
			}
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// encumbrance primitives

func (s *Store) ownerOf(encumbranceID string) (string, bool) {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	cid, ok := s.index[encumbranceID]
	return cid, ok
}

func (s *Store) getEncumbrance(id string) *encumbrance.Encumbrance {
	cid, ok := s.ownerOf(id)
	if !ok {
		return nil
	}
	sh := s.shardFor(cid)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.encumbrances[cid][id].Clone()
}

// putEncumbrance stores e and returns the previous value, if any. A record
// moved to another collateral is removed from its old bucket.
func (s *Store) putEncumbrance(e *encumbrance.Encumbrance) *encumbrance.Encumbrance {
	var prev *encumbrance.Encumbrance
	if oldCID, ok := s.ownerOf(e.EncumbranceID); ok && oldCID != e.CollateralID {
		prev = s.removeEncumbrance(e.EncumbranceID)
	}

	sh := s.shardFor(e.CollateralID)
	sh.mu.Lock()
	bucket := sh.encumbrances[e.CollateralID]
	if bucket == nil {
		bucket = make(map[string]*encumbrance.Encumbrance)
		sh.encumbrances[e.CollateralID] = bucket
	}
	if p := bucket[e.EncumbranceID]; p != nil {
		prev = p
	}
	bucket[e.EncumbranceID] = e.Clone()
	sh.mu.Unlock()

	s.idxMu.Lock()
	s.index[e.EncumbranceID] = e.CollateralID
	s.idxMu.Unlock()
	return prev
}

func (s *Store) removeEncumbrance(id string) *encumbrance.Encumbrance {
	cid, ok := s.ownerOf(id)
	if !ok {
		return nil
	}
	sh := s.shardFor(cid)
	sh.mu.Lock()
	prev := sh.encumbrances[cid][id]
	delete(sh.encumbrances[cid], id)
	if len(sh.encumbrances[cid]) == 0 {
		delete(sh.encumbrances, cid)
	}
	sh.mu.Unlock()

	s.idxMu.Lock()
	delete(s.index, id)
	s.idxMu.Unlock()
	return prev
}

func (s *Store) listEncumbrances(collateralID string) []encumbrance.Encumbrance {
	sh := s.shardFor(collateralID)
	sh.mu.RLock()
	out := make([]encumbrance.Encumbrance, 0, len(sh.encumbrances[collateralID]))
	for _, e := range sh.encumbrances[collateralID] {
		out = append(out, *e.Clone())
	}
	sh.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) findEncumbrances(f encumbrance.Filter) []encumbrance.Encumbrance {
	if f.CollateralID != "" {
		var out []encumbrance.Encumbrance
		for _, e := range s.listEncumbrances(f.CollateralID) {
			if f.Match(&e) {
				out = append(out, e)
			}
		}
		return out
	}
	var out []encumbrance.Encumbrance
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, bucket := range sh.encumbrances {
			for _, e := range bucket {
				if f.Match(e) {
					out = append(out, *e.Clone())
				}
			}
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
