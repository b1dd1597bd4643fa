// Package memory is an in-process ledger used for local runs and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"spendlens/internal/core"
	"spendlens/internal/ledger"
)

type Store struct {
	mu    sync.RWMutex
	users map[int64]struct{}
	cats  map[int64]core.Category
	txs   []core.Transaction
	rules []core.BudgetRule
}

var (
	_ ledger.Reader      = (*Store)(nil)
	_ ledger.Snapshotter = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users: map[int64]struct{}{},
		cats:  map[int64]core.Category{},
	}
}

// AddCategory registers a category; ids must be unique.
func (s *Store) AddCategory(c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[c.ID]; ok {
		return fmt.Errorf("duplicate category id %d", c.ID)
	}
	s.cats[c.ID] = c
	s.users[c.UserID] = struct{}{}
	return nil
}

// AddTransaction appends a transaction referencing a known category.
func (s *Store) AddTransaction(t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[t.CategoryID]
	if !ok {
		return fmt.Errorf("unknown category id %d", t.CategoryID)
	}
	if c.UserID != t.UserID {
		return fmt.Errorf("category %d does not belong to user %d", t.CategoryID, t.UserID)
	}
	if t.ID == 0 {
		t.ID = int64(len(s.txs) + 1)
	}
	s.txs = append(s.txs, t)
	s.users[t.UserID] = struct{}{}
	return nil
}

// AddBudgetRule stores a rule; the category name is resolved on read.
func (s *Store) AddBudgetRule(r core.BudgetRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[r.CategoryID]; !ok {
		return fmt.Errorf("unknown category id %d", r.CategoryID)
	}
	if r.ID == 0 {
		r.ID = int64(len(s.rules) + 1)
	}
	s.rules = append(s.rules, r)
	return nil
}

// Aggregates implements ledger.Reader.
func (s *Store) Aggregates(_ context.Context, q ledger.Query) ([]ledger.Aggregate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type groupKey struct {
		key        string
		categoryID int64
		bucket     int64
	}
	sums := map[groupKey]*ledger.Aggregate{}
	start := ledger.Truncate(q.Start, ledger.Day)
	for _, t := range s.txs {
		if t.UserID != q.UserID {
			continue
		}
		if q.Type != "" && t.Type != q.Type {
			continue
		}
		if q.CategoryID != 0 && t.CategoryID != q.CategoryID {
			continue
		}
		if t.Date.Before(start) || (!q.End.IsZero() && t.Date.After(q.End)) {
			continue
		}
		bucket := ledger.Truncate(t.Date.Time, q.Granularity)
		k := groupKey{bucket: bucket.Unix()}
		if q.GroupBy == ledger.ByType {
			k.key = string(t.Type)
		} else {
			k.key = s.cats[t.CategoryID].Name
			k.categoryID = t.CategoryID
		}
		agg, ok := sums[k]
		if !ok {
			agg = &ledger.Aggregate{Key: k.key, CategoryID: k.categoryID, Bucket: bucket}
			sums[k] = agg
		}
		agg.Amount = agg.Amount.Add(t.Amount)
		agg.Count++
	}

	out := make([]ledger.Aggregate, 0, len(sums))
	for _, agg := range sums {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Bucket.Equal(out[j].Bucket) {
			return out[i].Bucket.Before(out[j].Bucket)
		}
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

// BudgetRules implements ledger.Reader.
func (s *Store) BudgetRules(_ context.Context, userID int64) ([]core.BudgetRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.BudgetRule
	for _, r := range s.rules {
		if r.UserID != userID {
			continue
		}
		r.CategoryName = s.cats[r.CategoryID].Name
		out = append(out, r)
	}
	return out, nil
}

// Categories implements ledger.Reader.
func (s *Store) Categories(_ context.Context, userID int64, typ core.TransactionType) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.cats {
		if c.UserID != userID || (typ != "" && c.Type != typ) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Users implements ledger.Reader.
func (s *Store) Users(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.users))
	for id := range s.users {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Snapshot copies the current state so a report sees one consistent view.
func (s *Store) Snapshot(_ context.Context) (ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := New()
	for id := range s.users {
		cp.users[id] = struct{}{}
	}
	for id, c := range s.cats {
		cp.cats[id] = c
	}
	cp.txs = append([]core.Transaction(nil), s.txs...)
	cp.rules = append([]core.BudgetRule(nil), s.rules...)
	return frozen{cp}, nil
}

type frozen struct{ *Store }

func (frozen) Close() error { return nil }

// NewFromFile loads a JSON ledger fixture. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	fx, err := ledger.LoadFixture(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	return NewFromFixture(fx)
}

// NewFromFixture builds a store holding every record of fx.
func NewFromFixture(fx *ledger.Fixture) (*Store, error) {
	s := New()
	for _, id := range fx.UserIDs() {
		s.users[id] = struct{}{}
	}
	for _, c := range fx.Categories {
		if err := s.AddCategory(c); err != nil {
			return nil, fmt.Errorf("category %d: %w", c.ID, err)
		}
	}
	for i, t := range fx.Transactions {
		if err := s.AddTransaction(t); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	for i, r := range fx.BudgetRules {
		if err := s.AddBudgetRule(r); err != nil {
			return nil, fmt.Errorf("budget rule %d: %w", i, err)
		}
	}
	return s, nil
}
