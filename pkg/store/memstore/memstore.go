// Package memstore is an in-memory OpeningStore used for snapshot runs
// and tests. Transactions are journaled: mutations apply immediately and
// are undone in reverse order if the transaction callback fails, giving
// the same all-or-nothing semantics as a real document store without one.
package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	sleeverrors "github.com/openmep/sleever/pkg/errors"
	"github.com/openmep/sleever/pkg/model"
	"github.com/openmep/sleever/pkg/store"
)

// journalEntry records one mutation so it can be undone.
type journalEntry struct {
	createdID string
	deleted   *model.Opening
}

// Store holds openings in memory. Not safe for concurrent use; the
// engine runs single-threaded.
type Store struct {
	openings map[string]model.Opening
	order    []string

	inTx    bool
	journal []journalEntry

	// FailCreates forces Create to fail after this many successes.
	// Tests use it to exercise creation-failure paths; -1 disables it.
	FailCreates int
}

// New creates an empty store, optionally seeded with openings.
func New(seed ...model.Opening) *Store {
	s := &Store{openings: make(map[string]model.Opening), FailCreates: -1}
	for _, o := range seed {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		s.openings[o.ID] = o
		s.order = append(s.order, o.ID)
	}
	return s
}

// FindExisting implements store.OpeningStore. Results come back in
// insertion order, so runs are deterministic.
func (s *Store) FindExisting(_ context.Context, f store.OpeningFilter) ([]model.Opening, error) {
	var out []model.Opening
	for _, id := range s.order {
		if o := s.openings[id]; f.Matches(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Create implements store.OpeningStore, assigning a fresh UUID.
func (s *Store) Create(_ context.Context, o model.Opening) (model.Opening, error) {
	if s.FailCreates == 0 {
		return model.Opening{}, sleeverrors.New(sleeverrors.ErrCodeCreationFailure,
			"opening instantiation failed")
	}
	if s.FailCreates > 0 {
		s.FailCreates--
	}

	o.ID = uuid.NewString()
	s.openings[o.ID] = o
	s.order = append(s.order, o.ID)
	if s.inTx {
		s.journal = append(s.journal, journalEntry{createdID: o.ID})
	}
	return o, nil
}

// Delete implements store.OpeningStore.
func (s *Store) Delete(_ context.Context, id string) error {
	o, ok := s.openings[id]
	if !ok {
		return sleeverrors.New(sleeverrors.ErrCodeNotFound, "opening %s not found", id)
	}
	s.remove(id)
	if s.inTx {
		s.journal = append(s.journal, journalEntry{deleted: &o})
	}
	return nil
}

// RunInTransaction implements store.OpeningStore. A callback error rolls
// back every mutation made inside the scope.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx {
		return sleeverrors.New(sleeverrors.ErrCodeTransactionFailed, "transaction already open")
	}
	s.inTx = true
	s.journal = nil
	defer func() {
		s.inTx = false
		s.journal = nil
	}()

	if err := fn(ctx); err != nil {
		s.rollback()
		return fmt.Errorf("transaction rolled back: %w", err)
	}
	return nil
}

// Len returns the number of stored openings.
func (s *Store) Len() int { return len(s.openings) }

func (s *Store) rollback() {
	for i := len(s.journal) - 1; i >= 0; i-- {
		e := s.journal[i]
		if e.createdID != "" {
			s.remove(e.createdID)
		}
		if e.deleted != nil {
			s.openings[e.deleted.ID] = *e.deleted
			s.order = append(s.order, e.deleted.ID)
		}
	}
}

func (s *Store) remove(id string) {
	delete(s.openings, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
