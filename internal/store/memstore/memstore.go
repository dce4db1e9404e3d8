// Package memstore provides an in-memory Port implementation used by tests
// and examples. It makes no persistence assumptions beyond keying documents
// by their assigned id.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/types"
)

type record struct {
	content *types.CanonicalDocument
	meta    types.DocumentMeta
}

// Store is an in-memory document store. The zero value is not usable; use New.
type Store struct {
	mu        sync.Mutex
	records   map[string]record
	available bool

	saveCalls int
	failNext  []store.Result
}

// New creates an empty, available store.
func New() *Store {
	return &Store{records: map[string]record{}, available: true}
}

// SetAvailable toggles what Available reports.
func (s *Store) SetAvailable(v bool) {
	s.mu.Lock()
	s.available = v
	s.mu.Unlock()
}

// FailNext queues failure envelopes returned by upcoming Save/Update calls,
// in order, before normal behavior resumes.
func (s *Store) FailNext(results ...store.Result) {
	s.mu.Lock()
	s.failNext = append(s.failNext, results...)
	s.mu.Unlock()
}

// SaveCalls reports how many Save/Update calls reached the store.
func (s *Store) SaveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls
}

// Available implements store.Port.
func (s *Store) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

// Load implements store.Port.
func (s *Store) Load(_ context.Context, id string) store.LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return store.LoadResult{Result: store.Unavailable("store unavailable")}
	}
	rec, ok := s.records[id]
	if !ok {
		return store.LoadResult{Result: store.NotFound("document not found: " + id)}
	}
	content, err := rec.content.Clone()
	if err != nil {
		return store.LoadResult{Result: store.Failed(err.Error())}
	}
	return store.LoadResult{Result: store.Ok(), Content: content, Meta: rec.meta}
}

// Save implements store.Port. An empty opts.ID mints a new identity.
func (s *Store) Save(_ context.Context, content *types.CanonicalDocument, opts store.SaveOptions) store.SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if len(s.failNext) > 0 {
		res := s.failNext[0]
		s.failNext = s.failNext[1:]
		return store.SaveResult{Result: res}
	}
	if !s.available {
		return store.SaveResult{Result: store.Unavailable("store unavailable")}
	}

	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	clone, err := content.Clone()
	if err != nil {
		return store.SaveResult{Result: store.Failed(err.Error())}
	}
	now := time.Now().UTC()
	meta := types.DocumentMeta{
		ID:           id,
		Title:        opts.Title,
		TemplateID:   opts.TemplateID,
		LastUpdated:  now,
		SectionOrder: opts.SectionOrder,
	}
	s.records[id] = record{content: clone, meta: meta}
	return store.SaveResult{Result: store.Ok(), ID: id, Title: opts.Title, LastUpdated: now}
}

// Update implements store.Port. Calling it without an id is a contract
// violation and panics.
func (s *Store) Update(ctx context.Context, id string, content *types.CanonicalDocument, opts store.SaveOptions) store.SaveResult {
	if id == "" {
		panic("memstore: Update called without id")
	}
	opts.ID = id
	return s.Save(ctx, content, opts)
}

// Delete implements store.Port.
func (s *Store) Delete(_ context.Context, id string) store.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return store.Unavailable("store unavailable")
	}
	if _, ok := s.records[id]; !ok {
		return store.NotFound("document not found: " + id)
	}
	delete(s.records, id)
	return store.Ok()
}

// List implements store.Port. Metas are returned newest first.
func (s *Store) List(_ context.Context) ([]types.DocumentMeta, store.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return nil, store.Unavailable("store unavailable")
	}
	metas := make([]types.DocumentMeta, 0, len(s.records))
	for _, rec := range s.records {
		metas = append(metas, rec.meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].LastUpdated.After(metas[j].LastUpdated)
	})
	return metas, store.Ok()
}
