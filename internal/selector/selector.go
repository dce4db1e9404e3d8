// Package selector decides which persistence backend is authoritative and
// owns the one-time migration of ephemeral data into the durable store when
// the caller authenticates. Everything outside this package is
// migration-unaware: consumers see only Active() and Outstanding().
package selector

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/localstore"
	"github.com/jonathan/resume-builder/internal/store"
)

// State enumerates the selector state machine. Replaces the ad hoc flag set
// the behavior originally grew out of with explicit, enumerable transitions.
type State string

const (
	StateUnresolved         State = "unresolved"
	StateEphemeralOnly      State = "ephemeral_only"
	StateMigrationPending   State = "migration_pending"
	StateMigrating          State = "migrating"
	StateDurableOnly        State = "durable_only"
	StateMigrationExhausted State = "migration_exhausted"
)

// DefaultRetryCeiling bounds consecutive automatic migration attempts.
const DefaultRetryCeiling = 3

// Selector is the backend selector / migration controller.
type Selector struct {
	local    *localstore.Store
	durable  store.Port
	identity auth.Provider
	log      zerolog.Logger

	retryCeiling int
	onMigrated   func(id string)

	mu       sync.Mutex
	state    State
	migrated bool // process-wide at-most-once guard for the session
}

// Option configures a Selector.
type Option func(*Selector)

// WithRetryCeiling overrides the automatic-retry ceiling.
func WithRetryCeiling(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.retryCeiling = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Selector) { s.log = log }
}

// OnMigrated registers a callback invoked with the durable id assigned by a
// successful migration, before the selector flips to DurableOnly consumers.
func OnMigrated(fn func(id string)) Option {
	return func(s *Selector) { s.onMigrated = fn }
}

// New builds a selector. durable may be nil when no identity provider
// exists; the selector then stays ephemeral-only forever.
func New(local *localstore.Store, durable store.Port, identity auth.Provider, opts ...Option) *Selector {
	s := &Selector{
		local:        local,
		durable:      durable,
		identity:     identity,
		state:        StateUnresolved,
		retryCeiling: DefaultRetryCeiling,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current machine state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outstanding reports whether a migration is pending or suppressed by the
// retry ceiling (i.e. ephemeral data exists that belongs in the durable
// store).
func (s *Selector) Outstanding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateMigrationPending || s.state == StateMigrationExhausted
}

// Active resolves the currently authoritative backend.
func (s *Selector) Active() store.Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDurableOnly && s.durable != nil && s.durable.Available() {
		return s.durable
	}
	return s.local
}

// Resolve evaluates the machine against the current identity signal and
// runs at most one automatic migration attempt when one is due. It is the
// sole entry point for identity transitions.
func (s *Selector) Resolve(ctx context.Context) State {
	s.mu.Lock()
	authenticated := s.identity != nil && s.identity.Authenticated() && s.durable != nil

	switch {
	case !authenticated:
		// Losing or never having identity always lands on the local slot.
		if s.state != StateMigrationExhausted {
			s.state = StateEphemeralOnly
		}
		s.mu.Unlock()
		return s.State()

	case s.migrated:
		// Idempotent migration guard: the triggering condition may re-fire
		// for the rest of the session without a second transfer.
		s.state = StateDurableOnly
		s.mu.Unlock()
		return s.State()

	case !s.local.HasContent():
		s.state = StateDurableOnly
		s.mu.Unlock()
		return s.State()

	case s.state == StateMigrationExhausted:
		// Automatic retry is suppressed; Retry remains available.
		s.mu.Unlock()
		return s.State()

	case s.state == StateMigrating:
		// An attempt is already underway; its completion settles the state.
		s.mu.Unlock()
		return s.State()

	default:
		s.state = StateMigrationPending
		s.mu.Unlock()
		return s.attemptMigration(ctx)
	}
}

// Retry triggers a manual migration attempt, available even after the
// automatic ceiling has been exceeded.
func (s *Selector) Retry(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.identity == nil || !s.identity.Authenticated() || s.durable == nil {
		s.mu.Unlock()
		return s.State(), fmt.Errorf("migration requires an authenticated identity")
	}
	if s.migrated || !s.local.HasContent() {
		s.state = StateDurableOnly
		s.mu.Unlock()
		return s.State(), nil
	}
	s.state = StateMigrationPending
	s.mu.Unlock()
	return s.attemptMigration(ctx), nil
}

func (s *Selector) attemptMigration(ctx context.Context) State {
	s.mu.Lock()
	if s.state != StateMigrationPending {
		s.mu.Unlock()
		return s.State()
	}
	s.state = StateMigrating
	s.mu.Unlock()

	markers := s.local.Markers()
	if err := markers.SetMigrationInProgress(); err != nil {
		s.log.Warn().Err(err).Msg("failed to stamp migration flag")
	}
	defer markers.ClearMigrationInProgress()

	loaded := s.local.Load(ctx, "")
	if !loaded.OK() {
		return s.failMigration("failed to read local document: " + loaded.Reason)
	}

	saved := s.durable.Save(ctx, loaded.Content, store.SaveOptions{
		Title:        loaded.Meta.Title,
		TemplateID:   loaded.Meta.TemplateID,
		SectionOrder: loaded.Meta.SectionOrder,
	})
	if !saved.OK() {
		return s.failMigration("failed to write durable document: " + saved.Reason)
	}

	// The local slot is cleared so the triggering condition cannot re-fire
	// in a later session and fork a second remote document.
	if res := s.local.Delete(ctx, ""); !res.OK() {
		s.log.Warn().Str("reason", res.Reason).Msg("failed to clear local slot after migration")
	}
	markers.ResetMigrationAttempts()

	s.mu.Lock()
	s.migrated = true
	s.state = StateDurableOnly
	s.mu.Unlock()

	s.log.Info().Str("document_id", saved.ID).Msg("migrated local document to durable store")
	if s.onMigrated != nil {
		s.onMigrated(saved.ID)
	}
	return s.State()
}

func (s *Selector) failMigration(reason string) State {
	attempts := s.local.Markers().IncrementMigrationAttempts()
	s.log.Warn().Int("attempts", attempts).Str("reason", reason).Msg("migration attempt failed")

	s.mu.Lock()
	if attempts >= s.retryCeiling {
		s.state = StateMigrationExhausted
	} else {
		s.state = StateEphemeralOnly
	}
	s.mu.Unlock()
	return s.State()
}
