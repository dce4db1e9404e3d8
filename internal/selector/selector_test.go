package selector

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/localstore"
	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/store/memstore"
	"github.com/jonathan/resume-builder/internal/types"
)

func newLocal(t *testing.T) *localstore.Store {
	t.Helper()
	local, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	return local
}

func seedLocal(t *testing.T, local *localstore.Store) {
	t.Helper()
	doc := types.DefaultDocument()
	doc.Identity = &types.Identity{FirstName: "Maria", LastName: "Alvarez", Email: "m@example.com"}
	res := local.Save(context.Background(), doc, store.SaveOptions{Title: "Draft"})
	require.True(t, res.OK())
}

func TestResolve_AnonymousStaysEphemeral(t *testing.T) {
	local := newLocal(t)
	seedLocal(t, local)
	sel := New(local, memstore.New(), auth.NewAnonymous())

	state := sel.Resolve(context.Background())
	assert.Equal(t, StateEphemeralOnly, state)
	assert.Same(t, local, sel.Active().(*localstore.Store))
}

func TestResolve_MigratesOnceWhenEligible(t *testing.T) {
	local := newLocal(t)
	seedLocal(t, local)
	durable := memstore.New()
	identity := auth.NewStaticProvider(uuid.New())

	var migratedID string
	sel := New(local, durable, identity, OnMigrated(func(id string) { migratedID = id }))

	state := sel.Resolve(context.Background())
	assert.Equal(t, StateDurableOnly, state)
	assert.NotEmpty(t, migratedID)
	assert.Equal(t, 1, durable.SaveCalls())

	// The local slot is cleared so the trigger cannot re-fire.
	assert.False(t, local.HasContent())

	loaded := durable.Load(context.Background(), migratedID)
	require.True(t, loaded.OK())
	assert.Equal(t, "Draft", loaded.Meta.Title)
}

func TestResolve_RepeatedChecksYieldOneRemoteDocument(t *testing.T) {
	local := newLocal(t)
	seedLocal(t, local)
	durable := memstore.New()
	sel := New(local, durable, auth.NewStaticProvider(uuid.New()))

	for range 5 {
		sel.Resolve(context.Background())
	}
	assert.Equal(t, 1, durable.SaveCalls())

	metas, res := durable.List(context.Background())
	require.True(t, res.OK())
	assert.Len(t, metas, 1)
}

func TestResolve_EmptyLocalSlotSkipsMigration(t *testing.T) {
	local := newLocal(t)
	durable := memstore.New()
	sel := New(local, durable, auth.NewStaticProvider(uuid.New()))

	state := sel.Resolve(context.Background())
	assert.Equal(t, StateDurableOnly, state)
	assert.Equal(t, 0, durable.SaveCalls())
}

func TestResolve_FailuresCountTowardCeiling(t *testing.T) {
	local := newLocal(t)
	seedLocal(t, local)
	durable := memstore.New()
	durable.FailNext(
		store.Failed("boom"),
		store.Failed("boom"),
		store.Failed("boom"),
	)
	sel := New(local, durable, auth.NewStaticProvider(uuid.New()), WithRetryCeiling(3))

	ctx := context.Background()
	assert.Equal(t, StateEphemeralOnly, sel.Resolve(ctx))
	assert.Equal(t, StateEphemeralOnly, sel.Resolve(ctx))
	assert.Equal(t, StateMigrationExhausted, sel.Resolve(ctx))

	// Automatic retry is now suppressed.
	assert.Equal(t, StateMigrationExhausted, sel.Resolve(ctx))
	assert.Equal(t, 3, durable.SaveCalls())
	assert.True(t, sel.Outstanding())
	assert.True(t, local.HasContent(), "local data survives failed migrations")
}

func TestRetry_WorksAfterExhaustion(t *testing.T) {
	local := newLocal(t)
	seedLocal(t, local)
	durable := memstore.New()
	durable.FailNext(store.Failed("boom"))
	sel := New(local, durable, auth.NewStaticProvider(uuid.New()), WithRetryCeiling(1))

	ctx := context.Background()
	require.Equal(t, StateMigrationExhausted, sel.Resolve(ctx))

	state, err := sel.Retry(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateDurableOnly, state)
	assert.Equal(t, 0, local.Markers().MigrationAttempts(), "success resets the counter")
	assert.False(t, sel.Outstanding())
}

func TestRetry_RequiresAuthentication(t *testing.T) {
	local := newLocal(t)
	seedLocal(t, local)
	sel := New(local, memstore.New(), auth.NewAnonymous())

	_, err := sel.Retry(context.Background())
	assert.Error(t, err)
}

func TestResolve_IdentityTransitionSwitchesBackends(t *testing.T) {
	local := newLocal(t)
	durable := memstore.New()
	identity := auth.NewAnonymous()
	sel := New(local, durable, identity)

	ctx := context.Background()
	assert.Equal(t, StateEphemeralOnly, sel.Resolve(ctx))

	identity.SetSubject(uuid.New())
	assert.Equal(t, StateDurableOnly, sel.Resolve(ctx))

	identity.SetSubject(uuid.Nil)
	assert.Equal(t, StateEphemeralOnly, sel.Resolve(ctx))
}
