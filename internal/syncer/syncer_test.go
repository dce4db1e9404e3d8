package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/localstore"
	"github.com/jonathan/resume-builder/internal/selector"
	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/store/memstore"
	"github.com/jonathan/resume-builder/internal/types"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (r *eventRecorder) has(kind EventKind) bool {
	for _, k := range r.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

type fixture struct {
	ctl     *Controller
	durable *memstore.Store
	local   *localstore.Store
	events  *eventRecorder
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	local, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	durable := memstore.New()
	sel := selector.New(local, durable, auth.NewStaticProvider(uuid.New()))
	require.Equal(t, selector.StateDurableOnly, sel.Resolve(context.Background()))

	rec := &eventRecorder{}
	opts = append([]Option{WithNotifier(rec.record)}, opts...)
	ctl := New(sel, local, opts...)
	t.Cleanup(func() { _ = ctl.Shutdown(context.Background()) })
	return fixture{ctl: ctl, durable: durable, local: local, events: rec}
}

func applyIdentity(t *testing.T, ctl *Controller) {
	t.Helper()
	require.NoError(t, ctl.ApplySection(types.SectionIdentity, types.Identity{
		FirstName: "Maria",
		LastName:  "Alvarez",
		Email:     "m@example.com",
	}))
}

func TestHydrate_FreshStateNeverSaves(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Hydrate(context.Background()))

	assert.False(t, f.ctl.Dirty())
	require.NoError(t, f.ctl.Flush(context.Background()))
	assert.Equal(t, 0, f.durable.SaveCalls())
	assert.Empty(t, f.ctl.DocumentID())
}

func TestFlush_PersistsMutationAndAdoptsMintedID(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Hydrate(context.Background()))

	applyIdentity(t, f.ctl)
	require.NoError(t, f.ctl.Flush(context.Background()))

	assert.Equal(t, 1, f.durable.SaveCalls())
	assert.False(t, f.ctl.Dirty())
	assert.NotEmpty(t, f.ctl.DocumentID())
	assert.True(t, f.events.has(EventSaving))
	assert.True(t, f.events.has(EventSaved))

	// The adopted id is propagated to the shared editing target.
	id, ok := f.local.Markers().EditingTarget()
	require.True(t, ok)
	assert.Equal(t, f.ctl.DocumentID(), id)
}

func TestDebounce_CoalescesBurstsIntoOneWrite(t *testing.T) {
	f := newFixture(t, WithDebounce(25*time.Millisecond))
	require.NoError(t, f.ctl.Hydrate(context.Background()))

	applyIdentity(t, f.ctl)
	require.NoError(t, f.ctl.ApplySection(types.SectionNarrative, "Telemetry nurse."))
	require.NoError(t, f.ctl.ApplySection(types.SectionCompetencies, []string{"Wound Care"}))

	assert.Eventually(t, func() bool {
		return f.durable.SaveCalls() == 1 && !f.ctl.Dirty()
	}, 2*time.Second, 5*time.Millisecond)

	// The quiet period passed; no trailing write fires.
	time.Sleep(75 * time.Millisecond)
	assert.Equal(t, 1, f.durable.SaveCalls())
}

func TestFlush_SubsequentMutationUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Hydrate(context.Background()))

	applyIdentity(t, f.ctl)
	require.NoError(t, f.ctl.Flush(context.Background()))
	firstID := f.ctl.DocumentID()

	require.NoError(t, f.ctl.ApplySection(types.SectionNarrative, "Night shift charge nurse."))
	require.NoError(t, f.ctl.Flush(context.Background()))

	assert.Equal(t, firstID, f.ctl.DocumentID(), "identity is stable across writes")
	metas, res := f.durable.List(context.Background())
	require.True(t, res.OK())
	assert.Len(t, metas, 1)
}

func TestFlush_FailedWriteKeepsDocumentDirty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Hydrate(context.Background()))

	applyIdentity(t, f.ctl)
	f.durable.FailNext(store.Failed("backend exploded"))

	err := f.ctl.Flush(context.Background())
	require.Error(t, err)
	assert.True(t, f.ctl.Dirty())
	assert.True(t, f.events.has(EventSaveFailed))

	// The failure queue is drained; the retry lands.
	require.NoError(t, f.ctl.Flush(context.Background()))
	assert.False(t, f.ctl.Dirty())
	assert.NotEmpty(t, f.ctl.DocumentID())
}

func TestFlush_VanishedDocumentResetsToDefault(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Hydrate(context.Background()))

	applyIdentity(t, f.ctl)
	f.ctl.AdoptIdentity("ghost-id")
	f.durable.FailNext(store.NotFound("document not found: ghost-id"))

	err := f.ctl.Flush(context.Background())
	require.Error(t, err)

	assert.Empty(t, f.ctl.DocumentID())
	assert.True(t, f.events.has(EventDocumentReset))

	doc, meta, derr := f.ctl.Document()
	require.NoError(t, derr)
	assert.True(t, types.ContentEqual(doc, types.DefaultDocument()), "reset is whole-document, never a partial merge")
	assert.Equal(t, types.DefaultTemplateID, meta.TemplateID)
	assert.False(t, f.ctl.Dirty())
}

func TestHydrate_MissingEditingTargetResets(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.local.Markers().SetEditingTarget("gone"))

	require.NoError(t, f.ctl.Hydrate(context.Background()))
	assert.Empty(t, f.ctl.DocumentID())
	assert.True(t, f.events.has(EventDocumentReset))

	_, ok := f.local.Markers().EditingTarget()
	assert.False(t, ok, "dangling target is cleared")
}

func TestHydrate_SecondContextAdoptsSharedTarget(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Hydrate(context.Background()))
	applyIdentity(t, f.ctl)
	require.NoError(t, f.ctl.Flush(context.Background()))
	id := f.ctl.DocumentID()

	ctx := context.Background()
	sel2 := selector.New(f.local, f.durable, auth.NewStaticProvider(uuid.New()))
	sel2.Resolve(ctx)
	other := New(sel2, f.local)
	t.Cleanup(func() { _ = other.Shutdown(context.Background()) })
	require.NoError(t, other.Hydrate(ctx))

	assert.Equal(t, id, other.DocumentID(), "both contexts edit the same document")
	metas, res := f.durable.List(ctx)
	require.True(t, res.OK())
	assert.Len(t, metas, 1)
}

func TestShutdown_ReloadMarkerReplaysLastEdit(t *testing.T) {
	local, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	durable := memstore.New()
	identity := auth.NewStaticProvider(uuid.New())
	ctx := context.Background()

	sel := selector.New(local, durable, identity)
	sel.Resolve(ctx)
	first := New(sel, local)
	require.NoError(t, first.Hydrate(ctx))
	require.NoError(t, first.ApplySection(types.SectionIdentity, types.Identity{FirstName: "Maria"}))
	require.NoError(t, first.Shutdown(ctx))
	require.Equal(t, 1, durable.SaveCalls())

	// The reload marker survives shutdown, so the next controller in the
	// same logical session treats hydrated state as unwritten.
	sel2 := selector.New(local, durable, identity)
	sel2.Resolve(ctx)
	second := New(sel2, local)
	t.Cleanup(func() { _ = second.Shutdown(ctx) })
	require.NoError(t, second.Hydrate(ctx))

	require.NoError(t, second.ApplySection(types.SectionIdentity, types.Identity{FirstName: "Maria"}))
	require.NoError(t, second.Flush(ctx))
	assert.Equal(t, 2, durable.SaveCalls(), "an identical post-reload edit still persists")
}

func TestAdoptIdentity_NotifiesOnChangeOnly(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Hydrate(context.Background()))

	f.ctl.AdoptIdentity("doc-123")
	assert.Equal(t, "doc-123", f.ctl.DocumentID())
	assert.True(t, f.events.has(EventIdentityChanged))

	before := len(f.events.kinds())
	f.ctl.AdoptIdentity("doc-123")
	assert.Len(t, f.events.kinds(), before, "re-adopting the same id is a no-op")
}

// gatedPort blocks the first Save so a mutation can land while that write
// is in flight.
type gatedPort struct {
	*memstore.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedPort) Save(ctx context.Context, content *types.CanonicalDocument, opts store.SaveOptions) store.SaveResult {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.Store.Save(ctx, content, opts)
}

func TestWrite_StaleResultNeverOverridesNewerMutation(t *testing.T) {
	local, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	gated := &gatedPort{
		Store:   memstore.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	ctx := context.Background()
	sel := selector.New(local, gated, auth.NewStaticProvider(uuid.New()))
	require.Equal(t, selector.StateDurableOnly, sel.Resolve(ctx))

	ctl := New(sel, local, WithDebounce(20*time.Millisecond))
	t.Cleanup(func() { _ = ctl.Shutdown(ctx) })
	require.NoError(t, ctl.Hydrate(ctx))

	applyIdentity(t, ctl)
	<-gated.entered

	// The in-flight write carries stale content; this mutation supersedes it.
	require.NoError(t, ctl.ApplySection(types.SectionNarrative, "Charge nurse on a 32-bed telemetry unit."))
	close(gated.release)

	assert.Eventually(t, func() bool {
		return !ctl.Dirty() && ctl.DocumentID() != ""
	}, 2*time.Second, 5*time.Millisecond)

	loaded := gated.Load(ctx, ctl.DocumentID())
	require.True(t, loaded.OK())
	assert.Equal(t, "Charge nurse on a 32-bed telemetry unit.", loaded.Content.Narrative)

	metas, res := gated.List(ctx)
	require.True(t, res.OK())
	assert.Len(t, metas, 1, "the superseded write never forks a second document")
}

func TestReplace_DiscardingIdentityStartsOver(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.Hydrate(context.Background()))
	applyIdentity(t, f.ctl)
	require.NoError(t, f.ctl.Flush(context.Background()))
	oldID := f.ctl.DocumentID()

	doc := types.DefaultDocument()
	doc.Identity = &types.Identity{FirstName: "Imported"}
	require.NoError(t, f.ctl.Replace(doc, false))

	assert.Empty(t, f.ctl.DocumentID())
	assert.True(t, f.ctl.Dirty())

	require.NoError(t, f.ctl.Flush(context.Background()))
	assert.NotEmpty(t, f.ctl.DocumentID())
	assert.NotEqual(t, oldID, f.ctl.DocumentID(), "a discarded identity mints a new document")
}
