// Package syncer owns the authoritative (documentId, content, meta) triple
// and the debounced auto-save loop that reconciles concurrent edits,
// identity changes, and page-reload races against whichever backend the
// selector says is active.
package syncer

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/resume-builder/internal/completion"
	"github.com/jonathan/resume-builder/internal/localstore"
	"github.com/jonathan/resume-builder/internal/selector"
	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/types"
)

// DefaultDebounce is the quiet period after the last mutation before a
// write fires.
const DefaultDebounce = time.Second

// EventKind classifies save-lifecycle notifications.
type EventKind string

const (
	EventSaving          EventKind = "saving"
	EventSaved           EventKind = "saved"
	EventSaveFailed      EventKind = "save_failed"
	EventDocumentReset   EventKind = "document_reset"
	EventIdentityChanged EventKind = "identity_changed"
)

// Event is the notification the core emits instead of touching any
// presentation concern itself. The UI layer subscribes at construction.
type Event struct {
	Kind       EventKind
	DocumentID string
	Reason     string
}

// Controller is the synchronization controller. One controller serializes
// all writes for one logical document: a pending debounced write is
// cancelled and rescheduled by every mutation, an in-flight write is never
// cancelled, and only the most recently scheduled write's result may update
// authoritative identity or metadata.
type Controller struct {
	sel      *selector.Selector
	local    *localstore.Store
	log      zerolog.Logger
	debounce time.Duration
	notify   func(Event)

	creating    singleflight.Group
	unsubscribe func()

	mu          sync.Mutex
	docID       string
	content     *types.CanonicalDocument
	meta        types.DocumentMeta
	dirty       bool
	lastWritten []byte
	hydrated    bool
	seq         uint64 // bumped by every mutation; stamps scheduled writes
	inFlight    bool
	pending     bool // a write completed while another was due
	timer       *time.Timer
	closed      bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithNotifier registers the notification callback.
func WithNotifier(fn func(Event)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.notify = fn
		}
	}
}

// New builds a controller bound to a selector and the shared local store
// (for markers). It subscribes to external identity-marker changes.
func New(sel *selector.Selector, local *localstore.Store, opts ...Option) *Controller {
	c := &Controller{
		sel:      sel,
		local:    local,
		debounce: DefaultDebounce,
		log:      zerolog.Nop(),
		notify:   func(Event) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubscribe = local.Markers().SubscribeIdentity(c.adoptExternal)
	return c
}

// Hydrate loads the current document from the active backend, or falls back
// to the default template. The first post-hydration state is recorded as
// already written so the initial load never fires a save; a recent reload
// marker means edits may still be pending from the previous page, so the
// hydrated state is treated as unwritten instead.
func (c *Controller) Hydrate(ctx context.Context) error {
	c.sel.Resolve(ctx)
	port := c.sel.Active()
	markers := c.local.Markers()
	reloaded := markers.ConsumeReloadMarker()

	docID := ""
	if id, ok := markers.EditingTarget(); ok {
		docID = id
	} else if id := c.local.CurrentID(); id != "" {
		docID = id
	}

	var (
		content *types.CanonicalDocument
		meta    types.DocumentMeta
	)
	if docID != "" {
		res := port.Load(ctx, docID)
		switch res.Status {
		case store.StatusOK:
			content, meta = res.Content, res.Meta
		case store.StatusNotFound:
			// The prior document is gone; substitute a fresh one.
			markers.ClearEditingTarget()
			docID = ""
			c.notify(Event{Kind: EventDocumentReset, Reason: res.Reason})
		case store.StatusUnavailable:
			docID = ""
		default:
			return fmt.Errorf("failed to hydrate document %s: %s", docID, res.Reason)
		}
	}
	if content == nil {
		content = types.DefaultDocument()
		meta = types.DefaultMeta()
	}

	snapshot, err := content.Snapshot()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.docID = docID
	c.content = content
	c.meta = meta
	c.dirty = false
	c.hydrated = true
	if reloaded {
		// Same logical session: do not re-arm the initial-save skip, so a
		// mutation recorded just before the reload still persists.
		c.lastWritten = nil
	} else {
		c.lastWritten = snapshot
	}
	c.mu.Unlock()
	return nil
}

// Document returns a copy of the current document and its metadata.
func (c *Controller) Document() (*types.CanonicalDocument, types.DocumentMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.content == nil {
		return nil, types.DocumentMeta{}, fmt.Errorf("controller is not hydrated")
	}
	clone, err := c.content.Clone()
	if err != nil {
		return nil, types.DocumentMeta{}, err
	}
	return clone, c.meta, nil
}

// DocumentID returns the currently authoritative id, empty when the
// document has not been persisted anywhere.
func (c *Controller) DocumentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docID
}

// Dirty reports whether unwritten mutations exist. It stays true after a
// failed write; only a successful write clears it.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// ApplySection replaces one whole section, marks the document dirty and
// restarts the debounce window.
func (c *Controller) ApplySection(key string, value any) error {
	c.mu.Lock()
	if c.content == nil {
		c.mu.Unlock()
		return fmt.Errorf("controller is not hydrated")
	}
	if err := c.content.ReplaceSection(key, value); err != nil {
		c.mu.Unlock()
		return err
	}
	c.dirty = true
	c.seq++
	c.restartTimerLocked()
	c.mu.Unlock()
	return nil
}

// SetMeta replaces the document title, template and section order, marking
// the document dirty like any other mutation.
func (c *Controller) SetMeta(title, templateID string, sectionOrder []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.content == nil {
		return fmt.Errorf("controller is not hydrated")
	}
	if title != "" {
		c.meta.Title = title
	}
	if templateID != "" {
		c.meta.TemplateID = templateID
	}
	if sectionOrder != nil {
		c.meta.SectionOrder = sectionOrder
	}
	c.dirty = true
	c.seq++
	c.restartTimerLocked()
	return nil
}

// AdoptIdentity adopts an externally assigned document id (migration,
// another context) unless a write is in flight; mid-write the in-flight
// result settles identity instead.
func (c *Controller) AdoptIdentity(id string) {
	c.adoptExternal(id)
}

// Replace swaps in a whole new document (import, start-over) and schedules a
// write. The previous document is superseded; its identity is kept when
// keepID is true.
func (c *Controller) Replace(doc *types.CanonicalDocument, keepID bool) error {
	clone, err := doc.Clone()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.content = clone
	if !keepID {
		c.docID = ""
		c.meta = types.DefaultMeta()
	}
	c.dirty = true
	c.hydrated = true
	c.seq++
	c.restartTimerLocked()
	c.mu.Unlock()
	if !keepID {
		c.local.Markers().ClearEditingTarget()
	}
	return nil
}

// Flush drains any pending write synchronously. Used by shutdown and tests.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	for {
		c.mu.Lock()
		dirty, inFlight := c.dirty, c.inFlight
		c.mu.Unlock()
		if !dirty && !inFlight {
			return nil
		}
		if inFlight {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Millisecond):
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.writeOnce(ctx) {
			// The write failed; dirty stays pending for the next cycle.
			return fmt.Errorf("flush did not reach the backend")
		}
	}
}

// Shutdown flushes, stamps the reload marker for the next load of the same
// logical session, and detaches the controller.
func (c *Controller) Shutdown(ctx context.Context) error {
	flushErr := c.Flush(ctx)
	if err := c.local.Markers().WriteReloadMarker(); err != nil {
		c.log.Warn().Err(err).Msg("failed to write reload marker")
	}
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	return flushErr
}

func (c *Controller) restartTimerLocked() {
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.writeOnce(context.Background())
	})
}

func (c *Controller) adoptExternal(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	if c.inFlight || c.docID == id {
		c.mu.Unlock()
		return
	}
	c.docID = id
	c.mu.Unlock()
	c.notify(Event{Kind: EventIdentityChanged, DocumentID: id})
}

// writeOnce performs at most one write cycle. It returns false when the
// write was skipped (no-op, another write in flight, unpersistable content)
// or failed, true when a write reached the backend and succeeded.
func (c *Controller) writeOnce(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed || c.content == nil {
		c.mu.Unlock()
		return false
	}
	if c.inFlight {
		// Completion of the in-flight write, not a timer, unblocks the next.
		c.pending = true
		c.mu.Unlock()
		return false
	}
	snapshot, err := c.content.Snapshot()
	if err != nil {
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("failed to snapshot document")
		return false
	}
	if c.lastWritten != nil && bytes.Equal(snapshot, c.lastWritten) {
		// Nothing actually changed; skip the write outright.
		c.dirty = false
		c.mu.Unlock()
		return false
	}
	if err := c.content.Validate(); err != nil {
		// A document without an identity block is not persisted.
		c.mu.Unlock()
		c.log.Debug().Err(err).Msg("document not persistable yet")
		return false
	}

	seq := c.seq
	docID := c.docID
	meta := c.meta
	content, err := c.content.Clone()
	if err != nil {
		c.mu.Unlock()
		return false
	}
	c.inFlight = true
	c.mu.Unlock()

	c.notify(Event{Kind: EventSaving, DocumentID: docID})

	port := c.sel.Active()
	opts := store.SaveOptions{
		Title:        meta.Title,
		TemplateID:   meta.TemplateID,
		SectionOrder: meta.SectionOrder,
		Progress:     completion.Progress(content),
	}

	var res store.SaveResult
	if docID == "" {
		res = c.createDocument(ctx, port, content, opts)
	} else {
		res = port.Update(ctx, docID, content, opts)
	}

	return c.settleWrite(ctx, seq, snapshot, res)
}

// createDocument mints a new backend document at most once even when two
// initializations race: in-process callers collapse through singleflight,
// cross-context callers through the creation lock and the shared editing
// target.
func (c *Controller) createDocument(ctx context.Context, port store.Port, content *types.CanonicalDocument, opts store.SaveOptions) store.SaveResult {
	v, _, _ := c.creating.Do("create", func() (any, error) {
		markers := c.local.Markers()
		if id, ok := markers.EditingTarget(); ok && id != "" {
			// Another initialization already created the document.
			return port.Update(ctx, id, content, opts), nil
		}
		if !markers.AcquireCreateLock() {
			return store.SaveResult{Result: store.Failed("document creation already in flight")}, nil
		}
		defer markers.ReleaseCreateLock()

		res := port.Save(ctx, content, opts)
		if res.OK() {
			if err := markers.SetEditingTarget(res.ID); err != nil {
				c.log.Warn().Err(err).Msg("failed to stamp editing target")
			}
		}
		return res, nil
	})
	return v.(store.SaveResult)
}

func (c *Controller) settleWrite(ctx context.Context, seq uint64, snapshot []byte, res store.SaveResult) bool {
	c.mu.Lock()
	c.inFlight = false
	stale := seq != c.seq

	switch {
	case res.OK() && stale:
		// A newer mutation superseded this write; discard its result for
		// authoritative state and let the pending cycle settle things.
		c.pending = true

	case res.OK():
		c.lastWritten = snapshot
		c.dirty = false
		c.meta.LastUpdated = res.LastUpdated
		if res.Title != "" {
			c.meta.Title = res.Title
		}
		adopted := ""
		if res.ID != "" && res.ID != c.docID {
			// Identity resolution: adopt the freshly minted id and propagate
			// it in the same logical step.
			c.docID = res.ID
			c.meta.ID = res.ID
			adopted = res.ID
		}
		c.mu.Unlock()
		if adopted != "" {
			if err := c.local.Markers().SetEditingTarget(adopted); err != nil {
				c.log.Warn().Err(err).Msg("failed to propagate adopted id")
			}
		}
		c.notify(Event{Kind: EventSaved, DocumentID: res.ID})
		c.runPending(ctx)
		return true

	case res.Status == store.StatusNotFound:
		// One-time recoverable event: drop the stale id, clear markers and
		// fall back to a fresh default document, never a partial merge.
		c.docID = ""
		c.content = types.DefaultDocument()
		c.meta = types.DefaultMeta()
		c.lastWritten = nil
		c.dirty = false
		c.seq++
		c.mu.Unlock()
		c.local.Markers().ClearEditingTarget()
		c.notify(Event{Kind: EventDocumentReset, Reason: res.Reason})
		return false

	default:
		// Transient failure: the document stays dirty, the next mutation's
		// debounce cycle retries naturally.
		c.mu.Unlock()
		c.notify(Event{Kind: EventSaveFailed, DocumentID: c.DocumentID(), Reason: res.Reason})
		c.runPendingAfterFailure()
		return false
	}

	c.mu.Unlock()
	c.runPending(ctx)
	return false
}

func (c *Controller) runPending(ctx context.Context) {
	c.mu.Lock()
	due := c.pending || c.dirty
	c.pending = false
	c.mu.Unlock()
	if due {
		c.writeOnce(ctx)
	}
}

func (c *Controller) runPendingAfterFailure() {
	c.mu.Lock()
	// Re-arm the debounce rather than spinning on a failing backend.
	if c.pending || c.dirty {
		c.pending = false
		c.restartTimerLocked()
	}
	c.mu.Unlock()
}
