// Package localstore implements the ephemeral document backend: a single
// document slot stored under fixed file names in a per-profile state
// directory, always available, plus the self-expiring session markers the
// synchronization layer shares across contexts.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/types"
)

// Fixed slot keys. The slot holds at most one document.
const (
	contentFile  = "content.json"
	templateFile = "template"
	progressFile = "progress.json"
	idFile       = "document_id"
)

// contentBlob is the on-disk shape of the content key. Title, section order
// and timestamp ride along with the document so a Load can rebuild the meta.
type contentBlob struct {
	Content      *types.CanonicalDocument `json:"content"`
	Title        string                   `json:"title,omitempty"`
	SectionOrder []string                 `json:"section_order,omitempty"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Store is the ephemeral backend. All slot operations hold one mutex so a
// Delete is never observable half-done.
type Store struct {
	dir     string
	mu      sync.Mutex
	markers *Markers
}

// Open prepares a store rooted at dir, creating it when missing.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("localstore: state directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	s := &Store{dir: dir}
	s.markers = newMarkers(s)
	return s, nil
}

// Markers exposes the session markers living alongside the slot.
func (s *Store) Markers() *Markers { return s.markers }

// Available implements store.Port. The local slot is always available once
// the directory is open.
func (s *Store) Available() bool { return true }

// Load implements store.Port. The id argument is accepted for contract
// parity; the slot holds one document regardless of id.
func (s *Store) Load(_ context.Context, id string) store.LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok, err := s.readContent()
	if err != nil {
		return store.LoadResult{Result: store.Failed(err.Error())}
	}
	if !ok {
		return store.LoadResult{Result: store.NotFound("no document in local slot")}
	}
	slotID := s.readKey(idFile)
	if id != "" && slotID != "" && id != slotID {
		return store.LoadResult{Result: store.NotFound("local slot holds a different document")}
	}
	meta := types.DocumentMeta{
		ID:           slotID,
		Title:        blob.Title,
		TemplateID:   s.readKey(templateFile),
		LastUpdated:  blob.UpdatedAt,
		SectionOrder: blob.SectionOrder,
	}
	return store.LoadResult{Result: store.Ok(), Content: blob.Content, Meta: meta}
}

// Save implements store.Port. The slot is always overwritten; when no id is
// supplied the persisted one is reused so subsequent saves update rather
// than fork, and a collision-resistant id is minted only for a fresh slot.
func (s *Store) Save(_ context.Context, content *types.CanonicalDocument, opts store.SaveOptions) store.SaveResult {
	res, changed := s.save(content, opts)
	if changed {
		// Notify outside the slot mutex so subscribers may read the store.
		s.markers.notifyIdentity(res.ID)
	}
	return res
}

func (s *Store) save(content *types.CanonicalDocument, opts store.SaveOptions) (store.SaveResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := opts.ID
	if id == "" {
		id = s.readKey(idFile)
	}
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	blob := contentBlob{
		Content:      content,
		Title:        opts.Title,
		SectionOrder: opts.SectionOrder,
		UpdatedAt:    now,
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return store.SaveResult{Result: store.Failed(fmt.Sprintf("failed to encode document: %v", err))}, false
	}
	if err := s.writeKey(contentFile, data); err != nil {
		return store.SaveResult{Result: store.Failed(err.Error())}, false
	}
	if err := s.writeKey(templateFile, []byte(opts.TemplateID)); err != nil {
		return store.SaveResult{Result: store.Failed(err.Error())}, false
	}
	if opts.Progress != nil {
		progress, err := json.Marshal(opts.Progress)
		if err != nil {
			return store.SaveResult{Result: store.Failed(fmt.Sprintf("failed to encode progress: %v", err))}, false
		}
		if err := s.writeKey(progressFile, progress); err != nil {
			return store.SaveResult{Result: store.Failed(err.Error())}, false
		}
	}
	previous := s.readKey(idFile)
	if err := s.writeKey(idFile, []byte(id)); err != nil {
		return store.SaveResult{Result: store.Failed(err.Error())}, false
	}
	return store.SaveResult{Result: store.Ok(), ID: id, Title: opts.Title, LastUpdated: now}, previous != id
}

// Update implements store.Port.
func (s *Store) Update(ctx context.Context, id string, content *types.CanonicalDocument, opts store.SaveOptions) store.SaveResult {
	if id == "" {
		panic("localstore: Update called without id")
	}
	opts.ID = id
	return s.Save(ctx, content, opts)
}

// Delete implements store.Port. All four slot keys are cleared under the
// slot mutex; no later Load can observe a partial clear.
func (s *Store) Delete(_ context.Context, _ string) store.Result {
	s.mu.Lock()
	for _, name := range []string{contentFile, templateFile, progressFile, idFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.mu.Unlock()
			return store.Failed(fmt.Sprintf("failed to clear %s: %v", name, err))
		}
	}
	s.mu.Unlock()
	s.markers.notifyIdentity("")
	return store.Ok()
}

// List implements store.Port. The ephemeral backend yields at most one meta.
func (s *Store) List(ctx context.Context) ([]types.DocumentMeta, store.Result) {
	res := s.Load(ctx, "")
	if res.Status == store.StatusNotFound {
		return []types.DocumentMeta{}, store.Ok()
	}
	if !res.OK() {
		return nil, res.Result
	}
	return []types.DocumentMeta{res.Meta}, store.Ok()
}

// Progress returns the persisted progress map, or an empty map when unset.
func (s *Store) Progress() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, progressFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}
	var progress map[string]bool
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to parse progress: %w", err)
	}
	return progress, nil
}

// CurrentID returns the id persisted in the slot, empty when the slot is
// free. This is the shared identity marker other contexts observe.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readKey(idFile)
}

// HasContent reports whether the slot holds a document. Used as the
// migration trigger condition.
func (s *Store) HasContent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok, err := s.readContent()
	return err == nil && ok
}

func (s *Store) readContent() (contentBlob, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, contentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return contentBlob{}, false, nil
	}
	if err != nil {
		return contentBlob{}, false, fmt.Errorf("failed to read local slot: %w", err)
	}
	var blob contentBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return contentBlob{}, false, fmt.Errorf("failed to parse local slot: %w", err)
	}
	return blob, true, nil
}

func (s *Store) readKey(name string) string {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return ""
	}
	return string(data)
}

func (s *Store) writeKey(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
