// Package store defines the backend-agnostic persistence contract shared by
// the ephemeral and durable document backends. All ordinary failure modes
// travel as result envelopes, never as errors, so callers apply fallback
// policy without exception scaffolding at every call site.
package store

import (
	"context"
	"time"

	"github.com/jonathan/resume-builder/internal/types"
)

// Status classifies the outcome of a port operation.
type Status string

const (
	// StatusOK means the operation succeeded.
	StatusOK Status = "ok"
	// StatusNotFound means the referenced document id no longer exists.
	StatusNotFound Status = "not_found"
	// StatusUnavailable means the backend cannot be used at all right now.
	// Non-retryable within the current context.
	StatusUnavailable Status = "unavailable"
	// StatusFailed is a transient per-call failure (network, timeout).
	StatusFailed Status = "failed"
)

// Result is the uniform envelope carried by every port operation.
type Result struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Status == StatusOK }

// LoadResult carries a loaded document and its metadata.
type LoadResult struct {
	Result
	Content *types.CanonicalDocument `json:"content,omitempty"`
	Meta    types.DocumentMeta       `json:"meta,omitempty"`
}

// SaveResult carries the authoritative identity assigned by a save.
type SaveResult struct {
	Result
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title,omitempty"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
}

// SaveOptions are the metadata knobs accepted by Save and Update. An empty
// ID on Save mints a new identity; a non-empty ID is update-or-create at
// that id.
type SaveOptions struct {
	ID           string
	Title        string
	TemplateID   string
	SectionOrder []string
	Progress     map[string]bool
}

// Port is the persistence contract implemented identically by both backends.
// Available is computed synchronously and cheaply (no network call); per-call
// reachability failures surface as StatusFailed envelopes instead.
type Port interface {
	Load(ctx context.Context, id string) LoadResult
	Save(ctx context.Context, content *types.CanonicalDocument, opts SaveOptions) SaveResult
	Update(ctx context.Context, id string, content *types.CanonicalDocument, opts SaveOptions) SaveResult
	Delete(ctx context.Context, id string) Result
	List(ctx context.Context) ([]types.DocumentMeta, Result)
	Available() bool
}

// Ok is the success envelope.
func Ok() Result { return Result{Status: StatusOK} }

// NotFound builds a not-found envelope.
func NotFound(reason string) Result { return Result{Status: StatusNotFound, Reason: reason} }

// Unavailable builds an unavailable envelope.
func Unavailable(reason string) Result { return Result{Status: StatusUnavailable, Reason: reason} }

// Failed builds a transient-failure envelope.
func Failed(reason string) Result { return Result{Status: StatusFailed, Reason: reason} }
