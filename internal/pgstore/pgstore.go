// Package pgstore implements the durable document backend on PostgreSQL.
// Every method is a network round trip; failures surface per call as result
// envelopes while Available reflects only the authentication signal.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/types"
)

// Schema creates the documents table. Applied by EnsureSchema at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	owner_id UUID NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	template_id TEXT NOT NULL DEFAULT '',
	section_order TEXT[] NOT NULL DEFAULT '{}',
	content JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS documents_owner_idx ON documents (owner_id, updated_at DESC);
`

// Store wraps a PostgreSQL connection pool scoped to one identity provider.
type Store struct {
	pool     *pgxpool.Pool
	identity auth.Provider
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string, identity auth.Provider) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, identity: identity}, nil
}

// New wraps an existing pool. Used by tests that manage their own pool.
func New(pool *pgxpool.Pool, identity auth.Provider) *Store {
	return &Store{pool: pool, identity: identity}
}

// WithIdentity returns a view of the store bound to a different identity,
// sharing the underlying pool. The HTTP layer uses this to scope each
// request to its authenticated subject.
func (s *Store) WithIdentity(identity auth.Provider) *Store {
	return &Store{pool: s.pool, identity: identity}
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema applies the documents schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Available implements store.Port. It reflects only "do we believe we are
// authenticated"; network failures surface per call instead.
func (s *Store) Available() bool {
	return s.identity != nil && s.identity.Authenticated()
}

// Load implements store.Port.
func (s *Store) Load(ctx context.Context, id string) store.LoadResult {
	if !s.Available() {
		return store.LoadResult{Result: store.Unavailable("not authenticated")}
	}
	docID, err := uuid.Parse(id)
	if err != nil {
		return store.LoadResult{Result: store.NotFound("invalid document id: " + id)}
	}

	var (
		contentBytes []byte
		meta         types.DocumentMeta
	)
	err = s.pool.QueryRow(ctx,
		`SELECT id, title, template_id, section_order, content, updated_at
		 FROM documents WHERE id = $1 AND owner_id = $2`,
		docID, s.identity.Subject(),
	).Scan(&meta.ID, &meta.Title, &meta.TemplateID, &meta.SectionOrder, &contentBytes, &meta.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.LoadResult{Result: store.NotFound("document not found: " + id)}
		}
		return store.LoadResult{Result: store.Failed(fmt.Sprintf("failed to load document: %v", err))}
	}

	var content types.CanonicalDocument
	if err := json.Unmarshal(contentBytes, &content); err != nil {
		return store.LoadResult{Result: store.Failed(fmt.Sprintf("failed to decode document: %v", err))}
	}
	return store.LoadResult{Result: store.Ok(), Content: &content, Meta: meta}
}

// Save implements store.Port. A supplied id is update-or-create at that id;
// an empty id mints a new identity server-side.
func (s *Store) Save(ctx context.Context, content *types.CanonicalDocument, opts store.SaveOptions) store.SaveResult {
	if !s.Available() {
		return store.SaveResult{Result: store.Unavailable("not authenticated")}
	}
	contentBytes, err := json.Marshal(content)
	if err != nil {
		return store.SaveResult{Result: store.Failed(fmt.Sprintf("failed to encode document: %v", err))}
	}

	sectionOrder := opts.SectionOrder
	if sectionOrder == nil {
		sectionOrder = []string{}
	}

	var result store.SaveResult
	if opts.ID == "" {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO documents (owner_id, title, template_id, section_order, content)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, title, updated_at`,
			s.identity.Subject(), opts.Title, opts.TemplateID, sectionOrder, contentBytes,
		).Scan(&result.ID, &result.Title, &result.LastUpdated)
	} else {
		docID, parseErr := uuid.Parse(opts.ID)
		if parseErr != nil {
			return store.SaveResult{Result: store.NotFound("invalid document id: " + opts.ID)}
		}
		err = s.pool.QueryRow(ctx,
			`INSERT INTO documents (id, owner_id, title, template_id, section_order, content)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE
			 SET title = $3, template_id = $4, section_order = $5, content = $6, updated_at = NOW()
			 WHERE documents.owner_id = $2
			 RETURNING id, title, updated_at`,
			docID, s.identity.Subject(), opts.Title, opts.TemplateID, sectionOrder, contentBytes,
		).Scan(&result.ID, &result.Title, &result.LastUpdated)
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict row belongs to another owner.
			return store.SaveResult{Result: store.NotFound("document not found: " + opts.ID)}
		}
	}
	if err != nil {
		return store.SaveResult{Result: store.Failed(fmt.Sprintf("failed to save document: %v", err))}
	}
	result.Result = store.Ok()
	return result
}

// Update implements store.Port. Calling it without an id is a contract
// violation and panics.
func (s *Store) Update(ctx context.Context, id string, content *types.CanonicalDocument, opts store.SaveOptions) store.SaveResult {
	if id == "" {
		panic("pgstore: Update called without id")
	}
	opts.ID = id
	return s.Save(ctx, content, opts)
}

// Delete implements store.Port.
func (s *Store) Delete(ctx context.Context, id string) store.Result {
	if !s.Available() {
		return store.Unavailable("not authenticated")
	}
	docID, err := uuid.Parse(id)
	if err != nil {
		return store.NotFound("invalid document id: " + id)
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND owner_id = $2`,
		docID, s.identity.Subject(),
	)
	if err != nil {
		return store.Failed(fmt.Sprintf("failed to delete document: %v", err))
	}
	if tag.RowsAffected() == 0 {
		return store.NotFound("document not found: " + id)
	}
	return store.Ok()
}

// List implements store.Port, newest first, scoped to the current owner.
func (s *Store) List(ctx context.Context) ([]types.DocumentMeta, store.Result) {
	if !s.Available() {
		return nil, store.Unavailable("not authenticated")
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, template_id, section_order, updated_at
		 FROM documents WHERE owner_id = $1 ORDER BY updated_at DESC`,
		s.identity.Subject(),
	)
	if err != nil {
		return nil, store.Failed(fmt.Sprintf("failed to list documents: %v", err))
	}
	defer rows.Close()

	metas := []types.DocumentMeta{}
	for rows.Next() {
		var meta types.DocumentMeta
		if err := rows.Scan(&meta.ID, &meta.Title, &meta.TemplateID, &meta.SectionOrder, &meta.LastUpdated); err != nil {
			return nil, store.Failed(fmt.Sprintf("failed to scan document meta: %v", err))
		}
		metas = append(metas, meta)
	}
	return metas, store.Ok()
}
