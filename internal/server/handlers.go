package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jonathan/resume-builder/internal/completion"
	"github.com/jonathan/resume-builder/internal/importer"
	"github.com/jonathan/resume-builder/internal/render"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/store"
	"github.com/jonathan/resume-builder/internal/types"
)

// DocumentRequest is the request body for document create and update.
type DocumentRequest struct {
	Title        string                   `json:"title"`
	TemplateID   string                   `json:"template_id"`
	SectionOrder []string                 `json:"section_order"`
	Content      *types.CanonicalDocument `json:"content" validate:"required"`
}

// DocumentResponse is the full document representation.
type DocumentResponse struct {
	ID           string                   `json:"id"`
	Title        string                   `json:"title"`
	TemplateID   string                   `json:"template_id"`
	SectionOrder []string                 `json:"section_order"`
	LastUpdated  time.Time                `json:"last_updated"`
	Content      *types.CanonicalDocument `json:"content"`
}

// SaveResponse is what create and update return.
type SaveResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastUpdated time.Time `json:"last_updated"`
}

// ImportResponse carries the normalized document plus its completion map.
type ImportResponse struct {
	Document *types.CanonicalDocument `json:"document"`
	Progress map[string]bool          `json:"progress"`
}

// MigrationResponse reports the backend selector state.
type MigrationResponse struct {
	State       string `json:"state"`
	Outstanding bool   `json:"outstanding"`
	Attempts    int    `json:"attempts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, &ErrValidation{Field: "content", Message: "content is required"})
		return
	}
	if err := req.Content.Validate(); err != nil {
		s.writeError(w, &ErrValidation{Field: "content", Message: err.Error()})
		return
	}

	db, err := s.requestStore(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res := db.Save(r.Context(), req.Content, store.SaveOptions{
		Title:        req.Title,
		TemplateID:   req.TemplateID,
		SectionOrder: req.SectionOrder,
	})
	if !res.OK() {
		s.writeError(w, envelopeError(res.Result, ""))
		return
	}
	s.writeJSON(w, http.StatusCreated, SaveResponse{ID: res.ID, Title: res.Title, LastUpdated: res.LastUpdated})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	db, err := s.requestStore(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	res := db.Load(r.Context(), id)
	if !res.OK() {
		s.writeError(w, envelopeError(res.Result, id))
		return
	}
	s.writeJSON(w, http.StatusOK, DocumentResponse{
		ID:           res.Meta.ID,
		Title:        res.Meta.Title,
		TemplateID:   res.Meta.TemplateID,
		SectionOrder: res.Meta.SectionOrder,
		LastUpdated:  res.Meta.LastUpdated,
		Content:      res.Content,
	})
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, &ErrValidation{Field: "content", Message: "content is required"})
		return
	}
	if err := req.Content.Validate(); err != nil {
		s.writeError(w, &ErrValidation{Field: "content", Message: err.Error()})
		return
	}

	db, err := s.requestStore(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	res := db.Update(r.Context(), id, req.Content, store.SaveOptions{
		Title:        req.Title,
		TemplateID:   req.TemplateID,
		SectionOrder: req.SectionOrder,
	})
	if !res.OK() {
		s.writeError(w, envelopeError(res.Result, id))
		return
	}
	s.writeJSON(w, http.StatusOK, SaveResponse{ID: res.ID, Title: res.Title, LastUpdated: res.LastUpdated})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	db, err := s.requestStore(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	res := db.Delete(r.Context(), id)
	if !res.OK() {
		s.writeError(w, envelopeError(res, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	db, err := s.requestStore(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	metas, res := db.List(r.Context())
	if !res.OK() {
		s.writeError(w, envelopeError(res, ""))
		return
	}
	s.writeJSON(w, http.StatusOK, metas)
}

// handleImport normalizes a raw resume payload. It never persists; the
// caller decides what to do with the canonical document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var raw any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, &ErrValidation{Field: "body", Message: "invalid request body"})
		return
	}

	doc, err := importer.Normalize(raw)
	if err != nil {
		var rejection *importer.RejectionError
		if errors.As(err, &rejection) {
			s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   "import rejected",
				"reasons": rejection.Reasons,
			})
			return
		}
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ImportResponse{
		Document: doc,
		Progress: completion.Progress(doc),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	db, err := s.requestStore(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	res := db.Load(r.Context(), id)
	if !res.OK() {
		s.writeError(w, envelopeError(res.Result, id))
		return
	}
	s.writeJSON(w, http.StatusOK, completion.Progress(res.Content))
}

func (s *Server) handleMigrationStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, MigrationResponse{
		State:       string(s.sel.State()),
		Outstanding: s.sel.Outstanding(),
		Attempts:    s.local.Markers().MigrationAttempts(),
	})
}

func (s *Server) handleMigrationRetry(w http.ResponseWriter, r *http.Request) {
	subject, err := middleware.Subject(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.session.SetSubject(subject)

	state, err := s.sel.Retry(r.Context())
	if err != nil {
		s.writeError(w, &ErrValidation{Field: "state", Message: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, MigrationResponse{
		State:       string(state),
		Outstanding: s.sel.Outstanding(),
		Attempts:    s.local.Markers().MigrationAttempts(),
	})
}

// handleRender loads the saved document and forwards it to the rendering
// service. Only durably saved content is ever rendered.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		s.writeError(w, &ErrBackendUnavailable{Reason: "no rendering service configured"})
		return
	}
	db, err := s.requestStore(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	res := db.Load(r.Context(), id)
	if !res.OK() {
		s.writeError(w, envelopeError(res.Result, id))
		return
	}

	artifact, err := s.renderer.Render(r.Context(), render.Request{
		Title:        res.Meta.Title,
		TemplateID:   res.Meta.TemplateID,
		SectionOrder: res.Meta.SectionOrder,
		Document:     res.Content,
	})
	if err != nil {
		s.writeError(w, &ErrBackendFailed{Reason: err.Error()})
		return
	}
	w.Header().Set("Content-Type", artifact.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Body)
}

// envelopeError maps a result envelope to a typed HTTP error.
func envelopeError(res store.Result, id string) error {
	switch res.Status {
	case store.StatusNotFound:
		return &ErrDocumentNotFound{ID: id}
	case store.StatusUnavailable:
		return &ErrBackendUnavailable{Reason: res.Reason}
	default:
		return &ErrBackendFailed{Reason: res.Reason}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
