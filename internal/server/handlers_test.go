package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/localstore"
	"github.com/jonathan/resume-builder/internal/types"
)

// newTestServer builds a server with just the pieces the storage-free
// handlers touch.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	local, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	return &Server{
		log:       zerolog.Nop(),
		local:     local,
		validator: validator.New(),
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleImport_NormalizesPayload(t *testing.T) {
	s := newTestServer(t)
	payload := `{
		"contact": {"first_name": "Maria", "last_name": "Alvarez", "email": "m@example.com"},
		"skills": ["Fluent in Spanish", "Wound Care", "Epic"],
		"education": [{"degree": "BSN", "school": "State University"}]
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(payload))
	s.handleImport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Document)
	assert.Equal(t, "Maria", resp.Document.Identity.FirstName)
	assert.True(t, resp.Progress[types.SectionIdentity])
	assert.True(t, resp.Progress[types.SectionEducation])
	assert.False(t, resp.Progress[types.SectionNarrative])
}

func TestHandleImport_RejectionReturns422WithReasons(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(`{"notes": "nothing usable"}`))
	s.handleImport(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error   string   `json:"error"`
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "import rejected", body.Error)
	assert.NotEmpty(t, body.Reasons)
}

func TestHandleImport_MalformedJSONIs400(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader("{not json"))
	s.handleImport(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRender_UnconfiguredRendererIs503(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/render/doc-1", nil)
	s.handleRender(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWriteError_ShapesBody(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.writeError(rec, &ErrDocumentNotFound{ID: "doc-9"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "doc-9")
}
