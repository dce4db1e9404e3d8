package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/types"
)

func renderRequest() Request {
	doc := types.DefaultDocument()
	doc.Identity = &types.Identity{FirstName: "Maria", LastName: "Alvarez"}
	return Request{
		Title:        "My Resume",
		TemplateID:   types.DefaultTemplateID,
		SectionOrder: types.SectionKeys(),
		Document:     doc,
	}
}

func TestHTTPRenderer_Render(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/render", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "My Resume", req.Title)
		assert.Equal(t, "Maria", req.Document.Identity.FirstName)

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-stub"))
	}))
	defer srv.Close()

	artifact, err := NewHTTPRenderer(srv.URL).Render(context.Background(), renderRequest())
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.Equal(t, []byte("%PDF-stub"), artifact.Body)
}

func TestHTTPRenderer_NonOKStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template not found", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPRenderer(srv.URL).Render(context.Background(), renderRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "template not found")
}

func TestHTTPRenderer_MissingContentTypeDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("raw"))
	}))
	defer srv.Close()

	artifact, err := NewHTTPRenderer(srv.URL).Render(context.Background(), renderRequest())
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", artifact.ContentType)
}

func TestHTTPRenderer_RejectsNilDocument(t *testing.T) {
	req := renderRequest()
	req.Document = nil

	_, err := NewHTTPRenderer("http://localhost:0").Render(context.Background(), req)
	assert.Error(t, err)
}

func TestHTTPRenderer_UnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewHTTPRenderer(srv.URL).Render(context.Background(), renderRequest())
	assert.Error(t, err)
}
