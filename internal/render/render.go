// Package render is the boundary to the external rendering collaborator.
// The core never renders; it hands a saved document to a Renderer and
// returns whatever artifact comes back.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonathan/resume-builder/internal/types"
)

// Request is the payload handed to the rendering service.
type Request struct {
	Title        string                   `json:"title"`
	TemplateID   string                   `json:"template_id"`
	SectionOrder []string                 `json:"section_order"`
	Document     *types.CanonicalDocument `json:"document"`
}

// Artifact is the rendered output.
type Artifact struct {
	ContentType string
	Body        []byte
}

// Renderer turns a canonical document into a rendered artifact.
type Renderer interface {
	Render(ctx context.Context, req Request) (*Artifact, error)
}

// HTTPRenderer posts render requests to an external rendering service.
type HTTPRenderer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRenderer creates a renderer that posts to baseURL/render.
func NewHTTPRenderer(baseURL string) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Render implements Renderer.
func (r *HTTPRenderer) Render(ctx context.Context, req Request) (*Artifact, error) {
	if req.Document == nil {
		return nil, fmt.Errorf("render request has no document")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode render request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render service unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read render response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service returned %d: %s", resp.StatusCode, truncate(payload, 200))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Artifact{ContentType: contentType, Body: payload}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
