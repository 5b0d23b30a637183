// Package render calls the document-rendering collaborator that turns
// resolved act lines into a downloadable artifact. The core only needs
// the artifact bytes or a failure.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mestero/estimate-api/internal/config"
	"go.uber.org/zap"
)

// Renderer produces a document artifact from already-resolved act lines
type Renderer interface {
	RenderAct(ctx context.Context, req ActDocument) ([]byte, error)
}

// ActDocument is the render payload: everything the renderer needs,
// already resolved, so it never reads estimate state itself
type ActDocument struct {
	Number     string    `json:"number"`
	Date       string    `json:"date"`
	Contractor string    `json:"contractor,omitempty"`
	Customer   string    `json:"customer,omitempty"`
	Total      float64   `json:"total"`
	Lines      []ActLine `json:"lines"`
}

// ActLine is one row of the rendered document
type ActLine struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit,omitempty"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
	Subtotal bool    `json:"subtotal,omitempty"`
}

// HTTPRenderer renders via the external rendering service
type HTTPRenderer struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPRenderer creates a renderer pointed at the configured service
func NewHTTPRenderer(cfg *config.RenderConfig, logger *zap.Logger) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger: logger,
	}
}

// RenderAct posts the document description and returns the artifact bytes
func (r *HTTPRenderer) RenderAct(ctx context.Context, doc ActDocument) ([]byte, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render/act", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Error("Render request failed", zap.Error(err), zap.String("act_number", doc.Number))
		return nil, fmt.Errorf("render service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Render service returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("act_number", doc.Number),
		)
		return nil, fmt.Errorf("render service returned status %d", resp.StatusCode)
	}

	artifact, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered artifact: %w", err)
	}
	return artifact, nil
}
