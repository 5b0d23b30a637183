// Package parser calls the product-page parsing collaborator that turns a
// list of URLs into priced material lines. Parsing is slow; the timeout
// here is deliberately long.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mestero/estimate-api/internal/config"
	"go.uber.org/zap"
)

// ProductParser extracts priced products from product-page URLs
type ProductParser interface {
	ParseProducts(ctx context.Context, urls []string) ([]Product, error)
}

// Product is one parsed product line
type Product struct {
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Price    float64 `json:"price"`
}

// HTTPClient parses products through the external parsing service
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a client pointed at the configured service
func NewHTTPClient(cfg *config.ParserConfig, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger: logger,
	}
}

// ParseProducts posts the URL list and returns the parsed product lines
func (c *HTTPClient) ParseProducts(ctx context.Context, urls []string) ([]Product, error) {
	body, err := json.Marshal(map[string][]string{"urls": urls})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse/products", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Product parse failed", zap.Error(err), zap.Int("url_count", len(urls)))
		return nil, fmt.Errorf("parser service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Parser service returned error",
			zap.Int("status", resp.StatusCode),
			zap.Int("url_count", len(urls)),
		)
		return nil, fmt.Errorf("parser service returned status %d", resp.StatusCode)
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode parsed products: %w", err)
	}
	return products, nil
}
