// Package sheets calls the spreadsheet-synchronization collaborator. It
// returns a fully materialized replacement tree; the estimate service
// swaps it in with the same wholesale semantics as a version restore.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mestero/estimate-api/internal/config"
	"go.uber.org/zap"
)

// TreeFetcher retrieves the external spreadsheet's section/item rows
type TreeFetcher interface {
	FetchTree(ctx context.Context, spreadsheetRef string) (*Tree, error)
}

// Tree is the replacement tree supplied by the spreadsheet
type Tree struct {
	Sections []SectionRow `json:"sections"`
}

// SectionRow is one spreadsheet section with its item rows
type SectionRow struct {
	Name  string    `json:"name"`
	Items []ItemRow `json:"items"`
}

// ItemRow is one spreadsheet line. Prices is keyed by view name because
// the spreadsheet knows nothing about view identities.
type ItemRow struct {
	Name     string             `json:"name"`
	Unit     string             `json:"unit,omitempty"`
	Quantity float64            `json:"quantity"`
	Prices   map[string]float64 `json:"prices"`
}

// HTTPClient fetches trees from the external synchronization service
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a client pointed at the configured service
func NewHTTPClient(cfg *config.SheetsConfig, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger: logger,
	}
}

// FetchTree retrieves the current spreadsheet contents as a tree
func (c *HTTPClient) FetchTree(ctx context.Context, spreadsheetRef string) (*Tree, error) {
	endpoint := fmt.Sprintf("%s/sheets/%s/tree", c.baseURL, url.PathEscape(spreadsheetRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Sheet fetch failed", zap.Error(err), zap.String("spreadsheet_ref", spreadsheetRef))
		return nil, fmt.Errorf("sheet service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Sheet service returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("spreadsheet_ref", spreadsheetRef),
		)
		return nil, fmt.Errorf("sheet service returned status %d", resp.StatusCode)
	}

	var tree Tree
	if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode sheet tree: %w", err)
	}
	return &tree, nil
}
