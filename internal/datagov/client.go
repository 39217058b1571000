// Package datagov fetches Aadhaar statistics from the data.gov.in records
// API and feeds them through the same aggregation pipeline as CSV uploads.
package datagov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/saral/aadhaar-pulse/internal/config"
	"github.com/saral/aadhaar-pulse/internal/pkg/httpretry"
)

// Client is a data.gov.in records API client.
type Client struct {
	baseURL    string
	apiKey     string
	resourceID string
	pageSize   int
	httpClient httpretry.HTTPDoer
}

// NewClient creates a data.gov.in client from configuration.
func NewClient(cfg config.DataGovConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		resourceID: cfg.ResourceID,
		pageSize:   cfg.PageSize,
		httpClient: httpretry.New(&http.Client{Timeout: cfg.Timeout()}, 3),
	}
}

// RecordsPage is one page of the records API response. Field values arrive
// as a mix of strings and numbers, so records are decoded loosely and
// normalized afterwards.
type RecordsPage struct {
	Total   int                      `json:"total"`
	Count   int                      `json:"count"`
	Records []map[string]interface{} `json:"records"`
}

// FetchPage retrieves one page of records at the given offset.
func (c *Client) FetchPage(ctx context.Context, offset int) (*RecordsPage, error) {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(offset))

	fullURL := fmt.Sprintf("%s/resource/%s?%s", c.baseURL, c.resourceID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var page RecordsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &page, nil
}

// FetchAll pages through the resource until it is exhausted.
func (c *Client) FetchAll(ctx context.Context) ([]map[string]interface{}, error) {
	var all []map[string]interface{}
	offset := 0
	for {
		page, err := c.FetchPage(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}
		all = append(all, page.Records...)

		offset += len(page.Records)
		if len(page.Records) == 0 || offset >= page.Total {
			return all, nil
		}
	}
}
