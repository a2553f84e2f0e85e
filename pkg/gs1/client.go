package gs1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/ecoscan-in/ecoscan-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://gs1datakart.org/dkapi"
	responseBodyReadLimit int64 = 1024
)

var (
	errAuthTokenRequired = errors.New("gs1 datakart auth token is required")
)

// Client wraps the GS1 DataKart product catalog API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured DataKart base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the DataKart client given a bearer token.
func NewClient(authToken string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(authToken)
	if trimmedToken == "" {
		return nil, errAuthTokenRequired
	}

	client := &Client{
		authToken:  trimmedToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Product is the normalized catalog entry returned by DataKart.
type Product struct {
	GTIN            string   `json:"gtin"`
	Brand           string   `json:"brand"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	SubCategory     string   `json:"sub_category"`
	CountryOfOrigin string   `json:"country_of_origin"`
	Images          []string `json:"images"`
}

// Lookup fetches the catalog entry for a GTIN. A product stub carrying only
// the GTIN is returned when the catalog has no record, so scans of unlisted
// barcodes still produce a usable product.
func (c *Client) Lookup(ctx context.Context, gtin string) (*Product, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gs1 datakart client not configured")
	}
	trimmed := strings.TrimSpace(gtin)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gtin is required")
	}

	query := url.Values{}
	query.Set("gtin", trimmed)

	endpoint := fmt.Sprintf("%s/product?%s", strings.TrimRight(c.baseURL, "/"), query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build product lookup request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute product lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "product lookup request failed")
	}

	var apiResp struct {
		PageInfo struct {
			TotalResults int `json:"totalResults"`
		} `json:"pageInfo"`
		Items []catalogItem `json:"items"`
		Gepir []catalogItem `json:"gepir"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product lookup response")
	}

	var item catalogItem
	switch {
	case apiResp.PageInfo.TotalResults > 0 && len(apiResp.Items) > 0:
		item = apiResp.Items[0]
	case len(apiResp.Gepir) > 0:
		item = apiResp.Gepir[0]
	default:
		item = catalogItem{GTIN: trimmed}
	}

	product := item.toProduct()
	if product.GTIN == "" {
		product.GTIN = trimmed
	}
	if product.Name == "" {
		product.Name = trimmed
	}
	return product, nil
}

type catalogItem struct {
	GTIN            string   `json:"gtin"`
	Brand           string   `json:"brand"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	SubCategory     string   `json:"sub_category"`
	CountryOfOrigin string   `json:"country_of_origin"`
	Images          []string `json:"images"`
}

func (i catalogItem) toProduct() *Product {
	return &Product{
		GTIN:            i.GTIN,
		Brand:           i.Brand,
		Name:            i.Name,
		Description:     i.Description,
		Category:        i.Category,
		SubCategory:     i.SubCategory,
		CountryOfOrigin: i.CountryOfOrigin,
		Images:          i.Images,
	}
}
