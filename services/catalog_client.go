package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultVATRate applies when the catalog does not specify one for a service.
const DefaultVATRate = 0.15

// CatalogService is a priced service definition fetched from the catalog.
// HourlyRate is in minor units.
type CatalogService struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	HourlyRate int64     `json:"hourly_rate"`
	Currency   string    `json:"currency"`
	VATRate    *float64  `json:"vat_rate,omitempty"`
	Active     bool      `json:"active"`
}

// CatalogClient resolves a service id to its current price. Order creation
// never trusts client-supplied amounts.
type CatalogClient interface {
	FetchService(ctx context.Context, serviceID uuid.UUID) (*CatalogService, error)
}

type httpCatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCatalogClient(baseURL string) CatalogClient {
	return &httpCatalogClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *httpCatalogClient) FetchService(ctx context.Context, serviceID uuid.UUID) (*CatalogService, error) {
	url := fmt.Sprintf("%s/services/internal/%s", c.baseURL, serviceID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound("service not found in catalog")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned %d", resp.StatusCode)
	}

	var svc CatalogService
	if err := json.NewDecoder(resp.Body).Decode(&svc); err != nil {
		return nil, err
	}
	return &svc, nil
}
