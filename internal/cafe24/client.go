package cafe24

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"salesadmin/internal/model"

	"golang.org/x/time/rate"
)

// ErrNeedsAuth means there is no usable credential and the mall must be authorized again
var ErrNeedsAuth = errors.New("cafe24 authorization required")

// OrderStatuses is the status allow-list sent with every order query. Pending and
// cancelled orders are requested too; they are bucketed after the fetch.
const OrderStatuses = "N00,N10,N20,N21,N22,N30,N40,N50,C00,C10,C34,R00,R10,R12,E00,E10,E12"

const (
	defaultAPIVersion = "2024-03-01"
	defaultTimeout    = 30 * time.Second
)

// Client talks to the Cafe24 admin REST API of a single mall
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

// WithBaseURL overrides https://{mall}.cafe24api.com
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outbound requests per second across all fetches of this client
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

func NewClient(mallID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    MallURL(mallID),
		apiVersion: defaultAPIVersion,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MallURL is the API host of a mall
func MallURL(mallID string) string {
	return "https://" + mallID + ".cafe24api.com"
}

type ordersResponse struct {
	Orders []model.Order `json:"orders"`
}

// APIError is a non-2xx answer from Cafe24
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cafe24 api returned %d: %s", e.StatusCode, e.Body)
}

// ListOrders fetches a single page of orders with their items embedded.
// Dates are inclusive YYYY-MM-DD strings.
func (c *Client) ListOrders(ctx context.Context, token, startDate, endDate string, offset int) ([]model.Order, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("start_date", startDate)
	params.Set("end_date", endDate)
	params.Set("order_status", OrderStatuses)
	params.Set("limit", strconv.Itoa(pageLimit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("embed", "items")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/admin/orders?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build orders request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Cafe24-Api-Version", c.apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrNeedsAuth
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return out.Orders, nil
}
