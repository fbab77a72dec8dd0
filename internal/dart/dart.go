/*
Package dart fetches disclosure listings and document bodies from the Open DART API.
*/
package dart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shanehull/dartalert/internal/types"
)

const (
	DefaultBaseURL = "https://opendart.fss.or.kr/api"
	DefaultTimeout = 5 * time.Second
	DefaultCount   = 20

	listPath     = "/list.json"
	documentPath = "/document.xml"

	// Caps a single document download.
	maxDocumentBytes = 32 << 20

	StatusOK     = "000"
	StatusNoData = "013"
)

// StatusError is returned when the API answers with a non-success status code.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dart api returned status %s: %s", e.Status, e.Message)
}

// ListQuery selects the records returned by FetchList. Dates are YYYYMMDD and
// optional; the API defaults to the current day.
type ListQuery struct {
	Count     int
	BeginDate string
	EndDate   string
}

type listResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	List    []types.Disclosure `json:"list"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at another API root. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchList returns the most recent disclosures, newest first, as the API
// orders them. A "no data" status yields an empty slice and no error.
func (c *Client) FetchList(ctx context.Context, q ListQuery) ([]types.Disclosure, error) {
	count := q.Count
	if count <= 0 {
		count = DefaultCount
	}

	params := url.Values{}
	params.Set("crtfc_key", c.apiKey)
	params.Set("page_count", strconv.Itoa(count))
	if q.BeginDate != "" {
		params.Set("bgn_de", q.BeginDate)
	}
	if q.EndDate != "" {
		params.Set("end_de", q.EndDate)
	}

	body, err := c.get(ctx, listPath, params, 0)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode disclosure list: %w", err)
	}

	switch resp.Status {
	case StatusOK:
		return resp.List, nil
	case StatusNoData:
		return nil, nil
	default:
		return nil, &StatusError{Status: resp.Status, Message: resp.Message}
	}
}

// FetchDocument downloads the zipped original document of a disclosure.
func (c *Client) FetchDocument(ctx context.Context, receiptNo string) ([]byte, error) {
	params := url.Values{}
	params.Set("crtfc_key", c.apiKey)
	params.Set("rcept_no", receiptNo)

	body, err := c.get(ctx, documentPath, params, maxDocumentBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", receiptNo, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, limit int64) ([]byte, error) {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error repeats the full URL, which carries the API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("failed to fetch URL %s: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: Failed to close response body for %s: %v", endpoint, err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-OK status code %d from %s", resp.StatusCode, endpoint)
	}

	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", endpoint, err)
	}
	return body, nil
}
