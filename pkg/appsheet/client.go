package appsheet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/appsheetkit/appsheet_sdk_go/internal/actionapi"
	"github.com/appsheetkit/appsheet_sdk_go/internal/httpx"
)

// Config holds the immutable settings of a Client.
type Config struct {
	AppID     string
	AccessKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Locale and Timezone default to DefaultLocale and DefaultTimezone.
	Locale   string
	Timezone string
	// RunAsUserEmail is forwarded as a request property when set.
	RunAsUserEmail string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	return c
}

// Validate reports missing credentials.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AppID) == "" {
		return fmt.Errorf("%w: app id is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return fmt.Errorf("%w: access key is required", ErrInvalidConfig)
	}
	return nil
}

// Backend delivers one action request for a table and returns the raw reply
// body. Non-2xx replies must be reported as *HTTPError.
type Backend interface {
	Do(ctx context.Context, table string, req *ActionRequest) ([]byte, error)
}

// Option configures the HTTP transport built by New.
type Option = httpx.Option

// RetryPolicy controls transport retries. The default performs none.
type RetryPolicy = httpx.RetryPolicy

var (
	// WithHTTPClient replaces the underlying *http.Client.
	WithHTTPClient = httpx.WithHTTPClient
	// WithRetryPolicy opts into transport retries.
	WithRetryPolicy = httpx.WithRetryPolicy
	// TransientRetryPolicy retries 408, 429, 5xx and network errors.
	TransientRetryPolicy = httpx.TransientRetryPolicy
)

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return httpx.WithTimeout(d)
}

// Client reads and writes rows of one AppSheet app.
type Client struct {
	cfg     Config
	backend Backend
}

// New constructs a Client talking to the Action API over HTTPS.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := append([]Option{
		httpx.WithHeaders(http.Header{AccessKeyHeader: {cfg.AccessKey}}),
	}, opts...)
	cl, err := httpx.NewClient(cfg.BaseURL, base...)
	if err != nil {
		return nil, fmt.Errorf("appsheet: %w", err)
	}
	return &Client{cfg: cfg, backend: &httpBackend{client: cl, appID: cfg.AppID}}, nil
}

// NewWithBackend allows callers to supply a custom backend (e.g., mocks).
// Credentials are not required.
func NewWithBackend(cfg Config, b Backend) *Client {
	return &Client{cfg: cfg.withDefaults(), backend: b}
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// Query narrows a Find call. Selector is evaluated by the service; Value and
// TargetColumn filter the returned rows locally. A nil Value disables local
// filtering; with an empty TargetColumn every column is compared.
type Query struct {
	Selector     string
	Value        any
	TargetColumn string
}

// Find fetches rows of table with a single Find action.
//
// Without a query every row is returned in service order. A Selector is
// applied server side. A Value keeps only rows where TargetColumn (or, when
// TargetColumn is empty, any column) equals the value's text form. No match
// is an empty slice, not an error.
func (c *Client) Find(ctx context.Context, table string, q *Query) ([]Row, error) {
	var query Query
	if q != nil {
		query = *q
	}

	req := c.newRequest(ActionFind, []Row{})
	req.Properties.Selector = query.Selector

	body, err := c.do(ctx, table, req)
	if err != nil {
		return nil, err
	}
	rows, err := actionapi.DecodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("appsheet: find %s: %w", table, err)
	}
	return filterRows(rows, query), nil
}

// FindAll returns every row of table.
func (c *Client) FindAll(ctx context.Context, table string) ([]Row, error) {
	return c.Find(ctx, table, nil)
}

// Add inserts rows with one Add action. Validation is left to the service;
// batches are sent as given. A row carrying _ComputedKey is rejected with
// ErrComputedKeyInPayload before anything is sent.
func (c *Client) Add(ctx context.Context, table string, rows []Row) (Response, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	payload := make([]Row, len(rows))
	for i, row := range rows {
		if _, ok := row[ComputedKeyColumn]; ok {
			return nil, fmt.Errorf("%w: row %d", ErrComputedKeyInPayload, i)
		}
		payload[i] = row
	}
	return c.mutate(ctx, table, c.newRequest(ActionAdd, payload))
}

// Edit updates one row with an Edit action. row must carry every key column
// of the table plus the fields to change, and is sent verbatim.
// keyColumnHint names the key column. When set it must be present in row and
// is encoded as the row's first column; it adds nothing else to the payload.
func (c *Client) Edit(ctx context.Context, table, keyColumnHint string, row Row) (Response, error) {
	if len(row) == 0 {
		return nil, ErrNoRows
	}
	if _, ok := row[ComputedKeyColumn]; ok || keyColumnHint == ComputedKeyColumn {
		return nil, ErrComputedKeyInPayload
	}
	if keyColumnHint != "" {
		if _, ok := row[keyColumnHint]; !ok {
			return nil, fmt.Errorf("%w: the key column %q must be included in the row data", ErrMissingKeyColumn, keyColumnHint)
		}
	}
	req := c.newRequest(ActionEdit, []Row{row.Clone()})
	req.LeadColumn = keyColumnHint
	return c.mutate(ctx, table, req)
}

// Delete removes the row identified by key with a Delete action.
func (c *Client) Delete(ctx context.Context, table string, key RowKey) (Response, error) {
	id, err := key.Identifier()
	if err != nil {
		return nil, err
	}
	return c.mutate(ctx, table, c.newRequest(ActionDelete, []Row{id}))
}

// DeleteRow is an alias of Delete.
func (c *Client) DeleteRow(ctx context.Context, table string, key RowKey) (Response, error) {
	return c.Delete(ctx, table, key)
}

func (c *Client) newRequest(action Action, rows []Row) *ActionRequest {
	return &ActionRequest{
		Action: action,
		Properties: Properties{
			Locale:         c.cfg.Locale,
			Timezone:       c.cfg.Timezone,
			RunAsUserEmail: c.cfg.RunAsUserEmail,
		},
		Rows: rows,
	}
}

func (c *Client) mutate(ctx context.Context, table string, req *ActionRequest) (Response, error) {
	body, err := c.do(ctx, table, req)
	if err != nil {
		return nil, err
	}
	obj, err := actionapi.DecodeObject(body)
	if err != nil {
		return nil, fmt.Errorf("appsheet: %s %s: %w", strings.ToLower(string(req.Action)), table, err)
	}
	return Response(obj), nil
}

func (c *Client) do(ctx context.Context, table string, req *ActionRequest) ([]byte, error) {
	if c == nil || c.backend == nil {
		return nil, fmt.Errorf("appsheet: client is nil")
	}
	if strings.TrimSpace(table) == "" {
		return nil, ErrInvalidTable
	}
	if ctx == nil {
		ctx = context.Background()
	}
	glog.V(2).Infof("[appsheet] %s %s rows=%d selector=%q", req.Action, table, len(req.Rows), req.Properties.Selector)
	body, err := c.backend.Do(ctx, table, req)
	if err != nil {
		glog.Warningf("[appsheet] %s %s failed: %v", req.Action, table, err)
		return nil, err
	}
	return body, nil
}

type httpBackend struct {
	client *httpx.Client
	appID  string
}

func (b *httpBackend) Do(ctx context.Context, table string, req *ActionRequest) ([]byte, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("appsheet: http backend not configured")
	}
	return b.client.PostJSON(ctx, ActionPath(b.appID, table), nil, req)
}

// ActionPath returns the endpoint path, relative to the API root, for a
// table. Spaces in the table name become %20; other reserved characters are
// not supported in table names and are left alone.
func ActionPath(appID, table string) string {
	return "apps/" + url.PathEscape(appID) + "/tables/" + strings.ReplaceAll(table, " ", "%20") + "/Action"
}
