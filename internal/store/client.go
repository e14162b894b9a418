// Package store talks to the destination Postgres store through its REST
// layer and carries records there in failure-tracked batches.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Client is a thin client for the store's REST API (PostgREST dialect:
// tables under /rest/v1/<table>, functions under /rest/v1/rpc/<fn>,
// filtering via query parameters).
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	log     *slog.Logger
}

// NewClient builds a client for the given store endpoint. The API key is
// sent both as apikey and bearer token, as the REST layer expects.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Insert writes records into table and returns the number of rows the store
// confirmed. A response that is not a JSON array counts as a failure even on
// a 2xx status: without the representation there is no confirmation.
func (c *Client) Insert(ctx context.Context, table string, records []map[string]any) (int, error) {
	body, err := c.do(ctx, http.MethodPost, "/rest/v1/"+url.PathEscape(table), records, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return 0, err
	}

	var confirmed []json.RawMessage
	if err := json.Unmarshal(body, &confirmed); err != nil {
		return 0, fmt.Errorf("insert into %s: response lacks row confirmation: %w", table, err)
	}
	return len(confirmed), nil
}

// Tables lists the public tables of the store via its RPC function.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/get_public_tables", map[string]any{}, nil)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		TableName string `json:"table_name"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	tables := make([]string, len(rows))
	for i, row := range rows {
		tables[i] = row.TableName
	}
	return tables, nil
}

// TableColumns returns the column descriptors of one table.
func (c *Client) TableColumns(ctx context.Context, table string) ([]map[string]any, error) {
	body, err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/get_table_columns", map[string]any{"t_name": table}, nil)
	if err != nil {
		return nil, err
	}

	var columns []map[string]any
	if err := json.Unmarshal(body, &columns); err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	return columns, nil
}

// Ping verifies the store is reachable and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Tables(ctx)
	return err
}

// ============================================================================
// Import Templates
// ============================================================================

// Template is a saved import configuration: where a known report goes and
// how its columns are typed and renamed.
type Template struct {
	ID            string            `json:"id,omitempty"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	SourceType    string            `json:"source_type,omitempty"`
	TargetTable   string            `json:"target_table"`
	SheetName     string            `json:"sheet_name,omitempty"`
	HeaderRow     *int              `json:"header_row,omitempty"`
	ColumnTypes   map[string]string `json:"column_types,omitempty"`
	ColumnMapping map[string]string `json:"column_mapping,omitempty"`
	SplitDatetime bool              `json:"split_datetime,omitempty"`
	CreatedAt     string            `json:"created_at,omitempty"`
	UpdatedAt     string            `json:"updated_at,omitempty"`
}

const templatesPath = "/rest/v1/import_templates"

// ListTemplates returns all saved templates, newest first.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	body, err := c.do(ctx, http.MethodGet, templatesPath+"?select=*&order=created_at.desc", nil, nil)
	if err != nil {
		return nil, err
	}

	var templates []Template
	if err := json.Unmarshal(body, &templates); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// GetTemplate fetches one template by id.
func (c *Client) GetTemplate(ctx context.Context, id string) (*Template, error) {
	body, err := c.do(ctx, http.MethodGet, templatesPath+"?select=*&id=eq."+url.QueryEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}

	var templates []Template
	if err := json.Unmarshal(body, &templates); err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return &templates[0], nil
}

// CreateTemplate saves a new template and returns it as stored.
func (c *Client) CreateTemplate(ctx context.Context, tpl Template) (*Template, error) {
	body, err := c.do(ctx, http.MethodPost, templatesPath, tpl, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return nil, err
	}
	return firstTemplate(body)
}

// UpdateTemplate applies a partial update to a template.
func (c *Client) UpdateTemplate(ctx context.Context, id string, patch map[string]any) (*Template, error) {
	path := templatesPath + "?id=eq." + url.QueryEscape(id)
	body, err := c.do(ctx, http.MethodPatch, path, patch, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return nil, err
	}
	return firstTemplate(body)
}

// DeleteTemplate removes a template.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, templatesPath+"?id=eq."+url.QueryEscape(id), nil, nil)
	return err
}

func firstTemplate(body []byte) (*Template, error) {
	var templates []Template
	if err := json.Unmarshal(body, &templates); err != nil {
		return nil, fmt.Errorf("template response: %w", err)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("template response: %w", ErrNotFound)
	}
	return &templates[0], nil
}

// ============================================================================
// Transport
// ============================================================================

func (c *Client) do(ctx context.Context, method, path string, payload any, headers map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read store response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("store %s %s: status %d: %s", method, path, resp.StatusCode, errSnippet(data))
	}
	return data, nil
}

func errSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	if s == "" {
		return "(empty body)"
	}
	return s
}
