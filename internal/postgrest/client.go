// Package postgrest talks to a Supabase project's REST endpoint (/rest/v1) and
// exposes its tables as store tables.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error is a non-2xx response. Code is the Postgres/PostgREST error code when present.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest %d: %s", e.Status, e.Message)
}

// uniqueViolation is the Postgres code for a unique constraint failure.
const uniqueViolation = "23505"

func (e *Error) duplicate() bool {
	return e.Code == uniqueViolation || (e.Status == http.StatusConflict && e.Code == "")
}

type Client struct {
	base string
	key  string
	http *http.Client
}

// New builds a client for the project at projectURL (https://<ref>.supabase.co).
func New(projectURL, key string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base: strings.TrimRight(projectURL, "/") + "/rest/v1/",
		key:  key,
		http: &http.Client{Timeout: timeout},
	}
}

// Eq builds a query with one equality filter per pair: Eq("id", "p1") -> id=eq.p1.
func Eq(pairs ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		q.Set(pairs[i], "eq."+pairs[i+1])
	}
	return q
}

func (c *Client) do(ctx context.Context, method, table string, q url.Values, body any, prefer string, out any) (http.Header, error) {
	u := c.base + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		e := &Error{Status: resp.StatusCode}
		if json.Unmarshal(raw, e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(raw))
		}
		return nil, e
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", table, err)
		}
	}
	return resp.Header, nil
}

// Select fills out (a pointer to a slice) with the rows matching q.
func (c *Client) Select(ctx context.Context, table string, q url.Values, out any) error {
	if q == nil {
		q = url.Values{}
	}
	if q.Get("select") == "" {
		q.Set("select", "*")
	}
	_, err := c.do(ctx, http.MethodGet, table, q, nil, "", out)
	return err
}

// Insert posts one row and decodes the stored representation into out.
func (c *Client) Insert(ctx context.Context, table string, row, out any) error {
	_, err := c.do(ctx, http.MethodPost, table, nil, []any{row}, "return=representation", out)
	return err
}

// Update patches the rows matching q and decodes the updated rows into out (may be nil).
func (c *Client) Update(ctx context.Context, table string, q url.Values, patch, out any) error {
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	_, err := c.do(ctx, http.MethodPatch, table, q, patch, prefer, out)
	return err
}

func (c *Client) Delete(ctx context.Context, table string, q url.Values) error {
	_, err := c.do(ctx, http.MethodDelete, table, q, nil, "", nil)
	return err
}

// Count returns the exact row count reported in Content-Range ("0-9/42" or "*/0").
func (c *Client) Count(ctx context.Context, table string) (int, error) {
	q := url.Values{"select": {"id"}}
	h, err := c.do(ctx, http.MethodHead, table, q, nil, "count=exact", nil)
	if err != nil {
		return 0, err
	}
	cr := h.Get("Content-Range")
	i := strings.LastIndexByte(cr, '/')
	if i < 0 {
		return 0, fmt.Errorf("count %s: missing Content-Range", table)
	}
	n, err := strconv.Atoi(cr[i+1:])
	if err != nil {
		return 0, fmt.Errorf("count %s: bad Content-Range %q", table, cr)
	}
	return n, nil
}
