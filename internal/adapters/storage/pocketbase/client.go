// Package pocketbase implementa los repositorios sobre la REST API de PocketBase
// (colecciones members, deals y reviews que escribe el bot).
package pocketbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"commontrust-web/internal/platform/httpclient"
	"commontrust-web/internal/ports/records"
)

const (
	colMembers = "members"
	colDeals   = "deals"
	colReviews = "reviews"
)

type Client struct {
	http *httpclient.Client
}

func New(baseURL, token string, timeout time.Duration) (*Client, error) {
	hc, err := httpclient.New(baseURL, token, timeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// listQuery son los parámetros de /records.
type listQuery struct {
	Page   records.Page
	Sort   string
	Filter string
	Expand string
}

func (q listQuery) values() url.Values {
	p := q.Page.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("perPage", strconv.Itoa(p.PerPage))
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Filter != "" {
		v.Set("filter", q.Filter)
	}
	if q.Expand != "" {
		v.Set("expand", q.Expand)
	}
	return v
}

type listResult struct {
	Page       int               `json:"page"`
	PerPage    int               `json:"perPage"`
	TotalItems int               `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
	Items      []json.RawMessage `json:"items"`
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

func recordPath(collection, id string) string {
	return recordsPath(collection) + "/" + url.PathEscape(id)
}

func (c *Client) list(ctx context.Context, collection string, q listQuery) (listResult, error) {
	var out listResult
	err := c.http.DoJSON(ctx, http.MethodGet, recordsPath(collection), q.values(), nil, &out)
	return out, storeErr(err)
}

func (c *Client) get(ctx context.Context, collection, id, expand string, out any) error {
	if strings.TrimSpace(id) == "" {
		return records.ErrNotFound
	}
	var q url.Values
	if expand != "" {
		q = url.Values{"expand": {expand}}
	}
	return storeErr(c.http.DoJSON(ctx, http.MethodGet, recordPath(collection, id), q, nil, out))
}

// first devuelve el primer record que matchea filter, o records.ErrNotFound.
func (c *Client) first(ctx context.Context, collection, filter, expand string, out any) error {
	res, err := c.list(ctx, collection, listQuery{Page: records.Page{Page: 1, PerPage: 1}, Filter: filter, Expand: expand})
	if err != nil {
		return err
	}
	if len(res.Items) == 0 {
		return records.ErrNotFound
	}
	if err := json.Unmarshal(res.Items[0], out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", records.ErrUnavailable, collection, err)
	}
	return nil
}

func (c *Client) patch(ctx context.Context, collection, id string, body map[string]any) error {
	if strings.TrimSpace(id) == "" {
		return records.ErrNotFound
	}
	return storeErr(c.http.DoJSON(ctx, http.MethodPatch, recordPath(collection, id), nil, body, nil))
}

func (c *Client) delete(ctx context.Context, collection, id string) error {
	if strings.TrimSpace(id) == "" {
		return records.ErrNotFound
	}
	return storeErr(c.http.DoJSON(ctx, http.MethodDelete, recordPath(collection, id), nil, nil, nil))
}

func (c *Client) count(ctx context.Context, collection string) (int, error) {
	res, err := c.list(ctx, collection, listQuery{Page: records.Page{Page: 1, PerPage: 1}})
	if err != nil {
		return 0, err
	}
	return res.TotalItems, nil
}

// decodeItems decodifica cada item de un listado.
func decodeItems[T any](collection string, raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, it := range raw {
		var v T
		if err := json.Unmarshal(it, &v); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", records.ErrUnavailable, collection, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case httpclient.IsNotFound(err):
		return records.ErrNotFound
	default:
		return fmt.Errorf("%w: %v", records.ErrUnavailable, err)
	}
}

// EscapeFilter escapa un literal para usarlo entre comillas simples en un filter.
func EscapeFilter(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

func eq(field, value string) string {
	return field + "='" + EscapeFilter(value) + "'"
}

func anyOf(clauses ...string) string {
	return "(" + strings.Join(clauses, " || ") + ")"
}

// pbTime acepta el formato de PocketBase ("2006-01-02 15:04:05.000Z") y RFC3339.
type pbTime struct {
	time.Time
}

var pbLayouts = []string{
	"2006-01-02 15:04:05.000Z",
	"2006-01-02 15:04:05Z",
	time.RFC3339Nano,
}

func (t *pbTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range pbLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v.UTC()
			return nil
		}
	}
	return fmt.Errorf("pocketbase: bad datetime %q", s)
}

func (t pbTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.000Z")
}
