package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingID     = errors.New("event has no id")
	ErrInvalidID     = errors.New("event id is not an integer")
	ErrInvalidPaging = errors.New("page and page size must be positive")
)

// Record is one item of a paginated list response, decoded as-is.
type Record map[string]any

// Query identifies a paginated collection: the list endpoint plus its filters.
// Params never carries paging keys; those belong to PageRequest.
type Query struct {
	Resource string
	Params   map[string]string
}

// NewQuery builds a query for resource with an optional set of filters.
func NewQuery(resource string, params map[string]string) Query {
	q := Query{Resource: resource, Params: make(map[string]string, len(params))}
	for k, v := range params {
		q.Params[k] = v
	}
	return q
}

// With returns a copy of q with key set to value.
func (q Query) With(key, value string) Query {
	out := NewQuery(q.Resource, q.Params)
	out.Params[key] = value
	return out
}

// Values renders the filters as URL query values.
func (q Query) Values() url.Values {
	v := make(url.Values, len(q.Params))
	for k, val := range q.Params {
		v.Set(k, val)
	}
	return v
}

// Key returns the normalized form of the query: resource plus filters in key order.
// Two queries with the same filters in any insertion order share a key.
func (q Query) Key() string {
	keys := make([]string, 0, len(q.Params))
	for k := range q.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(strings.Trim(q.Resource, "/"))
	for i, k := range keys {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(q.Params[k]))
	}
	return sb.String()
}

func (q Query) String() string { return q.Key() }

// PageRequest asks for one page of a query.
type PageRequest struct {
	Query    Query
	Page     int
	PageSize int
}

// NewPageRequest validates paging bounds.
func NewPageRequest(q Query, page, pageSize int) (PageRequest, error) {
	if page < 1 || pageSize < 1 {
		return PageRequest{}, fmt.Errorf("page=%d page_size=%d: %w", page, pageSize, ErrInvalidPaging)
	}
	return PageRequest{Query: q, Page: page, PageSize: pageSize}, nil
}

// PageResult is one decoded page. TotalCount is the server's count for the whole query.
type PageResult struct {
	Items      []Record
	TotalCount int
	HasNext    bool
}

// Event is a domain event delivered by the live channel or the list endpoint.
type Event struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Payload   Record    `json:"payload"`
}

// EventFromRecord extracts id and created_at from a list record; the whole
// record becomes the payload.
func EventFromRecord(r Record) (Event, error) {
	raw, ok := r["id"]
	if !ok || raw == nil {
		return Event{}, ErrMissingID
	}
	id, err := intFromValue(raw)
	if err != nil {
		return Event{}, err
	}

	ev := Event{ID: id, Payload: r}
	if ts, ok := RecordTime(r, "created_at"); ok {
		ev.CreatedAt = ts
	}
	return ev, nil
}

// UnmarshalJSON accepts either a bare record carrying id/created_at or the
// {id, created_at, payload} envelope.
func (e *Event) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}

	ev, err := EventFromRecord(r)
	if err != nil {
		return err
	}
	if payload, ok := r["payload"].(map[string]any); ok {
		ev.Payload = Record(payload)
	}
	*e = ev
	return nil
}

// RecordTime reads field from r as a timestamp.
func RecordTime(r Record, field string) (time.Time, bool) {
	s, ok := r[field].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func intFromValue(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidID, n.String())
		}
		return id, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidID, n)
		}
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidID, n)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidID, v)
	}
}
