package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/data"
)

func newTestClient(url string) *HTTPClient {
	logger, _ := zap.NewDevelopment()
	return NewClient(url, StaticToken("test-token"), 100, 5*time.Second, "incidentsync-test", logger)
}

func pageReq(t *testing.T, page int) data.PageRequest {
	t.Helper()
	req, err := data.NewPageRequest(data.NewQuery("incidents", map[string]string{"office": "4"}), page, 50)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestFetchPage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify auth header
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("expected Bearer test-token, got %s", auth)
		}

		if r.URL.Path != "/incidents/" {
			t.Errorf("expected path /incidents/, got %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("page_size") != "50" || q.Get("office") != "4" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}

		next := "http://example/incidents/?page=3"
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":   120,
			"next":    next,
			"results": []map[string]any{{"id": 1}, {"id": 2}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	page, err := client.FetchPage(context.Background(), pageReq(t, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.TotalCount != 120 {
		t.Errorf("expected count 120, got %d", page.TotalCount)
	}
	if !page.HasNext {
		t.Error("expected hasNext")
	}
	if len(page.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(page.Items))
	}
}

func TestFetchPage_LastPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 1, "next": null, "results": [{"id": 9}]}`))
	}))
	defer server.Close()

	page, err := newTestClient(server.URL).FetchPage(context.Background(), pageReq(t, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.HasNext {
		t.Error("expected no next page")
	}
}

func TestFetchPage_RateLimited(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchPage(context.Background(), pageReq(t, 1))
	if !IsTransient(err) || !IsRateLimited(err) {
		t.Errorf("expected rate-limited transient error, got %v", err)
	}

	// No retry at this layer
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestFetchPage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchPage(context.Background(), pageReq(t, 1))
	if !IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
	if IsRateLimited(err) {
		t.Error("5xx without signature must not count as rate limiting")
	}
}

func TestFetchPage_ThrottleSignature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`Request was throttled. Expected available in 3 seconds.`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchPage(context.Background(), pageReq(t, 1))
	if !IsRateLimited(err) {
		t.Errorf("expected throttle message to be classified as rate limiting, got %v", err)
	}
}

func TestFetchPage_Fatal(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrAuthFailed},
		{"not found", http.StatusNotFound, `{}`, ErrNotFound},
		{"bad request", http.StatusBadRequest, `{"page_size": "invalid"}`, nil},
		{"malformed", http.StatusOK, `{"count": 3`, ErrMalformedResponse},
		{"missing results", http.StatusOK, `{"count": 3, "next": null}`, ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).FetchPage(context.Background(), pageReq(t, 1))
			if !IsFatal(err) {
				t.Fatalf("expected fatal error, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFetchPage_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).FetchPage(ctx, pageReq(t, 1))
	if !IsCanceled(err) {
		t.Errorf("expected context error, got %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	if got := maskToken("abcdefgh"); got != "abcd****" {
		t.Errorf("unexpected mask: %s", got)
	}
	if got := maskToken("abc"); got != "****" {
		t.Errorf("unexpected mask: %s", got)
	}
}
