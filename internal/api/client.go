package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/incidentsync/internal/data"
)

const maxBodySize = 32 << 20

// Fetcher issues one bounded request for one page of a paginated resource.
// It never retries; retry policy belongs to the caller.
type Fetcher interface {
	FetchPage(ctx context.Context, req data.PageRequest) (*data.PageResult, error)
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	creds      CredentialSource
	limiter    *rate.Limiter
	userAgent  string
	logger     *zap.Logger
}

// listResponse is the envelope every paginated list endpoint returns.
type listResponse struct {
	Count   *int          `json:"count"`
	Next    *string       `json:"next"`
	Results []data.Record `json:"results"`
}

func NewClient(baseURL string, creds CredentialSource, ratePerSec int, timeout time.Duration, userAgent string, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: true, // gzhttp negotiates and decodes instead
	}

	if ratePerSec < 1 {
		ratePerSec = 1
	}
	if creds == nil {
		creds = StaticToken("")
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: gzhttp.Transport(transport),
			Timeout:   timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		creds:     creds,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		userAgent: userAgent,
		logger:    logger,
	}
}

// FetchPage requests req.Page of req.Query. Network errors, 5xx and 429 come
// back as *TransientError; other 4xx and undecodable bodies as *FatalError.
func (c *HTTPClient) FetchPage(ctx context.Context, req data.PageRequest) (*data.PageResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := c.pageURL(req)
	c.logger.Debug("requesting page",
		zap.String("url", url),
		zap.Int("page", req.Page),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FatalError{Err: fmt.Errorf("creating request: %w", err)}
	}

	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, &FatalError{Err: fmt.Errorf("%w: %v", ErrAuthFailed, err)}
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Err: fmt.Errorf("executing request: %w", err)}
	}

	// Read body before closing for error messages
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	_ = resp.Body.Close()

	if readErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", readErr)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := classifyStatus(resp.StatusCode, body)
		c.logger.Debug("page request failed",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.Bool("authenticated", token != ""),
			zap.String("token", maskToken(token)),
			zap.Error(err),
		)
		return nil, err
	}

	return decodePage(body)
}

func (c *HTTPClient) pageURL(req data.PageRequest) string {
	values := req.Query.Values()
	values.Set("page", strconv.Itoa(req.Page))
	values.Set("page_size", strconv.Itoa(req.PageSize))
	return fmt.Sprintf("%s/%s/?%s", c.baseURL, strings.Trim(req.Query.Resource, "/"), values.Encode())
}

func decodePage(body []byte) (*data.PageResult, error) {
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()

	var lr listResponse
	if err := dec.Decode(&lr); err != nil {
		return nil, &FatalError{Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if lr.Count == nil || lr.Results == nil {
		return nil, &FatalError{Err: fmt.Errorf("%w: missing count or results", ErrMalformedResponse)}
	}
	if *lr.Count < 0 {
		return nil, &FatalError{Err: fmt.Errorf("%w: negative count %d", ErrMalformedResponse, *lr.Count)}
	}

	return &data.PageResult{
		Items:      lr.Results,
		TotalCount: *lr.Count,
		HasNext:    lr.Next != nil && *lr.Next != "",
	}, nil
}

// IsCanceled reports whether err came from the caller's context rather than the API.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
