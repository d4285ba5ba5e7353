package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrRateLimited       = errors.New("rate limited by API")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrMalformedResponse = errors.New("malformed response body")
)

// TransientError is a failure the caller may retry: network errors, 5xx and 429.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError is a failure that will not improve on retry: 4xx other than 429,
// or a body that cannot be decoded.
type FatalError struct {
	StatusCode int
	Err        error
}

func (e *FatalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fatal error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fatal error: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

var rateLimitSignatures = []string{
	"rate limit",
	"ratelimit",
	"too many requests",
	"throttled",
}

// IsRateLimited reports whether err is a transient error caused by rate
// limiting: HTTP 429 or a message carrying a rate-limit signature.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if !errors.As(err, &te) {
		return false
	}
	if te.StatusCode == http.StatusTooManyRequests || errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range rateLimitSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// classifyStatus maps a non-2xx status to the error taxonomy.
func classifyStatus(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 256 {
		detail = detail[:256]
	}

	switch {
	case status == http.StatusTooManyRequests:
		return &TransientError{StatusCode: status, Err: ErrRateLimited}
	case status >= 500:
		return &TransientError{StatusCode: status, Err: fmt.Errorf("server error: %s", detail)}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &FatalError{StatusCode: status, Err: ErrAuthFailed}
	case status == http.StatusNotFound:
		return &FatalError{StatusCode: status, Err: ErrNotFound}
	default:
		return &FatalError{StatusCode: status, Err: fmt.Errorf("unexpected status: %s", detail)}
	}
}
