package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/dgnsrekt/incidentsync/internal/notify"
)

// FieldError is one invalid configuration value.
type FieldError struct {
	Field   string
	Problem string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Fields []FieldError
}

func (e *ValidationErrors) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Problem: fmt.Sprintf(format, args...)})
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

// Has reports whether field failed validation.
func (e *ValidationErrors) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	fields := make([]FieldError, len(e.Fields))
	copy(fields, e.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", f.Field, f.Problem))
	}
	return sb.String()
}

func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	validateAPI(errs, c.API)
	validateCollector(errs, c.Collector)
	validateCache(errs, c.Cache, c.Budget)
	validateChannel(errs, c.Channel)
	validateNotifications(errs, c.Notifications)

	if c.Logging.Level != "" && !ValidLogLevels[strings.ToLower(c.Logging.Level)] {
		errs.add("logging.level", "unknown level %q (valid: debug, info, warn, error)", c.Logging.Level)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateAPI(errs *ValidationErrors, c APIConfig) {
	if c.BaseURL == "" {
		errs.add("api.base_url", "is required (set INCIDENTSYNC_API_BASE_URL)")
	} else if err := validHTTPURL(c.BaseURL, "http", "https"); err != nil {
		errs.add("api.base_url", "%v", err)
	}
	if c.Token == "" {
		errs.add("api.token", "is required (set INCIDENTSYNC_API_TOKEN)")
	}
	if c.Timeout <= 0 {
		errs.add("api.timeout", "must be positive")
	}
	if c.RatePerSecond < 1 {
		errs.add("api.rate_per_second", "must be >= 1")
	}
}

func validateCollector(errs *ValidationErrors, c CollectorConfig) {
	if c.MaxPages < 1 {
		errs.add("collector.max_pages", "must be >= 1")
	}
	if c.PageSize < 1 {
		errs.add("collector.page_size", "must be >= 1")
	}
	if c.InterPageDelay < 0 {
		errs.add("collector.inter_page_delay", "must not be negative")
	}
	if c.MaxResults < 0 {
		errs.add("collector.max_results", "must not be negative (0 disables the cap)")
	}
	if c.TransientRetries < 0 {
		errs.add("collector.transient_retries", "must not be negative")
	}
	if c.RetryDelay < 0 {
		errs.add("collector.retry_delay", "must not be negative")
	}
}

func validateCache(errs *ValidationErrors, c CacheConfig, b BudgetConfig) {
	if c.VolatileTTL <= 0 {
		errs.add("cache.volatile_ttl", "must be positive")
	} else if c.ReferenceTTL < minReferenceRatio*c.VolatileTTL {
		errs.add("cache.reference_ttl", "must be at least %dx cache.volatile_ttl (%s)", minReferenceRatio, minReferenceRatio*c.VolatileTTL)
	}
	if c.MaxEntries < 1 {
		errs.add("cache.max_entries", "must be >= 1")
	}
	if b.HighBytes <= 0 {
		errs.add("budget.high_bytes", "must be positive")
	}
	if b.CriticalBytes <= b.HighBytes {
		errs.add("budget.critical_bytes", "must be greater than budget.high_bytes")
	}
}

func validateChannel(errs *ValidationErrors, c ChannelConfig) {
	transport := Transport(c.Transport)
	if !ValidTransports[transport] {
		errs.add("channel.transport", "unknown transport %q (valid: socket, stream, poll)", c.Transport)
	}
	switch transport {
	case TransportSocket:
		if c.SocketURL == "" {
			errs.add("channel.socket_url", "is required for the socket transport")
		} else if err := validHTTPURL(c.SocketURL, "ws", "wss"); err != nil {
			errs.add("channel.socket_url", "%v", err)
		}
	case TransportStream:
		if c.StreamURL == "" {
			errs.add("channel.stream_url", "is required for the stream transport")
		} else if err := validHTTPURL(c.StreamURL, "http", "https"); err != nil {
			errs.add("channel.stream_url", "%v", err)
		}
	}

	if transport == TransportPoll || c.FallbackToPoll {
		if c.PollResource == "" {
			errs.add("channel.poll_resource", "is required for polling")
		}
		if c.PollInterval <= 0 {
			errs.add("channel.poll_interval", "must be positive")
		}
		if c.PollWindow <= 0 {
			errs.add("channel.poll_window", "must be positive")
		}
		if c.PollPageSize < 1 {
			errs.add("channel.poll_page_size", "must be >= 1")
		}
	}

	if c.BaseDelay <= 0 {
		errs.add("channel.base_delay", "must be positive")
	}
	if c.Ceiling < c.BaseDelay {
		errs.add("channel.ceiling", "must be >= channel.base_delay")
	}
	if c.MaxAttempts < 1 {
		errs.add("channel.max_attempts", "must be >= 1")
	}
	if c.QueueSize < 1 {
		errs.add("channel.queue_size", "must be >= 1")
	}
	if c.EventResource == "" {
		errs.add("channel.event_resource", "is required")
	}
}

func validateNotifications(errs *ValidationErrors, c NotificationsConfig) {
	if c.Capacity < 1 {
		errs.add("notifications.capacity", "must be >= 1")
	}
	if !c.Push.Enabled {
		return
	}
	if c.Push.Topic == "" {
		errs.add("notifications.push.topic", "is required when push is enabled")
	}
	if !notify.ValidPriority(c.Push.Priority) {
		errs.add("notifications.push.priority", "invalid priority %q (valid: min, low, default, high, urgent)", c.Push.Priority)
	}
}

func validHTTPURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid URL %q (expected %s)", raw, strings.Join(schemes, " or "))
}
