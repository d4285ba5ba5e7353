package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/live"
)

// Payload fields worth surfacing in a push body, in display order.
var summaryFields = []string{"title", "name", "status", "office", "description"}

// FormatEventTitle creates the push title for a new event.
func FormatEventTitle(ev data.Event) string {
	if title, ok := ev.Payload["title"].(string); ok && title != "" {
		return fmt.Sprintf("New event #%d: %s", ev.ID, title)
	}
	return fmt.Sprintf("New event #%d", ev.ID)
}

// FormatEventMessage creates the push body for a new event.
func FormatEventMessage(ev data.Event) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ID: %d\n", ev.ID))
	if !ev.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Created: %s\n", ev.CreatedAt.UTC().Format(time.RFC3339)))
	}

	fields := make([]string, 0, len(summaryFields))
	for _, f := range summaryFields {
		if v, ok := ev.Payload[f]; ok && v != nil && f != "title" {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("%s: %v\n", f, ev.Payload[f]))
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// FormatChannelFailure creates the push body for a channel that gave up.
func FormatChannelFailure(s live.State) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Transport: %s\n", s.Transport))
	sb.WriteString(fmt.Sprintf("Since: %s", s.Since.UTC().Format(time.RFC3339)))
	if s.LastError != "" {
		sb.WriteString(fmt.Sprintf("\n\nError: %s", s.LastError))
	}
	return sb.String()
}
