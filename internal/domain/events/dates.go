package events

import (
	"fmt"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/simple-event-calendar/server/internal/domain/apperr"
)

// Layouts tried before falling back to natural-language parsing. The zoneless
// ones are what an HTML datetime-local input submits.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDateTime reads a client-supplied timestamp. Values without a zone are
// taken in loc. Relative phrases ("tomorrow 18:00") are resolved against now.
func ParseDateTime(field, value string, now time.Time, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperr.Validation(fmt.Sprintf("%s is required", field))
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	parsed, err := dps.Parse(&dps.Configuration{
		Languages:   []string{"en", "pt"},
		CurrentTime: now.In(loc),
	}, value)
	if err != nil || parsed.Time.IsZero() {
		return time.Time{}, apperr.Validation(fmt.Sprintf("%s must be a valid date and time", field))
	}
	return parsed.Time, nil
}
