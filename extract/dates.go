package extract

import (
	"strings"

	"github.com/araddon/dateparse"
)

// NormalizeDate converts a date string in whatever format a site publishes to
// ISO 8601 (seconds precision, no zone). Unparsable input yields "", never an
// error: a missing date does not fail an extraction.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	t, err := dateparse.ParseAny(value)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02T15:04:05")
}
