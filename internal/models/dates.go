package models

import (
	"fmt"
	"strings"
	"time"
)

// ISODate is the canonical calendar-date layout used in request URLs and
// cache keys.
const ISODate = "2006-01-02"

// DateString normalizes a date-like value to an ISO calendar-date string.
// Strings are trimmed and passed through (already-formatted dates and full
// timestamps both reduce to their date part when parseable); time values are
// formatted in the business timezone. Normalization never fails: a value we
// cannot interpret is rendered with its default formatting.
func DateString(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(d)
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.In(BusinessTimezone).Format(ISODate)
		}
		return s
	case time.Time:
		return d.In(BusinessTimezone).Format(ISODate)
	case *time.Time:
		if d == nil {
			return ""
		}
		return d.In(BusinessTimezone).Format(ISODate)
	case fmt.Stringer:
		return strings.TrimSpace(d.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}
