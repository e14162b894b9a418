// Package ident maps arbitrary column labels onto the constrained identifier
// alphabet accepted by the destination store: lowercase [a-z0-9_], at most
// 63 characters (the Postgres identifier limit).
package ident

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hotelops/rmsync/internal/coerce"
)

var (
	separatorRuns = regexp.MustCompile(`[\s\-'’]+`)
	invalidChars  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

const maxLength = 63

// Column normalizes a column label into an identifier.
//
// Date and time labels get special handling: a native date value, or a string
// that parses as a stringified timestamp, becomes a fixed-width YYYY_MM_DD
// token instead of a mangled digit run ("2026-01-16 00:00:00" would otherwise
// truncate into an unreadable identifier). The string heuristic (contains a
// space plus a colon or hyphen) can misfire on labels like
// "Paris - Hotel 2024"; that is a known limitation of the source format, not
// something to second-guess here.
func Column(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format("2006_01_02")
	case string:
		return fromString(val)
	case float64:
		return fromString(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return fromString(strconv.Itoa(val))
	case int64:
		return fromString(strconv.FormatInt(val, 10))
	default:
		return ""
	}
}

func fromString(s string) string {
	if s == "" {
		return ""
	}

	if strings.Contains(s, " ") && (strings.Contains(s, ":") || strings.Contains(s, "-")) {
		if t, ok := coerce.ParseTimestamp(strings.TrimSpace(s)); ok {
			return t.Format("2006_01_02")
		}
	}

	s = coerce.StripAccents(s)
	s = separatorRuns.ReplaceAllString(s, "_")
	s = invalidChars.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	return strings.Trim(s, "_")
}
