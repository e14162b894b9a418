// Package coerce converts raw spreadsheet cells into canonical scalar forms.
//
// Source reports are noisy: the same column can mix native date cells,
// spreadsheet serial numbers, French and US date strings, and numbers
// formatted with either comma or period decimals. Every function in this
// package is total: it never returns an error. A value that cannot be
// coerced degrades to nil, because a missing value is always preferable to
// aborting a whole file over one bad cell.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// serialEpoch is the spreadsheet date epoch: serial N means N days after
// 1899-12-30 (the off-by-two Lotus convention shared by Excel and friends).
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Serial values outside this window are treated as plain numbers, not dates.
// 10000 ≈ 1927-05-18, 80000 ≈ 2119-01-26.
const (
	serialMin = 10000
	serialMax = 80000
)

// dateLayouts are tried in order. Day-first European forms come before the
// month-first US form: the reports are predominantly French exports, so an
// ambiguous 01/02/2026 resolves day-first.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02/01/06",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
}

// dateTimeLayouts cover combined date+clock strings as emitted by the
// reporting tools (ISO with space or T, French day-first with and without
// seconds).
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04:05",
}

// Date coerces a cell to an ISO-8601 date string (YYYY-MM-DD).
//
// Accepted inputs: time.Time, spreadsheet serial numbers, and strings in any
// layout from dateLayouts. Everything else yields nil; unparseable input is
// never passed through as-is.
func Date(v any) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return strPtr(val.Format("2006-01-02"))
	case float64:
		return serialDate(val)
	case int:
		return serialDate(float64(val))
	case int64:
		return serialDate(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return strPtr(t.Format("2006-01-02"))
			}
		}
		return nil
	default:
		return nil
	}
}

// DateTime splits a cell that may carry both a calendar date and a clock time
// into an ISO date string and an HH:MM:SS string.
//
// The clock is nil when the source has no time component: bare date strings
// and midnight-valued spreadsheet serials are calendar-only.
func DateTime(v any) (*string, *string) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if val.IsZero() {
			return nil, nil
		}
		d := strPtr(val.Format("2006-01-02"))
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return d, nil
		}
		return d, strPtr(val.Format("15:04:05"))
	case float64:
		return serialDateTime(val)
	case int:
		return serialDateTime(float64(val))
	case int64:
		return serialDateTime(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		if t, ok := ParseTimestamp(s); ok {
			return strPtr(t.Format("2006-01-02")), strPtr(t.Format("15:04:05"))
		}
		// Date-only fallback.
		return Date(s), nil
	default:
		return nil, nil
	}
}

// ParseTimestamp parses a combined date+clock string.
// Exposed for the identifier normalizer, which needs to recognize
// stringified timestamps before they are mangled into column names.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Number coerces a cell to a finite float64.
//
// String cleanup handles currency symbols, non-breaking and ordinary spaces
// used as thousands separators, and the comma/period ambiguity: whichever of
// the two occurs later in the string is the decimal separator, the other is
// stripped. A lone comma with no period is always decimal ("1000,50").
// Non-numeric residue yields nil.
func Number(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return &val
	case int:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case string:
		return numberFromString(val)
	default:
		return nil
	}
}

// NumberOrZero is the zero-default variant of Number, for aggregate and
// competitive-rate columns where an absent value means "no data reported",
// never "missing". Kept as a separate named function so call sites document
// which semantics they rely on.
func NumberOrZero(v any) float64 {
	if n := Number(v); n != nil {
		return *n
	}
	return 0
}

// Integer coerces a cell to an int64 by numeric coercion plus truncation.
// nil propagates.
func Integer(v any) *int64 {
	n := Number(v)
	if n == nil {
		return nil
	}
	i := int64(*n)
	return &i
}

// Text coerces a cell to clean text: accents stripped via Unicode
// decomposition, control characters removed, surrounding whitespace trimmed.
// An empty result yields nil.
func Text(v any) *string {
	s, ok := stringify(v)
	if !ok {
		return nil
	}
	s = StripAccents(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StripAccents removes diacritics by NFD decomposition followed by dropping
// combining marks ("Réservé" → "Reserve").
func StripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func serialDate(f float64) *string {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < serialMin || f > serialMax {
		return nil
	}
	t := serialEpoch.AddDate(0, 0, int(f))
	return strPtr(t.Format("2006-01-02"))
}

func serialDateTime(f float64) (*string, *string) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < serialMin || f > serialMax {
		return nil, nil
	}
	days := math.Floor(f)
	frac := f - days
	t := serialEpoch.AddDate(0, 0, int(days))
	d := strPtr(t.Format("2006-01-02"))
	if frac == 0 {
		return d, nil
	}
	clock := t.Add(time.Duration(math.Round(frac*86400)) * time.Second)
	return d, strPtr(clock.Format("15:04:05"))
}

func numberFromString(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Spaces (including NBSP and narrow NBSP) only ever group thousands.
	replacer := strings.NewReplacer(
		" ", "", " ", "", " ", "",
		"€", "", "$", "", "£", "", "¥", "",
	)
	s = replacer.Replace(s)
	if s == "" {
		return nil
	}

	// The later of the last comma and last period is the decimal separator;
	// every other comma/period is a thousands separator and is stripped.
	lastComma := strings.LastIndex(s, ",")
	lastPeriod := strings.LastIndex(s, ".")
	if lastComma >= 0 || lastPeriod >= 0 {
		decimal := lastPeriod
		if lastComma > lastPeriod {
			decimal = lastComma
		}
		head := stripSeparators(s[:decimal])
		tail := stripSeparators(s[decimal+1:])
		s = head + "." + tail
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func stripSeparators(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	return strings.ReplaceAll(s, ".", "")
}

// stringify renders a cell as a string for text coercion.
func stringify(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	case time.Time:
		return val.Format("2006-01-02 15:04:05"), true
	default:
		return "", false
	}
}

func strPtr(s string) *string { return &s }
