package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateOrder says which of the two leading tokens of D-M-Y style dates is
// the day.
type DateOrder int

const (
	DayFirst DateOrder = iota
	MonthFirst
)

func (o DateOrder) String() string {
	if o == MonthFirst {
		return "month-first"
	}
	return "day-first"
}

// DatePolicy is the explicit date interpretation passed to the normalizer.
//
// Under the lenient policy a reading that is impossible in the preferred
// order (13/25/2023 day-first) falls back to the other order. Under the
// strict policy a date whose leading tokens are both valid months and differ
// (03/04/2023) is rejected as ambiguous instead of being coerced.
type DatePolicy struct {
	Order  DateOrder
	Strict bool
}

// NewDatePolicy builds a policy from its config spelling.
func NewDatePolicy(order string, strict bool) (DatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "day-first", "dayfirst":
		return DatePolicy{Order: DayFirst, Strict: strict}, nil
	case "month-first", "monthfirst":
		return DatePolicy{Order: MonthFirst, Strict: strict}, nil
	}
	return DatePolicy{}, fmt.Errorf("unknown date order %q", order)
}

// ParsedDate is a calendar date (UTC midnight) with an optional hour.
type ParsedDate struct {
	Date    time.Time
	Hour    int
	HasTime bool
}

// Parse interprets raw under the policy. ok is false for null, malformed or
// (strict) ambiguous values; callers keep the row and mark the date invalid.
func (p DatePolicy) Parse(raw string) (ParsedDate, bool) {
	s := strings.TrimSpace(raw)
	if IsNull(s) {
		return ParsedDate{}, false
	}

	datePart, timePart := s, ""
	if idx := strings.IndexAny(s, " T"); idx > 0 {
		datePart, timePart = s[:idx], strings.TrimSpace(s[idx+1:])
	}

	day, ok := p.parseDay(datePart)
	if !ok {
		return ParsedDate{}, false
	}

	out := ParsedDate{Date: day}
	if timePart != "" {
		hour, ok := parseHour(timePart)
		if !ok {
			return ParsedDate{}, false
		}
		out.Hour, out.HasTime = hour, true
	}
	return out, true
}

func (p DatePolicy) parseDay(s string) (time.Time, bool) {
	normalized := strings.NewReplacer("/", "-", ".", "-").Replace(s)
	tokens := strings.Split(normalized, "-")
	if len(tokens) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || tok == "" {
			return time.Time{}, false
		}
		nums[i] = n
	}

	// ISO order when the first token is a four digit year.
	if len(tokens[0]) == 4 {
		return civilDate(nums[0], nums[1], nums[2])
	}

	year, ok := expandYear(tokens[2], nums[2])
	if !ok {
		return time.Time{}, false
	}

	a, b := nums[0], nums[1]
	if p.Strict && a >= 1 && a <= 12 && b >= 1 && b <= 12 && a != b {
		return time.Time{}, false
	}

	first, second := a, b // day, month
	if p.Order == MonthFirst {
		first, second = b, a
	}
	if d, ok := civilDate(year, second, first); ok {
		return d, true
	}
	return civilDate(year, first, second)
}

// expandYear maps two digit years the POSIX %y way: 69-99 -> 19xx, 00-68 -> 20xx.
func expandYear(tok string, n int) (int, bool) {
	switch len(tok) {
	case 4:
		return n, true
	case 2:
		if n >= 69 {
			return 1900 + n, true
		}
		return 2000 + n, true
	}
	return 0, false
}

func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

var timeLayouts = []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM", "3:04:05PM", "3:04PM"}

func parseHour(s string) (int, bool) {
	upper := strings.ToUpper(strings.TrimSpace(stripZone(s)))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Hour(), true
		}
	}
	return 0, false
}

// stripZone drops a trailing Z, ±hh:mm or ±hhmm offset. The hour stays the
// wall-clock hour as written.
func stripZone(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return s[:len(s)-1]
	}
	for _, width := range []int{6, 5, 3} {
		if len(s) <= width {
			continue
		}
		sign, offset := s[len(s)-width], s[len(s)-width+1:]
		if (sign == '+' || sign == '-') && isZoneOffset(offset) {
			return s[:len(s)-width]
		}
	}
	return s
}

func isZoneOffset(s string) bool {
	digits := strings.Replace(s, ":", "", 1)
	if len(digits) != 2 && len(digits) != 4 {
		return false
	}
	if strings.Contains(s, ":") && (len(s) != 5 || s[2] != ':') {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatDate writes a calendar date the way the canonical file stores it.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
