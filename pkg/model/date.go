package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dmyRe = regexp.MustCompile(`(?i)^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})(?:\s*,?\s*(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*([ap])\.?\s*m\.?)?)?$`)
	isoRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[T ](\d{2}):(\d{2})(?::(\d{2})(?:[.,]\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?$`)
)

// ParseDate parses a sheet date in the local time zone.
func ParseDate(s string) (time.Time, bool) {
	return ParseDateIn(s, time.Local)
}

// ParseDateIn accepts dd/mm/yyyy and dd-mm-yyyy (two-digit years are 20yy)
// with an optional HH:MM[:SS] time and AM/PM marker, ISO yyyy-mm-dd with an
// optional time and zone, and RFC 3339. Impossible calendar values fail.
func ParseDateIn(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	if m := dmyRe.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		hour, ok := meridiem(atoi(m[4]), m[7], m[4] != "")
		if !ok {
			return time.Time{}, false
		}
		return build(year, atoi(m[2]), atoi(m[1]), hour, atoi(m[5]), atoi(m[6]), loc)
	}

	if m := isoRe.FindStringSubmatch(s); m != nil {
		zone := loc
		if m[7] != "" {
			z, ok := parseZone(m[7])
			if !ok {
				return time.Time{}, false
			}
			zone = z
		}
		t, ok := build(atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]), atoi(m[6]), zone)
		if !ok {
			return time.Time{}, false
		}
		return t.In(loc), true
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

// FormatDate renders t the way the sheets store dates.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func meridiem(hour int, marker string, hasTime bool) (int, bool) {
	if marker == "" {
		return hour, !hasTime || hour < 24
	}
	if hour < 1 || hour > 12 {
		return 0, false
	}
	switch strings.ToLower(marker) {
	case "a":
		if hour == 12 {
			return 0, true
		}
	case "p":
		if hour != 12 {
			return hour + 12, true
		}
	}
	return hour, true
}

func build(y, mo, d, h, mi, sec int, loc *time.Location) (time.Time, bool) {
	if mo < 1 || mo > 12 || d < 1 || h > 23 || mi > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, h, mi, sec, 0, loc)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

func parseZone(z string) (*time.Location, bool) {
	if z == "Z" {
		return time.UTC, true
	}
	sign := 1
	if z[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(z[1:], ":", "")
	if len(digits) != 4 {
		return nil, false
	}
	h, m := atoi(digits[:2]), atoi(digits[2:])
	if h > 23 || m > 59 {
		return nil, false
	}
	return time.FixedZone(z, sign*(h*3600+m*60)), true
}

// AllDays disables the trailing-window filter.
const AllDays = -1

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// WithinLastDays reports whether t falls in
// [StartOfDay(now - days), EndOfDay(now)]. AllDays always matches.
func WithinLastDays(t time.Time, days int, now time.Time) bool {
	if days < 0 {
		return true
	}
	t = t.In(now.Location())
	from := StartOfDay(now.AddDate(0, 0, -days))
	return !t.Before(from) && !t.After(EndOfDay(now))
}

// DateWithinLastDays parses s and applies WithinLastDays. Unparseable
// values only match when the filter is disabled.
func DateWithinLastDays(s string, days int, now time.Time) bool {
	if days < 0 {
		return true
	}
	t, ok := ParseDateIn(s, now.Location())
	return ok && WithinLastDays(t, days, now)
}

// ParseWindow reads a window selector: a positive day count or "all".
func ParseWindow(s string) (int, error) {
	switch Normalize(s) {
	case "all", "todo", "todos":
		return AllDays, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid window %q", s)
	}
	return n, nil
}
