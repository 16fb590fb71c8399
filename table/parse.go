package table

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrNotANumber = errors.New("not a number")

// dateLayouts are tried in order. Slash dates are read month first.
var dateLayouts = []struct {
	layout  string
	hasTime bool
}{
	{"2006-01-02", false},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04:05.999999", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02T15:04:05", true},
	{time.RFC3339Nano, true},
	{"2006/01/02", false},
	{"01/02/2006", false},
	{"1/2/2006", false},
	{"01/02/2006 15:04:05", true},
	{"1/2/2006 15:04", true},
	{"02.01.2006", false},
	{"02.01.2006 15:04:05", true},
	{"01-02-06", false},
	{"1/2/06", false},
	{"1/2/06 15:04", true},
	{"2 Jan 2006", false},
	{"Jan 2, 2006", false},
}

// ParseDate parses a cell. A written zone offset is kept so the wall-clock
// date survives truncation; cells without one are UTC. hasTime reports whether
// the matched layout carried a time of day.
func ParseDate(value string) (t time.Time, hasTime bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, errors.New("empty date")
	}
	for _, l := range dateLayouts {
		if t, err = time.Parse(l.layout, value); err == nil {
			return t, l.hasTime, nil
		}
	}
	return time.Time{}, false, err
}

// ParseNumber accepts "1234.5", "1234,5", "1.234,50", "1,234.50", "3,500" and an
// optional currency prefix such as "R$ 50,00". A single comma is decimal unless
// exactly three digits follow it.
func ParseNumber(value string) (float64, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return r == 'R' || r == '$' || r == '€' || r == '£' || r == ' ' || r == ' '
	})
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, ErrNotANumber
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || isThousandsComma(s, lastComma) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotANumber
	}
	return f, nil
}

// isThousandsComma reads a lone comma followed by exactly three digits as a
// thousands separator ("3,500"), unless the integer part is zero ("0,500").
func isThousandsComma(s string, comma int) bool {
	frac := s[comma+1:]
	if len(frac) != 3 || strings.Trim(frac, "0123456789") != "" {
		return false
	}
	whole := strings.TrimLeft(s[:comma], "+-")
	return whole != "" && strings.Trim(whole, "0") != ""
}

func parseInt(value string) bool {
	s := strings.TrimSpace(value)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
