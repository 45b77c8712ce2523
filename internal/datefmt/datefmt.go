// Package datefmt compiles date/time format strings such as
// "YYYY-MM-DD|T|hh:mm:ss" and parses text into seconds since the native epoch.
//
// A format is split on "|". Even sections hold format codes (YYYY, YY, MM, M,
// DD, D, hh, h, mm, m, ss, s) mixed with separators; odd sections are literal
// text. Every section is optional, so "YYYY-MM-DD|T|hh:mm:ss" also accepts a
// bare date. The whole text must match, apart from surrounding whitespace.
// Fields missing from a format or from the text default to
// 2009-01-01 00:00:00.
package datefmt

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NativeEpoch is the zero point of datetime values.
var NativeEpoch = time.Date(2009, time.January, 1, 0, 0, 0, 0, time.UTC)

// UnixOffset is the number of seconds from 1970-01-01 to NativeEpoch.
const UnixOffset = 1230768000

// FromUnix shifts seconds since 1970-01-01 to seconds since NativeEpoch.
func FromUnix(v float64) float64 {
	return v - UnixOffset
}

// ErrNoMatch is returned by Pattern.Parse when the text does not fit the format.
var ErrNoMatch = errors.New("text does not match date format")

// FormatError reports a format string that cannot be compiled.
type FormatError struct {
	Format string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid date format %q: %s", e.Format, e.Reason)
}

type field int

const (
	year field = iota
	month
	day
	hour
	minute
	second
)

type code struct {
	text  string
	field field
	re    string
}

// Longest codes first so "YYYY" is not read as two "YY".
var codes = []code{
	{"YYYY", year, `[0-9]{4}`},
	{"YY", year, `[0-9]{2}`},
	{"MM", month, `[0-9]{2}`},
	{"M", month, `[0-9]{1,2}`},
	{"DD", day, `[0-9]{2}`},
	{"D", day, `[0-9]{1,2}`},
	{"hh", hour, `[0-9]{2}`},
	{"h", hour, `[0-9]{1,2}`},
	{"mm", minute, `[0-9]{2}`},
	{"m", minute, `[0-9]{1,2}`},
	{"ss", second, `[0-9]{2}(?:\.[0-9]*)?`},
	{"s", second, `[0-9]{1,2}(?:\.[0-9]*)?`},
}

// Pattern is a compiled date format.
type Pattern struct {
	format string
	re     *regexp.Regexp
	// group index per field, 0 when the field is absent
	groups   [second + 1]int
	twoDigit bool
}

// Compile builds a Pattern from format.
func Compile(format string) (*Pattern, error) {
	if strings.TrimSpace(format) == "" {
		return nil, &FormatError{Format: format, Reason: "empty format"}
	}
	sections := strings.Split(format, "|")
	if len(sections)%2 == 0 {
		return nil, &FormatError{Format: format, Reason: "unbalanced literal separators"}
	}

	p := &Pattern{format: format}
	var b strings.Builder
	b.WriteString(`^\s*`)
	seen := make(map[field]bool)
	group := 0

	for i, sec := range sections {
		if sec == "" {
			continue
		}
		b.WriteString("(?:")
		if i%2 == 1 {
			b.WriteString(regexp.QuoteMeta(sec) + ")?")
			continue
		}
		for len(sec) > 0 {
			c, ok := matchCode(sec)
			if !ok {
				b.WriteString(regexp.QuoteMeta(sec[:1]))
				sec = sec[1:]
				continue
			}
			if seen[c.field] {
				return nil, &FormatError{Format: format, Reason: fmt.Sprintf("field %q given twice", c.text)}
			}
			seen[c.field] = true
			group++
			p.groups[c.field] = group
			if c.text == "YY" {
				p.twoDigit = true
			}
			b.WriteString("(" + c.re + ")")
			sec = sec[len(c.text):]
		}
		b.WriteString(")?")
	}
	b.WriteString(`\s*$`)
	if group == 0 {
		return nil, &FormatError{Format: format, Reason: "no date or time fields"}
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, &FormatError{Format: format, Reason: err.Error()}
	}
	p.re = re
	return p, nil
}

func matchCode(s string) (code, bool) {
	for _, c := range codes {
		if strings.HasPrefix(s, c.text) {
			return c, true
		}
	}
	return code{}, false
}

// String returns the source format.
func (p *Pattern) String() string {
	return p.format
}

// Parse converts text to seconds since NativeEpoch. Text matching none of
// the format's fields is an ErrNoMatch.
func (p *Pattern) Parse(text string) (float64, error) {
	m := p.re.FindStringSubmatch(text)
	if m == nil || !p.anyField(m) {
		return math.NaN(), ErrNoMatch
	}

	get := func(f field, def int) int {
		if p.groups[f] == 0 || m[p.groups[f]] == "" {
			return def
		}
		v, _ := strconv.Atoi(m[p.groups[f]])
		return v
	}

	y := get(year, 2009)
	if p.twoDigit && m[p.groups[year]] != "" {
		if y >= 69 {
			y += 1900
		} else {
			y += 2000
		}
	}
	mo, d := get(month, 1), get(day, 1)
	h, mi := get(hour, 0), get(minute, 0)

	var sec float64
	if g := p.groups[second]; g != 0 && m[g] != "" {
		sec, _ = strconv.ParseFloat(m[g], 64)
	}
	if mo < 1 || mo > 12 || d < 1 || h > 23 || mi > 59 || sec >= 61 {
		return math.NaN(), fmt.Errorf("%q: field out of range", text)
	}

	t := time.Date(y, time.Month(mo), d, h, mi, 0, 0, time.UTC)
	if t.Day() != d {
		return math.NaN(), fmt.Errorf("%q: day out of range", text)
	}
	return t.Sub(NativeEpoch).Seconds() + sec, nil
}

func (p *Pattern) anyField(m []string) bool {
	for _, g := range p.groups {
		if g != 0 && m[g] != "" {
			return true
		}
	}
	return false
}
