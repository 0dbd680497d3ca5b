// Package dates converts between calendar dates and the textual forms used in
// schedule documents.
//
// Three input forms are accepted, tried in this order:
//
//	YY/M/D     two-digit year, pivot at 50 (49 → 2049, 50 → 1950)
//	YYYY/M/D
//	YYYY-M-D
//
// Output is always strict: YY/MM/DD on the rendered page, YYYY-MM-DD in storage
// and JSON. Unparseable text is never an error, it is simply "no date".
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pivotYear splits two-digit years between the 2000s and the 1900s.
const pivotYear = 50

// Date is a calendar day without time or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Of returns the date for y/m/d, or false if the values are not a real day.
func Of(year int, month time.Month, day int) (Date, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// MustOf is Of for literals known to be valid. It panics otherwise.
func MustOf(year int, month time.Month, day int) Date {
	d, ok := Of(year, month, day)
	if !ok {
		panic(fmt.Sprintf("dates: invalid date %04d-%02d-%02d", year, month, day))
	}
	return d
}

// FromTime returns the calendar day of t in t's location.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Ptr returns a pointer to a copy of d.
func (d Date) Ptr() *Date { return &d }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Short formats d as YY/MM/DD.
func (d Date) Short() string {
	return fmt.Sprintf("%02d/%02d/%02d", d.Year%100, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts any of the
// forms Parse accepts.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("dates: cannot parse %q", string(b))
	}
	*d = parsed
	return nil
}

// FormatShort renders d as YY/MM/DD, or "" when d is nil.
func FormatShort(d *Date) string {
	if d == nil {
		return ""
	}
	return d.Short()
}

// pattern is one accepted textual form.
type pattern struct {
	re        *regexp.Regexp
	shortYear bool
}

// patterns are tried in order; the first that matches decides the result.
var patterns = []pattern{
	{re: regexp.MustCompile(`^(\d{2})/(\d{1,2})/(\d{1,2})$`), shortYear: true},
	{re: regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)},
	{re: regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)},
}

// Parse reads text in one of the accepted forms. Blank text, text matching no
// form, and impossible days (month 13, Feb 30) all return false.
func Parse(text string) (Date, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Date{}, false
	}
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if p.shortYear {
			if year < pivotYear {
				year += 2000
			} else {
				year += 1900
			}
		}
		return Of(year, time.Month(month), day)
	}
	return Date{}, false
}

// ParseValue accepts loosely typed input such as decoded YAML or JSON values.
// Strings go through Parse; Date, *Date and time.Time are taken as-is. Anything
// else, including nil, is no date.
func ParseValue(v any) (*Date, bool) {
	switch x := v.(type) {
	case string:
		d, ok := Parse(x)
		if !ok {
			return nil, false
		}
		return &d, true
	case Date:
		return &x, true
	case *Date:
		if x == nil {
			return nil, false
		}
		d := *x
		return &d, true
	case time.Time:
		if x.IsZero() {
			return nil, false
		}
		d := FromTime(x)
		return &d, true
	default:
		return nil, false
	}
}
