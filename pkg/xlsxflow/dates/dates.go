// Package dates provides the calendar arithmetic used by workbook transforms:
// month-clamped date shifting, spreadsheet serial conversion and date number
// format detection.
package dates

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/xuri/nfp"
)

const secondsPerDay = 24 * 60 * 60

var (
	// Serial 60 is the phantom 1900-02-29 kept by Lotus-compatible spreadsheets.
	epoch1900 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	leapBug   = time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)
	epoch1904 = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
)

// AddDate shifts t by the given years, months and days. Unlike time.AddDate
// the day of month is clamped, so Jan 31 plus one month is the last day of
// February rather than early March.
func AddDate(t time.Time, years, months, days int) time.Time {
	if years != 0 || months != 0 {
		y, m, d := t.Date()
		total := int(m) - 1 + months + years*12
		ny := y + floorDiv(total, 12)
		nm := time.Month(floorMod(total, 12) + 1)
		if last := daysIn(ny, nm); d > last {
			d = last
		}
		hh, mm, ss := t.Clock()
		t = time.Date(ny, nm, d, hh, mm, ss, t.Nanosecond(), t.Location())
	}
	if days != 0 {
		t = t.AddDate(0, 0, days)
	}
	return t
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// ErrInvalidSerial is returned for negative or non-finite serial dates.
var ErrInvalidSerial = errors.New("invalid serial date")

// FromSerial converts a spreadsheet serial date to a time in UTC. It is the
// exact inverse of ToSerial; the phantom 1900-02-29 (serial 60) reads as
// 1900-03-01.
func FromSerial(serial float64, date1904 bool) (time.Time, error) {
	if serial < 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, ErrInvalidSerial
	}
	epoch := epoch1900
	switch {
	case date1904:
		epoch = epoch1904
	case serial < 61:
		epoch = epoch.AddDate(0, 0, 1)
	}
	whole, frac := math.Modf(serial)
	t := epoch.AddDate(0, 0, int(whole))
	return t.Add(time.Duration(math.Round(frac*secondsPerDay*1e6)) * time.Microsecond), nil
}

// ToSerial converts t to a spreadsheet serial date, the inverse of FromSerial.
func ToSerial(t time.Time, date1904 bool) float64 {
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	epoch := epoch1900
	switch {
	case date1904:
		epoch = epoch1904
	case t.Before(leapBug):
		epoch = epoch.AddDate(0, 0, 1)
	}
	serial := t.Sub(epoch).Seconds() / secondsPerDay
	return math.Round(serial*secondsPerDay) / secondsPerDay
}

// Today returns the current date at midnight UTC according to clock.
func Today(clock func() time.Time) time.Time {
	if clock == nil {
		clock = time.Now
	}
	y, m, d := clock().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsBuiltinDateFormat reports whether a built-in number format id displays a
// date or time.
func IsBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// IsDateFormat reports whether a custom number format code displays a date
// or time, e.g. "yyyy-mm-dd" or "[h]:mm".
func IsDateFormat(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "general") {
		return false
	}
	ps := nfp.NumberFormatParser()
	for _, section := range ps.Parse(code) {
		for _, token := range section.Items {
			if token.TType == nfp.TokenTypeDateTimes || token.TType == nfp.TokenTypeElapsedDateTimes {
				return true
			}
		}
	}
	return false
}

// IsCalendarFormat reports whether a custom number format shows a calendar
// date: it has a year, day or month-name token. Times of day and elapsed
// durations such as "h:mm" or "[h]:mm" do not count.
func IsCalendarFormat(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	ps := nfp.NumberFormatParser()
	for _, section := range ps.Parse(code) {
		for _, token := range section.Items {
			if token.TType != nfp.TokenTypeDateTimes {
				continue
			}
			v := strings.ToLower(token.TValue)
			switch {
			case strings.HasPrefix(v, "y"), strings.HasPrefix(v, "d"), strings.HasPrefix(v, "e"),
				strings.HasPrefix(v, "g"), strings.HasPrefix(v, "bb"):
				return true
			case strings.HasPrefix(v, "mmm"):
				return true
			}
		}
	}
	return false
}

// IsCalendarStyle is IsCalendarFormat for a cell style. Of the built-in
// formats only 14-17 and 22 carry a date.
func IsCalendarStyle(custom string, builtin int) bool {
	if custom != "" {
		return IsCalendarFormat(custom)
	}
	return (builtin >= 14 && builtin <= 17) || builtin == 22
}

// IsDateStyle combines IsDateFormat and IsBuiltinDateFormat for a cell style.
func IsDateStyle(custom string, builtin int) bool {
	if custom != "" {
		return IsDateFormat(custom)
	}
	return IsBuiltinDateFormat(builtin)
}
