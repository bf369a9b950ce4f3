package codec

import (
	"fmt"
	"time"
)

const fullDate = "2006-01-02"

// parseFullDate splits an RFC 3339 full-date into its parts. Years are
// limited to four digits by the format itself.
func parseFullDate(s string) (year uint16, month, day uint8, err error) {
	t, err := time.Parse(fullDate, s)
	if err != nil {
		return 0, 0, 0, err
	}
	// time.Parse accepts some non-canonical spellings; the encoding must not
	// change the string.
	if t.Format(fullDate) != s {
		return 0, 0, 0, fmt.Errorf("%q is not a canonical full-date", s)
	}
	return uint16(t.Year()), uint8(t.Month()), uint8(t.Day()), nil
}

// formatFullDate is the inverse of parseFullDate and rejects impossible
// dates.
func formatFullDate(year uint16, month, day uint8) (string, error) {
	if year > 9999 {
		return "", fmt.Errorf("year %d has more than four digits", year)
	}
	t := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
	if t.Year() != int(year) || t.Month() != time.Month(month) || t.Day() != int(day) {
		return "", fmt.Errorf("%04d-%02d-%02d is not a valid date", year, month, day)
	}
	return t.Format(fullDate), nil
}
