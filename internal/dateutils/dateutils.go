// Package dateutils parses the date formats found in upstream transaction
// feeds and reduces them to calendar days.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutSlashDMY = "02/01/2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
)

// CommonFormats is the ordered list of layouts tried by ParseDate. Day-first
// layouts come before month-first ones, matching the feeds we ingest.
var CommonFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	DateLayoutISO + "T15:04:05",
	DateLayoutFull,
	DateLayoutISO,
	DateLayoutEuropean,
	DateLayoutSlashDMY,
	"02-01-2006",
	"2006/01/02",
	"2.1.2006",
	"02/01/2006 15:04:05",
	"02.01.2006 15:04",
	"2-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseDate attempts to parse a date string using CommonFormats.
// Returns the parsed time and the detected format.
func ParseDate(dateStr string) (time.Time, string, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// TruncateToDay parses dateStr and returns its calendar day as YYYY-MM-DD.
// Timestamps keep the day in the offset they were written in; the
// time-of-day is dropped.
func TruncateToDay(dateStr string) (string, error) {
	t, _, err := ParseDate(dateStr)
	if err != nil {
		return "", err
	}
	return ToISODate(t), nil
}
