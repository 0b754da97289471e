package utils

import (
	"log"
	"time"
)

const (
	DefaultDateFormat = "2006-01-02"
	DefaultTimeFormat = "15:04:05"
)

// ParseDate parses a date string using the default format.
// Logs an error and returns zero time if parsing fails.
func ParseDate(dateStr string) time.Time {
	t, err := time.Parse(DefaultDateFormat, dateStr)
	if err != nil {
		log.Printf("Error parsing date '%s' with format '%s': %v. Returning zero time.", dateStr, DefaultDateFormat, err)
		return time.Time{}
	}
	return t
}

// ValidTime reports whether a string is a well-formed time-of-day.
func ValidTime(timeStr string) bool {
	_, err := time.Parse(DefaultTimeFormat, timeStr)
	return err == nil
}
