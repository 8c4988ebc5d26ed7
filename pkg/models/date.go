package models

import (
	"time"

	"github.com/pkg/errors"
)

// ParseDate accepts either DateFormat or DateTimeFormat and returns the time in
// UTC.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range []string{DateFormat, DateTimeFormat} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("invalid date %q", value)
}
