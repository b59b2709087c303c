// Package timex holds time helpers shared by configuration and persistence.
package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateTimeLayout is the fixed-width timestamp form used for listing
// occurrence times, e.g. "2025-03-14 09:26:53".
const DateTimeLayout = "2006-01-02 15:04:05"

// Duration wraps time.Duration so JSON config files may spell intervals as
// strings ("15s", "2m") or as integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

// NormalizeTimestamp returns t in UTC truncated to whole seconds, or now
// (treated the same way) when t is nil or zero.
func NormalizeTimestamp(t *time.Time, now time.Time) time.Time {
	if t == nil || t.IsZero() {
		return now.UTC().Truncate(time.Second)
	}
	return t.UTC().Truncate(time.Second)
}

// FormatDateTime renders t with DateTimeLayout in UTC.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}
