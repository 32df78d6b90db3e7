package util

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// FormatElapsed renders a duration since session start as HH:MM:SS, the format
// used for every persisted violation event. Negative durations clamp to zero.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// ParseElapsed is the inverse of FormatElapsed and returns the offset in
// seconds. Used by the reviewer side to align events with playback time.
func ParseElapsed(s string) (int, error) {
	var hh, mm, ss int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hh, &mm, &ss); err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	if hh < 0 || mm < 0 || mm > 59 || ss < 0 || ss > 59 {
		return 0, errors.Errorf("invalid duration %q", s)
	}
	return hh*3600 + mm*60 + ss, nil
}
