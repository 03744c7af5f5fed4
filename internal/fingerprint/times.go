package fingerprint

import (
	"fmt"
	"time"

	"keepsake/internal/services"
)

// Times holds the platform timestamps of a source file.
type Times struct {
	Access time.Time
	Modify time.Time
	// Change is the inode change time on Linux and the modification time
	// elsewhere.
	Change time.Time
}

// StatTimes reads the timestamps of path.
func StatTimes(path string) (Times, error) {
	t, err := statTimes(path)
	if err != nil {
		return Times{}, services.Wrap(services.ErrHash, "fingerprint", "stat", path, err)
	}
	return t, nil
}

// MTimeString renders the modification time in sidecar form.
func (t Times) MTimeString() string { return FormatTime(t.Modify) }

// CTimeString renders the change time in sidecar form.
func (t Times) CTimeString() string { return FormatTime(t.Change) }

// Earliest returns the oldest of the three timestamps, ignoring zero values.
func (t Times) Earliest() time.Time {
	var earliest time.Time
	for _, ts := range []time.Time{t.Access, t.Modify, t.Change} {
		if ts.IsZero() {
			continue
		}
		if earliest.IsZero() || ts.Before(earliest) {
			earliest = ts
		}
	}
	return earliest
}

// FormatTime renders ts as seconds since the epoch with a nine digit
// nanosecond fraction. Only equality of these strings is ever tested.
func FormatTime(ts time.Time) string {
	return fmt.Sprintf("%d.%09d", ts.Unix(), ts.Nanosecond())
}
