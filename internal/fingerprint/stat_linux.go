//go:build linux

package fingerprint

import (
	"time"

	"golang.org/x/sys/unix"
)

func statTimes(path string) (Times, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Times{}, err
	}
	return Times{
		Access: timespec(st.Atim),
		Modify: timespec(st.Mtim),
		Change: timespec(st.Ctim),
	}, nil
}

func timespec(ts unix.Timespec) time.Time {
	sec, nsec := ts.Unix()
	return time.Unix(sec, nsec)
}
