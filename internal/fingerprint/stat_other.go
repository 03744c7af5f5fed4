//go:build !linux

package fingerprint

import "os"

func statTimes(path string) (Times, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Times{}, err
	}
	mod := info.ModTime()
	return Times{Access: mod, Modify: mod, Change: mod}, nil
}
