//go:build darwin

package scanner

import (
	"os"
	"syscall"
	"time"
)

// getCreateTime returns the birth time from the stat structure.
func getCreateTime(_ string, info os.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
}
