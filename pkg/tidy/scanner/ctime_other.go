//go:build !darwin && !linux

package scanner

import (
	"os"
	"time"
)

// getCreateTime falls back to modification time on other platforms.
func getCreateTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}
