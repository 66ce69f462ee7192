//go:build linux

package storage

import (
	"os"
	"syscall"
	"time"
)

// changeTime returns the inode change time, the closest thing to a creation
// time that Linux exposes through stat.
func changeTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return info.ModTime()
}
