//go:build !linux

package storage

import (
	"os"
	"time"
)

func changeTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
