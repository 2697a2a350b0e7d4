package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

var startedAt = time.Now()

// DirUsage is the on-disk size of one data directory.
type DirUsage struct {
	Label string
	Path  string
	Bytes int64
}

// SysHealth is a point-in-time view of the process and its data.
type SysHealth struct {
	AllocMB    uint64
	SysMB      uint64
	NumGC      uint32
	Goroutines int
	Uptime     time.Duration
	Disk       []DirUsage
}

// DiskTotal sums the sizes of every reported directory.
func (h SysHealth) DiskTotal() int64 {
	var total int64
	for _, d := range h.Disk {
		total += d.Bytes
	}
	return total
}

// GetSysHealth reads runtime stats and measures each labelled directory,
// e.g. {"database": "data", "snapshots": "data/snapshots"}. Directories
// are reported in label order; a nested directory is counted in both.
func GetSysHealth(dirs map[string]string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	labels := make([]string, 0, len(dirs))
	for label := range dirs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	disk := make([]DirUsage, 0, len(labels))
	for _, label := range labels {
		disk = append(disk, DirUsage{Label: label, Path: dirs[label], Bytes: dirSize(dirs[label])})
	}

	return SysHealth{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(startedAt).Truncate(time.Second),
		Disk:       disk,
	}
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

// FormatBytes renders size with a binary unit suffix.
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
