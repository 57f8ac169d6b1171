package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// SysHealth represents real-time system metrics.
type SysHealth struct {
	AllocMB      uint64 `json:"alloc_mb"`
	TotalAllocMB uint64 `json:"total_alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	Goroutines   int    `json:"goroutines"`
	DataDiskSize string `json:"data_disk_size"`

	// Host figures are zero when the platform does not expose them.
	HostMemUsedPercent  float64 `json:"host_mem_used_percent"`
	HostCPUPercent      float64 `json:"host_cpu_percent"`
	HostDiskUsedPercent float64 `json:"host_disk_used_percent"`
	HostUptimeSeconds   uint64  `json:"host_uptime_seconds"`
}

// GetSysHealth collects real-time health data. dataPath is the directory
// holding the metrics database; an empty path reports no disk usage.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	health := SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataDiskSize: calculateDirSize(dataPath),
	}

	if v, err := mem.VirtualMemory(); err == nil {
		health.HostMemUsedPercent = v.UsedPercent
	}
	// A zero interval compares against the previous call instead of blocking.
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		health.HostCPUPercent = pct[0]
	}
	diskPath := dataPath
	if diskPath == "" {
		diskPath = "/"
	}
	if d, err := disk.Usage(diskPath); err == nil {
		health.HostDiskUsedPercent = d.UsedPercent
	}
	if up, err := host.Uptime(); err == nil {
		health.HostUptimeSeconds = up
	}
	return health
}

func calculateDirSize(path string) string {
	var size int64
	if path == "" {
		return formatBytes(0)
	}
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return formatBytes(size)
}

func formatBytes(size int64) string {
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
