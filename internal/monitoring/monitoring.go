package monitoring

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
)

// SystemInfo holds host resource usage
type SystemInfo struct {
	CPUUsage      float64 `json:"cpu_usage"`
	MemoryUsage   float64 `json:"memory_usage"`
	DiskUsage     float64 `json:"disk_usage"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// DirectoryStatus describes the export output directory
type DirectoryStatus struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Writable bool   `json:"writable"`
}

// CheckFunc probes one dependency; nil means healthy
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name  string
	check CheckFunc
}

// Monitor reports host and dependency health
type Monitor struct {
	outputDir   string
	cpuInterval time.Duration
	logger      *logging.Logger

	mu     sync.RWMutex
	checks []namedCheck
}

// NewMonitor creates a new monitor for the given output directory
func NewMonitor(outputDir string, logger *logging.Logger) *Monitor {
	return &Monitor{
		outputDir:   outputDir,
		cpuInterval: 500 * time.Millisecond,
		logger:      logger,
	}
}

// AddCheck registers a dependency probe reported by Components and Ready
func (m *Monitor) AddCheck(name string, check CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, namedCheck{name: name, check: check})
}

// System samples CPU, memory and disk usage. Disk usage is measured on the
// filesystem holding the output directory.
func (m *Monitor) System(ctx context.Context) (*SystemInfo, error) {
	cpuPercent, err := cpu.PercentWithContext(ctx, m.cpuInterval, false)
	if err != nil {
		return nil, fmt.Errorf("failed to sample cpu: %w", err)
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory: %w", err)
	}

	diskPath := m.outputDir
	if _, err := os.Stat(diskPath); err != nil {
		diskPath = "/"
	}
	du, err := disk.UsageWithContext(ctx, diskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage: %w", err)
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read uptime: %w", err)
	}

	info := &SystemInfo{
		MemoryUsage:   vm.UsedPercent,
		DiskUsage:     du.UsedPercent,
		UptimeSeconds: float64(uptime),
	}
	if len(cpuPercent) > 0 {
		info.CPUUsage = cpuPercent[0]
	}
	return info, nil
}

// OutputDirectory reports whether the output directory exists and accepts writes
func (m *Monitor) OutputDirectory() DirectoryStatus {
	status := DirectoryStatus{Path: m.outputDir}

	fi, err := os.Stat(m.outputDir)
	if err != nil || !fi.IsDir() {
		return status
	}
	status.Exists = true

	f, err := os.CreateTemp(m.outputDir, ".healthcheck-*")
	if err != nil {
		return status
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	status.Writable = true
	return status
}

// Components runs every registered check and reports "available" or the error
func (m *Monitor) Components(ctx context.Context) map[string]string {
	results := make(map[string]string)
	for name, err := range m.run(ctx) {
		if err != nil {
			results[name] = "unavailable: " + err.Error()
			continue
		}
		results[name] = "available"
	}
	return results
}

// Ready reports whether the output directory is writable and every check passes
func (m *Monitor) Ready(ctx context.Context) (bool, map[string]bool) {
	dir := m.OutputDirectory()
	checks := map[string]bool{
		"output_directory": dir.Exists && dir.Writable,
	}
	ready := checks["output_directory"]

	for name, err := range m.run(ctx) {
		checks[name] = err == nil
		if err != nil {
			ready = false
			m.logger.WithError(err).Warnf("Readiness check %s failed", name)
		}
	}
	return ready, checks
}

func (m *Monitor) run(ctx context.Context) map[string]error {
	m.mu.RLock()
	checks := make([]namedCheck, len(m.checks))
	copy(checks, m.checks)
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	results := make(map[string]error, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range checks {
		wg.Add(1)
		go func(c namedCheck) {
			defer wg.Done()
			err := c.check(ctx)
			mu.Lock()
			results[c.name] = err
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}
