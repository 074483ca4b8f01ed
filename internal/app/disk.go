package app

import "syscall"

// diskUsage returns disk usage stats for the given path, or nil on error.
func diskUsage(path string) map[string]any {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return nil
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	used := total - free
	return map[string]any{
		"total_bytes":     total,
		"used_bytes":      used,
		"available_bytes": free,
	}
}

// UsedGB reports how much of path's filesystem is in use, in
// gigabytes. Returns 0 if disk usage cannot be determined. Exported so
// the daemon entrypoint can share the same accounting for capture
// admission control.
func UsedGB(path string) float64 {
	du := diskUsage(path)
	if du == nil {
		return 0
	}
	used, _ := du["used_bytes"].(uint64)
	return float64(used) / (1 << 30)
}
