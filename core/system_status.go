package core

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// SystemStatus is served on /status for operators.
type SystemStatus struct {
	API struct {
		BaseURL string `json:"base_url"`
	} `json:"api"`
	Responses struct {
		Counts map[Outcome]int64 `json:"counts"`
		Recent []ResponseEntry   `json:"recent"`
	} `json:"responses"`
	Memory struct {
		UsedBytes  uint64 `json:"used_bytes"`
		TotalBytes uint64 `json:"total_bytes"`
	} `json:"memory"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// CollectSystemStatus aggregates the current status. The response log is best-effort.
func CollectSystemStatus(ctx context.Context, apiBaseURL string, responses ResponseLog, recent int, startedAt time.Time) (SystemStatus, error) {
	var st SystemStatus
	st.API.BaseURL = apiBaseURL

	if responses != nil {
		counts, err := responses.Counts(ctx)
		if err != nil {
			return st, err
		}
		st.Responses.Counts = counts
		entries, err := responses.Recent(ctx, recent)
		if err != nil {
			return st, err
		}
		st.Responses.Recent = entries
	}

	// Memory (best-effort from /proc/meminfo)
	used, total := readMemInfo()
	st.Memory.UsedBytes = used
	st.Memory.TotalBytes = total

	if !startedAt.IsZero() {
		st.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}

	return st, nil
}

// readMemInfo returns used and total bytes using /proc/meminfo.
// If unavailable, returns zeros.
func readMemInfo() (used, total uint64) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	var memTotal, memAvailable uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			memTotal = parseKiBLine(line)
		} else if strings.HasPrefix(line, "MemAvailable:") {
			memAvailable = parseKiBLine(line)
		}
	}
	if memTotal > 0 {
		total = memTotal
		if memAvailable <= memTotal {
			used = memTotal - memAvailable
		}
		// convert KiB -> bytes
		used *= 1024
		total *= 1024
	}
	return used, total
}

func parseKiBLine(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
