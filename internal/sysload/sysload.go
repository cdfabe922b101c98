// Package sysload gates task execution on available system memory, so a
// drain loop processing a backlog of large video/RAW files doesn't run the
// host out of memory by launching every decode/transcode at once. Adapted
// from the teacher's internal/utils/memory package (MemoryMonitor), which
// sized HTTP upload chunks off the same gopsutil reading; repurposed here
// for the Task Engine's run_and_store gate (§4.5) since this spec has no
// chunked-upload surface for the original use to serve.
package sysload

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"lumina/internal/logging"
)

// Guard throttles RunAndStore calls against available memory headroom.
type Guard struct {
	// MinAvailableBytes is the floor below which WaitForHeadroom blocks.
	MinAvailableBytes uint64
	// PollInterval controls how often memory is re-sampled while blocked.
	PollInterval time.Duration
}

// NewGuard returns a Guard with the teacher's own safety-buffer ratio (10%
// of total system memory) as its floor.
func NewGuard() *Guard {
	g := &Guard{PollInterval: 2 * time.Second}
	if vm, err := mem.VirtualMemory(); err == nil {
		g.MinAvailableBytes = uint64(float64(vm.Total) * 0.1)
	} else {
		g.MinAvailableBytes = 256 * 1024 * 1024
	}
	return g
}

// WaitForHeadroom blocks until estimatedBytes of available memory exists
// above the floor, polling at PollInterval, or until ctx is cancelled. A
// gopsutil read failure fails open (proceeds immediately) rather than
// stalling the drain loop over an unrelated platform error.
func (g *Guard) WaitForHeadroom(ctx context.Context, estimatedBytes int64) error {
	if estimatedBytes <= 0 {
		return nil
	}
	required := g.MinAvailableBytes + uint64(estimatedBytes)

	for {
		vm, err := mem.VirtualMemory()
		if err != nil {
			logging.L().Warnw("sysload: memory read failed, proceeding without a gate", "error", err)
			return nil
		}
		if vm.Available >= required {
			return nil
		}

		logging.L().Infow("sysload: waiting for memory headroom",
			"available_mb", vm.Available/1024/1024, "required_mb", required/1024/1024)

		select {
		case <-ctx.Done():
			return fmt.Errorf("sysload: wait for headroom: %w", ctx.Err())
		case <-time.After(g.PollInterval):
		}
	}
}
