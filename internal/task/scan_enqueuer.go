package task

import (
	"context"
	"fmt"

	"lumina/internal/catalog"
)

// ScanEnqueuer implements scan.TaskEnqueuer: for every registered task whose
// Outdated returns true for a media row, it enqueues that (media, task) pair,
// letting a scan drive the same registry the Engine later drains (§4.4, §4.5).
type ScanEnqueuer struct {
	cat *catalog.Catalog
}

func NewScanEnqueuer(cat *catalog.Catalog) *ScanEnqueuer {
	return &ScanEnqueuer{cat: cat}
}

func (e *ScanEnqueuer) EnqueueOutdated(ctx context.Context, m *catalog.Media) error {
	for _, name := range All() {
		t, ok := Get(name)
		if !ok {
			continue
		}
		if !t.Compatible(m) || !t.Outdated(m) {
			continue
		}
		if err := e.cat.Enqueue(ctx, m.ID, name); err != nil {
			return fmt.Errorf("scan_enqueuer: enqueue %s for media %d: %w", name, m.ID, err)
		}
	}
	return nil
}
