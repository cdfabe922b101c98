// Package task implements the Task Engine (C5): a compile-time-closed registry
// of tagged task variants, each polymorphic over a capability set, driven by a
// Queue-backed drain loop. Grounded on the teacher's internal/queue package
// (one small file per job kind) generalized from river-backed job structs to
// the catalog's own at-most-once Queue table.
package task

import (
	"context"

	"lumina/internal/catalog"
)

// Data is the diagnostic/returnable payload a task's Run produces; concrete
// tasks define their own struct and box it here.
type Data = interface{}

// Task is implemented by every bundled and custom task (§4.5).
type Task interface {
	Name() string
	Compatible(m *catalog.Media) bool
	Outdated(m *catalog.Media) bool
	Run(ctx context.Context, m *catalog.Media) (Data, error)
	RunAndStore(ctx context.Context, m *catalog.Media) error
	RemoveData(ctx context.Context, m *catalog.Media) error
}

// RemoteCapable is implemented by tasks that can also run against a remote
// runner (§4.6); ShouldRemote/RemoteClient live in remote.go. The RemoteClient
// is supplied by the Engine at dispatch time rather than injected at
// registration, since which runner (if any) backs a task is an operator
// config decision, not a compile-time one.
type RemoteCapable interface {
	Task
	RunRemote(ctx context.Context, m *catalog.Media, rc *RemoteClient) (Data, error)
	RunRemoteAndStore(ctx context.Context, m *catalog.Media, rc *RemoteClient) error
}

// registry is the compile-time-closed set of task variants, keyed by name.
// Populated once per bundled-task file's init(); see registry.go's
// AssertRegistered for the same explicit-call-instead-of-init-ordering
// pattern used by internal/format.
var registry = map[string]Task{}

func register(t Task) {
	registry[t.Name()] = t
}

// Register adds a task discovered at runtime rather than compiled in — the
// Custom Task RPC's per-script Task values, one per configured custom task
// name, added by the process entry point after config is loaded.
func Register(t Task) {
	register(t)
}

// Get returns the task registered under name, or (nil, false).
func Get(name string) (Task, bool) {
	t, ok := registry[name]
	return t, ok
}

// All returns every registered task name.
func All() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
