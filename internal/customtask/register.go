package customtask

import (
	"lumina/internal/catalog"
	"lumina/internal/config"
	"lumina/internal/task"
)

// RegisterAll builds a Task for every script in cfg.Scripts and adds it to
// the Task Engine's registry, so it drains alongside the bundled tasks (§4.5).
// Called once at process start after config is loaded, the same
// explicit-call-after-init pattern task.AssertRegistered documents for the
// compiled-in tasks.
func RegisterAll(cat *catalog.Catalog, dataDir string, cfg config.CustomTaskConfig) {
	for name, script := range cfg.Scripts {
		task.Register(New(cat, dataDir, name, cfg.Interpreter, script.Path, script.Version))
	}
}
