package customtask

import (
	"context"
	"encoding/json"
	"fmt"

	"lumina/internal/catalog"
	"lumina/internal/logging"
	"lumina/internal/task"
)

// deps is the live state every registered function runs against; taskName
// identifies the acting custom task for tag provenance (MediaTag.TaskName).
type deps struct {
	cat      *catalog.Catalog
	dataDir  string
	taskName string
}

// handler answers one FnCall. skip is true only for "log", whose result is
// never echoed back to the script (the original's run_custom loop special-cases
// a literal "null" response the same way).
type handler func(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (result json.RawMessage, skip bool, err error)

var functions = map[string]handler{
	"execute_task":    fnExecuteTask,
	"add_tag":         fnAddTag,
	"has_tag":         fnHasTag,
	"remove_tag":      fnRemoveTag,
	"add_metadata":    fnAddMetadata,
	"delete_metadata": fnDeleteMetadata,
	"get_metadata":    fnGetMetadata,
	"log":             fnLog,
	"get_thumb":       fnGetThumb,
}

func arg(call FnCall, i int, out interface{}) error {
	if i >= len(call.Args) {
		return fmt.Errorf("customtask: %s: missing argument %d", call.Name, i)
	}
	if err := json.Unmarshal(call.Args[i], out); err != nil {
		return fmt.Errorf("customtask: %s: argument %d: %w", call.Name, i, err)
	}
	return nil
}

func encode(v interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("customtask: encode result: %w", err)
	}
	return b, nil
}

// fnExecuteTask invokes another registered bundled or custom task by name and
// runs it to completion for the same media. The original's execute_task can
// recursively resolve any custom task registered under a different compiled
// trait impl and forward a serialized argument string to it; this rewrite's
// task registry is a flat name->Task map instead, so task_args is accepted
// for wire compatibility but ignored — the target task's own Run decides its
// behavior from the media row alone.
func fnExecuteTask(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var taskName, taskArgs string
	if err := arg(call, 0, &taskName); err != nil {
		return nil, false, err
	}
	if len(call.Args) > 1 {
		_ = arg(call, 1, &taskArgs)
	}
	t, ok := task.Get(taskName)
	if !ok {
		return nil, false, fmt.Errorf("customtask: execute_task: %q is not a registered task", taskName)
	}
	if err := t.RunAndStore(ctx, m); err != nil {
		return nil, false, fmt.Errorf("customtask: execute_task %q: %w", taskName, err)
	}
	res, err := encode(true)
	return res, false, err
}

func fnAddTag(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var tagName string
	if err := arg(call, 0, &tagName); err != nil {
		return nil, false, err
	}
	t, err := d.cat.EnsureTag(ctx, tagName)
	if err != nil {
		return nil, false, fmt.Errorf("customtask: add_tag: %w", err)
	}
	has, err := d.cat.MediaHasTag(ctx, m.ID, t.ID)
	if err != nil {
		return nil, false, fmt.Errorf("customtask: add_tag: %w", err)
	}
	if has {
		res, err := encode(false)
		return res, false, err
	}
	name := d.taskName
	if err := d.cat.AddTagToMedia(ctx, m.ID, t.ID, &name); err != nil {
		return nil, false, fmt.Errorf("customtask: add_tag: %w", err)
	}
	res, err := encode(true)
	return res, false, err
}

func fnHasTag(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var tagName string
	if err := arg(call, 0, &tagName); err != nil {
		return nil, false, err
	}
	t, err := d.cat.TagFromName(ctx, tagName)
	if err != nil {
		if err == catalog.ErrNotFound {
			res, encErr := encode(false)
			return res, false, encErr
		}
		return nil, false, fmt.Errorf("customtask: has_tag: %w", err)
	}
	has, err := d.cat.MediaHasTag(ctx, m.ID, t.ID)
	if err != nil {
		return nil, false, fmt.Errorf("customtask: has_tag: %w", err)
	}
	res, err := encode(has)
	return res, false, err
}

func fnRemoveTag(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var tagName string
	if err := arg(call, 0, &tagName); err != nil {
		return nil, false, err
	}
	t, err := d.cat.TagFromName(ctx, tagName)
	if err != nil {
		if err == catalog.ErrNotFound {
			res, encErr := encode(false)
			return res, false, encErr
		}
		return nil, false, fmt.Errorf("customtask: remove_tag: %w", err)
	}
	had, err := d.cat.MediaHasTag(ctx, m.ID, t.ID)
	if err != nil {
		return nil, false, fmt.Errorf("customtask: remove_tag: %w", err)
	}
	if err := d.cat.RemoveTagFromMedia(ctx, m.ID, t.ID); err != nil {
		return nil, false, fmt.Errorf("customtask: remove_tag: %w", err)
	}
	res, err := encode(had)
	return res, false, err
}

func fnAddMetadata(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var key, value string
	var includeSearch bool
	if err := arg(call, 0, &key); err != nil {
		return nil, false, err
	}
	if err := arg(call, 1, &value); err != nil {
		return nil, false, err
	}
	if len(call.Args) > 2 {
		if err := arg(call, 2, &includeSearch); err != nil {
			return nil, false, err
		}
	}
	existing, err := d.cat.CustomMetadataByKey(ctx, m.ID, key)
	if err != nil && err != catalog.ErrNotFound {
		return nil, false, fmt.Errorf("customtask: add_metadata: %w", err)
	}
	if existing != nil && existing.Version == version {
		res, encErr := encode(false)
		return res, false, encErr
	}
	row := &catalog.CustomMetadata{MediaID: m.ID, Key: key, Value: value, Version: version, IncludeSearch: includeSearch}
	if err := d.cat.AddCustomMetadata(ctx, row); err != nil {
		return nil, false, fmt.Errorf("customtask: add_metadata: %w", err)
	}
	res, err := encode(true)
	return res, false, err
}

func fnDeleteMetadata(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var key string
	if err := arg(call, 0, &key); err != nil {
		return nil, false, err
	}
	_, err := d.cat.CustomMetadataByKey(ctx, m.ID, key)
	if err != nil {
		if err == catalog.ErrNotFound {
			res, encErr := encode(false)
			return res, false, encErr
		}
		return nil, false, fmt.Errorf("customtask: delete_metadata: %w", err)
	}
	if err := d.cat.DeleteCustomMetadata(ctx, m.ID, key); err != nil {
		return nil, false, fmt.Errorf("customtask: delete_metadata: %w", err)
	}
	res, err := encode(true)
	return res, false, err
}

func fnGetMetadata(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var key string
	if err := arg(call, 0, &key); err != nil {
		return nil, false, err
	}
	row, err := d.cat.CustomMetadataByKey(ctx, m.ID, key)
	if err != nil {
		if err == catalog.ErrNotFound {
			res, encErr := encode(nil)
			return res, false, encErr
		}
		return nil, false, fmt.Errorf("customtask: get_metadata: %w", err)
	}
	res, err := encode(row.Value)
	return res, false, err
}

// fnLog writes the script's payload to the structured logger and is the one
// function whose result is never sent back down the pipe.
func fnLog(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var values interface{}
	if len(call.Args) > 0 {
		_ = arg(call, 0, &values)
	}
	logging.L().Infow("customtask: script log", "media_id", m.ID, "values", values)
	return nil, true, nil
}

func fnGetThumb(ctx context.Context, d *deps, m *catalog.Media, version int, call FnCall) (json.RawMessage, bool, error) {
	var full bool
	if len(call.Args) > 0 {
		if err := arg(call, 0, &full); err != nil {
			return nil, false, err
		}
	}
	res, err := encode(task.DerivativePath(d.dataDir, m, full))
	return res, false, err
}
