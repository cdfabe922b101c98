// Package customtask implements the Custom Task RPC (C10): a Task that hands
// a media row to an external interpreter script and answers the script's
// function calls against the catalog over newline-delimited JSON on the
// script's stdin/stdout. Grounded on the original implementation's
// custom_task crate (tasks/src/custom_task.rs, custom_task/src/lib.rs): the
// handshake line, the FnCall wire shape, and the fixed function registry are
// carried over unchanged; the process-spawn/pipe plumbing follows the
// teacher's exec.CommandContext idiom from internal/processors/audio_helpers.go
// (reused in this rewrite as internal/task/whisper.go).
package customtask

import (
	"encoding/json"
	"fmt"
)

// FnCall is one inbound request line from the script: a function name plus
// positional and keyword arguments. kwargs is accepted on the wire but every
// registered function takes its arguments positionally, matching the
// original's python_func! macro.
type FnCall struct {
	Name   string                     `json:"name"`
	Args   []json.RawMessage          `json:"args"`
	Kwargs map[string]json.RawMessage `json:"kwargs"`
}

// handshake is the one JSON line written to the script's stdin before the
// request/response loop starts.
type handshake struct {
	Media   interface{} `json:"media"`
	Version int         `json:"version"`
}

// ScriptError wraps a custom task script's non-zero exit.
type ScriptError struct {
	ExitCode int
	Stderr   []byte
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("customtask: script exited %d: %s", e.ExitCode, string(e.Stderr))
}

// ErrUnknownFunction is the contract-violation signal for an FnCall.Name
// outside the fixed registry in functions.go — the original panics here; a script that
// triggers it is broken by construction, so this aborts the run rather than
// being treated as an ordinary per-call error.
var ErrUnknownFunction = fmt.Errorf("customtask: function not found")
