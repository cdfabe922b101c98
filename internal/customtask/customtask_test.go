package customtask

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/catalog"
	"lumina/internal/task"
)

func TestArg_MissingIndexErrors(t *testing.T) {
	call := FnCall{Name: "add_tag", Args: nil}
	var s string
	err := arg(call, 0, &s)
	assert.Error(t, err)
}

func TestArg_DecodesPositional(t *testing.T) {
	call := FnCall{Name: "add_tag", Args: []json.RawMessage{json.RawMessage(`"vacation"`)}}
	var s string
	require.NoError(t, arg(call, 0, &s))
	assert.Equal(t, "vacation", s)
}

func TestScriptError_Error(t *testing.T) {
	err := &ScriptError{ExitCode: 2, Stderr: []byte("boom")}
	assert.Contains(t, err.Error(), "2")
	assert.Contains(t, err.Error(), "boom")
}

func TestRunLoop_LogIsNotEchoed(t *testing.T) {
	m := &catalog.Media{ID: 1, UUID: uuid.New()}
	d := &deps{dataDir: "/data", taskName: "mytask"}
	stdout := strings.NewReader(`{"name":"log","args":["hello"],"kwargs":{}}` + "\n")
	var stdin bytes.Buffer

	err := runLoop(context.Background(), d, m, 1, &stdin, stdout)
	require.NoError(t, err)
	assert.Empty(t, stdin.Bytes())
}

func TestRunLoop_GetThumbEchoesPath(t *testing.T) {
	m := &catalog.Media{ID: 1, UUID: uuid.New()}
	d := &deps{dataDir: "/data", taskName: "mytask"}
	stdout := strings.NewReader(`{"name":"get_thumb","args":[false],"kwargs":{}}` + "\n")
	var stdin bytes.Buffer

	err := runLoop(context.Background(), d, m, 1, &stdin, stdout)
	require.NoError(t, err)

	var got string
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(stdin.Bytes()), &got))
	assert.Equal(t, task.DerivativePath("/data", m, false), got)
}

func TestRunLoop_UnknownFunctionAborts(t *testing.T) {
	m := &catalog.Media{ID: 1, UUID: uuid.New()}
	d := &deps{dataDir: "/data", taskName: "mytask"}
	stdout := strings.NewReader(`{"name":"delete_everything","args":[],"kwargs":{}}` + "\n")
	var stdin bytes.Buffer

	err := runLoop(context.Background(), d, m, 1, &stdin, stdout)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

func TestRunLoop_BlankLinesSkipped(t *testing.T) {
	m := &catalog.Media{ID: 1, UUID: uuid.New()}
	d := &deps{dataDir: "/data", taskName: "mytask"}
	stdout := strings.NewReader("\n   \n")
	var stdin bytes.Buffer

	err := runLoop(context.Background(), d, m, 1, &stdin, stdout)
	require.NoError(t, err)
	assert.Empty(t, stdin.Bytes())
}

func TestWriteHandshake_IncludesMediaAndVersion(t *testing.T) {
	m := &catalog.Media{ID: 7, UUID: uuid.New(), Path: "/x/y.jpg"}
	var buf bytes.Buffer
	require.NoError(t, writeHandshake(&buf, m, 3))

	var decoded struct {
		Media   catalog.Media `json:"media"`
		Version int           `json:"version"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded))
	assert.Equal(t, m.ID, decoded.Media.ID)
	assert.Equal(t, 3, decoded.Version)
}
