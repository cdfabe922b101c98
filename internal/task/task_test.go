package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina/internal/catalog"
	"lumina/internal/config"
)

func TestSendProgress_DropsOnFullChannel(t *testing.T) {
	ch := make(chan ProgressEvent, 1)
	ch <- ProgressEvent{Index: 1}

	var dropped ProgressEvent
	sendProgress(ch, ProgressEvent{Index: 2}, func(ev ProgressEvent) {
		dropped = ev
	})

	assert.Equal(t, 2, dropped.Index)
	assert.Len(t, ch, 1)
}

func TestSendProgress_NilChannelNoops(t *testing.T) {
	assert.NotPanics(t, func() {
		sendProgress(nil, ProgressEvent{Index: 1}, func(ProgressEvent) {
			t.Fatal("onDrop must not be called for a nil channel")
		})
	})
}

func TestThumbnailTask_Compatible(t *testing.T) {
	task := &ThumbnailTask{}
	assert.True(t, task.Compatible(&catalog.Media{Format: "jpeg"}))
	assert.False(t, task.Compatible(&catalog.Media{Format: "mp3"}))
}

func TestThumbnailTask_Outdated(t *testing.T) {
	task := &ThumbnailTask{}

	assert.True(t, task.Outdated(&catalog.Media{Format: "jpeg", HasThumbnail: false}))
	assert.False(t, task.Outdated(&catalog.Media{Format: "jpeg", HasThumbnail: true, ThumbnailVersion: 999}))
	assert.False(t, task.Outdated(&catalog.Media{Format: "mp3"}))
}

func TestParseWhisperOutput(t *testing.T) {
	out := []byte("en\n0.92\n0.0|1.5|hello there\n1.5|3.0|general kenobi\n")
	res, err := parseWhisperOutput(out)
	require.NoError(t, err)
	assert.Equal(t, "en", res.Language)
	assert.InDelta(t, 0.92, res.Confidence, 0.0001)
	assert.Equal(t, "0.0|1.5|hello there\n1.5|3.0|general kenobi", res.Transcript)
}

func TestParseWhisperOutput_MissingConfidence(t *testing.T) {
	_, err := parseWhisperOutput([]byte("en\n"))
	assert.Error(t, err)
}

func TestVisionOCRTask_Compatible(t *testing.T) {
	task := &VisionOCRTask{}
	assert.True(t, task.Compatible(&catalog.Media{Class: catalog.ClassPhoto, Format: "jpeg"}))
	assert.False(t, task.Compatible(&catalog.Media{Class: catalog.ClassVideo, Format: "mp4"}))
	assert.False(t, task.Compatible(&catalog.Media{Class: catalog.ClassPhoto, Format: "mp3"}))
}

func TestVisionOCRTask_Outdated_RequiresThumbnail(t *testing.T) {
	task := &VisionOCRTask{}
	m := &catalog.Media{ID: 1, UUID: uuid.New(), Class: catalog.ClassPhoto, Format: "jpeg", HasThumbnail: false}
	assert.False(t, task.Outdated(m), "must not enqueue ahead of the thumbnail task")
}

func TestVLLMTask_Compatible(t *testing.T) {
	task := &VLLMTask{}
	assert.True(t, task.Compatible(&catalog.Media{Class: catalog.ClassPhoto, Format: "png"}))
	assert.False(t, task.Compatible(&catalog.Media{Class: catalog.ClassPDF, Format: "pdf"}))
}

type fakeTask struct{ name string }

func (f *fakeTask) Name() string                     { return f.name }
func (f *fakeTask) Compatible(m *catalog.Media) bool { return true }
func (f *fakeTask) Outdated(m *catalog.Media) bool    { return true }

func (f *fakeTask) Run(ctx context.Context, m *catalog.Media) (Data, error) { return nil, nil }
func (f *fakeTask) RunAndStore(ctx context.Context, m *catalog.Media) error { return nil }
func (f *fakeTask) RemoveData(ctx context.Context, m *catalog.Media) error  { return nil }

func TestRegister_AddsRuntimeDiscoveredTask(t *testing.T) {
	Register(&fakeTask{name: "a-runtime-registered-task"})
	got, ok := Get("a-runtime-registered-task")
	require.True(t, ok)
	assert.Equal(t, "a-runtime-registered-task", got.Name())
}

func TestDerivativePath_DistinguishesThumbFromFull(t *testing.T) {
	m := &catalog.Media{UUID: uuid.New()}
	thumb := DerivativePath("/data", m, false)
	full := DerivativePath("/data", m, true)
	assert.NotEqual(t, thumb, full)
	assert.Contains(t, thumb, "-thumb.jpg")
	assert.Contains(t, full, "-full.jpg")
}

func TestShouldRemote_RequiresBothCapabilityAndConfig(t *testing.T) {
	cfg := config.RemoteConfig{Tasks: map[string]config.RemoteTaskConfig{
		"whisper": {BaseURL: "http://runner.local", Timeout: 30},
	}}

	rc, ok := ShouldRemote("whisper", cfg)
	require.True(t, ok)
	assert.Equal(t, "http://runner.local", rc.BaseURL)

	_, ok = ShouldRemote("thumbnail", cfg)
	assert.False(t, ok, "thumbnail never implements RemoteCapable")

	_, ok = ShouldRemote("nonexistent", cfg)
	assert.False(t, ok)
}
