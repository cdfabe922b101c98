package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResizeDimensions_FitNeverReturnsZero(t *testing.T) {
	w, h := ResizeDimensions(4000, 3000, 200, 200, ResizeFit)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)

	w, h = ResizeDimensions(1, 1, 200, 200, ResizeFit)
	assert.GreaterOrEqual(t, w, 1)
	assert.GreaterOrEqual(t, h, 1)
}

func TestResizeDimensions_FillGreaterOrEqualBounds(t *testing.T) {
	w, h := ResizeDimensions(4000, 2000, 200, 200, ResizeFill)
	assert.GreaterOrEqual(t, w, 200)
	assert.GreaterOrEqual(t, h, 200)
}

func TestResizeDimensions_ClampsToMaxDimension(t *testing.T) {
	w, h := ResizeDimensions(10, 1, 1, 1, ResizeFill)
	assert.LessOrEqual(t, w, maxDimension)
	assert.LessOrEqual(t, h, maxDimension)
	assert.GreaterOrEqual(t, w, 1)
	assert.GreaterOrEqual(t, h, 1)
}

func TestParseDMS_AppliesRefSign(t *testing.T) {
	v, err := parseDMS(`37 deg 23' 41.00" N`)
	require.NoError(t, err)
	assert.InDelta(t, 37.394722, v, 0.0001)

	v, err = parseDMS(`122 deg 4' 55.00" W`)
	require.NoError(t, err)
	assert.Less(t, v, 0.0)
}

func TestParseDMS_RejectsMissingComponents(t *testing.T) {
	_, err := parseDMS(`37 deg N`)
	assert.Error(t, err)
}

func TestIsScreenshotFromUserComment(t *testing.T) {
	assert.True(t, isScreenshotFromUserComment(map[string]interface{}{"UserComment": "ASCII\x00\x00\x00Screenshot taken on device"}))
	assert.False(t, isScreenshotFromUserComment(map[string]interface{}{"UserComment": "ASCII\x00\x00\x00some other note"}))
	assert.False(t, isScreenshotFromUserComment(map[string]interface{}{}))
}

func TestParseISO6709(t *testing.T) {
	lat, lon, ok := parseISO6709("+37.3349-122.0090+035.000/")
	require.True(t, ok)
	assert.InDelta(t, 37.3349, lat, 0.0001)
	assert.InDelta(t, -122.0090, lon, 0.0001)

	_, _, ok = parseISO6709("")
	assert.False(t, ok)
}

func TestHeifExifPayload_SkipsHeader(t *testing.T) {
	raw := append([]byte{0, 0, 0, 8, 0, 0, 0, 0}, []byte("II*\x00payload")...)
	payload := heifExifPayload(raw)
	assert.Equal(t, []byte("II*\x00payload"), payload)
}

func TestDetect_UnknownExtension(t *testing.T) {
	assert.Equal(t, UnknownFormat, Detect(".bogus"))
	assert.Equal(t, JPEG, Detect(".jpg"))
	assert.Equal(t, MP3, Detect(".mp3"))
	assert.Equal(t, WAV, Detect(".wav"))
}

func TestAnyFormat_CapabilityQueries(t *testing.T) {
	jf := AnyFormat{Tag: JPEG}
	assert.True(t, jf.Thumbnailable())
	assert.False(t, jf.Audioable())

	af := AnyFormat{Tag: MP3}
	assert.False(t, af.Thumbnailable())
	assert.True(t, af.Audioable())

	unk := AnyFormat{Tag: UnknownFormat}
	assert.False(t, unk.Thumbnailable())
	assert.False(t, unk.Audioable())
}

func TestAssertComplete_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, AssertComplete)
}
