package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositiveInt(t *testing.T) {
	n, err := parsePositiveInt("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		_, err := parsePositiveInt(bad)
		assert.ErrorIs(t, err, errBadID, "expected rejection for %q", bad)
	}
}
