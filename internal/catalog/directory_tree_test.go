package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDirectoryTree_ItemCounts(t *testing.T) {
	tree := BuildDirectoryTree([]string{
		"/library/2024/a.jpg",
		"/library/2024/b.jpg",
		"/library/2023/c.jpg",
	})

	year2024, ok := tree.Children["library"]
	require.True(t, ok)
	leaf2024, ok := year2024.Children["2024"]
	require.True(t, ok)
	assert.Equal(t, 2, leaf2024.Items)

	leaf2023, ok := year2024.Children["2023"]
	require.True(t, ok)
	assert.Equal(t, 1, leaf2023.Items)
}

func TestSafeColumn_RejectsUnknown(t *testing.T) {
	for _, bad := range []string{"DROP TABLE media", "", "password", "1=1"} {
		_, err := SafeColumn(bad)
		assert.ErrorIs(t, err, ErrUnknownColumn, "expected rejection for %q", bad)
	}

	col, err := SafeColumn("created_at")
	require.NoError(t, err)
	assert.Equal(t, "authored_at", col)
}
