package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lumina/internal/catalog"
)

func TestShutdown_NilStateNoops(t *testing.T) {
	assert.NoError(t, Shutdown(nil))
	assert.NoError(t, Shutdown(&State{}))
}

func TestCurrent_EmptyByDefault(t *testing.T) {
	mu.Lock()
	current = nil
	mu.Unlock()

	_, ok := Current()
	assert.False(t, ok)
}

func TestBootstrap_RejectsDoubleBootstrap(t *testing.T) {
	mu.Lock()
	current = &State{Cat: &catalog.Catalog{}}
	mu.Unlock()
	defer func() {
		mu.Lock()
		current = nil
		mu.Unlock()
	}()

	_, err := Bootstrap()
	assert.Error(t, err)
}
