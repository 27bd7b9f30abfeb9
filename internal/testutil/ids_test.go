package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_Sequence(t *testing.T) {
	gen := NewFixedIDGenerator("test")
	assert.Equal(t, "test-1", gen.Generate())
	assert.Equal(t, "test-2", gen.Generate())
}

func TestFixedIDGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "run-1", NewFixedIDGenerator("").Generate())
}
