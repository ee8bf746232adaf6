package dirtail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileFilter(t *testing.T) {
	keep, err := NewFileFilter([]string{"*.lock", ".*"})
	assert.NoError(t, err)

	assert.True(t, keep("20150226"))
	assert.False(t, keep("20150226.lock"))
	assert.False(t, keep(".nfs000001"))
}

func TestFileFilterEmpty(t *testing.T) {
	keep, err := NewFileFilter(nil)
	assert.NoError(t, err)
	assert.True(t, keep("anything"))
}

func TestFileFilterInvalidPattern(t *testing.T) {
	_, err := NewFileFilter([]string{"[unclosed"})
	assert.Error(t, err)
}
