package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexOfString(t *testing.T) {
	assert.Equal(t, 1, IndexOfString([]string{"a", "b", "c"}, "b"))
	assert.Equal(t, -1, IndexOfString([]string{"a", "b", "c"}, "d"))
	assert.Equal(t, -1, IndexOfString(nil, "a"))
}
