package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHHMM(t *testing.T) {
	for _, ok := range []string{"00:00", "9:30", "23:59", " 18:05 "} {
		assert.True(t, IsHHMM(ok), ok)
	}
	for _, bad := range []string{"24:00", "12:60", "1230", "", "ab:cd"} {
		assert.False(t, IsHHMM(bad), bad)
	}
}

func TestIsEventCategory(t *testing.T) {
	assert.True(t, IsEventCategory("Career"))
	assert.False(t, IsEventCategory("career"))
	assert.False(t, IsEventCategory("Concert"))
}
