package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Intro", "intro"},
		{"Getting Started", "getting-started"},
		{"  Setup -- the   robot!  ", "setup-the-robot"},
		{"C++ & ROS 2", "c-ros-2"},
		{"Café Crème", "cafe-creme"},
		{"snake_case_name", "snake-case-name"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestIDRegistryResolvesCollisions(t *testing.T) {
	ids := newIDRegistry()

	assert.Equal(t, "setup", ids.Next("Setup"))
	assert.Equal(t, "setup-1", ids.Next("Setup"))
	assert.Equal(t, "setup-2", ids.Next("setup"))
	assert.Equal(t, "heading", ids.Next("???"))
	assert.Equal(t, "heading-1", ids.Next(""))
}

func TestIDRegistrySkipsLiteralSuffixes(t *testing.T) {
	ids := newIDRegistry()

	assert.Equal(t, "step-1", ids.Next("Step 1"))
	assert.Equal(t, "step", ids.Next("Step"))
	assert.Equal(t, "step-2", ids.Next("Step"))
}
