package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRowRange covers the 1-based -start flag and the -limit clamp
func TestRowRange(t *testing.T) {
	tests := []struct {
		name        string
		start       int
		limit       int
		total       int
		first, last int
	}{
		{"defaults cover everything", 0, 0, 100, 0, 100},
		{"start 1 is the first row", 1, 0, 100, 0, 100},
		{"start 11 skips ten rows", 11, 0, 100, 10, 100},
		{"limit clamps the end", 0, 30, 100, 0, 30},
		{"start and limit combine", 11, 30, 100, 10, 40},
		{"limit past the end is ignored", 91, 30, 100, 90, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := rowRange(tt.start, tt.limit, tt.total)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}
