package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name     string
		analyzer string
		patterns []string
		want     bool
	}{
		{name: "exact name", analyzer: "SA1000", patterns: []string{"SA1000"}, want: true},
		{name: "group prefix", analyzer: "SA4006", patterns: []string{"SA4"}, want: true},
		{name: "other group", analyzer: "SA4006", patterns: []string{"SA1", "SA5"}, want: false},
		{name: "nothing enabled", analyzer: "SA1000", patterns: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, enabled(tt.analyzer, tt.patterns))
		})
	}
}
