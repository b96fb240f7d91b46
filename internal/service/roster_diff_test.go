package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffModuleRoster(t *testing.T) {
	cases := []struct {
		name       string
		curriculum []string
		active     []string
		wantAdd    []string
		wantRemove []string
	}{
		{
			name:       "overlap",
			curriculum: []string{"mod-1", "mod-2", "mod-3"},
			active:     []string{"mod-2", "mod-3", "mod-4"},
			wantAdd:    []string{"mod-1"},
			wantRemove: []string{"mod-4"},
		},
		{
			name:       "identical sets are a no-op",
			curriculum: []string{"mod-1", "mod-2"},
			active:     []string{"mod-2", "mod-1"},
			wantAdd:    nil,
			wantRemove: nil,
		},
		{
			name:       "empty roster adds everything",
			curriculum: []string{"mod-2", "mod-1"},
			active:     nil,
			wantAdd:    []string{"mod-1", "mod-2"},
			wantRemove: nil,
		},
		{
			name:       "empty curriculum removes everything",
			curriculum: nil,
			active:     []string{"mod-2", "mod-1"},
			wantAdd:    nil,
			wantRemove: []string{"mod-1", "mod-2"},
		},
		{
			name:       "both empty",
			curriculum: nil,
			active:     nil,
			wantAdd:    nil,
			wantRemove: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			toAdd, toRemove := DiffModuleRoster(tc.curriculum, tc.active)
			assert.Equal(t, tc.wantAdd, toAdd)
			assert.Equal(t, tc.wantRemove, toRemove)
		})
	}
}
