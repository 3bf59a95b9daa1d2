package utils

import (
	"runtime/debug"
	"testing"
)

func TestVersionFromSettings(t *testing.T) {
	testCases := []struct {
		name     string
		settings []debug.BuildSetting
		expected string
	}{
		{name: "no revision", settings: nil, expected: unknownVersion},
		{
			name:     "clean revision",
			settings: []debug.BuildSetting{{Key: vcsRevisionKey, Value: "0123456789abcdef"}},
			expected: "devel-0123456789ab",
		},
		{
			name: "dirty revision",
			settings: []debug.BuildSetting{
				{Key: vcsRevisionKey, Value: "abc123"},
				{Key: vcsModifiedKey, Value: "true"},
			},
			expected: "devel-abc123-dirty",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := versionFromSettings(testCase.settings); actual != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, actual)
			}
		})
	}
}
