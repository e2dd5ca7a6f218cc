package cmd

import (
	"bytes"
	"testing"

	"attendance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "attendance dev")
	assert.Contains(t, out.String(), "Commit: unknown")
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"gui", "live", "train", "serve", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestShouldProcess(t *testing.T) {
	tests := []struct {
		frame, skip uint64
		want        bool
	}{
		{1, 0, true},
		{1, 1, true},
		{1, 2, false},
		{2, 2, true},
		{9, 3, true},
		{10, 3, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldProcess(tt.frame, tt.skip), "frame %d skip %d", tt.frame, tt.skip)
	}
}

func TestLiveLabel(t *testing.T) {
	d := models.DetectionResult{Label: "Abdul Samad", Confidence: 0.912}

	assert.Equal(t, "Abdul Samad (AI-22016) 0.91", liveLabel(d, "AI-22016"))
	assert.Equal(t, "Abdul Samad 0.91", liveLabel(d, ""))
}

func TestMustGetPanicsOnUnknownFlag(t *testing.T) {
	assert.Panics(t, func() { mustGetString(versionCmd, "nope") })
}
