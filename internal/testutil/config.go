// Package testutil holds shared helpers for tests that touch global
// configuration state.
package testutil

import (
	"testing"

	"github.com/mkorpi/alexandria/internal/config"
	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	OverwriteFiles bool
	UpdateCovers   bool
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		OverwriteFiles: config.OverwriteFiles,
		UpdateCovers:   config.UpdateCovers,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.OverwriteFiles = state.OverwriteFiles
	config.UpdateCovers = state.UpdateCovers
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper on both ends.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}
