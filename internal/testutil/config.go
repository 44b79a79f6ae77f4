// Package testutil provides helpers for tests that touch global state.
package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/hhlyyng/animesub/internal/config"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	TMDBAPIKey string
	ListenAddr string
	UserAgent  string
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		TMDBAPIKey: config.TMDBAPIKey,
		ListenAddr: config.ListenAddr,
		UserAgent:  config.UserAgent,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.TMDBAPIKey = state.TMDBAPIKey
	config.ListenAddr = state.ListenAddr
	config.UserAgent = state.UserAgent
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper both ways.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}
