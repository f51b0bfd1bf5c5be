package configuration

import (
	"testing"
	"time"

	"github.com/nvfand/nvfand/internal/curve"
	"github.com/stretchr/testify/assert"
)

func createValidConfig() Configuration {
	return Configuration{
		Display:               ":0",
		RunDir:                "/var/run/nvfand",
		DbPath:                "/etc/nvfand/nvfand.db",
		PollInterval:          2 * time.Second,
		TempRollingWindowSize: 1,
		RestoreOnExit:         true,
		Profiles: []ProfileConfig{
			{GpuIndex: 0, FanIndex: 0, Curve: DefaultCurve, Hysteresis: 2},
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	// GIVEN
	config := createValidConfig()

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.NoError(t, err)
}

func TestValidatePollIntervalBelowMinimum(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.PollInterval = 100 * time.Millisecond

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateInvalidCurve(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Profiles[0].Curve = "40:30,30:40"

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.ErrorIs(t, err, curve.ErrNonMonotonic)
}

func TestValidateNegativeIndices(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Profiles[0].GpuIndex = -1

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateNegativeHysteresis(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Profiles[0].Hysteresis = -1

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateDuplicateProfiles(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Profiles = append(config.Profiles, config.Profiles[0])

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateNoProfiles(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Profiles = nil

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}
