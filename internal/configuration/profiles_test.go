package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProfileToken(t *testing.T) {
	// WHEN
	gpuIndex, fanIndex, err := ParseProfileToken("1:2")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 1, gpuIndex)
	assert.Equal(t, 2, fanIndex)
}

func TestParseProfileTokenInvalid(t *testing.T) {
	for _, token := range []string{"", "1", "a:b", "-1:0", "0:-1"} {
		// WHEN
		_, _, err := ParseProfileToken(token)

		// THEN
		assert.Error(t, err, "token: %s", token)
	}
}

func TestEnsureProfileCreatesWithDefaults(t *testing.T) {
	// GIVEN
	config := createValidConfig()

	// WHEN
	profile := config.EnsureProfile(1, 1)

	// THEN
	assert.Len(t, config.Profiles, 2)
	assert.Equal(t, DefaultCurve, profile.Curve)
	assert.Equal(t, DefaultHysteresis, profile.Hysteresis)
	assert.Equal(t, 1, profile.GpuIndex)
	assert.Equal(t, 1, profile.FanIndex)
}

func TestEnsureProfileReturnsExisting(t *testing.T) {
	// GIVEN
	config := createValidConfig()

	// WHEN
	profile := config.EnsureProfile(0, 0)

	// THEN
	assert.Len(t, config.Profiles, 1)
	assert.Equal(t, "0:0", profile.ID())
}

func TestRemoveProfile(t *testing.T) {
	// GIVEN
	config := createValidConfig()

	// WHEN
	removed := config.RemoveProfile(0, 0)

	// THEN
	assert.True(t, removed)
	assert.Empty(t, config.Profiles)

	// WHEN removed again
	removed = config.RemoveProfile(0, 0)

	// THEN
	assert.False(t, removed)
}

func TestDefaultProfileIsIndependentCopy(t *testing.T) {
	// GIVEN
	first := DefaultProfile()
	second := DefaultProfile()

	// WHEN
	first.Curve = "40:30"

	// THEN
	assert.Equal(t, DefaultCurve, second.Curve)
}
