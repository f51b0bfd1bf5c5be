package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func createTestPersistence(t *testing.T) Persistence {
	return NewPersistence(filepath.Join(t.TempDir(), "test.db"))
}

func TestPersistence_SaveAndLoadProfileState(t *testing.T) {
	// GIVEN
	p := createTestPersistence(t)
	state := ProfileState{
		LastAppliedSpeed: 55,
		LastTemperature:  63,
		UpdatedAt:        time.Now().Truncate(time.Second),
	}

	// WHEN
	err := p.SaveProfileState("0:0", state)
	assert.NoError(t, err)
	loaded, err := p.LoadProfileState("0:0")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 55, loaded.LastAppliedSpeed)
	assert.Equal(t, 63, loaded.LastTemperature)
}

func TestPersistence_LoadMissingProfileState(t *testing.T) {
	// GIVEN
	p := createTestPersistence(t)

	// WHEN
	state, err := p.LoadProfileState("0:0")

	// THEN
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, state)
}

func TestPersistence_DeleteProfileState(t *testing.T) {
	// GIVEN
	p := createTestPersistence(t)
	_ = p.SaveProfileState("0:0", ProfileState{LastAppliedSpeed: 40})

	// WHEN
	err := p.DeleteProfileState("0:0")
	assert.NoError(t, err)

	// THEN
	_, err = p.LoadProfileState("0:0")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPersistence_OverwriteProfileState(t *testing.T) {
	// GIVEN
	p := createTestPersistence(t)
	_ = p.SaveProfileState("0:0", ProfileState{LastAppliedSpeed: 40})

	// WHEN
	err := p.SaveProfileState("0:0", ProfileState{LastAppliedSpeed: 70})
	assert.NoError(t, err)

	// THEN
	loaded, err := p.LoadProfileState("0:0")
	assert.NoError(t, err)
	assert.Equal(t, 70, loaded.LastAppliedSpeed)
}
