package xorg

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeProcess struct {
	alive      bool
	terminated int
	killed     int
}

func (p *fakeProcess) Alive() bool {
	return p.alive
}

func (p *fakeProcess) Terminate() error {
	p.terminated++
	p.alive = false
	return nil
}

func (p *fakeProcess) WaitTimeout(timeout time.Duration) bool {
	return true
}

func (p *fakeProcess) Kill() error {
	p.killed++
	p.alive = false
	return nil
}

type fakeLauncher struct {
	process *fakeProcess
	// createSocket makes the endpoint appear as soon as the server "starts"
	createSocket bool
	socketPath   string
	started      int
}

func (l *fakeLauncher) Start(display string, authorityFile string, logFile string) (serverProcess, error) {
	l.started++
	if l.createSocket {
		if err := os.WriteFile(l.socketPath, []byte{}, 0o644); err != nil {
			return nil, err
		}
	}
	return l.process, nil
}

func createTestSession(t *testing.T, launcher *fakeLauncher) *Session {
	socketDir := t.TempDir()
	session := NewSession(":99", t.TempDir())
	session.socketDir = socketDir
	session.attempts = 3
	session.delay = time.Millisecond
	session.launcher = launcher
	session.authWriter = func(authorityFile string) error {
		return os.WriteFile(authorityFile, []byte("cookie"), 0o600)
	}
	if launcher != nil {
		launcher.socketPath = filepath.Join(socketDir, "X99")
	}
	return session
}

func TestAcquireAdoptsExistingDisplay(t *testing.T) {
	// GIVEN
	launcher := &fakeLauncher{process: &fakeProcess{alive: true}}
	session := createTestSession(t, launcher)
	assert.NoError(t, os.WriteFile(filepath.Join(session.socketDir, "X99"), []byte{}, 0o644))

	// WHEN
	handle, err := session.Acquire(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.True(t, handle.Adopted)
	assert.Equal(t, ":99", handle.Display)
	assert.Equal(t, 0, launcher.started)
}

func TestAcquireStartsOwnedDisplay(t *testing.T) {
	// GIVEN
	process := &fakeProcess{alive: true}
	launcher := &fakeLauncher{process: process, createSocket: true}
	session := createTestSession(t, launcher)

	// WHEN
	handle, err := session.Acquire(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.False(t, handle.Adopted)
	assert.Equal(t, 1, launcher.started)
	assert.FileExists(t, handle.AuthorityFile)
}

func TestAcquireIsIdempotent(t *testing.T) {
	// GIVEN
	launcher := &fakeLauncher{process: &fakeProcess{alive: true}, createSocket: true}
	session := createTestSession(t, launcher)
	first, err := session.Acquire(context.Background())
	assert.NoError(t, err)

	// WHEN
	second, err := session.Acquire(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, launcher.started)
}

func TestAcquireFailsWhenProcessDies(t *testing.T) {
	// GIVEN
	process := &fakeProcess{alive: false}
	launcher := &fakeLauncher{process: process}
	session := createTestSession(t, launcher)

	// WHEN
	_, err := session.Acquire(context.Background())

	// THEN
	assert.ErrorIs(t, err, ErrStartFailed)
}

func TestAcquireTimesOutWhileProcessAlive(t *testing.T) {
	// GIVEN
	process := &fakeProcess{alive: true}
	launcher := &fakeLauncher{process: process}
	session := createTestSession(t, launcher)

	// WHEN
	_, err := session.Acquire(context.Background())

	// THEN
	assert.ErrorIs(t, err, ErrStartTimeout)
	// the partially started process must be torn down
	assert.Equal(t, 1, process.terminated)
}

func TestReleaseOwnedDisplay(t *testing.T) {
	// GIVEN
	process := &fakeProcess{alive: true}
	launcher := &fakeLauncher{process: process, createSocket: true}
	session := createTestSession(t, launcher)
	handle, err := session.Acquire(context.Background())
	assert.NoError(t, err)

	// WHEN
	session.Release()

	// THEN
	assert.Equal(t, 1, process.terminated)
	assert.NoFileExists(t, handle.AuthorityFile)
}

func TestReleaseTwiceSignalsAtMostOnce(t *testing.T) {
	// GIVEN
	process := &fakeProcess{alive: true}
	launcher := &fakeLauncher{process: process, createSocket: true}
	session := createTestSession(t, launcher)
	_, err := session.Acquire(context.Background())
	assert.NoError(t, err)

	// WHEN
	session.Release()
	session.Release()

	// THEN
	assert.Equal(t, 1, process.terminated)
}

func TestReleaseAdoptedDisplayIsNoOp(t *testing.T) {
	// GIVEN
	process := &fakeProcess{alive: true}
	launcher := &fakeLauncher{process: process}
	session := createTestSession(t, launcher)
	assert.NoError(t, os.WriteFile(filepath.Join(session.socketDir, "X99"), []byte{}, 0o644))
	_, err := session.Acquire(context.Background())
	assert.NoError(t, err)

	// WHEN
	session.Release()

	// THEN
	assert.Equal(t, 0, process.terminated)
}

func TestReleaseBeforeAcquireIsNoOp(t *testing.T) {
	// GIVEN
	session := createTestSession(t, &fakeLauncher{process: &fakeProcess{}})

	// WHEN / THEN
	session.Release()
}

func TestAcquireObservesCancellation(t *testing.T) {
	// GIVEN
	process := &fakeProcess{alive: true}
	launcher := &fakeLauncher{process: process}
	session := createTestSession(t, launcher)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN
	_, err := session.Acquire(ctx)

	// THEN
	assert.ErrorIs(t, err, context.Canceled)
}
