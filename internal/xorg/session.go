package xorg

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvfand/nvfand/internal/ui"
	"github.com/nvfand/nvfand/internal/util"
)

const (
	x11SocketDir = "/tmp/.X11-unix"

	xauthBinary = "xauth"

	readinessAttempts = 20
	readinessDelay    = 500 * time.Millisecond
)

var (
	// ErrStartFailed indicates that the display server exited before becoming ready.
	ErrStartFailed = errors.New("display server exited before becoming ready")
	// ErrStartTimeout indicates that the display server did not become ready in time.
	ErrStartTimeout = errors.New("timed out waiting for display server readiness")
)

type state int

const (
	stateAbsent state = iota
	stateStarting
	stateReady
	stateStopped
)

// Handle identifies a ready display endpoint. Control loops borrow it for the
// duration of a run and never outlive the owning Session.
type Handle struct {
	// Display is the X display identity, e.g. ":99"
	Display string
	// AuthorityFile is the path of the xauth cookie file, empty for adopted sessions
	AuthorityFile string
	// Adopted is true if the endpoint existed before this daemon instance,
	// in which case teardown will not touch it
	Adopted bool
	// LogFile is the path the server output is redirected to, empty for adopted sessions
	LogFile string
}

// serverProcess is the running display server as seen by the Session.
type serverProcess interface {
	Alive() bool
	Terminate() error
	WaitTimeout(timeout time.Duration) bool
	Kill() error
}

// launcher spawns the display server process. Abstracted so the session
// state machine can be tested without a real X server.
type launcher interface {
	Start(display string, authorityFile string, logFile string) (serverProcess, error)
}

// Session owns the lifecycle of the headless display server required by the
// driver control interface: Absent -> Starting -> Ready -> Stopped.
type Session struct {
	mu sync.Mutex

	display string
	runDir  string

	state    state
	handle   *Handle
	process  serverProcess
	launcher launcher

	authWriter func(authorityFile string) error
	socketDir  string
	attempts   int
	delay      time.Duration
}

// NewSession creates a session for the given display identity, e.g. ":99".
// Scaffolding (authority file, server log) is placed below runDir.
func NewSession(display string, runDir string) *Session {
	session := &Session{
		display:   display,
		runDir:    runDir,
		state:     stateAbsent,
		launcher:  &xLauncher{},
		socketDir: x11SocketDir,
		attempts:  readinessAttempts,
		delay:     readinessDelay,
	}
	session.authWriter = session.writeAuthority
	return session
}

// Acquire makes the display endpoint available, either by adopting an already
// running server or by starting a dedicated one and waiting for it to become
// ready. Calling Acquire on an already ready session returns the same handle.
func (s *Session) Acquire(ctx context.Context) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateReady {
		return s.handle, nil
	}

	if _, err := os.Stat(s.socketPath()); err == nil {
		ui.Info("Display %s already exists, adopting it", s.display)
		s.handle = &Handle{Display: s.display, Adopted: true}
		s.state = stateReady
		return s.handle, nil
	}

	if err := os.MkdirAll(s.runDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create run directory %s: %w", s.runDir, err)
	}

	authorityFile := filepath.Join(s.runDir, "nvfand.xauth")
	if err := s.authWriter(authorityFile); err != nil {
		return nil, err
	}

	logFile := filepath.Join(s.runDir, fmt.Sprintf("X%s.log", s.displayNumber()))

	ui.Info("Starting display server on %s (log: %s)", s.display, logFile)
	process, err := s.launcher.Start(s.display, authorityFile, logFile)
	if err != nil {
		_ = os.Remove(authorityFile)
		return nil, fmt.Errorf("cannot start display server: %w", err)
	}
	s.state = stateStarting
	s.process = process

	handle := &Handle{
		Display:       s.display,
		AuthorityFile: authorityFile,
		LogFile:       logFile,
	}

	if err := s.awaitReadiness(ctx, handle); err != nil {
		s.teardownLocked(handle)
		return nil, err
	}

	s.handle = handle
	s.state = stateReady
	return handle, nil
}

// Release tears down an owned display server and its authority file. It is
// idempotent and a no-op for adopted sessions or after a failed acquire.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateReady && s.state != stateStarting {
		return
	}
	if s.handle != nil && s.handle.Adopted {
		s.state = stateStopped
		return
	}
	s.teardownLocked(s.handle)
}

func (s *Session) awaitReadiness(ctx context.Context, handle *Handle) error {
	for i := 0; i < s.attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}

		if !s.process.Alive() {
			return fmt.Errorf("%w, see %s", ErrStartFailed, handle.LogFile)
		}

		if s.endpointReady(handle) {
			ui.Debug("Display %s ready after %d attempt(s)", s.display, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w, see %s", ErrStartTimeout, handle.LogFile)
}

func (s *Session) endpointReady(handle *Handle) bool {
	if _, err := os.Stat(s.socketPath()); err != nil {
		return false
	}
	info, err := os.Stat(handle.AuthorityFile)
	return err == nil && info.Size() > 0
}

func (s *Session) teardownLocked(handle *Handle) {
	if s.process != nil && s.process.Alive() {
		ui.Info("Stopping display server on %s", s.display)
		if err := s.process.Terminate(); err != nil {
			ui.Warning("Failed to signal display server: %v", err)
		}
		if !s.process.WaitTimeout(5 * time.Second) {
			ui.Warning("Display server did not exit in time, killing it")
			_ = s.process.Kill()
		}
	}
	if handle != nil && len(handle.AuthorityFile) > 0 {
		_ = os.Remove(handle.AuthorityFile)
	}
	s.state = stateStopped
}

// writeAuthority generates a fresh MIT-MAGIC-COOKIE-1 for the display.
func (s *Session) writeAuthority(authorityFile string) error {
	cookieBytes := make([]byte, 16)
	if _, err := rand.Read(cookieBytes); err != nil {
		return fmt.Errorf("cannot generate authority cookie: %w", err)
	}
	cookie := hex.EncodeToString(cookieBytes)

	args := []string{"-f", authorityFile, "add", s.display, "MIT-MAGIC-COOKIE-1", cookie}
	if _, err := util.ExecCommand(xauthBinary, args, nil, 5*time.Second); err != nil {
		return fmt.Errorf("cannot write authority file %s: %w", authorityFile, err)
	}
	return nil
}

// socketPath maps the display identity to its unix socket,
// e.g. ":99" -> /tmp/.X11-unix/X99
func (s *Session) socketPath() string {
	return filepath.Join(s.socketDir, "X"+s.displayNumber())
}

func (s *Session) displayNumber() string {
	number := strings.TrimPrefix(s.display, ":")
	if idx := strings.Index(number, "."); idx >= 0 {
		number = number[:idx]
	}
	return number
}
