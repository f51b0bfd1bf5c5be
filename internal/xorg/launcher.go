package xorg

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// xServerBinary is the display server executable. "-config none" is not
// needed, the nvidia driver module is picked up from the default config.
const xServerBinary = "X"

type xLauncher struct{}

func (l *xLauncher) Start(display string, authorityFile string, logFile string) (serverProcess, error) {
	if _, err := exec.LookPath(xServerBinary); err != nil {
		return nil, fmt.Errorf("display server binary not found: %w", err)
	}

	out, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open display server log %s: %w", logFile, err)
	}

	cmd := exec.Command(xServerBinary, display, "-noreset", "-nolisten", "tcp", "-auth", authorityFile)
	cmd.Stdout = out
	cmd.Stderr = out
	// detach from the daemon's process group so terminal signals
	// never reach the server directly
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		_ = out.Close()
		return nil, err
	}
	// the child holds its own copy of the log fd
	_ = out.Close()

	process := &osProcess{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(process.done)
	}()
	return process, nil
}

type osProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *osProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *osProcess) Terminate() error {
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *osProcess) WaitTimeout(timeout time.Duration) bool {
	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (p *osProcess) Kill() error {
	return p.cmd.Process.Kill()
}
