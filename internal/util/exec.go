package util

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/nvfand/nvfand/internal/ui"
)

// ExecCommand runs the given executable with a timeout and returns its
// trimmed stdout. Additional environment variables are appended to the
// current process environment.
func ExecCommand(executable string, args []string, env []string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		ui.Warning("Command timed out: %s", executable)
		return "", err
	}

	if err != nil {
		return "", err
	}

	strout := string(out)
	strout = strings.Trim(strout, "\n")

	return strout, nil
}
