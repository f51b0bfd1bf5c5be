package nvctl

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/nvfand/nvfand/internal/util"
)

// SettingsBinary is the external driver control tool. All fan and telemetry
// access goes through it; nvfand never talks to the GPU directly.
const SettingsBinary = "nvidia-settings"

const commandTimeout = 2 * time.Second

var (
	// ErrDriverUnavailable indicates that the driver control tool is not installed.
	ErrDriverUnavailable = errors.New("nvidia-settings not found in PATH")
	// ErrCommandFailed indicates a driver command that exited nonzero.
	ErrCommandFailed = errors.New("driver command failed")
	// ErrNoTelemetry indicates a temperature query that yielded no data.
	ErrNoTelemetry = errors.New("no temperature data")
)

// Control is the narrow surface of the driver used by the control loop.
type Control interface {
	// SetManualControl hands fan control of the given GPU to nvfand.
	SetManualControl(gpuIndex int) error
	// SetAutoControl returns fan control of the given GPU to the driver firmware.
	SetAutoControl(gpuIndex int) error
	// ReadTemperature returns the current core temperature of the given GPU in °C.
	ReadTemperature(gpuIndex int) (int, error)
	// ReadFanSpeed returns the current speed of the given fan in percent.
	ReadFanSpeed(fanIndex int) (int, error)
	// SetFanSpeed sets the target speed of the given fan in percent.
	SetFanSpeed(fanIndex int, speedPercent int) error
}

// CommandRunner executes an external command and returns its trimmed stdout.
type CommandRunner func(executable string, args []string, env []string, timeout time.Duration) (string, error)

type settingsControl struct {
	env []string
	run CommandRunner
}

// NewControl creates a Control backed by nvidia-settings, addressing the
// driver through the given display endpoint and authority file. The binary
// is resolved once here; a missing tool is a startup failure.
func NewControl(display string, authorityFile string) (Control, error) {
	if _, err := exec.LookPath(SettingsBinary); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDriverUnavailable, err)
	}
	return &settingsControl{
		env: controlEnv(display, authorityFile),
		run: util.ExecCommand,
	}, nil
}

func controlEnv(display string, authorityFile string) []string {
	env := []string{"DISPLAY=" + display}
	if len(authorityFile) > 0 {
		env = append(env, "XAUTHORITY="+authorityFile)
	}
	return env
}

func (c *settingsControl) SetManualControl(gpuIndex int) error {
	return c.assign(fmt.Sprintf("[gpu:%d]/GPUFanControlState=1", gpuIndex))
}

func (c *settingsControl) SetAutoControl(gpuIndex int) error {
	return c.assign(fmt.Sprintf("[gpu:%d]/GPUFanControlState=0", gpuIndex))
}

func (c *settingsControl) ReadTemperature(gpuIndex int) (int, error) {
	value, err := c.query(fmt.Sprintf("[gpu:%d]/GPUCoreTemp", gpuIndex))
	if err != nil {
		return 0, err
	}
	if len(value) == 0 {
		return 0, fmt.Errorf("%w: gpu %d", ErrNoTelemetry, gpuIndex)
	}
	temperature, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: gpu %d: unexpected output '%s'", ErrNoTelemetry, gpuIndex, value)
	}
	return temperature, nil
}

func (c *settingsControl) ReadFanSpeed(fanIndex int) (int, error) {
	value, err := c.query(fmt.Sprintf("[fan:%d]/GPUCurrentFanSpeed", fanIndex))
	if err != nil {
		return 0, err
	}
	speed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: fan %d: unexpected output '%s'", ErrNoTelemetry, fanIndex, value)
	}
	return speed, nil
}

func (c *settingsControl) SetFanSpeed(fanIndex int, speedPercent int) error {
	return c.assign(fmt.Sprintf("[fan:%d]/GPUTargetFanSpeed=%d", fanIndex, speedPercent))
}

func (c *settingsControl) assign(attribute string) error {
	_, err := c.run(SettingsBinary, []string{"-a", attribute}, c.env, commandTimeout)
	if err != nil {
		return fmt.Errorf("%w: -a %s: %s", ErrCommandFailed, attribute, err.Error())
	}
	return nil
}

func (c *settingsControl) query(attribute string) (string, error) {
	out, err := c.run(SettingsBinary, []string{"-q", attribute, "-t"}, c.env, commandTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: -q %s: %s", ErrCommandFailed, attribute, err.Error())
	}
	// multi-gpu systems may report one line per target, the first one
	// is the queried target itself
	out = strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	return out, nil
}
