package controller

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/asecurityteam/rolling"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/nvfand/nvfand/internal/curve"
	"github.com/nvfand/nvfand/internal/nvctl"
	"github.com/nvfand/nvfand/internal/persistence"
	"github.com/nvfand/nvfand/internal/ui"
	"github.com/nvfand/nvfand/internal/util"
)

const (
	// MinAppliedSpeed is the lowest speed ever commanded, the curve may not
	// stop a fan entirely
	MinAppliedSpeed = 10
	MaxAppliedSpeed = 100
)

type state int

const (
	stateIdle state = iota
	stateInitializing
	stateRunning
	stateDraining
	stateTerminated
)

// Target couples one (gpu, fan) pair with its curve and loop parameters.
// Owned exclusively by the FanController configured with it.
type Target struct {
	GpuIndex int
	FanIndex int

	Curve        curve.Table
	PollInterval time.Duration
	// Hysteresis is the minimum speed delta (percent) before a new command is issued
	Hysteresis int
	// TempWindowSize smooths temperature readings over a rolling window, 1 disables smoothing
	TempWindowSize int
}

func (t Target) ID() string {
	return fmt.Sprintf("%d:%d", t.GpuIndex, t.FanIndex)
}

// Snapshot is the latest observation of one control loop, published for the
// status logger.
type Snapshot struct {
	Temperature  int       `json:"temperature"`
	TargetSpeed  int       `json:"targetSpeed"`
	AppliedSpeed int       `json:"appliedSpeed"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SnapshotMap holds the latest snapshot per profile id.
var SnapshotMap = cmap.New[Snapshot]()

// FanController runs the polling loop for a single target: read temperature,
// select a speed from the curve, apply it if the change is large enough,
// sleep, repeat.
type FanController struct {
	control     nvctl.Control
	persistence persistence.Persistence
	target      Target

	restoreOnExit bool

	state           state
	lastApplied     *int
	lastTemperature int
	tempWindow      *rolling.PointPolicy

	drainOnce sync.Once
}

func NewFanController(
	control nvctl.Control,
	pers persistence.Persistence,
	target Target,
	restoreOnExit bool,
) *FanController {
	return &FanController{
		control:       control,
		persistence:   pers,
		target:        target,
		restoreOnExit: restoreOnExit,
		state:         stateIdle,
	}
}

// Run blocks until the context is cancelled or initialization fails.
// Draining (best-effort restore of automatic control, state persist) runs
// exactly once on every exit path after manual control was enabled.
func (f *FanController) Run(ctx context.Context) error {
	f.state = stateInitializing

	f.seedFromPersistence()

	if err := f.control.SetManualControl(f.target.GpuIndex); err != nil {
		f.state = stateTerminated
		return fmt.Errorf("cannot enable manual fan control for gpu %d: %w", f.target.GpuIndex, err)
	}
	defer f.drain()

	ui.Info("Starting control loop for profile %s", f.target.ID())
	f.state = stateRunning

	for {
		if err := f.UpdateFanSpeed(); err != nil {
			// transient: a single failed reading must not stop fan management
			ui.Warning("Profile %s: %v (continuing)", f.target.ID(), err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.target.PollInterval):
		}
	}
}

// RunOnce performs a single control iteration under manual control and
// drains immediately afterwards.
func (f *FanController) RunOnce() error {
	f.state = stateInitializing

	f.seedFromPersistence()

	if err := f.control.SetManualControl(f.target.GpuIndex); err != nil {
		f.state = stateTerminated
		return fmt.Errorf("cannot enable manual fan control for gpu %d: %w", f.target.GpuIndex, err)
	}
	defer f.drain()

	f.state = stateRunning
	return f.UpdateFanSpeed()
}

// UpdateFanSpeed performs a single control iteration.
func (f *FanController) UpdateFanSpeed() error {
	temperature, err := f.control.ReadTemperature(f.target.GpuIndex)
	if err != nil {
		return err
	}
	temperature = f.smooth(temperature)
	f.lastTemperature = temperature

	target := f.target.Curve.SelectSpeed(temperature)
	speed := int(util.Coerce(float64(target), MinAppliedSpeed, MaxAppliedSpeed))

	if f.shouldApply(speed) {
		if err := f.control.SetFanSpeed(f.target.FanIndex, speed); err != nil {
			return err
		}
		applied := speed
		f.lastApplied = &applied
		ui.Debug("Profile %s: temp=%d°C target=%d%% applied", f.target.ID(), temperature, speed)
	} else {
		ui.Debug("Profile %s: temp=%d°C target=%d%% (within hysteresis)", f.target.ID(), temperature, speed)
	}

	f.publishSnapshot(target)
	return nil
}

// shouldApply suppresses writes that would not change the speed by at least
// the hysteresis margin. The first write after startup always goes through
// unless a persisted baseline matches.
func (f *FanController) shouldApply(speed int) bool {
	if f.lastApplied == nil {
		return true
	}
	delta := int(math.Abs(float64(speed - *f.lastApplied)))
	if delta == 0 {
		return false
	}
	return delta >= f.target.Hysteresis
}

func (f *FanController) smooth(temperature int) int {
	if f.target.TempWindowSize <= 1 {
		return temperature
	}
	if f.tempWindow == nil {
		f.tempWindow = util.CreateRollingWindow(f.target.TempWindowSize)
		util.FillWindow(f.tempWindow, f.target.TempWindowSize, float64(temperature))
	}
	f.tempWindow.Append(float64(temperature))
	return int(math.Round(util.GetWindowAvg(f.tempWindow)))
}

func (f *FanController) seedFromPersistence() {
	if f.persistence == nil {
		return
	}
	stored, err := f.persistence.LoadProfileState(f.target.ID())
	if err != nil {
		return
	}
	baseline := stored.LastAppliedSpeed
	f.lastApplied = &baseline
	ui.Debug("Profile %s: hysteresis baseline %d%% restored from db", f.target.ID(), baseline)
}

func (f *FanController) drain() {
	f.drainOnce.Do(func() {
		f.state = stateDraining

		if f.restoreOnExit {
			// best-effort: losing manual control must never crash the cleanup path
			if err := f.control.SetAutoControl(f.target.GpuIndex); err != nil {
				ui.Warning("Profile %s: failed to restore automatic fan control: %v", f.target.ID(), err)
			} else {
				ui.Info("Profile %s: automatic fan control restored", f.target.ID())
			}
		}

		if f.persistence != nil && f.lastApplied != nil {
			profileState := persistence.ProfileState{
				LastAppliedSpeed: *f.lastApplied,
				LastTemperature:  f.lastTemperature,
				UpdatedAt:        time.Now(),
			}
			if err := f.persistence.SaveProfileState(f.target.ID(), profileState); err != nil {
				ui.Warning("Profile %s: failed to persist state: %v", f.target.ID(), err)
			}
		}

		SnapshotMap.Remove(f.target.ID())
		f.state = stateTerminated
	})
}

func (f *FanController) publishSnapshot(targetSpeed int) {
	applied := -1
	if f.lastApplied != nil {
		applied = *f.lastApplied
	}
	SnapshotMap.Set(f.target.ID(), Snapshot{
		Temperature:  f.lastTemperature,
		TargetSpeed:  targetSpeed,
		AppliedSpeed: applied,
		UpdatedAt:    time.Now(),
	})
}
