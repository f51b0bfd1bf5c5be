package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oklog/run"

	"github.com/nvfand/nvfand/internal/configuration"
	"github.com/nvfand/nvfand/internal/controller"
	"github.com/nvfand/nvfand/internal/curve"
	"github.com/nvfand/nvfand/internal/nvctl"
	"github.com/nvfand/nvfand/internal/persistence"
	"github.com/nvfand/nvfand/internal/ui"
	"github.com/nvfand/nvfand/internal/xorg"
)

const snapshotLogInterval = 30 * time.Second

// errReload signals that the control loops should be rebuilt from a freshly
// read configuration.
var errReload = errors.New("configuration reload requested")

// RunDaemon runs control loops for all configured profiles until a
// termination signal arrives. SIGHUP and config file changes trigger a clean
// drain and restart of the loops with the new configuration.
func RunDaemon(configPath string) {
	if os.Geteuid() != 0 {
		ui.Fatal("Fan control requires root permissions to manage fan speeds, please run nvfand as root")
	}

	for {
		err := runDaemonCycle(configPath)
		if errors.Is(err, errReload) {
			continue
		}
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		ui.Info("Done.")
		os.Exit(0)
	}
}

func runDaemonCycle(configPath string) error {
	config := configuration.CurrentConfig

	pers := persistence.NewPersistence(config.DbPath)
	if err := pers.Init(); err != nil {
		ui.Warning("Cannot initialize persistence at %s: %v", config.DbPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := xorg.NewSession(config.Display, config.RunDir)
	handle, err := session.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("cannot acquire display session %s: %w", config.Display, err)
	}
	// runs on every exit path, including initialization failures below
	defer session.Release()

	control, err := nvctl.NewControl(handle.Display, handle.AuthorityFile)
	if err != nil {
		return err
	}

	var g run.Group
	{
		// === fan controllers
		for _, profile := range config.Profiles {
			table, err := curve.Parse(profile.Curve)
			if err != nil {
				return fmt.Errorf("profile %s: invalid curve: %w", profile.ID(), err)
			}

			target := controller.Target{
				GpuIndex:       profile.GpuIndex,
				FanIndex:       profile.FanIndex,
				Curve:          table,
				PollInterval:   config.PollInterval,
				Hysteresis:     profile.Hysteresis,
				TempWindowSize: config.TempRollingWindowSize,
			}
			fanController := controller.NewFanController(control, pers, target, config.RestoreOnExit)
			id := profile.ID()

			g.Add(func() error {
				err := fanController.Run(ctx)
				ui.Info("Control loop for profile %s stopped.", id)
				return err
			}, func(err error) {
				if err != nil {
					ui.Warning("Profile %s: %v", id, err)
				}
				cancel()
			})
		}
	}
	{
		// === snapshot logger
		g.Add(func() error {
			tick := time.Tick(snapshotLogInterval)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-tick:
					logSnapshots()
				}
			}
		}, func(err error) {
			cancel()
		})
	}
	{
		// === configuration reload (SIGHUP + config file watch)
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)

		g.Add(func() error {
			return watchConfiguration(ctx, configPath, hup)
		}, func(err error) {
			signal.Stop(hup)
			cancel()
		})
	}
	{
		// === termination signals
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received termination signal, draining...")
				return nil
			case <-ctx.Done():
				return nil
			}
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	return g.Run()
}

// watchConfiguration blocks until a valid new configuration should be
// applied, in which case it returns errReload. Invalid configurations are
// logged and ignored, the previous one stays active.
func watchConfiguration(ctx context.Context, configPath string, hup <-chan os.Signal) error {
	var events <-chan fsnotify.Event
	if len(configPath) > 0 {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			ui.Warning("Cannot watch config file: %v", err)
		} else {
			defer func() {
				_ = watcher.Close()
			}()
			// watch the directory, editors typically replace the file
			if err := watcher.Add(filepath.Dir(configPath)); err != nil {
				ui.Warning("Cannot watch config file %s: %v", configPath, err)
			} else {
				events = watcher.Events
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			ui.Info("Received SIGHUP")
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
		}

		if err := configuration.Reload(); err != nil {
			ui.Error("Ignoring invalid configuration: %v", err)
			continue
		}
		ui.Info("Configuration reloaded, restarting control loops...")
		return errReload
	}
}

func logSnapshots() {
	ids := controller.SnapshotMap.Keys()
	sort.Strings(ids)
	for _, id := range ids {
		snapshot, ok := controller.SnapshotMap.Get(id)
		if !ok {
			continue
		}
		ui.Info("Profile %s: temp=%d°C target=%d%% applied=%d%%",
			id, snapshot.Temperature, snapshot.TargetSpeed, snapshot.AppliedSpeed)
	}
}
