package configuration

import (
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/nvfand/nvfand/internal/ui"
	"github.com/spf13/viper"
)

// MinPollInterval is the lower bound for the control loop poll interval.
const MinPollInterval = 500 * time.Millisecond

type Configuration struct {
	// Display is the X display identity the driver is addressed through.
	// If no server is listening there, nvfand starts a headless one.
	Display string `json:"display"`
	// RunDir holds session scaffolding (authority file, display server log)
	RunDir string `json:"runDir"`
	DbPath string `json:"dbPath"`

	PollInterval          time.Duration `json:"pollInterval"`
	TempRollingWindowSize int           `json:"tempRollingWindowSize"`
	RestoreOnExit         bool          `json:"restoreOnExit"`

	Profiles []ProfileConfig `json:"profiles"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("nvfand")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/nvfand/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("display", ":0")
	viper.SetDefault("runDir", "/var/run/nvfand")
	viper.SetDefault("dbPath", "/etc/nvfand/nvfand.db")
	viper.SetDefault("pollInterval", 2*time.Second)
	viper.SetDefault("tempRollingWindowSize", 1)
	viper.SetDefault("restoreOnExit", true)
	viper.SetDefault("profiles", []ProfileConfig{})
}

// DetectAndReadConfigFile reads the configuration file, if one exists, and
// returns its path. A missing file is not an error, defaults apply.
func DetectAndReadConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			ui.Fatal("Error reading config file, %s", err)
		}
	}
	return viper.ConfigFileUsed()
}

func LoadConfig() {
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHook()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
	if len(CurrentConfig.Profiles) == 0 {
		CurrentConfig.Profiles = []ProfileConfig{DefaultProfile()}
	}
}

// Reload re-reads the configuration file and replaces CurrentConfig when the
// result validates. The previous configuration is kept otherwise.
func Reload() error {
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	previous := CurrentConfig
	if err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(decodeHook())); err != nil {
		CurrentConfig = previous
		return err
	}
	if len(CurrentConfig.Profiles) == 0 {
		CurrentConfig.Profiles = []ProfileConfig{DefaultProfile()}
	}
	if err := validateConfig(&CurrentConfig); err != nil {
		CurrentConfig = previous
		return err
	}
	return nil
}
