package configuration

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qdm12/reprint"
)

// DefaultCurve mirrors the curve the driver firmware roughly follows itself.
const DefaultCurve = "30:25,40:35,50:45,60:60,70:75,80:90"

const DefaultHysteresis = 2

// ProfileConfig binds one (gpu, fan) pair to a curve and hysteresis margin.
type ProfileConfig struct {
	GpuIndex int `json:"gpuIndex"`
	FanIndex int `json:"fanIndex"`
	// Curve is a comma separated list of "temperature:speed" breakpoints
	Curve string `json:"curve"`
	// Hysteresis is the minimum speed delta (percent) before a new
	// fan command is issued
	Hysteresis int `json:"hysteresis"`
}

func (p ProfileConfig) ID() string {
	return fmt.Sprintf("%d:%d", p.GpuIndex, p.FanIndex)
}

func DefaultProfile() ProfileConfig {
	var profile ProfileConfig
	if err := reprint.FromTo(&ProfileConfig{
		Curve:      DefaultCurve,
		Hysteresis: DefaultHysteresis,
	}, &profile); err != nil {
		panic(err)
	}
	return profile
}

// ParseProfileToken parses a "gpu:fan" selector into its two indices.
func ParseProfileToken(token string) (gpuIndex int, fanIndex int, err error) {
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid profile selector '%s', expected gpu:fan", token)
	}
	gpuIndex, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid profile selector '%s': %s", token, err.Error())
	}
	fanIndex, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid profile selector '%s': %s", token, err.Error())
	}
	if gpuIndex < 0 || fanIndex < 0 {
		return 0, 0, fmt.Errorf("invalid profile selector '%s': indices must be non-negative", token)
	}
	return gpuIndex, fanIndex, nil
}

// FindProfile returns the index of the profile for the given (gpu, fan)
// pair, or -1 if none is configured.
func FindProfile(profiles []ProfileConfig, gpuIndex int, fanIndex int) int {
	for idx, profile := range profiles {
		if profile.GpuIndex == gpuIndex && profile.FanIndex == fanIndex {
			return idx
		}
	}
	return -1
}

// EnsureProfile returns the profile for the given (gpu, fan) pair, creating
// it from the default profile if missing.
func (c *Configuration) EnsureProfile(gpuIndex int, fanIndex int) *ProfileConfig {
	idx := FindProfile(c.Profiles, gpuIndex, fanIndex)
	if idx < 0 {
		profile := DefaultProfile()
		profile.GpuIndex = gpuIndex
		profile.FanIndex = fanIndex
		c.Profiles = append(c.Profiles, profile)
		idx = len(c.Profiles) - 1
	}
	return &c.Profiles[idx]
}

// RemoveProfile removes the profile for the given (gpu, fan) pair and
// reports whether one was present.
func (c *Configuration) RemoveProfile(gpuIndex int, fanIndex int) bool {
	idx := FindProfile(c.Profiles, gpuIndex, fanIndex)
	if idx < 0 {
		return false
	}
	c.Profiles = append(c.Profiles[:idx], c.Profiles[idx+1:]...)
	return true
}
