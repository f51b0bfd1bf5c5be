package cmd

import (
	"bytes"
	"strconv"

	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"

	"github.com/nvfand/nvfand/cmd/global"
	"github.com/nvfand/nvfand/internal/curve"
	"github.com/nvfand/nvfand/internal/nvctl"
	"github.com/nvfand/nvfand/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [gpu:fan]",
	Short: "Print the current temperature, fan speed and curve target",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()
		if err := readConfig(); err != nil {
			return err
		}

		profiles, err := selectProfiles(args)
		if err != nil {
			return err
		}

		return withControl(func(control nvctl.Control) error {
			tab := table.Table{
				Headers: []string{"Profile", "Temperature", "Current Speed", "Target Speed", "Hysteresis"},
			}

			for _, profile := range profiles {
				curveTable, err := curve.Parse(profile.Curve)
				if err != nil {
					return err
				}
				temperature, err := control.ReadTemperature(profile.GpuIndex)
				if err != nil {
					return err
				}
				currentSpeed, err := control.ReadFanSpeed(profile.FanIndex)
				if err != nil {
					return err
				}

				tab.Rows = append(tab.Rows, []string{
					profile.ID(),
					strconv.Itoa(temperature) + "°C",
					strconv.Itoa(currentSpeed) + "%",
					strconv.Itoa(curveTable.SelectSpeed(temperature)) + "%",
					strconv.Itoa(profile.Hysteresis) + "%",
				})
			}

			var buf bytes.Buffer
			tableErr := tab.WriteTable(&buf, &table.Config{
				ShowIndex:       false,
				Color:           !global.NoColor,
				AlternateColors: true,
				TitleColorCode:  ansi.ColorCode("white+buf"),
				AltColorCodes: []string{
					ansi.ColorCode("white"),
					ansi.ColorCode("white:236"),
				},
			})
			if tableErr != nil {
				return tableErr
			}
			ui.Printfln(buf.String())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
