package curve

import (
	"bytes"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"

	"github.com/nvfand/nvfand/cmd/global"
	"github.com/nvfand/nvfand/internal/configuration"
	"github.com/nvfand/nvfand/internal/curve"
	"github.com/nvfand/nvfand/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured fan curve(s) to console",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configPath := configuration.DetectAndReadConfigFile()
		if len(configPath) > 0 {
			ui.Info("Using configuration file at: %s", configPath)
		}
		configuration.LoadConfig()

		if err = configuration.Validate(); err != nil {
			ui.Fatal(err.Error())
		}

		for idx, profile := range configuration.CurrentConfig.Profiles {
			if idx > 0 {
				ui.Printfln("")
				ui.Printfln("")
			}

			curveTable, err := curve.Parse(profile.Curve)
			if err != nil {
				return err
			}

			// print table
			tab := table.Table{
				Headers: []string{"Profile", "Curve", "Hysteresis"},
				Rows: [][]string{
					{profile.ID(), profile.Curve, strconv.Itoa(profile.Hysteresis) + "%"},
				},
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
				panic(tableErr)
			}
			ui.Printfln(buf.String())

			entries := curveTable.Entries()
			start := entries[0].Threshold - 5
			if start < 0 {
				start = 0
			}
			stop := entries[len(entries)-1].Threshold + 5

			values := make([]float64, 0, stop-start+1)
			for temperature := start; temperature <= stop; temperature++ {
				values = append(values, float64(curveTable.SelectSpeed(temperature)))
			}

			caption := "Speed % / Temperature °C"
			graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
			ui.Printfln(graph)
		}

		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
