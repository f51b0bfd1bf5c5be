package profile

import (
	"bytes"
	"strconv"

	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"

	"github.com/nvfand/nvfand/cmd/global"
	"github.com/nvfand/nvfand/internal/configuration"
	"github.com/nvfand/nvfand/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		readConfig()

		tab := table.Table{
			Headers: []string{"Profile", "GPU", "Fan", "Curve", "Hysteresis"},
		}
		for _, profile := range configuration.CurrentConfig.Profiles {
			tab.Rows = append(tab.Rows, []string{
				profile.ID(),
				strconv.Itoa(profile.GpuIndex),
				strconv.Itoa(profile.FanIndex),
				profile.Curve,
				strconv.Itoa(profile.Hysteresis) + "%",
			})
		}

		var buf bytes.Buffer
		err := tab.WriteTable(&buf, &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		})
		if err != nil {
			return err
		}
		ui.Printfln(buf.String())
		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
