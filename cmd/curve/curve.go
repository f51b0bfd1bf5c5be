package curve

import (
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "curve",
	Short: "Commands for inspecting fan curves",
}
