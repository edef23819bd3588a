package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamingear/console/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Catalog Console %s\n", common.GetVersion())
	},
}

func init() {

	rootCmd.AddCommand(versionCmd)
}
