package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/veilgate-project/veilgate/internal/protocol"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("veilgate %s\n", AppVersion)
		fmt.Printf("protocol version %d\n", protocol.Version)
		fmt.Printf("%s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
