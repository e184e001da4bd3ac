package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/veilgate-project/veilgate/internal/protocol"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List every message type in the protocol catalog",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Protocol version %d, %d message types\n\n", protocol.Version, len(protocol.TypeIDs()))

		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"Type ID", "Name", "Compressed", "Baseline Bytes"})
		tw.SetBorder(true)
		tw.SetAutoWrapText(false)

		for _, id := range protocol.TypeIDs() {
			compressed := ""
			if protocol.Compressed(id) {
				compressed = "yes"
			}

			baseline := "-"
			if payload, err := protocol.Encode(protocol.New(id)); err == nil {
				baseline = fmt.Sprintf("%d", len(payload))
			}

			tw.Append([]string{
				fmt.Sprintf("0x%04x", id),
				protocol.Name(id),
				compressed,
				baseline,
			})
		}

		tw.Render()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
