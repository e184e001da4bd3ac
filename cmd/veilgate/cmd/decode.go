package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veilgate-project/veilgate/internal/frame"
	"github.com/veilgate-project/veilgate/internal/protocol"
	"github.com/veilgate-project/veilgate/internal/util"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [hex-or-base64]",
	Short: "Decode a frame or payload through the codec",
	Long: `Decode runs bytes through the production codec and prints the result.

Input is hex (whitespace tolerated) or base64, taken from the argument
or from --file. By default the bytes are a complete frame including the
8-byte envelope; pass --type-id to decode a bare payload instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		typeID, _ := cmd.Flags().GetUint32("type-id")

		var input string
		switch {
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			input = string(data)
		case len(args) == 1:
			input = args[0]
		default:
			return fmt.Errorf("provide bytes as an argument or via --file")
		}

		raw, err := parseBytes(input)
		if err != nil {
			return err
		}

		var (
			id      uint32
			payload []byte
		)
		if cmd.Flags().Changed("type-id") {
			id, payload = typeID, raw
		} else {
			hdr, p, err := frame.Read(bytes.NewReader(raw))
			if err != nil {
				fmt.Println(util.HexDump(raw))
				return fmt.Errorf("frame envelope rejected: %w", err)
			}
			id, payload = hdr.TypeID, p
		}

		fmt.Printf("type:       0x%04x (%s)\n", id, protocol.Name(id))
		fmt.Printf("size:       %d bytes\n", len(payload))
		fmt.Printf("compressed: %v\n\n", protocol.Compressed(id))
		fmt.Println(util.HexDump(payload))

		if protocol.Compressed(id) {
			fmt.Println("payload is compressed; not decoded")
			return nil
		}

		msg, err := protocol.Decode(id, payload)
		if err != nil {
			return err
		}

		if _, isRaw := msg.(*protocol.RawMessage); isRaw {
			fmt.Println("type id not in catalog; payload preserved verbatim")
			return nil
		}

		pretty, err := json.MarshalIndent(msg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render message: %w", err)
		}
		fmt.Println(string(pretty))
		return nil
	},
}

func init() {
	decodeCmd.Flags().String("file", "", "Read input bytes from a file")
	decodeCmd.Flags().Uint32("type-id", 0, "Treat input as a bare payload of this type")
	rootCmd.AddCommand(decodeCmd)
}

// parseBytes accepts hex (whitespace tolerated) or base64.
func parseBytes(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimPrefix(cleaned, "0x")

	if raw, err := hex.DecodeString(cleaned); err == nil {
		return raw, nil
	}
	if raw, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("input is neither valid hex nor base64")
}
