package util

import "encoding/hex"

// HexDump renders data as classic 16-byte rows: offset, hex bytes with a gap
// after the eighth, and a printable-ASCII gutter. Used by the decode command
// and the capture browser to show raw frame payloads.
func HexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return hex.Dump(data)
}
