// Veilgate - masked-record protocol gateway.
//
// Veilgate terminates the game protocol's TCP framing, decodes every
// known message through the shared record codec, records traffic in a
// SQLite flight recorder, and exposes a REST surface for catalog
// browsing and capture inspection.
package main

import (
	"github.com/veilgate-project/veilgate/cmd/veilgate/cmd"
)

func main() {
	cmd.Execute()
}
