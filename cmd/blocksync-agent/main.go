// Command blocksync-agent is the destination-side half of the delta-transfer
// tool. It takes no command-line arguments: every parameter it needs
// arrives on the wire from the driver (§4.2), reading from standard input
// and writing to standard output in binary.
package main

import (
	"os"

	"github.com/havoc-io/blocksync/protocol"
)

func main() {
	if err := protocol.Serve(stdio{os.Stdin, os.Stdout}, protocol.OSFileSystem); err != nil {
		os.Exit(1)
	}
}

// stdio joins standard input and output into a single io.ReadWriter, the
// way the driver's spawned-process connection expects.
type stdio struct {
	*os.File
	out *os.File
}

func (s stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}
