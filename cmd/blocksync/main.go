// Command blocksync is the driver (source-side) half of the delta-transfer
// tool. It reads a local file, spawns the blocksync-agent binary on the
// destination host (directly, or via an interactive SSH session), and
// transfers only the blocks that differ from what's already there.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/havoc-io/blocksync/blockdigest"
	"github.com/havoc-io/blocksync/cmd"
	"github.com/havoc-io/blocksync/protocol"
	"github.com/havoc-io/blocksync/remote"
	"github.com/havoc-io/blocksync/transport"
)

const usage = `usage: blocksync SRC [HOST:]DEST [BLOCKSIZE] [HASH]

Copies SRC to DEST, which may be a path on this machine or a "[USER@]HOST:PATH"
destination reached over SSH. Only blocks of DEST that differ from SRC are
transmitted. A missing or regular-file DEST is created or resized to the
size of SRC; any other DEST (such as a block device) is used as-is and must
be at least as large as SRC.

  BLOCKSIZE  block size, e.g. "4MiB" or a plain byte count (default 4MiB)
  HASH       block fingerprint algorithm (default sha3_512)
`

const (
	defaultBlockSize = 4 * 1024 * 1024
	agentCommand     = "blocksync-agent"
)

func main() {
	arguments := cmd.ParseArguments("blocksync", usage, os.Args[1:], 2, 4)

	sourcePath := arguments[0]
	destArg := arguments[1]

	blockSize := uint64(defaultBlockSize)
	if len(arguments) >= 3 {
		parsed, err := humanize.ParseBytes(arguments[2])
		if err != nil {
			cmd.Fatal(errors.Wrap(err, "invalid block size"))
		}
		if parsed == 0 {
			cmd.Fatal(errors.New("block size must be non-zero"))
		}
		blockSize = parsed
	}

	hashName := blockdigest.DefaultHashName
	if len(arguments) >= 4 {
		hashName = arguments[3]
		if _, _, err := blockdigest.Lookup(hashName); err != nil {
			cmd.Fatal(err)
		}
	}

	destination, err := remote.Parse(destArg)
	if err != nil {
		cmd.Fatal(errors.Wrap(err, "invalid destination"))
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		cmd.Fatal(errors.Wrap(err, "unable to open source file"))
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		cmd.Fatal(errors.Wrap(err, "unable to stat source file"))
	}
	if !info.Mode().IsRegular() {
		cmd.Fatal(errors.New("source must be a regular file"))
	}
	size := uint64(info.Size())

	dialer := dialerFor(destination)
	connection, err := dialer.Dial()
	if err != nil {
		cmd.Fatal(errors.Wrap(err, "unable to connect to agent"))
	}

	// Tearing down the connection on an interrupt closes the agent's
	// standard input/output, which aborts Transfer with a transport error
	// instead of leaving an orphaned agent process behind.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, cmd.TerminationSignals...)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupt:
			connection.Close()
		case <-done:
		}
	}()

	stats, err := protocol.Transfer(connection, source, size, blockSize, destination.Path, hashName)
	closeErr := connection.Close()
	if err != nil {
		cmd.Error(err)
		os.Exit(2)
	}
	if closeErr != nil {
		cmd.Fatal(errors.Wrap(closeErr, "unable to close connection"))
	}

	fmt.Fprintf(os.Stderr, "in=%d out=%d size=%d speedup=%.2f\n",
		stats.BytesIn, stats.BytesOut, stats.Size, stats.Speedup())
}

// dialerFor picks the local or SSH transport mode (§6.2) based on whether a
// remote host was specified.
func dialerFor(destination remote.Spec) transport.Dialer {
	if destination.Local || destination.Host == "" || destination.Host == "localhost" {
		return transport.Local("")
	}
	return transport.SSH(destination.User, destination.Host, agentCommand)
}
