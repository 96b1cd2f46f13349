// Package transport provides the byte-counting connection abstraction used
// to reach a spawned agent process, and the two transport modes described
// in §6.2: a direct local child process and an interactive SSH session.
// Process spawning, argument parsing, and credential prompting are external
// collaborators of the delta-transfer protocol and are kept out of the
// protocol package entirely; this package is the thin adapter layer that
// the driver dials through.
package transport

import (
	"io"

	"github.com/pkg/errors"
)

// Connection is a single bidirectional byte-stream connection to a spawned
// agent process, with a write half that can be closed on its own and
// running byte counters (§4.3). Every Read and Write increments a counter;
// writes are never internally buffered, since the protocol is strictly
// ping-pong at each phase boundary and buffering could deadlock the pipe.
type Connection interface {
	io.Reader
	io.Writer

	// CloseWrite closes the write half of the connection, signaling EOF to
	// the agent, without affecting the read half. The driver uses this at
	// Phase F to tell the agent that no more patch frames are coming.
	CloseWrite() error

	// Close closes the connection fully and waits for the underlying
	// process to exit.
	Close() error

	// BytesIn reports the number of bytes read from the agent so far.
	BytesIn() uint64

	// BytesOut reports the number of bytes written to the agent so far.
	BytesOut() uint64
}

// Dialer spawns an agent process and returns a connection to its standard
// input and output.
type Dialer interface {
	Dial() (Connection, error)
}

// countingConnection decorates a raw reader/writer pair with byte counters.
// It has no knowledge of the delta-transfer protocol; it is a pure
// decorator, grounded on the same wrapping pattern used for a spawned
// process' standard input/output pair.
type countingConnection struct {
	reader     io.Reader
	writer     io.Writer
	closeWrite func() error
	closeAll   func() error
	bytesIn    uint64
	bytesOut   uint64
}

// NewCounting wraps reader/writer (typically a process' stdout/stdin) in a
// Connection that tracks bytes read and written. closeWrite should close
// only the write half (e.g. the stdin pipe); closeAll should close
// everything and wait for the process to exit.
func NewCounting(reader io.Reader, writer io.Writer, closeWrite, closeAll func() error) Connection {
	return &countingConnection{
		reader:     reader,
		writer:     writer,
		closeWrite: closeWrite,
		closeAll:   closeAll,
	}
}

func (c *countingConnection) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.bytesIn += uint64(n)
	return n, err
}

func (c *countingConnection) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.bytesOut += uint64(n)
	return n, err
}

func (c *countingConnection) CloseWrite() error {
	if c.closeWrite == nil {
		return nil
	}
	if err := c.closeWrite(); err != nil {
		return errors.Wrap(err, "unable to close write half")
	}
	return nil
}

func (c *countingConnection) Close() error {
	if c.closeAll == nil {
		return nil
	}
	if err := c.closeAll(); err != nil {
		return errors.Wrap(err, "unable to close connection")
	}
	return nil
}

func (c *countingConnection) BytesIn() uint64 {
	return c.bytesIn
}

func (c *countingConnection) BytesOut() uint64 {
	return c.bytesOut
}
