package protocol

import (
	stderrors "errors"
	"io"
	"syscall"

	"github.com/pkg/errors"

	"github.com/havoc-io/blocksync/blockdigest"
)

// Stream is the minimal connection surface the driver needs: a readable,
// writable byte stream whose write half can be closed independently of its
// read half (used at Phase F to signal "no more patch frames" without
// hanging up on the agent's final digest). transport.Connection satisfies
// this interface; it is declared here, rather than imported, to keep the
// protocol package free of any transport-layer dependency.
type Stream interface {
	io.Reader
	io.Writer
	CloseWrite() error
}

// Stats reports the driver's byte counters and the transfer's speedup, per
// §2 and the GLOSSARY.
type Stats struct {
	BytesIn  uint64
	BytesOut uint64
	Size     uint64
}

// Speedup is size / (bytes_in + bytes_out), or 0 if both counters are zero
// (which happens when Transfer's connection does not report byte counts).
func (s Stats) Speedup() float64 {
	total := s.BytesIn + s.BytesOut
	if total == 0 {
		return 0
	}
	return float64(s.Size) / float64(total)
}

// Transfer drives one delta-transfer session as the source-side peer (§4.1)
// over connection, which is assumed to already be attached to a freshly
// spawned agent. source must yield exactly `size` bytes; it is read once,
// sequentially from its current position, and is never seeked.
func Transfer(connection Stream, source io.ReadSeeker, size, blockSize uint64, destPath, hashName string) (Stats, error) {
	factory, digestSize, err := blockdigest.Lookup(hashName)
	if err != nil {
		return Stats{}, errors.Wrap(err, "unable to resolve hash")
	}

	// Phase H: handshake.
	header := Header{Size: size, BlockSize: blockSize, DestPath: destPath, HashName: hashName}
	if err := writeHeader(connection, header); err != nil {
		return Stats{}, inPhase("H_WRITE", err)
	}

	expectedEcho, err := blockdigest.Sum(hashName, []byte(destPath))
	if err != nil {
		return Stats{}, inPhase("H_WRITE", err)
	}
	echo := make([]byte, digestSize)
	if _, err := io.ReadFull(connection, echo); err != nil {
		return Stats{}, inPhase("H_READ", errors.Wrap(ErrRemoteStartupFailed, err.Error()))
	}
	if !bytesEqual(echo, expectedEcho) {
		return Stats{}, inPhase("H_READ", ErrRemoteStartupFailed)
	}

	if err := writeGoToken(connection); err != nil {
		return Stats{}, inPhase("H_GO", err)
	}

	// Phase D: digest exchange.
	remoteSize, err := readUint64(connection)
	if err != nil {
		return Stats{}, inPhase("D_READ_SIZE", errors.Wrap(ErrProtocolError, err.Error()))
	}
	if remoteSize < size {
		return Stats{}, inPhase("D_READ_SIZE", ErrDestinationTooSmall)
	}

	blockCount := blockdigest.Count(size, blockSize)
	agentDigests := make([][]byte, blockCount)
	for i := uint64(0); i < blockCount; i++ {
		digest := make([]byte, digestSize)
		if _, err := io.ReadFull(connection, digest); err != nil {
			return Stats{}, inPhase("D_READ_DIGESTS", errors.Wrap(ErrProtocolError, err.Error()))
		}
		agentDigests[i] = digest
	}

	// Phase P: patch emission, fused with the whole-file hash pass (§9
	// "Single-pass driver"): each block is read exactly once, the running
	// total hash is updated, and its digest is compared to the agent's.
	hasher := factory()
	transportBroken := false
	err = blockdigest.Walk(source, blockSize, func(index uint64, data []byte) error {
		hasher.Write(data)

		blockHash := (func() []byte {
			h := factory()
			h.Write(data)
			return h.Sum(nil)
		})()

		if bytesEqual(blockHash, agentDigests[index]) {
			return nil
		}

		position := blockdigest.Position(index, blockSize)
		if err := blockdigest.WriteFrame(connection, position, data, blockSize); err != nil {
			if isBrokenPipe(err) {
				transportBroken = true
				return errStopWalk
			}
			return err
		}
		return nil
	})
	if err != nil && err != errStopWalk {
		return Stats{}, inPhase("P_STREAM", err)
	}

	// Phase F: finalization.
	if err := connection.CloseWrite(); err != nil {
		return Stats{}, inPhase("F_CLOSE", err)
	}

	totalDigest := make([]byte, digestSize)
	if _, err := io.ReadFull(connection, totalDigest); err != nil {
		if transportBroken {
			return Stats{}, inPhase("F_READ", errors.Wrap(ErrIntegrityMismatch, "transport broke during patch emission"))
		}
		return Stats{}, inPhase("F_READ", errors.Wrap(ErrProtocolError, err.Error()))
	}
	if !bytesEqual(totalDigest, hasher.Sum(nil)) {
		return Stats{}, inPhase("F_READ", ErrIntegrityMismatch)
	}

	counting, _ := connection.(interface {
		BytesIn() uint64
		BytesOut() uint64
	})
	stats := Stats{Size: size}
	if counting != nil {
		stats.BytesIn = counting.BytesIn()
		stats.BytesOut = counting.BytesOut()
	}

	return stats, nil
}

// errStopWalk is a private sentinel used to unwind blockdigest.Walk early
// once the transport has broken; it is never returned to callers of
// Transfer.
var errStopWalk = errors.New("stop walk")

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isBrokenPipe reports whether err represents the agent having closed its
// read side (EPIPE or the equivalent on the target platform). It is
// deliberately loose, since the concrete error depends on the connection
// implementation (pipe vs. SSH session).
func isBrokenPipe(err error) bool {
	return stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, io.ErrClosedPipe)
}
