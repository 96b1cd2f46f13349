package protocol

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/havoc-io/blocksync/blockdigest"
)

// FileSystem abstracts the destination-file operations the agent needs
// (§4.2 "Destination preparation"), so that Serve can be tested against an
// in-memory implementation as well as a real filesystem.
type FileSystem interface {
	// Prepare creates or opens destPath for read-write access, per the
	// rules in §4.2: created sparse, truncated to size, mode 0600, iff
	// absent or an existing regular file; used as-is otherwise. It returns
	// the file's length after preparation (remote_size).
	Prepare(destPath string, size uint64) (File, uint64, error)
}

// File is the minimal read-at-offset/write-at-offset/close surface Serve
// needs on the destination.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// osFileSystem implements FileSystem against the real filesystem, grounded
// on the destination-preparation rules of §4.2 and §6.4.
type osFileSystem struct{}

// OSFileSystem is the FileSystem implementation the agent binary uses in
// production.
var OSFileSystem FileSystem = osFileSystem{}

func (osFileSystem) Prepare(destPath string, size uint64) (File, uint64, error) {
	info, statErr := os.Stat(destPath)
	shouldTruncate := os.IsNotExist(statErr) || (statErr == nil && info.Mode().IsRegular())

	if shouldTruncate {
		f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, 0, errors.Wrap(err, "unable to create destination file")
		}
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, 0, errors.Wrap(err, "unable to truncate destination file")
		}
		f.Close()
	} else if statErr != nil {
		return nil, 0, errors.Wrap(statErr, "unable to stat destination")
	}

	f, err := os.OpenFile(destPath, os.O_RDWR, 0600)
	if err != nil {
		return nil, 0, errors.Wrap(err, "unable to open destination file")
	}

	length, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrap(err, "unable to measure destination length")
	}

	return f, uint64(length), nil
}

// Serve runs the agent side of the protocol (§4.2, §4.4) over connection,
// using fs to prepare and access the destination file. It returns nil on a
// clean exit (including the case where the driver never sends the
// go-token) and a non-nil error for any I/O failure.
func Serve(connection io.ReadWriter, fs FileSystem) error {
	// Phase H.
	header, err := readHeader(connection)
	if err != nil {
		return inPhase("H_READ", err)
	}

	factory, _, err := blockdigest.Lookup(header.HashName)
	if err != nil {
		return inPhase("H_READ", errors.Wrap(ErrProtocolError, err.Error()))
	}

	echo, err := blockdigest.Sum(header.HashName, []byte(header.DestPath))
	if err != nil {
		return inPhase("H_ECHO", err)
	}
	if _, err := connection.Write(echo); err != nil {
		return inPhase("H_ECHO", err)
	}

	ok, err := readGoToken(connection)
	if err != nil {
		// The driver disconnected before sending the go-token; exit cleanly
		// without touching the destination.
		return nil
	}
	if !ok {
		return nil
	}

	// Destination preparation.
	file, remoteSize, err := fs.Prepare(header.DestPath, header.Size)
	if err != nil {
		return inPhase("PREP", err)
	}
	defer file.Close()

	if err := writeUint64(connection, remoteSize); err != nil {
		return inPhase("D_EMIT_SIZE", err)
	}

	if remoteSize < header.Size {
		// The driver will observe this and fail DestinationTooSmall before
		// sending any patches; there is nothing further for the agent to
		// do except let the driver close the connection.
		return nil
	}

	// Phase D: emit the per-block digest vector by reading the
	// destination's first `size` bytes in order.
	blockCount := blockdigest.Count(header.Size, header.BlockSize)
	hasher := factory()
	for i := uint64(0); i < blockCount; i++ {
		start, end := blockdigest.Range(i, header.Size, header.BlockSize)
		buffer := make([]byte, end-start)
		n, err := file.ReadAt(buffer, int64(start))
		if err == io.EOF && n < len(buffer) {
			// An early EOF is a protocol violation in principle, but per
			// §4.2 the agent tolerates it by simply ceasing digest
			// emission; the driver will see a short digest vector and
			// fail on its own.
			return nil
		} else if err != nil && err != io.EOF {
			return inPhase("D_EMIT_DIGESTS", err)
		}
		hasher.Reset()
		hasher.Write(buffer)
		if _, err := connection.Write(hasher.Sum(nil)); err != nil {
			return inPhase("D_EMIT_DIGESTS", err)
		}
	}

	// Phase P: apply patch frames until EOF. A frame's wire payload is
	// always padded to blockSize (§9), but the final block of the file may
	// be shorter; writing the padding verbatim would grow the destination
	// past header.Size, so each write is trimmed to the bytes the frame's
	// position actually covers.
	for {
		position, payload, err := blockdigest.ReadFrame(connection, header.BlockSize)
		if err == io.EOF {
			break
		} else if err != nil {
			return inPhase("P_APPLY", err)
		}
		if remaining := header.Size - position; remaining < uint64(len(payload)) {
			payload = payload[:remaining]
		}
		if _, err := file.WriteAt(payload, int64(position)); err != nil {
			return inPhase("P_APPLY", err)
		}
	}

	// Phase F: compute and emit the whole-file digest over the first
	// `size` bytes of the destination.
	total := factory()
	err = blockdigest.Walk(io.NewSectionReader(file, 0, int64(header.Size)), header.BlockSize, func(_ uint64, data []byte) error {
		total.Write(data)
		return nil
	})
	if err != nil {
		return inPhase("F_EMIT_TOTAL", err)
	}
	if _, err := connection.Write(total.Sum(nil)); err != nil {
		return inPhase("F_EMIT_TOTAL", err)
	}

	return nil
}
