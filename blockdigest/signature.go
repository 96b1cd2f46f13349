package blockdigest

import (
	"io"

	"github.com/pkg/errors"
)

// BlockVisitor is invoked once per block while walking a source in fixed-size
// chunks. data is the slice of the underlying buffer holding the bytes
// actually read for this block (shorter than blockSize only for the final
// block). The slice is only valid for the duration of the call: visitors
// that need to retain bytes must copy them.
type BlockVisitor func(index uint64, data []byte) error

// Walk reads source in blockSize chunks, invoking visit once per block in
// ascending index order, until source is exhausted. It mirrors the
// signature-computation loop of a classic rsync engine, but without any
// rolling hash: every block is read once, in order, at its fixed offset.
//
// Walk allocates a single blockSize buffer and reuses it across calls to
// visit, so visit must not retain the data slice beyond its own call.
func Walk(source io.Reader, blockSize uint64, visit BlockVisitor) error {
	buffer := make([]byte, blockSize)

	index := uint64(0)
	for {
		n, err := io.ReadFull(source, buffer)
		if err == io.EOF {
			// Nothing was read; the source length was an exact multiple of
			// blockSize (or empty), so we're done.
			return nil
		} else if err != nil && err != io.ErrUnexpectedEOF {
			return errors.Wrap(err, "unable to read block")
		}

		if err := visit(index, buffer[:n]); err != nil {
			return err
		}

		if err == io.ErrUnexpectedEOF {
			// A short final block was read; there's nothing left to read.
			return nil
		}

		index++
	}
}

// Vector computes the ordered per-block digest vector for source under the
// named hash, using Walk. The protocol package does not call it (the agent
// hashes Phase D blocks itself); it computes a signature directly in tests.
func Vector(source io.Reader, blockSize uint64, hashName string) ([][]byte, error) {
	factory, _, err := Lookup(hashName)
	if err != nil {
		return nil, err
	}
	hasher := factory()

	var digests [][]byte
	err = Walk(source, blockSize, func(index uint64, data []byte) error {
		hasher.Reset()
		hasher.Write(data)
		digests = append(digests, hasher.Sum(nil))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return digests, nil
}
