package blockdigest

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// WriteFrame emits a patch frame: an 8-byte little-endian position followed
// by exactly blockSize bytes of payload. If data is shorter than blockSize
// (true only for the final block of a file), it is padded with zero bytes;
// the padding is scratch and never observed by the whole-file digest, which
// only ever consumes the first `size` bytes of the destination.
func WriteFrame(w io.Writer, position uint64, data []byte, blockSize uint64) error {
	if uint64(len(data)) > blockSize {
		return errors.Errorf("block data of length %d exceeds block size %d", len(data), blockSize)
	}

	var header [8]byte
	binary.LittleEndian.PutUint64(header[:], position)
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "unable to write frame position")
	}

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "unable to write frame payload")
	}
	if short := blockSize - uint64(len(data)); short > 0 {
		if _, err := w.Write(make([]byte, short)); err != nil {
			return errors.Wrap(err, "unable to write frame padding")
		}
	}

	return nil
}

// ReadFrame reads the next patch frame from r. It returns io.EOF (unwrapped)
// when r is exhausted exactly at a frame boundary, which signals the normal
// end of the patch stream (Phase P termination in the agent).
func ReadFrame(r io.Reader, blockSize uint64) (position uint64, payload []byte, err error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, errors.Wrap(err, "unable to read frame position")
	}
	position = binary.LittleEndian.Uint64(header[:])

	payload = make([]byte, blockSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, errors.Wrap(err, "unable to read frame payload")
	}

	return position, payload, nil
}
