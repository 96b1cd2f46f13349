package protocol

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// MaxDestPathLength caps dest_path_len to guard against a hostile or
	// confused peer requesting an enormous allocation (§9 open question 2).
	MaxDestPathLength = 4096
	// MaxHashNameLength caps hash_name_len for the same reason.
	MaxHashNameLength = 64

	// goToken is the two-byte confirmation the driver sends after a
	// successful sanity-echo check.
	goToken = "go"
)

// Header is the fixed+variable-length preamble the driver sends in Phase H
// (§6.1).
type Header struct {
	Size      uint64
	BlockSize uint64
	DestPath  string
	HashName  string
}

// writeUint64 writes v as an 8-byte little-endian integer.
func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// readUint64 reads an 8-byte little-endian integer.
func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// writeHeader emits the Phase H header: four little-endian u64 fields
// followed by the dest_path and hash_name byte strings.
func writeHeader(w io.Writer, h Header) error {
	if err := writeUint64(w, h.Size); err != nil {
		return errors.Wrap(err, "unable to write size")
	}
	if err := writeUint64(w, h.BlockSize); err != nil {
		return errors.Wrap(err, "unable to write block size")
	}
	if err := writeUint64(w, uint64(len(h.DestPath))); err != nil {
		return errors.Wrap(err, "unable to write dest path length")
	}
	if err := writeUint64(w, uint64(len(h.HashName))); err != nil {
		return errors.Wrap(err, "unable to write hash name length")
	}
	if _, err := io.WriteString(w, h.DestPath); err != nil {
		return errors.Wrap(err, "unable to write dest path")
	}
	if _, err := io.WriteString(w, h.HashName); err != nil {
		return errors.Wrap(err, "unable to write hash name")
	}
	return nil
}

// readHeader parses the Phase H header from r, enforcing the length caps
// from §9 open question 2.
func readHeader(r io.Reader) (Header, error) {
	size, err := readUint64(r)
	if err != nil {
		return Header{}, errors.Wrap(err, "unable to read size")
	}
	blockSize, err := readUint64(r)
	if err != nil {
		return Header{}, errors.Wrap(err, "unable to read block size")
	}
	destPathLen, err := readUint64(r)
	if err != nil {
		return Header{}, errors.Wrap(err, "unable to read dest path length")
	}
	hashNameLen, err := readUint64(r)
	if err != nil {
		return Header{}, errors.Wrap(err, "unable to read hash name length")
	}
	if destPathLen > MaxDestPathLength {
		return Header{}, errors.Wrapf(ErrProtocolError, "dest path length %d exceeds maximum %d", destPathLen, MaxDestPathLength)
	}
	if hashNameLen > MaxHashNameLength {
		return Header{}, errors.Wrapf(ErrProtocolError, "hash name length %d exceeds maximum %d", hashNameLen, MaxHashNameLength)
	}

	destPath := make([]byte, destPathLen)
	if _, err := io.ReadFull(r, destPath); err != nil {
		return Header{}, errors.Wrap(err, "unable to read dest path")
	}
	hashName := make([]byte, hashNameLen)
	if _, err := io.ReadFull(r, hashName); err != nil {
		return Header{}, errors.Wrap(err, "unable to read hash name")
	}

	if blockSize == 0 {
		return Header{}, errors.Wrap(ErrProtocolError, "block size must be non-zero")
	}

	return Header{
		Size:      size,
		BlockSize: blockSize,
		DestPath:  string(destPath),
		HashName:  string(hashName),
	}, nil
}

// writeGoToken emits the two-byte go-token that confirms Phase H on the
// driver side.
func writeGoToken(w io.Writer) error {
	_, err := io.WriteString(w, goToken)
	return err
}

// readGoToken reads two bytes and reports whether they matched the
// go-token exactly.
func readGoToken(r io.Reader) (bool, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return false, err
	}
	return string(buf[:]) == goToken, nil
}
