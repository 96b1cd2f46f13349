package blockdigest

// Count returns the number of blocks of blockSize bytes needed to cover a
// file of size bytes: ceil(size / blockSize). blockSize must be > 0.
func Count(size, blockSize uint64) uint64 {
	if size == 0 {
		return 0
	}
	return (size + blockSize - 1) / blockSize
}

// Range returns the half-open byte range [start, end) covered by block
// index within a file of the given size and blockSize. The final block may
// be shorter than blockSize; all others are exactly blockSize.
func Range(index, size, blockSize uint64) (start, end uint64) {
	start = index * blockSize
	end = start + blockSize
	if end > size {
		end = size
	}
	return
}

// Position reports the byte offset of block index, i.e. index * blockSize.
// Every patch frame's position must equal Position(i) for some valid i.
func Position(index, blockSize uint64) uint64 {
	return index * blockSize
}
