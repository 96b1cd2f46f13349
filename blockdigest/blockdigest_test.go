package blockdigest

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

// testData generates deterministic pseudo-random data for a given seed and
// length, optionally mutating it in a handful of places. Mirrors the
// generator pattern used for rsync engine tests.
type testData struct {
	length    int
	seed      int64
	mutations int
}

func (d testData) generate() []byte {
	random := rand.New(rand.NewSource(d.seed))
	result := make([]byte, d.length)
	random.Read(result)
	for i := 0; i < d.mutations; i++ {
		result[random.Intn(d.length)] += 1
	}
	return result
}

func TestCount(t *testing.T) {
	tests := []struct {
		size, blockSize, expected uint64
	}{
		{0, 4, 0},
		{1, 4, 1},
		{4, 4, 1},
		{5, 4, 2},
		{100, 4, 25},
		{101, 4, 26},
	}
	for _, test := range tests {
		if got := Count(test.size, test.blockSize); got != test.expected {
			t.Errorf("Count(%d, %d) = %d, expected %d", test.size, test.blockSize, got, test.expected)
		}
	}
}

func TestRange(t *testing.T) {
	start, end := Range(0, 10, 4)
	if start != 0 || end != 4 {
		t.Fatalf("unexpected range for block 0: [%d, %d)", start, end)
	}
	start, end = Range(2, 10, 4)
	if start != 8 || end != 10 {
		t.Fatalf("unexpected range for final short block: [%d, %d)", start, end)
	}
}

func TestWalkExactMultiple(t *testing.T) {
	data := testData{length: 16, seed: 1}.generate()
	var blocks [][]byte
	if err := Walk(bytes.NewReader(data), 4, func(_ uint64, d []byte) error {
		blockCopy := append([]byte(nil), d...)
		blocks = append(blocks, blockCopy)
		return nil
	}); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(blocks))
	}
	for i, b := range blocks {
		if len(b) != 4 {
			t.Fatalf("block %d has length %d, expected 4", i, len(b))
		}
	}
}

func TestWalkShortFinalBlock(t *testing.T) {
	data := testData{length: 10, seed: 2}.generate()
	var lengths []int
	if err := Walk(bytes.NewReader(data), 4, func(_ uint64, d []byte) error {
		lengths = append(lengths, len(d))
		return nil
	}); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(lengths) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(lengths))
	}
	if lengths[0] != 4 || lengths[1] != 4 || lengths[2] != 2 {
		t.Fatalf("unexpected block lengths: %v", lengths)
	}
}

func TestWalkEmpty(t *testing.T) {
	var calls int
	if err := Walk(bytes.NewReader(nil), 4, func(_ uint64, _ []byte) error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no blocks for empty source, got %d", calls)
	}
}

func TestVectorMatchesIdenticalData(t *testing.T) {
	data := testData{length: 100, seed: 3}.generate()
	v1, err := Vector(bytes.NewReader(data), 10, DefaultHashName)
	if err != nil {
		t.Fatalf("Vector failed: %v", err)
	}
	v2, err := Vector(bytes.NewReader(data), 10, DefaultHashName)
	if err != nil {
		t.Fatalf("Vector failed: %v", err)
	}
	if len(v1) != len(v2) {
		t.Fatalf("vector length mismatch: %d vs %d", len(v1), len(v2))
	}
	for i := range v1 {
		if !bytes.Equal(v1[i], v2[i]) {
			t.Fatalf("digest mismatch at block %d", i)
		}
	}
}

func TestVectorDetectsMutation(t *testing.T) {
	base := testData{length: 100, seed: 4}.generate()
	mutated := testData{length: 100, seed: 4, mutations: 1}.generate()

	baseVector, err := Vector(bytes.NewReader(base), 10, DefaultHashName)
	if err != nil {
		t.Fatalf("Vector failed: %v", err)
	}
	mutatedVector, err := Vector(bytes.NewReader(mutated), 10, DefaultHashName)
	if err != nil {
		t.Fatalf("Vector failed: %v", err)
	}

	differences := 0
	for i := range baseVector {
		if !bytes.Equal(baseVector[i], mutatedVector[i]) {
			differences++
		}
	}
	if differences == 0 {
		t.Fatal("expected mutation to change at least one block digest")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{1, 2, 3, 4}
	if err := WriteFrame(&buf, 40, payload, 4); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	position, got, err := ReadFrame(&buf, 4)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if position != 40 {
		t.Fatalf("expected position 40, got %d", position)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected payload %v, got %v", payload, got)
	}
}

func TestFramePadsShortPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, 0, []byte{9}, 4); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if buf.Len() != 8+4 {
		t.Fatalf("expected frame of 12 bytes, got %d", buf.Len())
	}
	_, payload, err := ReadFrame(&buf, 4)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !bytes.Equal(payload, []byte{9, 0, 0, 0}) {
		t.Fatalf("unexpected padded payload: %v", payload)
	}
}

func TestReadFrameEOF(t *testing.T) {
	_, _, err := ReadFrame(bytes.NewReader(nil), 4)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestHashLookupUnknown(t *testing.T) {
	if _, _, err := Lookup("not-a-hash"); err == nil {
		t.Fatal("expected error for unknown hash name")
	}
}

func TestHashSizes(t *testing.T) {
	tests := map[string]int{
		"sha3_512":    64,
		"sha3_256":    32,
		"sha256":      32,
		"blake2b_256": 32,
	}
	for name, expected := range tests {
		size, err := Size(name)
		if err != nil {
			t.Fatalf("Size(%q) failed: %v", name, err)
		}
		if size != expected {
			t.Errorf("Size(%q) = %d, expected %d", name, size, expected)
		}
	}
}
