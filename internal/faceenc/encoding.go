// Package faceenc serializes face embedding vectors for storage. The
// format is versioned so stored encodings survive model upgrades: a
// decoder rejects vectors written by an incompatible producer instead of
// silently misreading them.
package faceenc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Version is the current wire format revision
const Version = 1

// EmbeddingSize is the vector length the recognition model produces
const EmbeddingSize = 128

var (
	ErrTruncated       = errors.New("face encoding truncated")
	ErrVersionMismatch = errors.New("face encoding version not supported")
	ErrLengthMismatch  = errors.New("face encoding vector length mismatch")
)

// header: version byte + big-endian uint16 vector length
const headerSize = 3

// Encode serializes an embedding vector
func Encode(vector []float32) []byte {
	buf := make([]byte, headerSize+4*len(vector))
	buf[0] = Version
	binary.BigEndian.PutUint16(buf[1:3], uint16(len(vector)))
	for i, v := range vector {
		binary.BigEndian.PutUint32(buf[headerSize+4*i:], math.Float32bits(v))
	}
	return buf
}

// Decode parses a stored encoding, rejecting unknown versions and
// truncated payloads.
func Decode(data []byte) ([]float32, error) {
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	if data[0] != Version {
		return nil, fmt.Errorf("%w: got version %d, want %d", ErrVersionMismatch, data[0], Version)
	}
	n := int(binary.BigEndian.Uint16(data[1:3]))
	if len(data) != headerSize+4*n {
		return nil, ErrTruncated
	}
	vector := make([]float32, n)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.BigEndian.Uint32(data[headerSize+4*i:]))
	}
	return vector, nil
}

// Distance returns the Euclidean distance between two embeddings. Lower
// is more similar; matches are typically accepted below 0.6.
func Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
