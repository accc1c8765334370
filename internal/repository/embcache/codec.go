package embcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Cached vectors are stored as a one-byte format version, a uint32 dimension count and
// the float32 components, all little-endian.
const (
	formatV1   byte = 1
	headerSize      = 5
)

var errCorrupt = errors.New("corrupt cache entry")

func encodeVector(v []float32) []byte {
	buf := make([]byte, headerSize+len(v)*4)
	buf[0] = formatV1
	binary.LittleEndian.PutUint32(buf[1:headerSize], uint32(len(v))) //nolint:gosec // embedding dims fit in uint32
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[headerSize+i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", errCorrupt, len(data))
	}
	if data[0] != formatV1 {
		return nil, fmt.Errorf("%w: unknown format %d", errCorrupt, data[0])
	}
	dims := int(binary.LittleEndian.Uint32(data[1:headerSize]))
	if dims == 0 || len(data) != headerSize+dims*4 {
		return nil, fmt.Errorf("%w: %d dims in %d bytes", errCorrupt, dims, len(data))
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerSize+i*4:]))
	}
	return vec, nil
}
