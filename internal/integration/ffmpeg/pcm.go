package ffmpeg

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/farcloser/primordium/fault"
)

const bytesPerSample = 4

func encodeFloats(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*bytesPerSample:], math.Float32bits(s))
	}

	return out
}

func decodeFloats(raw []byte) ([]float32, error) {
	if len(raw)%bytesPerSample != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in raw output", fault.ErrReadFailure, len(raw)%bytesPerSample)
	}

	out := make([]float32, len(raw)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*bytesPerSample:]))
	}

	return out, nil
}
