package preset

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/farcloser/shootout/internal/failure"
)

var ErrCorrupted = fmt.Errorf("%w: corrupted preset", failure.ErrPreset)

// Preset is the decoded content of a NAM preset.
type Preset struct {
	ClassID    string
	Marker     string
	Version    string
	ModelPath  string
	IRPath     string
	Parameters []float64
}

// Decode parses bytes produced by Container around a NAM component state.
func Decode(data []byte) (*Preset, error) {
	if len(data) < HeaderSize || string(data[:4]) != Magic {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupted)
	}

	if v := binary.LittleEndian.Uint32(data[4:8]); v != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupted, v)
	}

	listOffset := binary.LittleEndian.Uint64(data[40:48])
	if listOffset < HeaderSize || listOffset+8+ChunkEntrySize > uint64(len(data)) {
		return nil, fmt.Errorf("%w: chunk list offset %d out of range", ErrCorrupted, listOffset)
	}

	list := data[listOffset:]
	if string(list[:4]) != ChunkListTag || binary.LittleEndian.Uint32(list[4:8]) < 1 {
		return nil, fmt.Errorf("%w: missing chunk list", ErrCorrupted)
	}

	entry := list[8 : 8+ChunkEntrySize]
	if string(entry[:4]) != ComponentTag {
		return nil, fmt.Errorf("%w: first chunk is %q", ErrCorrupted, entry[:4])
	}

	offset := binary.LittleEndian.Uint64(entry[4:12])
	size := binary.LittleEndian.Uint64(entry[12:20])

	if offset+size > listOffset {
		return nil, fmt.Errorf("%w: component chunk overlaps chunk list", ErrCorrupted)
	}

	result := &Preset{ClassID: string(data[8:40])}

	reader := &stateReader{data: data[offset : offset+size]}

	for _, dst := range []*string{&result.Marker, &result.Version, &result.ModelPath, &result.IRPath} {
		s, err := reader.string()
		if err != nil {
			return nil, err
		}

		*dst = s
	}

	if reader.remaining() != ParameterCount*8 {
		return nil, fmt.Errorf("%w: expected %d parameters, found %d bytes", ErrParameterCount, ParameterCount, reader.remaining())
	}

	result.Parameters = make([]float64, ParameterCount)
	for i := range result.Parameters {
		result.Parameters[i] = math.Float64frombits(binary.LittleEndian.Uint64(reader.data[reader.pos+i*8:]))
	}

	return result, nil
}

type stateReader struct {
	data []byte
	pos  int
}

func (r *stateReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *stateReader) string() (string, error) {
	if r.remaining() < 4 {
		return "", fmt.Errorf("%w: truncated string length", ErrCorrupted)
	}

	length := int(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4

	if length == 0 {
		return "", nil
	}

	if r.remaining() < length || r.data[r.pos+length-1] != 0 {
		return "", fmt.Errorf("%w: bad string at offset %d", ErrCorrupted, r.pos-4)
	}

	s := string(r.data[r.pos : r.pos+length-1])
	r.pos += length

	return s, nil
}
