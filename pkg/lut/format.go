package lut

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	magic = "ALUT"
	// FormatVersion is the current table file version.
	FormatVersion uint16 = 1

	headerSize = 4 + 2 + 2 + 4*3

	// maxDimension bounds each axis so a corrupt header cannot request an
	// absurd allocation.
	maxDimension = 1 << 16
)

// Table errors.
var (
	ErrMissingTable   = errors.New("table not found")
	ErrMalformedTable = errors.New("malformed table")
	ErrUnknownKind    = errors.New("unknown table kind")
)

// header is the fixed little-endian preamble of a table file.
type header struct {
	Magic    [4]byte
	Version  uint16
	Channels uint16
	Width    uint32
	Height   uint32
	Depth    uint32
}

// Encode writes b to w.
func Encode(w io.Writer, b *Buffer) error {
	if len(b.Data) != b.Dims().Len() {
		return fmt.Errorf("%w: data length %d does not match %s", ErrMalformedTable, len(b.Data), b.Dims())
	}

	h := header{
		Version:  FormatVersion,
		Channels: uint16(b.Channels),
		Width:    uint32(b.Width),
		Height:   uint32(b.Height),
		Depth:    uint32(b.Depth),
	}
	copy(h.Magic[:], magic)

	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	raw := make([]byte, 4*len(b.Data))
	for i, v := range b.Data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return nil
}

// Marshal encodes b into a byte slice.
func Marshal(b *Buffer) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(headerSize + 4*len(b.Data))
	if err := Encode(&buf, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a table file from raw bytes.
func Decode(data []byte) (*Buffer, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformedTable)
	}

	var h header
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformedTable, err)
	}
	if string(h.Magic[:]) != magic {
		return nil, fmt.Errorf("%w: invalid magic %q", ErrMalformedTable, h.Magic[:])
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedTable, h.Version)
	}
	if h.Channels == 0 || h.Width == 0 || h.Height == 0 || h.Depth == 0 ||
		h.Width > maxDimension || h.Height > maxDimension || h.Depth > maxDimension || h.Channels > 4 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%dx%d/%d", ErrMalformedTable, h.Width, h.Height, h.Depth, h.Channels)
	}

	payload := data[headerSize:]
	want := 4 * uint64(h.Width) * uint64(h.Height) * uint64(h.Depth) * uint64(h.Channels)
	if uint64(len(payload)) != want {
		return nil, fmt.Errorf("%w: expected %d sample bytes, got %d", ErrMalformedTable, want, len(payload))
	}

	b := NewBuffer(int(h.Width), int(h.Height), int(h.Depth), int(h.Channels))
	for i := range b.Data {
		b.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return b, nil
}

// DecodeExpect decodes data and checks the result has the given dimensions.
func DecodeExpect(data []byte, want Dims) (*Buffer, error) {
	b, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := Expect(b, want); err != nil {
		return nil, err
	}
	return b, nil
}

// Expect returns ErrMalformedTable when b does not have the wanted dimensions.
func Expect(b *Buffer, want Dims) error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrMissingTable)
	}
	if got := b.Dims(); got != want {
		return fmt.Errorf("%w: dimensions %s, expected %s", ErrMalformedTable, got, want)
	}
	return nil
}
