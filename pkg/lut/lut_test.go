package lut

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/Faultbox/midgard-atmos/pkg/atmos"
)

// createTestTable builds a raw table file with a ramp of sample values.
func createTestTable(width, height, depth, channels uint32) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("ALUT")
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, width)
	binary.Write(buf, binary.LittleEndian, height)
	binary.Write(buf, binary.LittleEndian, depth)

	n := int(width * height * depth * channels)
	for i := 0; i < n; i++ {
		binary.Write(buf, binary.LittleEndian, float32(i))
	}
	return buf.Bytes()
}

func TestDecode_ValidFile(t *testing.T) {
	b, err := Decode(createTestTable(4, 3, 1, 3))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b.Width != 4 || b.Height != 3 || b.Depth != 1 || b.Channels != 3 {
		t.Errorf("unexpected dims %s", b.Dims())
	}
	if got := b.Texel(1, 2, 0); got[0] != float32(b.Index(1, 2, 0)) {
		t.Errorf("texel (1,2) = %v", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	valid := createTestTable(2, 2, 1, 4)

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "XXXX")

	badVersion := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint16(badVersion[4:], 9)

	// A header claiming 65536^3 RGBA samples with no payload behind it.
	huge := createTestTable(1, 1, 1, 4)[:headerSize]
	binary.LittleEndian.PutUint32(huge[8:], 1<<16)
	binary.LittleEndian.PutUint32(huge[12:], 1<<16)
	binary.LittleEndian.PutUint32(huge[16:], 1<<16)

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated header", []byte("ALUT")},
		{"huge dimensions without samples", huge},
		{"bad magic", badMagic},
		{"bad version", badVersion},
		{"truncated samples", valid[:len(valid)-4]},
		{"trailing bytes", append(append([]byte(nil), valid...), 0, 0, 0, 0)},
		{"zero width", createTestTable(0, 2, 1, 4)},
		{"too many channels", createTestTable(1, 1, 1, 5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			if !errors.Is(err, ErrMalformedTable) {
				t.Errorf("expected ErrMalformedTable, got %v", err)
			}
		})
	}
}

func TestEncodeDecodeKeepsBits(t *testing.T) {
	b := NewBuffer(3, 2, 2, 4)
	for i := range b.Data {
		b.Data[i] = float32(math.Sin(float64(i))) * 1e-20
	}
	b.Data[5] = float32(math.SmallestNonzeroFloat32)

	raw, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if len(raw) != headerSize+4*len(b.Data) {
		t.Errorf("encoded size = %d", len(raw))
	}

	got, err := DecodeExpect(raw, b.Dims())
	if err != nil {
		t.Fatalf("DecodeExpect failed: %v", err)
	}
	for i := range b.Data {
		if math.Float32bits(got.Data[i]) != math.Float32bits(b.Data[i]) {
			t.Fatalf("sample %d: got %v want %v", i, got.Data[i], b.Data[i])
		}
	}

	if _, err := DecodeExpect(raw, Dims{3, 2, 1, 4}); !errors.Is(err, ErrMalformedTable) {
		t.Errorf("expected dimension mismatch error, got %v", err)
	}
}

func TestEncodeRejectsInconsistentBuffer(t *testing.T) {
	b := &Buffer{Width: 2, Height: 2, Depth: 1, Channels: 3, Data: make([]float32, 5)}
	if _, err := Marshal(b); !errors.Is(err, ErrMalformedTable) {
		t.Errorf("expected ErrMalformedTable, got %v", err)
	}
}

func TestBilinear(t *testing.T) {
	b := NewBuffer(2, 2, 1, 1)
	b.Set(0, 0, 0, 0)
	b.Set(1, 0, 0, 1)
	b.Set(0, 1, 0, 2)
	b.Set(1, 1, 0, 3)

	out := make([]float64, 1)
	tests := []struct {
		x, y, want float64
	}{
		{0, 0, 0},
		{1, 1, 3},
		{0.5, 0, 0.5},
		{0.5, 0.5, 1.5},
		{-4, -4, 0},
		{9, 9, 3},
	}
	for _, tc := range tests {
		b.Bilinear(tc.x, tc.y, 0, out)
		if math.Abs(out[0]-tc.want) > 1e-12 {
			t.Errorf("Bilinear(%v,%v) = %v, want %v", tc.x, tc.y, out[0], tc.want)
		}
	}
}

func TestChannelStats(t *testing.T) {
	b := NewBuffer(4, 1, 1, 2)
	for x := 0; x < 4; x++ {
		b.Set(x, 0, 0, float32(x), float32(10*x))
	}
	s := b.ChannelStats(1)
	if s.Min != 0 || s.Max != 30 || !scalar.EqualWithinAbs(s.Mean, 15, 1e-12) {
		t.Errorf("ChannelStats = %+v", s)
	}
}

func TestFileName(t *testing.T) {
	c := atmos.Class{Thickness: 2, Radius: 1}
	tests := []struct {
		kind Kind
		want string
	}{
		{Transmittance, "Transmittance_64_6400.lut"},
		{Irradiance, "Irradiance_64_6400.lut"},
		{Inscattering, "Inscattering_64_6400.lut"},
	}
	for _, tc := range tests {
		if got := FileName(tc.kind, c); got != tc.want {
			t.Errorf("FileName(%v) = %q, want %q", tc.kind, got, tc.want)
		}
		k, err := ParseKind(tc.kind.String())
		if err != nil || k != tc.kind {
			t.Errorf("ParseKind(%q) = %v, %v", tc.kind, k, err)
		}
	}
	if _, err := ParseKind("Albedo"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDirStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "atmosphere")
	s := NewDirStore(root)
	c := atmos.Class{Thickness: 1, Radius: 3}

	if _, err := s.Load(Irradiance, c); !errors.Is(err, ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}

	b := NewBuffer(4, 4, 1, 3)
	b.Data[7] = 0.25
	if err := s.Save(Irradiance, c, b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Irradiance_32_12800.lut")); err != nil {
		t.Fatalf("table file not written: %v", err)
	}

	got, err := s.Load(Irradiance, c)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Data[7] != 0.25 {
		t.Errorf("loaded value = %v", got.Data[7])
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Errorf("expected exactly one file, got %d", len(entries))
	}

	if err := os.WriteFile(s.Path(Transmittance, c), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(Transmittance, c); !errors.Is(err, ErrMalformedTable) {
		t.Errorf("expected ErrMalformedTable, got %v", err)
	}
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	c := atmos.Class{}

	if _, err := s.Load(Inscattering, c); !errors.Is(err, ErrMissingTable) {
		t.Fatalf("expected ErrMissingTable, got %v", err)
	}
	if err := s.Save(Inscattering, c, NewBuffer(2, 2, 1, 4)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d", s.Len())
	}
	if _, ok := s.Raw(Inscattering, c); !ok {
		t.Error("Raw did not find saved table")
	}
	s.Put(Inscattering, c, []byte("ALUT"))
	if _, err := s.Load(Inscattering, c); !errors.Is(err, ErrMalformedTable) {
		t.Errorf("expected ErrMalformedTable, got %v", err)
	}
}
