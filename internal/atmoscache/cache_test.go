package atmoscache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/midgard-atmos/internal/bake"
	"github.com/Faultbox/midgard-atmos/pkg/atmos"
	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

func testResolution() bake.Resolution {
	return bake.Resolution{
		TransmittanceAltitude: 8,
		TransmittanceSun:      16,
		TransmittanceSteps:    64,
		IrradianceAltitude:    4,
		IrradianceSun:         8,
		IrradiancePitch:       8,
		IrradianceYaw:         4,
		IrradianceStep:        2000,
		InscatterPitch:        8,
		InscatterLight:        3,
		InscatterCos:          3,
		InscatterAltitude:     3,
		InscatterStep:         2000,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		height atmos.HeightClass
		radius float64
		want   atmos.Class
	}{
		{"earth", atmos.Height64, 6.4e6, atmos.Class{Thickness: 2, Radius: 1}},
		{"small planet", atmos.Height16, 1e6, atmos.Class{Thickness: 0, Radius: 0}},
		{"exactly at limit", atmos.Height16, 1.2e6, atmos.Class{Thickness: 0, Radius: 1}},
		{"mid planet", atmos.Height16, 5e6, atmos.Class{Thickness: 0, Radius: 3}},
		{"huge planet", atmos.Height128, 1e12, atmos.Class{Thickness: 3, Radius: 3}},
		{"tiny planet", atmos.Height32, 1, atmos.Class{Thickness: 1, Radius: 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Classify(tc.height, tc.radius)
			if !ok {
				t.Fatal("Classify returned !ok")
			}
			if got != tc.want {
				t.Errorf("Classify(%v, %g) = %+v, want %+v", tc.height, tc.radius, got, tc.want)
			}
		})
	}

	if _, ok := Classify(atmos.HeightNone, 6.4e6); ok {
		t.Error("HeightNone should not classify")
	}
	if _, ok := Classify(atmos.HeightClass(9), 6.4e6); ok {
		t.Error("out of range height should not classify")
	}
}

func TestGetInscatteringEarth(t *testing.T) {
	store := lut.NewMemStore()
	opts := bake.Options{
		Resolution: testResolution(),
		Workers:    4,
		Seed:       1,
		Logger:     zaptest.NewLogger(t),
	}

	earth := atmos.Class{Thickness: 2, Radius: 1}
	if p := earth.Planet(); p.Radius != 6.4e6 || p.Thickness != 64000 {
		t.Fatalf("unexpected earth planet %+v", p)
	}

	plan := bake.Plan{Classes: []atmos.Class{earth}, Inscattering: []atmos.Class{earth}}
	if err := bake.NewBaker(store, opts).Run(plan); err != nil {
		t.Fatalf("bake failed: %v", err)
	}
	for _, k := range lut.Kinds {
		buf, err := store.Load(k, earth)
		if err != nil {
			t.Fatalf("%v missing: %v", k, err)
		}
		if got, want := buf.Dims(), opts.Resolution.Dims(k); got != want {
			t.Errorf("%v dims = %s, want %s", k, got, want)
		}
	}

	cache, err := Load(store, opts.Resolution, zaptest.NewLogger(t))
	if got := len(multierr.Errors(err)); got != 15 {
		t.Errorf("expected 15 missing classes, got %d", got)
	}
	for _, e := range multierr.Errors(err) {
		if !errors.Is(e, lut.ErrMissingTable) {
			t.Errorf("expected ErrMissingTable, got %v", e)
		}
	}
	if cache.Loaded() != 1 {
		t.Fatalf("Loaded() = %d, want 1", cache.Loaded())
	}

	table := cache.GetInscattering(atmos.Height64, 6.4e6)
	if table == nil {
		t.Fatal("GetInscattering returned nil for the baked class")
	}
	got, err := lut.Marshal(table)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := store.Raw(lut.Inscattering, earth)
	if !bytes.Equal(got, raw) {
		t.Error("GetInscattering returned a different table than the one baked")
	}

	// Neighbouring classes were never baked.
	if cache.GetInscattering(atmos.Height64, 4e6) != nil {
		t.Error("smaller radius class should have no table")
	}
	if cache.GetInscattering(atmos.Height32, 6.4e6) != nil {
		t.Error("other height class should have no table")
	}
	if cache.GetInscattering(atmos.HeightNone, 6.4e6) != nil {
		t.Error("HeightNone must return nil")
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	root := t.TempDir()
	store := lut.NewDirStore(root)
	res := testResolution()
	class := atmos.Class{Thickness: 1, Radius: 2}

	// Right format, wrong dimensions.
	if err := store.Save(lut.Inscattering, class, lut.NewBuffer(2, 2, 1, 4)); err != nil {
		t.Fatal(err)
	}
	garbage := atmos.Class{Thickness: 3, Radius: 0}
	if err := os.WriteFile(filepath.Join(root, lut.FileName(lut.Inscattering, garbage)), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}
	good := atmos.Class{Thickness: 0, Radius: 3}
	d := res.InscatteringDims()
	if err := store.Save(lut.Inscattering, good, lut.NewBuffer(d.Width, d.Height, d.Depth, d.Channels)); err != nil {
		t.Fatal(err)
	}

	cache, err := Load(store, res, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("expected load errors")
	}
	var malformed int
	for _, e := range multierr.Errors(err) {
		if errors.Is(e, lut.ErrMalformedTable) {
			malformed++
		}
	}
	if malformed != 2 {
		t.Errorf("expected 2 malformed tables, got %d", malformed)
	}

	if cache.Loaded() != 1 {
		t.Errorf("Loaded() = %d, want 1", cache.Loaded())
	}
	if cache.GetInscattering(atmos.Height32, class.RadiusMeters()) != nil {
		t.Error("malformed table must not be returned")
	}
	if cache.GetInscattering(atmos.Height16, good.RadiusMeters()) == nil {
		t.Error("valid table should be returned")
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if c.GetInscattering(atmos.Height64, 6.4e6) != nil {
		t.Error("nil cache must return nil")
	}
}
