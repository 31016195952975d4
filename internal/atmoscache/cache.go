// Package atmoscache loads baked inscattering tables and selects the one
// matching a planet at render time.
package atmoscache

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-atmos/internal/bake"
	"github.com/Faultbox/midgard-atmos/pkg/atmos"
	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

// fitFactor is how much larger than a class's modeled radius a planet may
// be and still use that class.
const fitFactor = 1.5

// Cache holds the inscattering tables indexed [radius][thickness]. It is
// immutable after Load and safe for concurrent readers.
type Cache struct {
	tables [atmos.RadiusClasses][atmos.ThicknessClasses]*lut.Buffer
	loaded int
}

// Load reads the inscattering table of every class from store. Classes
// whose table is missing or malformed are left empty; the returned error
// lists them but the cache is usable either way.
func Load(store lut.Store, res bake.Resolution, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	want := res.InscatteringDims()

	c := &Cache{}
	var errs error
	for _, class := range atmos.AllClasses() {
		buf, err := store.Load(lut.Inscattering, class)
		if err == nil {
			err = lut.Expect(buf, want)
		}
		if err != nil {
			if errors.Is(err, lut.ErrMissingTable) {
				log.Warn("inscattering table not baked", zap.Stringer("class", class))
			} else {
				log.Warn("inscattering table unusable", zap.Stringer("class", class), zap.Error(err))
			}
			errs = multierr.Append(errs, fmt.Errorf("class %s: %w", class, err))
			continue
		}
		c.tables[class.Radius][class.Thickness] = buf
		c.loaded++
	}

	log.Info("atmosphere tables loaded",
		zap.Int("loaded", c.loaded),
		zap.Int("classes", atmos.ThicknessClasses*atmos.RadiusClasses))
	return c, errs
}

// Loaded returns the number of tables in the cache.
func (c *Cache) Loaded() int {
	return c.loaded
}

// Classify returns the class used for a planet of the given radius with the
// given atmosphere height. It picks the first radius class whose modeled
// radius times 1.5 exceeds the planet radius, or the largest class. ok is
// false when h has no thickness class.
func Classify(h atmos.HeightClass, radius float64) (atmos.Class, bool) {
	thickness, ok := h.Thickness()
	if !ok {
		return atmos.Class{}, false
	}

	class := atmos.Class{Thickness: thickness, Radius: atmos.RadiusClasses - 1}
	for r := 0; r < atmos.RadiusClasses; r++ {
		candidate := atmos.Class{Thickness: thickness, Radius: r}
		if candidate.RadiusMeters()*fitFactor > radius {
			class = candidate
			break
		}
	}
	return class, true
}

// GetInscattering returns the table for a planet, or nil when the height
// class has no table. Callers must treat nil as "no atmosphere".
func (c *Cache) GetInscattering(h atmos.HeightClass, radius float64) *lut.Buffer {
	if c == nil {
		return nil
	}
	class, ok := Classify(h, radius)
	if !ok {
		return nil
	}
	return c.tables[class.Radius][class.Thickness]
}
