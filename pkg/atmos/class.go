// Package atmos provides the atmosphere physical model and the discrete
// planet/atmosphere class grid used by the scattering tables.
package atmos

import (
	"fmt"
	"math"
)

// Grid dimensions of the precomputed class set.
const (
	ThicknessClasses = 4
	RadiusClasses    = 4

	// BaseThickness is the thickness of class 0 in meters.
	BaseThickness = 16000.0

	// radiusPerThickness converts a thickness to the radius class 0 planet
	// radius (thickness / 0.02).
	radiusPerThickness = 1 / 0.02
)

// HeightClass is the renderer-facing atmosphere height enum.
type HeightClass int

// Height class constants. Values start at 1 so that the zero value means
// "no atmosphere".
const (
	HeightNone HeightClass = iota
	Height16
	Height32
	Height64
	Height128
)

// String returns the class as "<km>km".
func (h HeightClass) String() string {
	if h <= HeightNone || h > Height128 {
		return "none"
	}
	return fmt.Sprintf("%dkm", int(GetAtmosHeight(h)/1000))
}

// Thickness returns the thickness class index for h.
// ok is false for HeightNone and out of range values.
func (h HeightClass) Thickness() (int, bool) {
	if h <= HeightNone || h > Height128 {
		return 0, false
	}
	return int(h) - 1, true
}

// HeightClassFromKm returns the height class for a thickness in kilometers.
func HeightClassFromKm(km int) HeightClass {
	for h := Height16; h <= Height128; h++ {
		if int(GetAtmosHeight(h)/1000) == km {
			return h
		}
	}
	return HeightNone
}

// GetAtmosHeight returns the atmosphere thickness in meters for a height class.
func GetAtmosHeight(h HeightClass) float64 {
	if h <= HeightNone {
		return 0
	}
	return BaseThickness * math.Exp2(float64(h-1))
}

// GetMinDotUL returns the minimum sun-zenith cosine at which the column above
// a surface point still receives direct light.
func GetMinDotUL(thickness, radius float64) float64 {
	return Planet{Radius: radius, Thickness: thickness}.MinDotUL()
}

// Class identifies one cell of the precomputation grid.
type Class struct {
	Thickness int `yaml:"thickness"`
	Radius    int `yaml:"radius"`
}

// AllClasses returns every class, radius-major.
func AllClasses() []Class {
	classes := make([]Class, 0, ThicknessClasses*RadiusClasses)
	for r := 0; r < RadiusClasses; r++ {
		for t := 0; t < ThicknessClasses; t++ {
			classes = append(classes, Class{Thickness: t, Radius: r})
		}
	}
	return classes
}

// Valid reports whether both indices are inside the grid.
func (c Class) Valid() bool {
	return c.Thickness >= 0 && c.Thickness < ThicknessClasses &&
		c.Radius >= 0 && c.Radius < RadiusClasses
}

// ThicknessMeters returns the modeled atmosphere thickness.
func (c Class) ThicknessMeters() float64 {
	return BaseThickness * math.Exp2(float64(c.Thickness))
}

// RadiusMeters returns the modeled planet radius.
func (c Class) RadiusMeters() float64 {
	return c.ThicknessMeters() * radiusPerThickness * math.Exp2(float64(c.Radius))
}

// Planet returns the physical pair modeled by the class.
func (c Class) Planet() Planet {
	return Planet{Radius: c.RadiusMeters(), Thickness: c.ThicknessMeters()}
}

// String returns "<thicknessKm>_<radiusKm>", the suffix used in table names.
func (c Class) String() string {
	return fmt.Sprintf("%d_%d", int(c.ThicknessMeters()/1000), int(c.RadiusMeters()/1000))
}

// Planet is a planet radius and atmosphere thickness in meters.
type Planet struct {
	Radius    float64
	Thickness float64
}

// Top returns the radius of the top of the atmosphere.
func (p Planet) Top() float64 {
	return p.Radius + p.Thickness
}

// SurfaceDensity returns the density calibration factor for the thickness.
func (p Planet) SurfaceDensity() float64 {
	return SurfaceDensity(p.Thickness)
}

// HorizonCos returns the zenith cosine of the geometric horizon seen from
// radius r.
func (p Planet) HorizonCos(r float64) float64 {
	return HorizonCos(r, p.Radius)
}

// MinDotUL returns the lowest sun-zenith cosine (measured at the surface) for
// which the top of the atmosphere directly above is still lit.
func (p Planet) MinDotUL() float64 {
	return HorizonCos(p.Top(), p.Radius)
}

// HorizonCos returns -sqrt(1-(planetRadius/r)^2), clamped for r below the
// surface.
func HorizonCos(r, planetRadius float64) float64 {
	if r <= 0 {
		return 0
	}
	k := planetRadius / r
	return -math.Sqrt(math.Max(0, 1-k*k))
}
