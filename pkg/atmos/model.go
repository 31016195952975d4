package atmos

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Physical constants. Coefficients are per meter at sea level for the
// reference thickness; ratios are fractions of the atmosphere thickness.
var (
	// RayleighRGB is the Rayleigh scattering coefficient for the R, G and B bands.
	RayleighRGB = mgl64.Vec3{5.802e-6, 13.558e-6, 33.1e-6}

	// OzoneRGB is the ozone absorption coefficient at the layer peak.
	OzoneRGB = mgl64.Vec3{0.650e-6, 1.881e-6, 0.085e-6}
)

const (
	// MieScattering is the band-independent Mie scattering coefficient.
	MieScattering = 3.996e-6
	// MieAbsorptionBase is the Mie absorption coefficient.
	MieAbsorptionBase = 0.444e-6

	// RayleighRatio is the Rayleigh half-height as a fraction of thickness.
	RayleighRatio = 0.0866
	// MieRatio is the Mie half-height as a fraction of thickness.
	MieRatio = 0.013

	// OzoneCenter and OzoneHalfWidth place the triangular ozone layer.
	OzoneCenter    = 0.39
	OzoneHalfWidth = 0.234

	// MieG is the Henyey-Greenstein asymmetry parameter.
	MieG = 0.8

	// ReferenceThickness is the thickness with unit surface density.
	ReferenceThickness = 64000.0
)

// SurfaceDensity returns thickness/64000, the density scale applied to every
// coefficient of a planet.
func SurfaceDensity(thickness float64) float64 {
	return thickness / ReferenceThickness
}

func falloff(h, thickness, ratio float64) float64 {
	if h < 0 {
		h = 0
	}
	return math.Exp2(-h / (thickness * ratio))
}

// RayleighCoeff returns the Rayleigh scattering coefficient at altitude h.
func RayleighCoeff(h, thickness float64) mgl64.Vec3 {
	return RayleighRGB.Mul(falloff(h, thickness, RayleighRatio))
}

// MieCoeff returns the Mie scattering coefficient at altitude h.
func MieCoeff(h, thickness float64) float64 {
	return MieScattering * falloff(h, thickness, MieRatio)
}

// MieAbsorption returns the Mie absorption coefficient at altitude h.
func MieAbsorption(h, thickness float64) float64 {
	return MieAbsorptionBase * falloff(h, thickness, MieRatio)
}

// OzoneAbsorption returns the ozone absorption at altitude h. The layer is a
// triangle centered at 0.39H with half-width 0.234H.
func OzoneAbsorption(h, thickness float64) mgl64.Vec3 {
	if h < 0 {
		h = 0
	}
	d := 1 - math.Abs(h-OzoneCenter*thickness)/(OzoneHalfWidth*thickness)
	if d <= 0 {
		return mgl64.Vec3{}
	}
	return OzoneRGB.Mul(d)
}

// Extinction returns the total extinction coefficient at altitude h, before
// the surface density factor.
func Extinction(h, thickness float64) mgl64.Vec3 {
	mie := MieCoeff(h, thickness) + MieAbsorption(h, thickness)
	return RayleighCoeff(h, thickness).
		Add(mgl64.Vec3{mie, mie, mie}).
		Add(OzoneAbsorption(h, thickness))
}

// Scattering returns the phase-weighted in-scattering coefficient for the
// cosine between view and light directions.
func Scattering(h, thickness, cosTheta float64) mgl64.Vec3 {
	m := MieCoeff(h, thickness) * MiePhase(cosTheta)
	return RayleighCoeff(h, thickness).Mul(RayleighPhase(cosTheta)).Add(mgl64.Vec3{m, m, m})
}

// RayleighPhase is 3/(16pi)(1+cos^2).
func RayleighPhase(cosTheta float64) float64 {
	return 3 / (16 * math.Pi) * (1 + cosTheta*cosTheta)
}

// MiePhase is the Henyey-Greenstein phase function with g = MieG.
func MiePhase(cosTheta float64) float64 {
	g2 := MieG * MieG
	denom := 1 + g2 - 2*MieG*cosTheta
	return (1 - g2) / (4 * math.Pi * denom * math.Sqrt(denom))
}
