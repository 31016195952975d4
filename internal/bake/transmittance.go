package bake

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-atmos/pkg/atmos"
	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

// minTransmittance keeps every sample strictly positive after float32
// conversion.
const minTransmittance = 1e-30

// Transmittance integrates extinction from every (altitude, sun angle)
// sample to the top of the atmosphere. Rows are altitudes, columns are sun
// zenith cosines between the local horizon and the zenith.
func Transmittance(p atmos.Planet, opts Options) *lut.Buffer {
	res := opts.Resolution
	out := lut.NewBuffer(res.TransmittanceSun, res.TransmittanceAltitude, 1, 3)
	density := p.SurfaceDensity()

	parallelFor(out.Height, opts, "transmittance", func(y int) {
		r := p.ShellRadius(atmos.SampleCoord(y, out.Height))
		horizon := p.HorizonCos(r)

		for x := 0; x < out.Width; x++ {
			mu := atmos.SunCosFromCoord(atmos.SampleCoord(x, out.Width), horizon)
			depth := opticalDepth(p, r, mu, res.TransmittanceSteps).Mul(density)
			out.Set(x, y, 0,
				transmit(depth[0]),
				transmit(depth[1]),
				transmit(depth[2]))
		}
	})
	return out
}

// opticalDepth integrates Extinction along the chord from radius r to the
// top boundary with midpoint quadrature.
func opticalDepth(p atmos.Planet, r, mu float64, steps int) mgl64.Vec3 {
	dist := p.DistanceToTop(r, mu)
	dx := dist / float64(steps)

	var sum mgl64.Vec3
	for i := 0; i < steps; i++ {
		x := (float64(i) + 0.5) * dx
		ri := math.Sqrt(r*r + 2*r*mu*x + x*x)
		sum = sum.Add(atmos.Extinction(ri-p.Radius, p.Thickness))
	}
	return sum.Mul(dx)
}

func transmit(depth float64) float32 {
	return float32(math.Max(math.Exp(-depth), minTransmittance))
}
