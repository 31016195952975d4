package bake

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-atmos/pkg/atmos"
	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

// hemisphereSample is one incoming direction with its cos-weighted solid
// angle.
type hemisphereSample struct {
	dir    mgl64.Vec3
	weight float64
}

// hemisphere returns a pitch x yaw grid over the upper hemisphere around +Y.
// Weights sum to about pi.
func hemisphere(pitch, yaw int) []hemisphereSample {
	dElev := math.Pi / 2 / float64(pitch)
	dYaw := 2 * math.Pi / float64(yaw)

	samples := make([]hemisphereSample, 0, pitch*yaw)
	for i := 0; i < pitch; i++ {
		elev := (float64(i) + 0.5) * dElev
		sinE, cosE := math.Sincos(elev)
		for j := 0; j < yaw; j++ {
			phi := (float64(j) + 0.5) * dYaw
			sinP, cosP := math.Sincos(phi)
			samples = append(samples, hemisphereSample{
				dir:    mgl64.Vec3{cosE * sinP, sinE, cosE * cosP},
				weight: sinE * cosE * dElev * dYaw,
			})
		}
	}
	return samples
}

// sunDirection places the sun in the YZ plane with zenith cosine mu.
func sunDirection(mu float64) mgl64.Vec3 {
	return mgl64.Vec3{0, mu, math.Sqrt(math.Max(0, 1-mu*mu))}
}

// Irradiance computes the light reaching each (altitude, sun-dot-up) sample:
// direct sun transmittance plus sky irradiance integrated over the upper
// hemisphere. trans must be the transmittance table of the same planet.
//
// Only the sky term is scaled by min(1, surface density); the direct term is
// the unscaled transmittance to the sun.
func Irradiance(p atmos.Planet, trans *lut.Buffer, opts Options) (*lut.Buffer, error) {
	res := opts.Resolution
	if err := lut.Expect(trans, res.TransmittanceDims()); err != nil {
		return nil, fmt.Errorf("transmittance: %w", err)
	}

	tt := transmittanceTable{planet: p, buf: trans}
	out := lut.NewBuffer(res.IrradianceSun, res.IrradianceAltitude, 1, 3)
	dirs := hemisphere(res.IrradiancePitch, res.IrradianceYaw)
	skyScale := math.Min(1, p.SurfaceDensity())

	parallelFor(out.Width, opts, "irradiance", func(x int) {
		mu := atmos.SignedCosFromCoord(atmos.SampleCoord(x, out.Width))
		sun := sunDirection(mu)

		var src rand.PCG
		for y := 0; y < out.Height; y++ {
			r := p.ShellRadius(atmos.SampleCoord(y, out.Height))

			total := tt.toTop(r, mu).Add(skyIrradiance(p, tt, r, sun, dirs, res.IrradianceStep).Mul(skyScale))
			if groundAlbedoEnabled && res.AlbedoSamples > 0 {
				rng := cellRand(&src, opts.Seed, y*out.Width+x)
				total = total.Add(groundIrradiance(p, tt, r, sun, rng, res.AlbedoSamples))
			}

			out.Set(x, y, 0, float32(total[0]), float32(total[1]), float32(total[2]))
		}
	})
	return out, nil
}

// skyIrradiance ray-marches every hemisphere direction from radius r to the
// top of the atmosphere and sums single-scattered sunlight.
func skyIrradiance(p atmos.Planet, tt transmittanceTable, r float64, sun mgl64.Vec3, dirs []hemisphereSample, step float64) mgl64.Vec3 {
	eye := mgl64.Vec3{0, r, 0}

	var sum mgl64.Vec3
	for _, d := range dirs {
		steps, seg := marchSteps(p.DistanceToTop(r, d.dir.Y()), step)
		nu := d.dir.Dot(sun)

		var radiance mgl64.Vec3
		for i := 0; i < steps; i++ {
			q := eye.Add(d.dir.Mul((float64(i) + 0.5) * seg))
			rq := q.Len()
			up := q.Mul(1 / rq)

			sunT := tt.toTop(rq, up.Dot(sun))
			if isZero(sunT) {
				continue
			}
			inT := tt.between(r, d.dir.Y(), rq, up.Dot(d.dir), false)
			coef := atmos.Scattering(rq-p.Radius, p.Thickness, nu)
			radiance = radiance.Add(mulElem(mulElem(sunT, coef), inT))
		}
		sum = sum.Add(radiance.Mul(seg * d.weight))
	}
	return sum
}

// groundIrradiance Monte-Carlo samples the visible ground disk below r and
// returns the sunlight it reflects back toward r with a Lambertian albedo.
func groundIrradiance(p atmos.Planet, tt transmittanceTable, r float64, sun mgl64.Vec3, rng *rand.Rand, samples int) mgl64.Vec3 {
	horizon := p.HorizonCos(r)
	solidAngle := 2 * math.Pi * (horizon + 1)
	eye := mgl64.Vec3{0, r, 0}

	var sum mgl64.Vec3
	for i := 0; i < samples; i++ {
		mu := -1 + (horizon+1)*rng.Float64()
		phi := 2 * math.Pi * rng.Float64()
		s := math.Sqrt(math.Max(0, 1-mu*mu))
		dir := mgl64.Vec3{s * math.Cos(phi), mu, s * math.Sin(phi)}

		dist, ok := p.DistanceToGround(r, mu)
		if !ok {
			continue
		}
		g := eye.Add(dir.Mul(dist))
		normal := g.Normalize()
		cosSun := normal.Dot(sun)
		if cosSun <= 0 {
			continue
		}

		lit := tt.toTop(p.Radius, cosSun).Mul(cosSun * groundAlbedo / math.Pi)
		path := tt.between(r, mu, p.Radius, normal.Dot(dir), true)
		sum = sum.Add(mulElem(lit, path).Mul(math.Abs(mu)))
	}
	return sum.Mul(solidAngle / float64(samples))
}
