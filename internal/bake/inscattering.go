package bake

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-atmos/pkg/atmos"
	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

const (
	// jitterAngle bounds the per-step direction perturbation in radians.
	jitterAngle = 5e-4
	// alphaColorGain scales the color sum before it caps alpha.
	alphaColorGain = 10
)

// Inscattering ray-marches every (pitch, light, view-sun, altitude) cell and
// accumulates sunlight scattered toward the eye. The table is pitch samples
// wide; each row is one flattened (light, cos, altitude) triple.
//
// Light samples start at the planet's MinDotUL: sun angles below it are not
// part of the table and the runtime clamps its query to the same minimum.
func Inscattering(p atmos.Planet, trans, irr *lut.Buffer, opts Options) (*lut.Buffer, error) {
	res := opts.Resolution
	if err := lut.Expect(trans, res.TransmittanceDims()); err != nil {
		return nil, fmt.Errorf("transmittance: %w", err)
	}
	if err := lut.Expect(irr, res.IrradianceDims()); err != nil {
		return nil, fmt.Errorf("irradiance: %w", err)
	}

	m := marcher{
		planet: p,
		trans:  transmittanceTable{planet: p, buf: trans},
		irr:    irradianceTable{planet: p, buf: irr},
		step:   res.InscatterStep,
	}
	out := lut.NewBuffer(res.InscatterPitch, res.InscatterLight*res.InscatterCos*res.InscatterAltitude, 1, 4)
	minDot := p.MinDotUL()

	parallelFor(res.InscatterPitch, opts, "inscattering", func(s int) {
		viewU := atmos.SampleCoord(s, res.InscatterPitch)

		var src rand.PCG
		for light := 0; light < res.InscatterLight; light++ {
			muS := atmos.LightCosFromCoord(atmos.SampleCoord(light, res.InscatterLight), minDot)

			for c := 0; c < res.InscatterCos; c++ {
				nu := atmos.SignedCosFromCoord(atmos.SampleCoord(c, res.InscatterCos))

				for alt := 0; alt < res.InscatterAltitude; alt++ {
					r := p.AltitudeRadius(atmos.SampleCoord(alt, res.InscatterAltitude))
					row := res.InscatterRow(light, c, alt)

					rng := cellRand(&src, opts.Seed, row*out.Width+s)
					rgba := m.cell(r, viewU, muS, nu, rng)
					out.Set(s, row, 0, rgba[:]...)
				}
			}
		}
	})
	return out, nil
}

// viewDirection solves for the unit view vector with zenith cosine mu and
// cosine nu to a sun with zenith cosine muS lying in the XY plane.
// Infeasible combinations are clamped to the closest valid direction.
func viewDirection(mu, muS, nu float64) mgl64.Vec3 {
	sinS := math.Sqrt(math.Max(0, 1-muS*muS))
	sinV := math.Sqrt(math.Max(0, 1-mu*mu))

	var vx float64
	if sinS > 1e-6 {
		vx = (nu - mu*muS) / sinS
	}
	vx = math.Max(-sinV, math.Min(sinV, vx))
	vz := math.Sqrt(math.Max(0, sinV*sinV-vx*vx))
	return mgl64.Vec3{vx, mu, vz}
}

// marcher holds the read-only inputs shared by every inscattering cell.
type marcher struct {
	planet atmos.Planet
	trans  transmittanceTable
	irr    irradianceTable
	step   float64
}

// cell computes one RGBA sample for an eye at radius r.
func (m marcher) cell(r, viewU, muS, nu float64, rng *rand.Rand) [4]float32 {
	p := m.planet
	horizon := p.HorizonCos(r)
	mu := atmos.ViewCosFromCoord(viewU, horizon)
	view := viewDirection(mu, muS, nu)
	sun := mgl64.Vec3{math.Sqrt(math.Max(0, 1-muS*muS)), muS, 0}

	towardGround := mu < horizon
	var dist float64
	if towardGround {
		dist, _ = p.DistanceToGround(r, mu)
	} else {
		dist = p.DistanceToTop(r, mu)
	}

	steps, seg := marchSteps(dist, m.step)
	eye := mgl64.Vec3{0, r, 0}

	var color mgl64.Vec3
	var depth float64
	for i := 0; i < steps; i++ {
		dir := jitter(view, rng)
		q, rq := samplePoint(p, eye, dir, (float64(i)+0.5)*seg)
		up := q.Mul(1 / rq)
		h := rq - p.Radius

		light := m.irr.at(rq, up.Dot(sun))
		trans := m.trans.between(r, dir.Y(), rq, up.Dot(dir), towardGround)
		coef := atmos.Scattering(h, p.Thickness, nu)
		color = color.Add(mulElem(mulElem(coef, light), trans).Mul(seg))

		depth += atmos.Extinction(h, p.Thickness).Y() * seg
	}

	density := p.SurfaceDensity()
	color = color.Mul(density)
	depth *= density

	sum := color[0] + color[1] + color[2]
	alpha := math.Min(sum*alphaColorGain, 1) * (1 - math.Exp(-depth))

	return [4]float32{
		float32(math.Max(0, color[0])),
		float32(math.Max(0, color[1])),
		float32(math.Max(0, color[2])),
		float32(math.Max(0, math.Min(1, alpha))),
	}
}

// samplePoint returns the point at distance d from eye along dir and its
// radius. Points the jittered direction pushes below the surface are lifted
// back onto it.
func samplePoint(p atmos.Planet, eye, dir mgl64.Vec3, d float64) (mgl64.Vec3, float64) {
	q := eye.Add(dir.Mul(d))
	rq := q.Len()
	if rq < p.Radius {
		if rq == 0 {
			return mgl64.Vec3{0, p.Radius, 0}, p.Radius
		}
		q = q.Mul(p.Radius / rq)
		rq = p.Radius
	}
	return q, rq
}

// jitter perturbs dir by a small random angle and renormalizes it.
func jitter(dir mgl64.Vec3, rng *rand.Rand) mgl64.Vec3 {
	offset := mgl64.Vec3{
		(rng.Float64()*2 - 1) * jitterAngle,
		(rng.Float64()*2 - 1) * jitterAngle,
		(rng.Float64()*2 - 1) * jitterAngle,
	}
	return dir.Add(offset).Normalize()
}
