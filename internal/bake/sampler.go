package bake

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-atmos/pkg/atmos"
	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

// transmittanceTable samples a baked transmittance buffer.
type transmittanceTable struct {
	planet atmos.Planet
	buf    *lut.Buffer
}

// toTop returns the transmittance from radius r to the top of the
// atmosphere along a ray with zenith cosine mu. Rays that hit the planet
// return zero.
func (t transmittanceTable) toTop(r, mu float64) mgl64.Vec3 {
	horizon := t.planet.HorizonCos(r)
	if mu < horizon {
		return mgl64.Vec3{}
	}
	fx := atmos.SunCosCoord(mu, horizon) * float64(t.buf.Width-1)
	fy := t.planet.ShellCoord(r) * float64(t.buf.Height-1)

	var out mgl64.Vec3
	t.buf.Bilinear(fx, fy, 0, out[:])
	return out
}

// between returns the transmittance of the segment from radius r0 to r1,
// where mu0 and mu1 are the zenith cosines of the ray direction at each
// end. When the ray heads into the ground the reversed direction is used,
// since only rays reaching the top are tabulated. Either way the segment is
// the smaller lookup divided by the larger one.
func (t transmittanceTable) between(r0, mu0, r1, mu1 float64, towardGround bool) mgl64.Vec3 {
	var a, b mgl64.Vec3
	if towardGround {
		a, b = t.toTop(r1, -mu1), t.toTop(r0, -mu0)
	} else {
		a, b = t.toTop(r0, mu0), t.toTop(r1, mu1)
	}

	var out mgl64.Vec3
	for c := 0; c < 3; c++ {
		lo, hi := math.Min(a[c], b[c]), math.Max(a[c], b[c])
		if hi > 0 {
			out[c] = lo / hi
		}
	}
	return out
}

// irradianceTable samples a baked irradiance buffer.
type irradianceTable struct {
	planet atmos.Planet
	buf    *lut.Buffer
}

// at returns the light reaching radius r with sun zenith cosine mu.
func (t irradianceTable) at(r, mu float64) mgl64.Vec3 {
	fx := atmos.SignedCosCoord(mu) * float64(t.buf.Width-1)
	fy := t.planet.ShellCoord(r) * float64(t.buf.Height-1)

	var out mgl64.Vec3
	t.buf.Bilinear(fx, fy, 0, out[:])
	return out
}

// mulElem multiplies two colors channel by channel.
func mulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func isZero(v mgl64.Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// cellRand reseeds src from the bake seed and a cell index so every cell
// draws the same sequence regardless of which worker runs it.
func cellRand(src *rand.PCG, seed uint64, cell int) *rand.Rand {
	src.Seed(seed, uint64(cell))
	return rand.New(src)
}

// marchSteps splits a path of length dist into whole steps of nominal
// length step. The returned segment length is step scaled by
// count/ceil(count), which removes the banding a partial last step causes.
func marchSteps(dist, step float64) (int, float64) {
	if dist <= 0 || step <= 0 {
		return 0, 0
	}
	count := dist / step
	steps := math.Ceil(count)
	return int(steps), step * (count / steps)
}
