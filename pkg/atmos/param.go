package atmos

import "math"

// Epsilon keeps sample radii strictly inside the atmosphere shell.
const Epsilon = 1.0

func clamp01(u float64) float64 {
	return math.Max(0, math.Min(1, u))
}

// Lerp maps u in [0,1] linearly onto [a,b].
func Lerp(a, b, u float64) float64 {
	return a + (b-a)*u
}

// ShellRadius maps u in [0,1] linearly onto [R+eps, Rtop-eps].
func (p Planet) ShellRadius(u float64) float64 {
	return Lerp(p.Radius+Epsilon, p.Top()-Epsilon, u)
}

// ShellCoord is the inverse of ShellRadius, clamped to [0,1].
func (p Planet) ShellCoord(r float64) float64 {
	return clamp01((r - p.Radius - Epsilon) / (p.Thickness - 2*Epsilon))
}

// SunCosFromCoord maps u in [0,1] onto [horizon, 1] with a square bias so
// samples concentrate near grazing angles.
func SunCosFromCoord(u, horizon float64) float64 {
	u = clamp01(u)
	return horizon + (1-horizon)*u*u
}

// SunCosCoord is the inverse of SunCosFromCoord.
func SunCosCoord(mu, horizon float64) float64 {
	if horizon >= 1 {
		return 0
	}
	return math.Sqrt(clamp01((mu - horizon) / (1 - horizon)))
}

// SignedCosFromCoord maps u in [0,1] linearly onto [-1,1].
func SignedCosFromCoord(u float64) float64 {
	return -1 + 2*clamp01(u)
}

// SignedCosCoord is the inverse of SignedCosFromCoord.
func SignedCosCoord(mu float64) float64 {
	return clamp01((mu + 1) / 2)
}

// AltitudeRadius maps u in [0,1] onto the shell with a square bias toward
// the surface.
func (p Planet) AltitudeRadius(u float64) float64 {
	u = clamp01(u)
	return p.Radius + Epsilon + (p.Thickness-2*Epsilon)*u*u
}

// AltitudeCoord is the inverse of AltitudeRadius.
func (p Planet) AltitudeCoord(r float64) float64 {
	return math.Sqrt(p.ShellCoord(r))
}

// ViewCosFromCoord maps u in [0,1] onto a zenith cosine split at the
// horizon: [0,0.5] covers directions below it, [0.5,1] directions above it.
// Both halves are square-biased toward the horizon.
func ViewCosFromCoord(u, horizon float64) float64 {
	u = clamp01(u)
	if u < 0.5 {
		v := 1 - u*2
		return horizon - (1+horizon)*v*v
	}
	v := u*2 - 1
	return horizon + (1-horizon)*v*v
}

// ViewCosCoord is the inverse of ViewCosFromCoord.
func ViewCosCoord(mu, horizon float64) float64 {
	if mu < horizon {
		if horizon <= -1 {
			return 0
		}
		v := math.Sqrt(clamp01((horizon - mu) / (1 + horizon)))
		return (1 - v) / 2
	}
	if horizon >= 1 {
		return 1
	}
	v := math.Sqrt(clamp01((mu - horizon) / (1 - horizon)))
	return (1 + v) / 2
}

// LightCosFromCoord maps u in [0,1] linearly onto [minDotUL, 1].
func LightCosFromCoord(u, minDotUL float64) float64 {
	return Lerp(minDotUL, 1, clamp01(u))
}

// LightCosCoord is the inverse of LightCosFromCoord.
func LightCosCoord(mu, minDotUL float64) float64 {
	if minDotUL >= 1 {
		return 0
	}
	return clamp01((mu - minDotUL) / (1 - minDotUL))
}

// SampleCoord returns the [0,1] coordinate of sample i out of n.
func SampleCoord(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// DistanceToTop returns the distance from radius r along a ray with zenith
// cosine mu to the top boundary.
func (p Planet) DistanceToTop(r, mu float64) float64 {
	top := p.Top()
	d := r*r*(mu*mu-1) + top*top
	return math.Max(0, -r*mu+math.Sqrt(math.Max(0, d)))
}

// DistanceToGround returns the distance from radius r along a ray with
// zenith cosine mu to the planet surface. ok is false when the ray misses.
func (p Planet) DistanceToGround(r, mu float64) (float64, bool) {
	d := r*r*(mu*mu-1) + p.Radius*p.Radius
	if mu >= 0 || d < 0 {
		return 0, false
	}
	return math.Max(0, -r*mu-math.Sqrt(d)), true
}
