// Package bake generates the Transmittance, Irradiance and Inscattering
// tables for a planet/atmosphere pair.
package bake

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

// Resolution holds every table dimension and integration step count.
type Resolution struct {
	TransmittanceAltitude int `yaml:"transmittance_altitude"`
	TransmittanceSun      int `yaml:"transmittance_sun"`
	TransmittanceSteps    int `yaml:"transmittance_steps"`

	IrradianceAltitude int     `yaml:"irradiance_altitude"`
	IrradianceSun      int     `yaml:"irradiance_sun"`
	IrradiancePitch    int     `yaml:"irradiance_pitch"`
	IrradianceYaw      int     `yaml:"irradiance_yaw"`
	IrradianceStep     float64 `yaml:"irradiance_step"`
	AlbedoSamples      int     `yaml:"albedo_samples"`

	InscatterPitch    int     `yaml:"inscatter_pitch"`
	InscatterLight    int     `yaml:"inscatter_light"`
	InscatterCos      int     `yaml:"inscatter_cos"`
	InscatterAltitude int     `yaml:"inscatter_altitude"`
	InscatterStep     float64 `yaml:"inscatter_step"`
}

// DefaultResolution returns the production table layout.
func DefaultResolution() Resolution {
	return Resolution{
		TransmittanceAltitude: 128,
		TransmittanceSun:      256,
		TransmittanceSteps:    1024,

		IrradianceAltitude: 128,
		IrradianceSun:      128,
		IrradiancePitch:    256,
		IrradianceYaw:      32,
		IrradianceStep:     500,
		AlbedoSamples:      64,

		InscatterPitch:    256,
		InscatterLight:    16,
		InscatterCos:      32,
		InscatterAltitude: 16,
		InscatterStep:     100,
	}
}

// Validate checks that every count is positive.
func (r Resolution) Validate() error {
	counts := []struct {
		name  string
		value int
	}{
		{"transmittance_altitude", r.TransmittanceAltitude},
		{"transmittance_sun", r.TransmittanceSun},
		{"transmittance_steps", r.TransmittanceSteps},
		{"irradiance_altitude", r.IrradianceAltitude},
		{"irradiance_sun", r.IrradianceSun},
		{"irradiance_pitch", r.IrradiancePitch},
		{"irradiance_yaw", r.IrradianceYaw},
		{"inscatter_pitch", r.InscatterPitch},
		{"inscatter_light", r.InscatterLight},
		{"inscatter_cos", r.InscatterCos},
		{"inscatter_altitude", r.InscatterAltitude},
	}
	for _, c := range counts {
		if c.value < 1 {
			return fmt.Errorf("resolution %s must be positive, got %d", c.name, c.value)
		}
	}
	if r.AlbedoSamples < 0 {
		return fmt.Errorf("resolution albedo_samples must not be negative, got %d", r.AlbedoSamples)
	}
	if r.IrradianceStep <= 0 || r.InscatterStep <= 0 {
		return fmt.Errorf("march steps must be positive, got %g and %g", r.IrradianceStep, r.InscatterStep)
	}
	return nil
}

// TransmittanceDims is sun samples wide and altitude samples high, RGB.
func (r Resolution) TransmittanceDims() lut.Dims {
	return lut.Dims{Width: r.TransmittanceSun, Height: r.TransmittanceAltitude, Depth: 1, Channels: 3}
}

// IrradianceDims is sun samples wide and altitude samples high, RGB.
func (r Resolution) IrradianceDims() lut.Dims {
	return lut.Dims{Width: r.IrradianceSun, Height: r.IrradianceAltitude, Depth: 1, Channels: 3}
}

// InscatteringDims is pitch samples wide and light*cos*altitude samples
// high, RGBA.
func (r Resolution) InscatteringDims() lut.Dims {
	return lut.Dims{
		Width:    r.InscatterPitch,
		Height:   r.InscatterLight * r.InscatterCos * r.InscatterAltitude,
		Depth:    1,
		Channels: 4,
	}
}

// Dims returns the dimensions of a table kind.
func (r Resolution) Dims(k lut.Kind) lut.Dims {
	switch k {
	case lut.Transmittance:
		return r.TransmittanceDims()
	case lut.Irradiance:
		return r.IrradianceDims()
	default:
		return r.InscatteringDims()
	}
}

// InscatterRow returns the flattened row of (light, cos, alt).
func (r Resolution) InscatterRow(light, cos, alt int) int {
	return (light*r.InscatterCos+cos)*r.InscatterAltitude + alt
}

// Options configures a generator run.
type Options struct {
	Resolution Resolution
	// Workers is the number of parallel tasks; 0 means runtime.NumCPU().
	Workers int
	// Seed drives the per-cell jitter generators.
	Seed   uint64
	Logger *zap.Logger
}

// DefaultOptions returns production resolution, all CPUs and seed 1.
func DefaultOptions() Options {
	return Options{
		Resolution: DefaultResolution(),
		Seed:       1,
		Logger:     zap.NewNop(),
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
