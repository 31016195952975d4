package bake

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-atmos/pkg/atmos"
	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

// EarthClass is the class baked for inscattering by default: 64 km of
// atmosphere around a 6400 km planet.
var EarthClass = atmos.Class{Thickness: 2, Radius: 1}

// Plan lists the classes to bake. Transmittance and irradiance are baked for
// Classes; inscattering for Inscattering.
type Plan struct {
	Classes      []atmos.Class
	Inscattering []atmos.Class
}

// DefaultPlan bakes transmittance and irradiance for every class and
// inscattering for EarthClass only, since it dominates bake time.
func DefaultPlan() Plan {
	return Plan{
		Classes:      atmos.AllClasses(),
		Inscattering: []atmos.Class{EarthClass},
	}
}

// FullPlan bakes every table for every class.
func FullPlan() Plan {
	return Plan{
		Classes:      atmos.AllClasses(),
		Inscattering: atmos.AllClasses(),
	}
}

// steps returns the classes of the plan in order with the stages each needs.
func (p Plan) steps() []planStep {
	var steps []planStep
	index := make(map[atmos.Class]int)

	add := func(c atmos.Class) *planStep {
		if i, ok := index[c]; ok {
			return &steps[i]
		}
		index[c] = len(steps)
		steps = append(steps, planStep{class: c})
		return &steps[len(steps)-1]
	}
	for _, c := range p.Classes {
		add(c).base = true
	}
	for _, c := range p.Inscattering {
		add(c).inscattering = true
	}
	return steps
}

type planStep struct {
	class        atmos.Class
	base         bool
	inscattering bool
}

// Baker runs the generators against a table store.
type Baker struct {
	store lut.Store
	opts  Options
	log   *zap.Logger
}

// NewBaker creates a baker. The store supplies dependency tables and
// receives every generated table.
func NewBaker(store lut.Store, opts Options) *Baker {
	return &Baker{
		store: store,
		opts:  opts,
		log:   opts.logger(),
	}
}

// Run bakes every class in the plan. A class whose dependencies are missing
// or malformed is skipped; the remaining classes still run and all class
// errors are returned together.
func (b *Baker) Run(plan Plan) error {
	if err := b.opts.Resolution.Validate(); err != nil {
		return err
	}

	var errs error
	for _, step := range plan.steps() {
		if err := b.runStep(step); err != nil {
			b.log.Error("class failed",
				zap.Stringer("class", step.class),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("class %s: %w", step.class, err))
		}
	}
	return errs
}

func (b *Baker) runStep(step planStep) error {
	if step.base {
		if err := b.BakeTransmittance(step.class); err != nil {
			return err
		}
		if err := b.BakeIrradiance(step.class); err != nil {
			return err
		}
	}
	if step.inscattering {
		return b.BakeInscattering(step.class)
	}
	return nil
}

// BakeTransmittance generates and stores the transmittance table of c.
func (b *Baker) BakeTransmittance(c atmos.Class) error {
	if !c.Valid() {
		return fmt.Errorf("invalid class %+v", c)
	}
	start := time.Now()
	buf := Transmittance(c.Planet(), b.optsFor(c))
	return b.save(lut.Transmittance, c, buf, start)
}

// BakeIrradiance loads the transmittance table of c, generates the
// irradiance table and stores it.
func (b *Baker) BakeIrradiance(c atmos.Class) error {
	if !c.Valid() {
		return fmt.Errorf("invalid class %+v", c)
	}
	trans, err := b.load(lut.Transmittance, c)
	if err != nil {
		return err
	}

	start := time.Now()
	buf, err := Irradiance(c.Planet(), trans, b.optsFor(c))
	if err != nil {
		return err
	}
	return b.save(lut.Irradiance, c, buf, start)
}

// BakeInscattering loads the transmittance and irradiance tables of c,
// generates the inscattering table and stores it.
func (b *Baker) BakeInscattering(c atmos.Class) error {
	if !c.Valid() {
		return fmt.Errorf("invalid class %+v", c)
	}
	trans, err := b.load(lut.Transmittance, c)
	if err != nil {
		return err
	}
	irr, err := b.load(lut.Irradiance, c)
	if err != nil {
		return err
	}

	start := time.Now()
	buf, err := Inscattering(c.Planet(), trans, irr, b.optsFor(c))
	if err != nil {
		return err
	}
	return b.save(lut.Inscattering, c, buf, start)
}

func (b *Baker) optsFor(c atmos.Class) Options {
	opts := b.opts
	opts.Logger = b.log.With(zap.Stringer("class", c))
	return opts
}

// load reads a dependency table and checks its dimensions.
func (b *Baker) load(k lut.Kind, c atmos.Class) (*lut.Buffer, error) {
	buf, err := b.store.Load(k, c)
	if err != nil {
		if errors.Is(err, lut.ErrMissingTable) {
			return nil, fmt.Errorf("missing %s dependency: %w", k, err)
		}
		return nil, fmt.Errorf("loading %s: %w", k, err)
	}
	if err := lut.Expect(buf, b.opts.Resolution.Dims(k)); err != nil {
		return nil, fmt.Errorf("loading %s: %w", k, err)
	}
	return buf, nil
}

func (b *Baker) save(k lut.Kind, c atmos.Class, buf *lut.Buffer, start time.Time) error {
	if err := b.store.Save(k, c, buf); err != nil {
		return fmt.Errorf("saving %s: %w", k, err)
	}
	b.log.Info("table baked",
		zap.Stringer("kind", k),
		zap.Stringer("class", c),
		zap.Stringer("dims", buf.Dims()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
