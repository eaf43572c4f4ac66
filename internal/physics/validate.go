package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/mcerdsim/internal/simerr"
)

// Validate checks every field the MCERD input files need. It returns a
// *simerr.ConfigError naming the first offending field.
func (c *Config) Validate() error {
	if c == nil {
		return simerr.Config("", "physics configuration is required")
	}
	if err := c.Target.validate(); err != nil {
		return err
	}
	if err := c.Detector.validate(); err != nil {
		return err
	}
	if err := c.Beam.validate(); err != nil {
		return err
	}
	if err := c.Run.validate(); err != nil {
		return err
	}
	return c.Recoil.validate()
}

// finite rejects NaN and infinite values, which YAML accepts as .nan and
// .inf but MCERD cannot parse.
func finite(field string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return simerr.Config(field, "must be a finite number, got %v", v)
		}
	}
	return nil
}

func (t *Target) validate() error {
	if t == nil {
		return simerr.Config("target", "is required")
	}
	if err := finite("target.angle", t.Angle); err != nil {
		return err
	}
	if len(t.Layers) == 0 {
		return simerr.Config("target.layers", "at least one layer is required")
	}
	for i := range t.Layers {
		if err := t.Layers[i].validate(fmt.Sprintf("target.layers[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Detector) validate() error {
	if d == nil {
		return simerr.Config("detector", "is required")
	}
	if d.Type == "" {
		return simerr.Config("detector.type", "is required")
	}
	if err := finite("detector.angle", d.Angle); err != nil {
		return err
	}
	if err := finite("detector.virtual_size", d.VirtualSize[:]...); err != nil {
		return err
	}
	if len(d.Foils) == 0 {
		return simerr.Config("detector.foils", "at least one foil is required")
	}
	for i, idx := range d.TimingFoils {
		if idx < 0 || idx >= len(d.Foils) {
			return simerr.Config(fmt.Sprintf("detector.timing_foils[%d]", i), "foil index %d out of range", idx)
		}
	}
	for i := range d.Foils {
		f := &d.Foils[i]
		field := fmt.Sprintf("detector.foils[%d]", i)
		if err := finite(field+".distance", f.Distance); err != nil {
			return err
		}
		if err := finite(field+".diameter", f.Diameter); err != nil {
			return err
		}
		if err := finite(field+".size", f.Size[:]...); err != nil {
			return err
		}
		switch f.Type {
		case FoilCircular:
			if f.Diameter <= 0 {
				return simerr.Config(field+".diameter", "must be positive")
			}
		case FoilRectangular:
			if f.Size[0] <= 0 || f.Size[1] <= 0 {
				return simerr.Config(field+".size", "must be positive")
			}
		default:
			return simerr.Config(field+".type", "unknown foil type %q", f.Type)
		}
		if len(f.Layers) == 0 {
			return simerr.Config(field+".layers", "at least one layer is required")
		}
		for j := range f.Layers {
			if err := f.Layers[j].validate(fmt.Sprintf("%s.layers[%d]", field, j)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Layer) validate(field string) error {
	if err := finite(field+".thickness", l.Thickness); err != nil {
		return err
	}
	if err := finite(field+".density", l.Density); err != nil {
		return err
	}
	if l.Thickness < 0 {
		return simerr.Config(field+".thickness", "must not be negative")
	}
	if l.Density <= 0 {
		return simerr.Config(field+".density", "must be positive")
	}
	if len(l.Elements) == 0 {
		return simerr.Config(field+".elements", "at least one element is required")
	}
	for i, e := range l.Elements {
		ef := fmt.Sprintf("%s.elements[%d]", field, i)
		if err := e.validate(ef); err != nil {
			return err
		}
		if err := finite(ef+".amount", e.Amount); err != nil {
			return err
		}
		if e.Amount <= 0 {
			return simerr.Config(ef+".amount", "must be positive")
		}
	}
	return nil
}

func (e Element) validate(field string) error {
	if e.Symbol == "" {
		return simerr.Config(field+".symbol", "is required")
	}
	if e.Isotope < 0 {
		return simerr.Config(field+".isotope", "must not be negative")
	}
	if _, ok := e.Mass(); !ok {
		return simerr.Config(field+".symbol", "unknown element %q", e.Symbol)
	}
	return nil
}

func (b *Beam) validate() error {
	if b == nil {
		return simerr.Config("beam", "is required")
	}
	if err := b.Ion.validate("beam.ion"); err != nil {
		return err
	}
	if err := finite("beam.energy", b.Energy); err != nil {
		return err
	}
	if err := finite("beam.spot_size", b.SpotSize[:]...); err != nil {
		return err
	}
	if b.Energy <= 0 {
		return simerr.Config("beam.energy", "must be positive")
	}
	if b.SpotSize[0] < 0 || b.SpotSize[1] < 0 {
		return simerr.Config("beam.spot_size", "must not be negative")
	}
	return nil
}

func (r *Run) validate() error {
	if r == nil {
		return simerr.Config("run", "is required")
	}
	switch r.SimulationType {
	case TypeERD, TypeRBS:
	default:
		return simerr.Config("run.simulation_type", "must be %s or %s, got %q", TypeERD, TypeRBS, r.SimulationType)
	}
	switch r.Mode {
	case ModeNarrow, ModeWide:
	default:
		return simerr.Config("run.mode", "must be %s or %s, got %q", ModeNarrow, ModeWide, r.Mode)
	}
	if r.NumberOfIons <= 0 {
		return simerr.Config("run.number_of_ions", "must be positive")
	}
	if r.NumberOfPreIons < 0 {
		return simerr.Config("run.number_of_preions", "must not be negative")
	}
	if r.NumberOfScalingIons <= 0 {
		return simerr.Config("run.number_of_scaling_ions", "must be positive")
	}
	if r.NumberOfRecoils <= 0 {
		return simerr.Config("run.number_of_recoils", "must be positive")
	}
	if err := finite("run.minimum_scattering_angle", r.MinimumScatteringAngle, r.MinimumMainScatteringAngle); err != nil {
		return err
	}
	if err := finite("run.minimum_energy", r.MinimumEnergy); err != nil {
		return err
	}
	if r.MinimumScatteringAngle < 0 || r.MinimumMainScatteringAngle < 0 {
		return simerr.Config("run.minimum_scattering_angle", "must not be negative")
	}
	if r.MinimumEnergy < 0 {
		return simerr.Config("run.minimum_energy", "must not be negative")
	}
	return nil
}

func (r *RecoilElement) validate() error {
	if r == nil {
		return simerr.Config("recoil", "is required")
	}
	if err := r.Element.validate("recoil.element"); err != nil {
		return err
	}
	if len(r.Points) == 0 {
		return simerr.Config("recoil.points", "at least one point is required")
	}
	for i, p := range r.Points {
		field := fmt.Sprintf("recoil.points[%d]", i)
		if err := finite(field+".depth", p.Depth); err != nil {
			return err
		}
		if err := finite(field+".concentration", p.Concentration); err != nil {
			return err
		}
		if p.Concentration < 0 {
			return simerr.Config(fmt.Sprintf("recoil.points[%d].concentration", i), "must not be negative")
		}
		if i > 0 && p.Depth < r.Points[i-1].Depth {
			return simerr.Config(fmt.Sprintf("recoil.points[%d].depth", i), "depths must not decrease")
		}
	}
	return nil
}
