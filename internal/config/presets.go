package config

import (
	"sort"

	"github.com/san-kum/mcerdsim/internal/physics"
)

// Preset kinds. A preset sets exactly one section of a simulation file.
const (
	PresetBeam     = "beam"
	PresetDetector = "detector"
	PresetTarget   = "target"
	PresetRun      = "run"
)

func carbonFoil(name string, distance, diameter, thickness float64) physics.Foil {
	return physics.Foil{
		Name:     name,
		Type:     physics.FoilCircular,
		Diameter: diameter,
		Distance: distance,
		Layers: []physics.Layer{{
			Name:      "carbon",
			Elements:  []physics.Element{{Symbol: "C", Amount: 1}},
			Thickness: thickness,
			Density:   2.25,
		}},
	}
}

func tofTelescope(name string, angle float64) *physics.Detector {
	return &physics.Detector{
		Name:        name,
		Type:        "TOF",
		Angle:       angle,
		VirtualSize: [2]float64{2, 5},
		TimingFoils: [2]int{1, 2},
		Foils: []physics.Foil{
			carbonFoil("aperture", 256, 7, 0.1),
			carbonFoil("t1", 319, 9, 13.3),
			carbonFoil("t2", 942, 18, 44.4),
			{
				Name:     "gas",
				Type:     physics.FoilRectangular,
				Size:     [2]float64{18, 18},
				Distance: 957,
				Layers: []physics.Layer{{
					Name:      "isobutane",
					Elements:  []physics.Element{{Symbol: "C", Amount: 0.286}, {Symbol: "H", Amount: 0.714}},
					Thickness: 20000,
					Density:   0.00224,
				}},
			},
		},
	}
}

func runSettings(ions, preIons int) *physics.Run {
	r := *DefaultConfig().Physics.Run
	r.NumberOfIons = ions
	r.NumberOfPreIons = preIons
	return &r
}

var Presets = map[string]map[string]*Config{
	PresetBeam: {
		"cl35-8.5": {Physics: physics.Config{Beam: &physics.Beam{
			Ion: physics.Element{Symbol: "Cl", Isotope: 35}, Energy: 8.515, SpotSize: [2]float64{3, 5},
		}}},
		"i127-10": {Physics: physics.Config{Beam: &physics.Beam{
			Ion: physics.Element{Symbol: "I", Isotope: 127}, Energy: 10, SpotSize: [2]float64{3, 5},
		}}},
		"he4-2": {Physics: physics.Config{Beam: &physics.Beam{
			Ion: physics.Element{Symbol: "He", Isotope: 4}, Energy: 2, SpotSize: [2]float64{1, 1},
		}}},
	},
	PresetDetector: {
		"jyfl-tof": {Physics: physics.Config{Detector: tofTelescope("JYFL ToF-E", 41.12)}},
		"tof-30":   {Physics: physics.Config{Detector: tofTelescope("ToF-E 30", 30)}},
	},
	PresetTarget: {
		"tin-sio2": {Physics: physics.Config{Target: &physics.Target{
			Name:  "TiN on SiO2",
			Angle: 70,
			Layers: []physics.Layer{
				{Name: "TiN", Elements: []physics.Element{{Symbol: "Ti", Amount: 0.5}, {Symbol: "N", Amount: 0.5}}, Thickness: 25.5, Density: 5.22},
				{Name: "SiO2", Elements: []physics.Element{{Symbol: "Si", Amount: 0.33}, {Symbol: "O", Isotope: 16, Amount: 0.67}}, Thickness: 100, Density: 2.65},
			},
		}}},
		"si-bulk": {Physics: physics.Config{Target: &physics.Target{
			Name:   "Si",
			Angle:  70,
			Layers: []physics.Layer{{Name: "Si", Elements: []physics.Element{{Symbol: "Si", Amount: 1}}, Thickness: 10000, Density: 2.33}},
		}}},
	},
	PresetRun: {
		"quick":      {Physics: physics.Config{Run: runSettings(10000, 1000)}},
		"default":    {Physics: physics.Config{Run: runSettings(DefaultIons, DefaultPreIons)}},
		"production": {Physics: physics.Config{Run: runSettings(5000000, 200000)}},
	},
}

func GetPreset(kind, preset string) *Config {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	cfg, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetKinds lists the kinds in a stable order.
func PresetKinds() []string {
	return []string{PresetBeam, PresetDetector, PresetTarget, PresetRun}
}

// ApplyPreset copies the sections a preset sets into c. The copies are
// shallow: slices inside a section stay shared with the preset.
func (c *Config) ApplyPreset(p *Config) {
	if p == nil {
		return
	}
	if p.Physics.Beam != nil {
		b := *p.Physics.Beam
		c.Physics.Beam = &b
	}
	if p.Physics.Detector != nil {
		d := *p.Physics.Detector
		c.Physics.Detector = &d
	}
	if p.Physics.Target != nil {
		t := *p.Physics.Target
		c.Physics.Target = &t
	}
	if p.Physics.Run != nil {
		r := *p.Physics.Run
		c.Physics.Run = &r
	}
}
