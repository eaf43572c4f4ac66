// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"github.com/san-kum/mcerdsim/internal/physics"
)

// Config returns a complete ERD setup: a 35Cl beam on a three layer target,
// a four foil ToF-E telescope and a helium recoil profile. Every call
// returns a fresh copy.
func Config() *physics.Config {
	carbon := func(thickness float64) []physics.Layer {
		return []physics.Layer{{
			Name:      "carbon",
			Elements:  []physics.Element{{Symbol: "C", Amount: 1}},
			Thickness: thickness,
			Density:   2.25,
		}}
	}

	return &physics.Config{
		Target: &physics.Target{
			Name:  "TiN on SiO2",
			Angle: 70,
			Layers: []physics.Layer{
				{
					Name:      "TiN",
					Elements:  []physics.Element{{Symbol: "Ti", Amount: 0.5}, {Symbol: "N", Amount: 0.5}},
					Thickness: 25.5,
					Density:   5.22,
				},
				{
					Name:      "SiO2",
					Elements:  []physics.Element{{Symbol: "Si", Amount: 0.33}, {Symbol: "O", Isotope: 16, Amount: 0.67}},
					Thickness: 100,
					Density:   2.65,
				},
				{
					Name:      "Ti",
					Elements:  []physics.Element{{Symbol: "Ti", Amount: 1}},
					Thickness: 10,
					Density:   4.5,
				},
			},
		},
		Detector: &physics.Detector{
			Name:        "Default",
			Type:        "TOF",
			Angle:       41.12,
			VirtualSize: [2]float64{2, 5},
			TimingFoils: [2]int{1, 2},
			Foils: []physics.Foil{
				{Name: "Default", Type: physics.FoilCircular, Diameter: 7, Distance: 256, Layers: carbon(0.1)},
				{Name: "T1", Type: physics.FoilCircular, Diameter: 9, Distance: 319, Layers: carbon(13.3)},
				{Name: "T2", Type: physics.FoilCircular, Diameter: 18, Distance: 942, Layers: carbon(44.4)},
				{
					Name:     "Detector",
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
		},
		Beam: &physics.Beam{
			Ion:      physics.Element{Symbol: "Cl", Isotope: 35},
			Energy:   8.515,
			SpotSize: [2]float64{3, 5},
		},
		Run: &physics.Run{
			SimulationType:             physics.TypeERD,
			Mode:                       physics.ModeNarrow,
			NumberOfIons:               1000,
			NumberOfPreIons:            100,
			NumberOfScalingIons:        14,
			NumberOfRecoils:            15,
			MinimumScatteringAngle:     5.5,
			MinimumMainScatteringAngle: 6.5,
			MinimumEnergy:              8.15,
		},
		Recoil: &physics.RecoilElement{
			Name:    "Default",
			Element: physics.Element{Symbol: "He"},
			Points: []physics.Point{
				{Depth: 0, Concentration: 0.12},
				{Depth: 35.5, Concentration: 0.12},
				{Depth: 35.51, Concentration: 0},
				{Depth: 100, Concentration: 0},
			},
		},
	}
}
