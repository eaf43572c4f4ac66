package physics

import (
	"strconv"
)

// Element is a chemical element, optionally a specific isotope.
type Element struct {
	Symbol  string  `yaml:"symbol"`
	Isotope int     `yaml:"isotope,omitempty"`
	Amount  float64 `yaml:"amount,omitempty"`
}

// Prefix is the element name as MCERD spells it: "4He" for an isotope,
// "He" otherwise.
func (e Element) Prefix() string {
	if e.Isotope > 0 {
		return strconv.Itoa(e.Isotope) + e.Symbol
	}
	return e.Symbol
}

// Mass returns the isotope mass number when one is set and the standard
// atomic weight otherwise.
func (e Element) Mass() (float64, bool) {
	if e.Isotope > 0 {
		return float64(e.Isotope), true
	}
	m, ok := standardMasses[e.Symbol]
	return m, ok
}

type Layer struct {
	Name      string    `yaml:"name"`
	Elements  []Element `yaml:"elements"`
	Thickness float64   `yaml:"thickness"`
	Density   float64   `yaml:"density"`
}

type Target struct {
	Name   string  `yaml:"name"`
	Angle  float64 `yaml:"angle"`
	Layers []Layer `yaml:"layers"`
}

const (
	FoilCircular    = "circular"
	FoilRectangular = "rectangular"
)

type Foil struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Diameter float64    `yaml:"diameter,omitempty"`
	Size     [2]float64 `yaml:"size,omitempty"`
	Distance float64    `yaml:"distance"`
	Layers   []Layer    `yaml:"layers"`
}

type Detector struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Angle       float64    `yaml:"angle"`
	VirtualSize [2]float64 `yaml:"virtual_size"`
	TimingFoils [2]int     `yaml:"timing_foils"`
	Foils       []Foil     `yaml:"foils"`
}

// ToFLength is the flight distance between the two timing foils in metres.
func (d *Detector) ToFLength() float64 {
	first, second := d.TimingFoils[0], d.TimingFoils[1]
	if first < 0 || second < 0 || first >= len(d.Foils) || second >= len(d.Foils) {
		return 0
	}
	return (d.Foils[second].Distance - d.Foils[first].Distance) / 1000
}

type Beam struct {
	Ion      Element    `yaml:"ion"`
	Energy   float64    `yaml:"energy"`
	SpotSize [2]float64 `yaml:"spot_size"`
}

const (
	TypeERD = "ERD"
	TypeRBS = "RBS"

	ModeNarrow = "narrow"
	ModeWide   = "wide"
)

type Run struct {
	SimulationType             string  `yaml:"simulation_type"`
	Mode                       string  `yaml:"mode"`
	NumberOfIons               int     `yaml:"number_of_ions"`
	NumberOfPreIons            int     `yaml:"number_of_preions"`
	NumberOfScalingIons        int     `yaml:"number_of_scaling_ions"`
	NumberOfRecoils            int     `yaml:"number_of_recoils"`
	MinimumScatteringAngle     float64 `yaml:"minimum_scattering_angle"`
	MinimumMainScatteringAngle float64 `yaml:"minimum_main_scattering_angle"`
	MinimumEnergy              float64 `yaml:"minimum_energy"`
}

// Point is one sample of a recoil depth profile; depth in nm.
type Point struct {
	Depth         float64 `yaml:"depth"`
	Concentration float64 `yaml:"concentration"`
}

type RecoilElement struct {
	Name    string  `yaml:"name"`
	Element Element `yaml:"element"`
	Points  []Point `yaml:"points"`
}

func (r *RecoilElement) Prefix() string { return r.Element.Prefix() }

// Config is everything MCERD needs for one recoil element.
type Config struct {
	Target   *Target        `yaml:"target"`
	Detector *Detector      `yaml:"detector"`
	Beam     *Beam          `yaml:"beam"`
	Run      *Run           `yaml:"run"`
	Recoil   *RecoilElement `yaml:"recoil"`
}
