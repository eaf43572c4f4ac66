// Package render produces the text of MCERD's input files.
//
// Every function is pure: the same configuration and paths always yield
// byte-identical output, and collection order (layers, foils, elements,
// profile points) is kept as given. Validation happens before any text is
// produced, so a failed render never yields partial content.
package render

import (
	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
)

type Kind string

const (
	KindCommand       Kind = "command"
	KindTarget        Kind = "target"
	KindDetector      Kind = "detector"
	KindFoils         Kind = "foils"
	KindRecoil        Kind = "recoil"
	KindPresimulation Kind = "presimulation"
)

// Kinds lists every file kind, shared files first.
var Kinds = []Kind{KindTarget, KindDetector, KindFoils, KindRecoil, KindPresimulation, KindCommand}

// Shared reports whether sibling recoil runs have the file in common.
func (k Kind) Shared() bool {
	return k == KindTarget || k == KindDetector || k == KindFoils
}

// Path picks the file of kind k from p. It is empty for an unknown kind.
func (k Kind) Path(p paths.Paths) string {
	switch k {
	case KindCommand:
		return p.Command
	case KindTarget:
		return p.Target
	case KindDetector:
		return p.Detector
	case KindFoils:
		return p.Foils
	case KindRecoil:
		return p.Recoil
	case KindPresimulation:
		return p.Presimulation
	}
	return ""
}

// FileSet maps each file kind to its rendered content.
type FileSet map[Kind]string

// All validates cfg and renders every file of one run.
func All(cfg *physics.Config, p paths.Paths, seed int) (FileSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return FileSet{
		KindCommand:       command(cfg, p, seed),
		KindTarget:        layers(cfg.Target.Layers),
		KindDetector:      detector(cfg.Detector, p),
		KindFoils:         foils(cfg.Detector),
		KindRecoil:        recoil(cfg.Recoil),
		KindPresimulation: "",
	}, nil
}

// Command renders the MCERD command file.
func Command(cfg *physics.Config, p paths.Paths, seed int) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return command(cfg, p, seed), nil
}

// Target renders the target description file.
func Target(cfg *physics.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return layers(cfg.Target.Layers), nil
}

// Detector renders the detector description file, which points MCERD at
// the foils file.
func Detector(cfg *physics.Config, p paths.Paths) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return detector(cfg.Detector, p), nil
}

// Foils renders the material description of the detector foils.
func Foils(cfg *physics.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return foils(cfg.Detector), nil
}

// Recoil renders the recoil depth distribution.
func Recoil(cfg *physics.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return recoil(cfg.Recoil), nil
}

// Presimulation is always empty: MCERD fills the file itself, and writing
// it empty discards a stale presimulation from an earlier run.
func Presimulation(cfg *physics.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return "", nil
}
