// Package paths derives the MCERD file family of a simulation run from its
// identity.
//
// Files specific to one recoil element and seed (command, recoil, result)
// are named after the element stem. Files shared by every recoil element of
// one target and detector setup (target, detector, foils, presimulation)
// are named after the parent stem, so sibling runs reuse them.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/mcerdsim/internal/simerr"
)

const (
	ExtRecoil        = ".recoil"
	ExtResult        = ".erd"
	ExtTarget        = ".erd_target"
	ExtDetector      = ".erd_detector"
	ExtFoils         = ".foils"
	ExtPresimulation = ".pre"
)

// Identity names one simulation run. Name is the simulation name; the
// recoil element's own name goes into RecoilName and defaults to Name.
type Identity struct {
	Name          string
	RecoilName    string
	ElementPrefix string
	ParentPrefix  string
	Seed          int
	Directory     string
}

func (id Identity) recoilName() string {
	if id.RecoilName != "" {
		return id.RecoilName
	}
	return id.Name
}

// ElementStem is the base name of the per-element files: the element prefix
// and the recoil element name, e.g. "He-Default".
func (id Identity) ElementStem() string { return id.ElementPrefix + "-" + id.recoilName() }

// ParentStem is the base name of the shared files, e.g. "-Default" when
// the parent prefix is empty.
func (id Identity) ParentStem() string { return id.ParentPrefix + "-" + id.Name }

// Key identifies the run among its siblings in the same directory.
func (id Identity) Key() string {
	return filepath.Join(id.Directory, id.ElementStem()) + "#" + strconv.Itoa(id.Seed)
}

func (id Identity) String() string {
	return fmt.Sprintf("%s (seed %d)", id.ElementStem(), id.Seed)
}

// Paths is the resolved file family of one run.
type Paths struct {
	Command       string `json:"command"`
	Recoil        string `json:"recoil"`
	Result        string `json:"result"`
	Target        string `json:"target"`
	Detector      string `json:"detector"`
	Foils         string `json:"foils"`
	Presimulation string `json:"presimulation"`
}

// Resolve derives every file path of the run. The directory must be an
// absolute path to an existing directory; callers create it beforehand.
func Resolve(id Identity) (Paths, error) {
	if id.Directory == "" {
		return Paths{}, simerr.Config("directory", "is required")
	}
	if !filepath.IsAbs(id.Directory) {
		return Paths{}, simerr.Config("directory", "%q is not absolute", id.Directory)
	}
	info, err := os.Stat(id.Directory)
	if err != nil {
		return Paths{}, simerr.Config("directory", "%v", err)
	}
	if !info.IsDir() {
		return Paths{}, simerr.Config("directory", "%q is not a directory", id.Directory)
	}
	if id.Seed < 0 {
		return Paths{}, simerr.Config("seed", "must not be negative")
	}
	return Derive(id), nil
}

// Derive builds the paths without touching the file system.
func Derive(id Identity) Paths {
	elem := filepath.Join(id.Directory, id.ElementStem())
	parent := filepath.Join(id.Directory, id.ParentStem())
	return Paths{
		Command:       elem,
		Recoil:        elem + ExtRecoil,
		Result:        elem + "." + strconv.Itoa(id.Seed) + ExtResult,
		Target:        parent + ExtTarget,
		Detector:      parent + ExtDetector,
		Foils:         parent + ExtFoils,
		Presimulation: parent + ExtPresimulation,
	}
}

// Shared lists the files sibling runs have in common.
func (p Paths) Shared() []string {
	return []string{p.Target, p.Detector, p.Foils}
}

// Files lists every file of the run, inputs first and the result last.
func (p Paths) Files() []string {
	return []string{p.Command, p.Recoil, p.Target, p.Detector, p.Foils, p.Presimulation, p.Result}
}
