package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
	"github.com/san-kum/mcerdsim/internal/simerr"
)

const (
	DefaultName       = "Default"
	DefaultExecutable = "external/Potku-bin/mcerd"
	DefaultSeed       = 101
	DefaultPrefixRule = "empty"

	DefaultIons         = 1000000
	DefaultPreIons      = 100000
	DefaultScalingIons  = 5
	DefaultRecoils      = 10
	DefaultMinAngle     = 0.05
	DefaultMinMainAngle = 20.0
	DefaultMinEnergy    = 1.0
)

// Config is a simulation file: where and how to run MCERD plus the physics
// setup. Recoils lists extra recoil elements for batch runs; when empty the
// single recoil of the physics setup is used.
type Config struct {
	Name        string `yaml:"name"`
	Directory   string `yaml:"directory"`
	Executable  string `yaml:"executable"`
	Platform    string `yaml:"platform,omitempty"`
	Seed        int    `yaml:"seed"`
	Seeds       int    `yaml:"seeds"`
	PrefixRule  string `yaml:"prefix_rule"`
	MaxParallel int    `yaml:"max_parallel,omitempty"`

	Physics physics.Config          `yaml:",inline"`
	Recoils []physics.RecoilElement `yaml:"recoils,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       DefaultName,
		Executable: DefaultExecutable,
		Seed:       DefaultSeed,
		Seeds:      1,
		PrefixRule: DefaultPrefixRule,
		Physics: physics.Config{
			Run: &physics.Run{
				SimulationType:             physics.TypeERD,
				Mode:                       physics.ModeNarrow,
				NumberOfIons:               DefaultIons,
				NumberOfPreIons:            DefaultPreIons,
				NumberOfScalingIons:        DefaultScalingIons,
				NumberOfRecoils:            DefaultRecoils,
				MinimumScatteringAngle:     DefaultMinAngle,
				MinimumMainScatteringAngle: DefaultMinMainAngle,
				MinimumEnergy:              DefaultMinEnergy,
			},
		},
	}
}

// Load reads a simulation file over the defaults. A relative directory is
// taken relative to the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Directory != "" && !filepath.IsAbs(cfg.Directory) {
		base, err := filepath.Abs(filepath.Dir(path))
		if err != nil {
			return nil, err
		}
		cfg.Directory = filepath.Join(base, cfg.Directory)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the run settings. The physics setup is validated when
// its files are rendered.
func (c *Config) Validate() error {
	if c.Name == "" {
		return simerr.Config("name", "is required")
	}
	if c.Directory == "" {
		return simerr.Config("directory", "is required")
	}
	if c.Executable == "" {
		return simerr.Config("executable", "is required")
	}
	if c.Seed < 0 {
		return simerr.Config("seed", "must not be negative")
	}
	if c.Seeds < 1 {
		return simerr.Config("seeds", "must be at least 1")
	}
	if c.MaxParallel < 0 {
		return simerr.Config("max_parallel", "must not be negative")
	}
	if _, err := paths.ParseRule(c.PrefixRule); err != nil {
		return simerr.Config("prefix_rule", "%v", err)
	}
	recoils := c.RecoilElements()
	if len(recoils) == 0 {
		return simerr.Config("recoil", "is required")
	}
	seen := make(map[string]bool, len(recoils))
	for _, r := range recoils {
		stem := paths.NewIdentity(c.Directory, c.Name, r.Name, r.Prefix(), c.Seed, nil).ElementStem()
		if seen[stem] {
			return simerr.Config("recoils", "%s appears more than once; give each recoil element its own name", stem)
		}
		seen[stem] = true
	}
	return nil
}

// RecoilElements is the list of recoil elements a batch iterates over.
func (c *Config) RecoilElements() []physics.RecoilElement {
	if len(c.Recoils) > 0 {
		return c.Recoils
	}
	if c.Physics.Recoil != nil {
		return []physics.RecoilElement{*c.Physics.Recoil}
	}
	return nil
}

// RunSpec is one recoil element at one seed.
type RunSpec struct {
	Identity paths.Identity
	Physics  *physics.Config
}

// Runs expands the file into every recoil element times every seed, in
// that order. Seeds count up from Seed.
func (c *Config) Runs() ([]RunSpec, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rule, _ := paths.ParseRule(c.PrefixRule)

	recoils := c.RecoilElements()
	runs := make([]RunSpec, 0, len(recoils)*c.Seeds)
	for i := range recoils {
		phys := c.Physics
		phys.Recoil = &recoils[i]
		for s := 0; s < c.Seeds; s++ {
			runs = append(runs, RunSpec{
				Identity: paths.NewIdentity(c.Directory, c.Name, recoils[i].Name, recoils[i].Prefix(), c.Seed+s, rule),
				Physics:  &phys,
			})
		}
	}
	return runs, nil
}
