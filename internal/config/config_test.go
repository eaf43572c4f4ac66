package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/mcerdsim/internal/physics"
	"github.com/san-kum/mcerdsim/internal/simerr"
)

const simulationYAML = `
name: Default
directory: runs
seed: 7
seeds: 2
prefix_rule: empty
beam:
  ion: {symbol: Cl, isotope: 35}
  energy: 8.515
  spot_size: [3, 5]
run:
  number_of_ions: 5000
recoils:
  - name: Default
    element: {symbol: He}
    points: [{depth: 0, concentration: 0.12}, {depth: 35.5, concentration: 0.12}]
  - name: Default
    element: {symbol: H}
    points: [{depth: 0, concentration: 0.05}]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Name != DefaultName {
		t.Errorf("expected name %s, got %s", DefaultName, cfg.Name)
	}
	if cfg.Seeds != 1 {
		t.Errorf("expected one seed, got %d", cfg.Seeds)
	}
	if cfg.Physics.Run == nil || cfg.Physics.Run.SimulationType != physics.TypeERD {
		t.Error("default run should be ERD")
	}
	if cfg.Physics.Run.Mode != physics.ModeNarrow {
		t.Errorf("expected narrow mode, got %s", cfg.Physics.Run.Mode)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sim.yaml", simulationYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Directory != filepath.Join(dir, "runs") {
		t.Errorf("directory = %q, want it resolved next to the file", cfg.Directory)
	}
	if cfg.Seed != 7 || cfg.Seeds != 2 {
		t.Errorf("seed/seeds = %d/%d", cfg.Seed, cfg.Seeds)
	}
	if cfg.Physics.Beam == nil || cfg.Physics.Beam.Ion.Prefix() != "35Cl" {
		t.Fatalf("beam not loaded: %+v", cfg.Physics.Beam)
	}
	// a partial run section keeps the remaining defaults
	if cfg.Physics.Run.NumberOfIons != 5000 {
		t.Errorf("ions = %d", cfg.Physics.Run.NumberOfIons)
	}
	if cfg.Physics.Run.NumberOfPreIons != DefaultPreIons {
		t.Errorf("preions = %d, want default %d", cfg.Physics.Run.NumberOfPreIons, DefaultPreIons)
	}
	if cfg.Executable != DefaultExecutable {
		t.Errorf("executable = %q", cfg.Executable)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := writeFile(t, dir, "bad.yaml", "name: [unterminated")
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Directory = dir
	cfg.ApplyPreset(GetPreset(PresetDetector, "jyfl-tof"))

	path := filepath.Join(dir, "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Physics.Detector == nil || len(got.Physics.Detector.Foils) != 4 {
		t.Fatalf("detector lost in round trip: %+v", got.Physics.Detector)
	}
	if got.Physics.Detector.Foils[3].Size != [2]float64{18, 18} {
		t.Errorf("foil size = %v", got.Physics.Detector.Foils[3].Size)
	}
}

func TestValidate(t *testing.T) {
	recoil := &physics.RecoilElement{Name: "Default", Element: physics.Element{Symbol: "He"}}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"ok", func(*Config) {}, ""},
		{"no name", func(c *Config) { c.Name = "" }, "name"},
		{"no executable", func(c *Config) { c.Executable = "" }, "executable"},
		{"negative seed", func(c *Config) { c.Seed = -1 }, "seed"},
		{"zero seeds", func(c *Config) { c.Seeds = 0 }, "seeds"},
		{"negative parallel", func(c *Config) { c.MaxParallel = -2 }, "max_parallel"},
		{"bad prefix rule", func(c *Config) { c.PrefixRule = "sideways" }, "prefix_rule"},
		{"no recoil", func(c *Config) { c.Physics.Recoil = nil }, "recoil"},
		{"no directory", func(c *Config) { c.Directory = "" }, "directory"},
		{"same element stem twice", func(c *Config) {
			c.Recoils = []physics.RecoilElement{*recoil, *recoil}
		}, "recoils"},
		{"same element with own names", func(c *Config) {
			surface, bulk := *recoil, *recoil
			surface.Name, bulk.Name = "surface", "bulk"
			c.Recoils = []physics.RecoilElement{surface, bulk}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Directory = "/data/sim"
			cfg.Physics.Recoil = recoil
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ce *simerr.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestRuns(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(writeFile(t, dir, "sim.yaml", simulationYAML))
	if err != nil {
		t.Fatal(err)
	}

	runs, err := cfg.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 4 {
		t.Fatalf("expected 2 recoils x 2 seeds, got %d runs", len(runs))
	}

	want := []struct {
		stem string
		seed int
	}{
		{"He-Default", 7}, {"He-Default", 8}, {"H-Default", 7}, {"H-Default", 8},
	}
	for i, w := range want {
		id := runs[i].Identity
		if id.ElementStem() != w.stem || id.Seed != w.seed {
			t.Errorf("run %d = %s seed %d, want %s seed %d", i, id.ElementStem(), id.Seed, w.stem, w.seed)
		}
		if id.ParentStem() != "-Default" {
			t.Errorf("run %d parent stem = %q", i, id.ParentStem())
		}
		if runs[i].Physics.Recoil.Prefix() != id.ElementPrefix {
			t.Errorf("run %d recoil %s does not match identity %s", i, runs[i].Physics.Recoil.Prefix(), id.ElementPrefix)
		}
	}
	if runs[0].Physics.Beam != cfg.Physics.Beam {
		t.Error("runs should share the beam section")
	}
}

func TestRunsWithSingleRecoil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Directory = t.TempDir()
	cfg.PrefixRule = "element"
	cfg.Physics.Recoil = &physics.RecoilElement{Name: "Default", Element: physics.Element{Symbol: "He", Isotope: 4}}

	runs, err := cfg.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	if got := runs[0].Identity.ParentStem(); got != "4He-Default" {
		t.Errorf("parent stem = %q", got)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset(PresetBeam, "cl35-8.5")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Physics.Beam.Energy != 8.515 {
		t.Errorf("expected energy 8.515, got %f", cfg.Physics.Beam.Energy)
	}
	if cfg.Physics.Detector != nil || cfg.Physics.Target != nil {
		t.Error("beam preset should only set the beam")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset(PresetBeam, "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "quick") != nil {
		t.Error("expected nil for nonexistent kind")
	}
}

func TestListPresets(t *testing.T) {
	for _, kind := range PresetKinds() {
		names := ListPresets(kind)
		if len(names) == 0 {
			t.Errorf("expected presets for %s", kind)
		}
		for i := 1; i < len(names); i++ {
			if names[i-1] > names[i] {
				t.Errorf("%s presets not sorted: %v", kind, names)
			}
		}
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent kind")
	}
}

func TestApplyPresetCopies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyPreset(GetPreset(PresetRun, "quick"))
	cfg.Physics.Run.NumberOfIons = 1

	if GetPreset(PresetRun, "quick").Physics.Run.NumberOfIons != 10000 {
		t.Error("editing the applied section changed the preset")
	}

	cfg.ApplyPreset(nil)
	if cfg.Physics.Run.NumberOfIons != 1 {
		t.Error("nil preset changed the config")
	}
}

func TestDetectorPresetsValidate(t *testing.T) {
	for _, name := range ListPresets(PresetDetector) {
		d := GetPreset(PresetDetector, name).Physics.Detector
		if got := d.ToFLength(); got != 0.623 {
			t.Errorf("%s: ToF length = %v, want 0.623", name, got)
		}
	}
}

func TestRunsKeepSameElementRecoilsApart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Directory = t.TempDir()
	cfg.Recoils = []physics.RecoilElement{
		{Name: "surface", Element: physics.Element{Symbol: "H"}},
		{Name: "bulk", Element: physics.Element{Symbol: "H"}},
	}

	runs, err := cfg.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	a, b := runs[0].Identity, runs[1].Identity
	if a.ElementStem() != "H-surface" || b.ElementStem() != "H-bulk" {
		t.Errorf("stems = %s, %s", a.ElementStem(), b.ElementStem())
	}
	if a.Key() == b.Key() {
		t.Errorf("runs share key %s", a.Key())
	}
	if a.ParentStem() != b.ParentStem() {
		t.Errorf("shared files differ: %s, %s", a.ParentStem(), b.ParentStem())
	}
}
