package platform

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/mcerdsim/internal/simerr"
)

func TestBuildCommand(t *testing.T) {
	bin := filepath.Join("external", "Potku-bin", "mcerd")
	file := filepath.Join(t.TempDir(), "He-Default")

	tests := []struct {
		platform Platform
		want     string
	}{
		{Windows, bin + ".exe " + file},
		{Linux, "ulimit -s 64000; exec " + bin + " " + file},
		{Darwin, "ulimit -s 64000; exec " + bin + " " + file},
	}
	for _, tt := range tests {
		got, err := BuildCommand(bin, file, tt.platform)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.platform, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.platform, tt.want, got)
		}
	}
}

func TestBuildCommandLiteral(t *testing.T) {
	got, _ := BuildCommand("external/Potku-bin/mcerd", "/tmp/He-Default", Windows)
	if got != "external/Potku-bin/mcerd.exe /tmp/He-Default" {
		t.Errorf("unexpected windows command %q", got)
	}
	got, _ = CommandSpec{Executable: "external/Potku-bin/mcerd", CommandFile: "/tmp/He-Default", Platform: Linux}.Build()
	if got != "ulimit -s 64000; exec external/Potku-bin/mcerd /tmp/He-Default" {
		t.Errorf("unexpected linux command %q", got)
	}
}

func TestBuildCommandUnsupported(t *testing.T) {
	got, err := BuildCommand("mcerd", "cmd", Unsupported)
	if got != "" {
		t.Errorf("expected empty command, got %q", got)
	}
	if !errors.Is(err, simerr.ErrUnsupportedPlatform) {
		t.Errorf("expected unsupported platform error, got %v", err)
	}
	if _, err := BuildCommand("mcerd", "cmd", Platform(42)); !errors.Is(err, simerr.ErrUnsupportedPlatform) {
		t.Errorf("expected unsupported platform error for unknown tag, got %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Platform
	}{
		{"Windows", Windows},
		{"linux", Linux},
		{"Darwin", Darwin},
		{" macos ", Darwin},
		{"freebsd", Unsupported},
		{"", Unsupported},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
	if fromGOOS("plan9") != Unsupported || fromGOOS("darwin") != Darwin {
		t.Error("unexpected GOOS mapping")
	}
}

func TestExecutablePath(t *testing.T) {
	if ExecutablePath("bin/mcerd", Windows) != "bin/mcerd.exe" {
		t.Error("expected .exe suffix on windows")
	}
	if ExecutablePath("bin/mcerd", Linux) != "bin/mcerd" {
		t.Error("expected bare path on linux")
	}
}
