// Package platform builds the shell command that starts MCERD on each
// supported operating system.
package platform

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/san-kum/mcerdsim/internal/simerr"
)

type Platform int

const (
	Unsupported Platform = iota
	Windows
	Linux
	Darwin
)

func (p Platform) String() string {
	switch p {
	case Windows:
		return "Windows"
	case Linux:
		return "Linux"
	case Darwin:
		return "Darwin"
	default:
		return "Unsupported"
	}
}

// Detect maps the running OS to a Platform.
func Detect() Platform {
	return fromGOOS(runtime.GOOS)
}

func fromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "linux":
		return Linux
	case "darwin":
		return Darwin
	default:
		return Unsupported
	}
}

// Parse accepts the names returned by String as well as GOOS values,
// case-insensitively. Anything else is Unsupported.
func Parse(s string) Platform {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows":
		return Windows
	case "linux":
		return Linux
	case "darwin", "macos":
		return Darwin
	default:
		return Unsupported
	}
}

// StackLimitKB is the stack size ulimit MCERD is started with on unix.
const StackLimitKB = 64000

// CommandSpec is the input of BuildCommand.
type CommandSpec struct {
	Executable  string
	CommandFile string
	Platform    Platform
}

// Build is BuildCommand applied to s.
func (s CommandSpec) Build() (string, error) {
	return BuildCommand(s.Executable, s.CommandFile, s.Platform)
}

// BuildCommand returns the shell command line that runs executable on
// commandFile. On unix the stack limit is raised first and the shell is
// replaced by MCERD so signals reach it directly.
func BuildCommand(executable, commandFile string, p Platform) (string, error) {
	switch p {
	case Windows:
		return executable + ".exe " + commandFile, nil
	case Linux, Darwin:
		return "ulimit -s " + strconv.Itoa(StackLimitKB) + "; exec " + executable + " " + commandFile, nil
	case Unsupported:
		return "", &simerr.UnsupportedPlatformError{Tag: p.String()}
	}
	return "", &simerr.UnsupportedPlatformError{Tag: p.String()}
}

// ExecutablePath is the file that must exist for the command to run.
func ExecutablePath(executable string, p Platform) string {
	if p == Windows {
		return executable + ".exe"
	}
	return executable
}
