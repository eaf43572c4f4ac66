package testutil

import (
	"os"
	"path/filepath"
)

// TB is the part of testing.TB the helpers need; GinkgoT() satisfies it too.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

const fakePrelude = `#!/bin/sh
cmd="$1"
seed=$(sed -n 's/^Seed number of the random number generator: //p' "$cmd")
result="$cmd.$seed.erd"
`

// FakeMCERD writes an executable shell script standing in for MCERD into
// dir and returns its path. The script body sees the command file as $cmd,
// the seed read from it as $seed and the expected result file as $result.
func FakeMCERD(t TB, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "mcerd")
	if err := os.WriteFile(path, []byte(fakePrelude+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake mcerd: %v", err)
	}
	return path
}

// Completing simulates a successful run writing one line per ion.
const Completing = `printf '0.100 1.000\n0.200 2.000\n' > "$result"
echo "Calculated all ions"`
