package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

const SimulationPrefix = "MC_simulation_"

var simulationFolderRE = regexp.MustCompile(`^MC_simulation_(\d\d)-(.*)$`)

// SimulationFolder picks the folder for a simulation under sampleDir.
// A name already of the form MC_simulation_NN-<plain> keeps its serial
// number; otherwise the next free serial after the existing folders is
// used. The plain name is returned alongside the folder.
func SimulationFolder(sampleDir, name string) (folder, plain string, serial int, err error) {
	if m := simulationFolderRE.FindStringSubmatch(name); m != nil {
		serial, _ = strconv.Atoi(m[1])
		plain = m[2]
	} else {
		plain = name
		serial, err = nextSerial(sampleDir)
		if err != nil {
			return "", "", 0, err
		}
	}
	if plain == "" {
		return "", "", 0, fmt.Errorf("simulation name is empty")
	}
	folder = filepath.Join(sampleDir, fmt.Sprintf("%s%02d-%s", SimulationPrefix, serial, plain))
	return folder, plain, serial, nil
}

func nextSerial(sampleDir string) (int, error) {
	entries, err := os.ReadDir(sampleDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 1, nil
		}
		return 0, err
	}
	highest := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := simulationFolderRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, _ := strconv.Atoi(m[1]); n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}
