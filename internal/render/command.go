package render

import (
	"fmt"
	"strconv"

	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
)

func command(cfg *physics.Config, p paths.Paths, seed int) string {
	run := cfg.Run
	return join([]string{
		"Type of simulation: " + run.SimulationType,
		"Beam ion: " + cfg.Beam.Ion.Prefix(),
		"Beam energy: " + num(cfg.Beam.Energy) + " MeV",
		"Target description file: " + p.Target,
		"Detector description file: " + p.Detector,
		"Recoiling atom: " + cfg.Recoil.Prefix(),
		"Recoiling material distribution: " + p.Recoil,
		"Target angle: " + num(cfg.Target.Angle) + " deg",
		fmt.Sprintf("Beam spot size: %0.1f %0.1f mm", cfg.Beam.SpotSize[0], cfg.Beam.SpotSize[1]),
		"Minimum angle of scattering: " + num(run.MinimumScatteringAngle) + " deg",
		"Minimum main scattering angle: " + num(run.MinimumMainScatteringAngle) + " deg",
		"Minimum energy of ions: " + num(run.MinimumEnergy) + " MeV",
		"Average number of recoils per primary ion: " + strconv.Itoa(run.NumberOfRecoils),
		"Recoil angle width (wide or narrow): " + run.Mode,
		"Presimulation * result file: " + p.Presimulation,
		"Number of real ions per each scaling ion: " + strconv.Itoa(run.NumberOfScalingIons),
		"Number of ions: " + strconv.Itoa(run.NumberOfIons),
		"Number of ions in the presimulation: " + strconv.Itoa(run.NumberOfPreIons),
		"Seed number of the random number generator: " + strconv.Itoa(seed),
	})
}
