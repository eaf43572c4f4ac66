// Package physics describes an ERD or RBS measurement setup as MCERD sees
// it: the beam, the layered target, the detector with its foils, the run
// settings and the recoil element with its depth profile.
//
// The types carry yaml tags so a setup can be read straight from a
// simulation file. [Config.Validate] checks everything MCERD needs before
// any file is written:
//
//	cfg := &physics.Config{Beam: beam, Target: target, Detector: det, Run: run, Recoil: rec}
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
//
// Element masses fall back to standard atomic weights when no isotope is
// given; see [Element.Mass].
package physics
