//go:build !windows

package sim_test

import (
	"context"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
	"github.com/san-kum/mcerdsim/internal/platform"
	"github.com/san-kum/mcerdsim/internal/sim"
	"github.com/san-kum/mcerdsim/internal/simerr"
	"github.com/san-kum/mcerdsim/internal/testutil"
)

var _ = Describe("Batch", func() {
	var (
		dir  string
		jobs []sim.Job
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		jobs = nil
		for _, symbol := range []string{"He", "H"} {
			cfg := testutil.Config()
			cfg.Recoil.Element = physics.Element{Symbol: symbol}
			for seed := 101; seed < 103; seed++ {
				jobs = append(jobs, sim.Job{
					Identity: paths.NewIdentity(dir, "Default", "Default", symbol, seed, paths.ParentEmpty),
					Config:   cfg,
				})
			}
		}
	})

	controller := func(body string) *sim.Controller {
		ctrl, err := sim.NewController(sim.Options{
			Executable: testutil.FakeMCERD(GinkgoT(), GinkgoT().TempDir(), body),
			Platform:   platform.Detect(),
		})
		Expect(err).NotTo(HaveOccurred())
		return ctrl
	}

	It("runs every job and reports each state change", func() {
		b := sim.NewBatch(controller(testutil.Completing), jobs, 2)

		var mu sync.Mutex
		final := map[int]sim.State{}
		b.OnEvent(func(ev sim.Event) {
			mu.Lock()
			defer mu.Unlock()
			if ev.State.Final() {
				final[ev.Index] = ev.State
			}
		})

		results, err := b.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		for i, r := range results {
			Expect(r.Err).NotTo(HaveOccurred())
			Expect(r.RunID).NotTo(BeEmpty())
			Expect(r.Job).To(Equal(jobs[i]))
			Expect(final[i]).To(Equal(sim.StateCompleted))
		}

		for _, name := range []string{"He-Default.101.erd", "He-Default.102.erd", "H-Default.101.erd", "H-Default.102.erd"} {
			Expect(filepath.Join(dir, name)).To(BeARegularFile())
		}
		Expect(filepath.Join(dir, "-Default.erd_target")).To(BeARegularFile())
	})

	It("keeps going when single runs fail", func() {
		b := sim.NewBatch(controller(`case "$cmd" in *H-Default) exit 2;; esac
`+testutil.Completing), jobs, 0)

		results, err := b.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Err).NotTo(HaveOccurred())
		Expect(results[2].Err).To(MatchError(simerr.ErrRunFailure))
		Expect(results[3].Result.ExitCode).To(Equal(2))
	})

	It("aborts when a job cannot be started", func() {
		jobs[0].Config = &physics.Config{}
		b := sim.NewBatch(controller(testutil.Completing), jobs, 1)

		results, err := b.Run(context.Background())
		Expect(err).To(MatchError(simerr.ErrConfiguration))
		Expect(results[0].Err).To(MatchError(simerr.ErrConfiguration))
		for _, r := range results[1:] {
			Expect(r.RunID).To(BeEmpty())
			Expect(r.Err).To(MatchError(context.Canceled))
		}
	})

	It("stops when its context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		b := sim.NewBatch(controller(`sleep 30`), jobs, 4)
		b.OnEvent(func(ev sim.Event) {
			if ev.State == sim.StateRunning && ev.Index == 3 {
				cancel()
			}
		})

		results, err := b.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		for _, r := range results {
			Expect(r.Err).To(HaveOccurred())
		}
	})
})
