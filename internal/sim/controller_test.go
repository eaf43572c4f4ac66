//go:build !windows

package sim_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
	"github.com/san-kum/mcerdsim/internal/platform"
	"github.com/san-kum/mcerdsim/internal/process"
	"github.com/san-kum/mcerdsim/internal/sim"
	"github.com/san-kum/mcerdsim/internal/simerr"
	"github.com/san-kum/mcerdsim/internal/storage"
	"github.com/san-kum/mcerdsim/internal/testutil"
)

var _ = Describe("Controller", func() {
	var (
		dir     string
		binDir  string
		ledger  *storage.Store
		clock   time.Time
		id      paths.Identity
		cfg     *physics.Config
		newCtrl func(exe string, p platform.Platform) *sim.Controller
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		binDir = GinkgoT().TempDir()
		ledger = storage.New(filepath.Join(GinkgoT().TempDir(), "runs"))
		clock = time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
		id = paths.Identity{Name: "Default", ElementPrefix: "He", Seed: 101, Directory: dir}
		cfg = testutil.Config()

		newCtrl = func(exe string, p platform.Platform) *sim.Controller {
			ctrl, err := sim.NewController(sim.Options{
				Executable: exe,
				Platform:   p,
				Ledger:     ledger,
				Runner:     process.NewShellRunner(nil),
				Now:        func() time.Time { return clock },
			})
			Expect(err).NotTo(HaveOccurred())
			return ctrl
		}
	})

	listDir := func() []string {
		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return names
	}

	Context("when MCERD completes", func() {
		It("writes the file family, runs the binary and records the run", func() {
			ctrl := newCtrl(testutil.FakeMCERD(GinkgoT(), binDir, testutil.Completing), platform.Detect())

			h, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(h.ID).NotTo(BeEmpty())
			Expect(h.Paths.Result).To(Equal(filepath.Join(dir, "He-Default.101.erd")))
			Expect(h.Command).To(HavePrefix("ulimit -s 64000; exec "))

			res, err := h.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ExitCode).To(Equal(0))
			Expect(h.Result()).To(BeIdenticalTo(res))

			Expect(listDir()).To(ConsistOf(
				"He-Default",
				"He-Default.recoil",
				"He-Default.101.erd",
				"-Default.erd_target",
				"-Default.erd_detector",
				"-Default.foils",
				"-Default.pre",
			))

			command, err := os.ReadFile(h.Paths.Command)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(command)).To(HaveSuffix("Seed number of the random number generator: 101"))
			Expect(string(command)).To(ContainSubstring("Target description file: " + h.Paths.Target))

			meta, err := ledger.Load(h.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Status).To(Equal(storage.StatusCompleted))
			Expect(meta.StartedAt).To(BeTemporally("==", clock))
			Expect(meta.Paths).To(Equal(h.Paths))
			Expect(ctrl.Running().Len()).To(Equal(0))
		})

		It("leaves unchanged shared files in place for sibling runs", func() {
			ctrl := newCtrl(testutil.FakeMCERD(GinkgoT(), binDir, testutil.Completing), platform.Detect())

			h, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = h.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			before, err := os.Stat(h.Paths.Target)
			Expect(err).NotTo(HaveOccurred())

			sibling := id
			sibling.Seed = 102
			h2, err := ctrl.StartRun(context.Background(), sibling, cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = h2.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())

			after, err := os.Stat(h2.Paths.Target)
			Expect(err).NotTo(HaveOccurred())
			Expect(os.SameFile(before, after)).To(BeTrue(), "target file was rewritten")
			Expect(filepath.Join(dir, "He-Default.102.erd")).To(BeARegularFile())
		})

		It("restores a shared file changed behind its back", func() {
			ctrl := newCtrl(testutil.FakeMCERD(GinkgoT(), binDir, testutil.Completing), platform.Detect())

			h, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = h.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			want, err := os.ReadFile(h.Paths.Foils)
			Expect(err).NotTo(HaveOccurred())

			Expect(os.WriteFile(h.Paths.Foils, []byte("garbage, and longer than before "+string(want)), 0o644)).To(Succeed())

			h, err = ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = h.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(os.ReadFile(h.Paths.Foils)).To(Equal(want))
		})

		It("streams standard output when asked to", func() {
			var mu sync.Mutex
			var out strings.Builder
			ctrl, err := sim.NewController(sim.Options{
				Executable: testutil.FakeMCERD(GinkgoT(), binDir, testutil.Completing),
				Platform:   platform.Detect(),
				Stdout: func(paths.Identity) io.Writer {
					return writerFunc(func(p []byte) (int, error) {
						mu.Lock()
						defer mu.Unlock()
						return out.Write(p)
					})
				},
			})
			Expect(err).NotTo(HaveOccurred())

			h, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = h.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())

			mu.Lock()
			defer mu.Unlock()
			Expect(out.String()).To(ContainSubstring("Calculated all ions"))
		})
	})

	Context("when MCERD fails", func() {
		It("reports the exit code and stderr as a RunFailure", func() {
			exe := testutil.FakeMCERD(GinkgoT(), binDir, `echo "cannot open $cmd.foils" >&2; exit 4`)
			ctrl := newCtrl(exe, platform.Detect())

			h, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := h.Wait(context.Background())
			Expect(err).To(MatchError(simerr.ErrRunFailure))
			var rf *simerr.RunFailure
			Expect(err).To(BeAssignableToTypeOf(rf))
			Expect(res.ExitCode).To(Equal(4))
			Expect(res.Stderr).To(ContainSubstring("cannot open"))

			meta, err := ledger.Load(h.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Status).To(Equal(storage.StatusFailed))
			Expect(meta.ExitCode).To(Equal(4))
		})
	})

	Context("when the run is cancelled", func() {
		It("kills MCERD and marks the partial result incomplete", func() {
			exe := testutil.FakeMCERD(GinkgoT(), binDir, `echo partial > "$result"; sleep 30; echo late >> "$result"`)
			ctrl := newCtrl(exe, platform.Detect())

			h, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())
			Eventually(h.Paths.Result, 5*time.Second).Should(BeARegularFile())
			Expect(h.Result()).To(BeNil())

			h.Cancel()
			Eventually(h.Done(), 10*time.Second).Should(BeClosed())

			res, err := h.Wait(context.Background())
			Expect(err).To(MatchError(simerr.ErrCancelled))
			Expect(err).NotTo(MatchError(simerr.ErrRunFailure))
			Expect(res.Err).To(MatchError(simerr.ErrCancelled))

			Expect(h.Paths.Result).NotTo(BeAnExistingFile())
			Expect(h.Incomplete).To(Equal(h.Paths.Result + sim.IncompleteSuffix))
			Expect(os.ReadFile(h.Incomplete)).To(Equal([]byte("partial\n")))

			meta, err := ledger.Load(h.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Status).To(Equal(storage.StatusCancelled))
		})

		It("cancels through the context passed to StartRun", func() {
			exe := testutil.FakeMCERD(GinkgoT(), binDir, `sleep 30`)
			ctrl := newCtrl(exe, platform.Detect())

			ctx, cancel := context.WithCancel(context.Background())
			h, err := ctrl.StartRun(ctx, id, cfg)
			Expect(err).NotTo(HaveOccurred())
			cancel()

			Eventually(h.Done(), 10*time.Second).Should(BeClosed())
			_, err = h.Wait(context.Background())
			Expect(err).To(MatchError(simerr.ErrCancelled))
		})

		It("lets Wait give up without cancelling the run", func() {
			exe := testutil.FakeMCERD(GinkgoT(), binDir, `sleep 1; `+testutil.Completing)
			ctrl := newCtrl(exe, platform.Detect())

			h, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err = h.Wait(ctx)
			Expect(err).To(MatchError(context.DeadlineExceeded))

			_, err = h.Wait(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("when the run cannot start", func() {
		It("rejects an unsupported platform before writing anything", func() {
			ctrl := newCtrl(testutil.FakeMCERD(GinkgoT(), binDir, testutil.Completing), platform.Unsupported)

			_, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).To(MatchError(simerr.ErrUnsupportedPlatform))
			Expect(listDir()).To(BeEmpty())
		})

		It("rejects an incomplete configuration before writing anything", func() {
			ctrl := newCtrl(testutil.FakeMCERD(GinkgoT(), binDir, testutil.Completing), platform.Detect())
			cfg.Detector = nil

			_, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).To(MatchError(simerr.ErrConfiguration))
			Expect(listDir()).To(BeEmpty())
		})

		It("rejects a directory that does not exist", func() {
			ctrl := newCtrl(testutil.FakeMCERD(GinkgoT(), binDir, testutil.Completing), platform.Detect())
			id.Directory = filepath.Join(dir, "missing")

			_, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).To(MatchError(simerr.ErrConfiguration))
		})

		It("reports a missing binary as a spawn error", func() {
			ctrl := newCtrl(filepath.Join(binDir, "no-such-mcerd"), platform.Detect())

			_, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).To(MatchError(simerr.ErrSpawn))
			var se *simerr.SpawnError
			Expect(err).To(BeAssignableToTypeOf(se))
			Expect(ctrl.Running().Len()).To(Equal(0))
		})

		It("refuses a second run of an identity that is still running", func() {
			ctrl := newCtrl(testutil.FakeMCERD(GinkgoT(), binDir, `sleep 30`), platform.Detect())

			h, err := ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() {
				h.Cancel()
				<-h.Done()
			})

			_, err = ctrl.StartRun(context.Background(), id, cfg)
			Expect(err).To(MatchError(sim.ErrDuplicateRun))
			Expect(ctrl.Running().Keys()).To(Equal([]string{id.Key()}))
		})
	})
})

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
