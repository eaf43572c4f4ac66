package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/mcerdsim/internal/artifacts"
	"github.com/san-kum/mcerdsim/internal/config"
	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
	"github.com/san-kum/mcerdsim/internal/platform"
	"github.com/san-kum/mcerdsim/internal/process"
	"github.com/san-kum/mcerdsim/internal/render"
	"github.com/san-kum/mcerdsim/internal/sim"
	"github.com/san-kum/mcerdsim/internal/simerr"
	"github.com/san-kum/mcerdsim/internal/storage"
	"github.com/san-kum/mcerdsim/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	envFiles  []string

	presets      []string
	newPresets   []string
	executable   string
	platformName string
	seed         int
	seeds        int
	recoil       string

	parallel     int
	tui          bool
	stream       bool
	publishAfter bool

	csvOut  bool
	jsonOut bool
	width   int
	height  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mcerdsim",
		Short:         "run MCERD ion scattering simulations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mcerdsim", "run ledger directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default ./.env)")

	setupFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringSliceVar(&presets, "preset", nil, "apply preset kind/name (repeatable)")
		cmd.Flags().StringVar(&executable, "exe", "", "MCERD binary, without .exe")
		cmd.Flags().StringVar(&platformName, "platform", "", "override platform detection")
		cmd.Flags().IntVar(&seed, "seed", config.DefaultSeed, "first random seed")
		cmd.Flags().IntVar(&seeds, "seeds", 1, "number of seeds per recoil element")
		cmd.Flags().StringVar(&recoil, "recoil", "", "only the recoil element with this name or prefix")
	}

	runCmd := &cobra.Command{
		Use:   "run [simulation.yaml]",
		Short: "run one recoil element at one seed",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	setupFlags(runCmd)
	runCmd.Flags().BoolVar(&stream, "stream", false, "copy MCERD output to stdout")

	batchCmd := &cobra.Command{
		Use:   "batch [simulation.yaml]",
		Short: "run every recoil element and seed of a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	setupFlags(batchCmd)
	batchCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (default one per CPU)")
	batchCmd.Flags().BoolVar(&tui, "tui", false, "show a live monitor")
	batchCmd.Flags().BoolVar(&publishAfter, "publish", false, "upload finished runs to the object store")

	renderCmd := &cobra.Command{
		Use:   "render [simulation.yaml]",
		Short: "print the MCERD input files of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  renderFiles,
	}
	setupFlags(renderCmd)

	pathsCmd := &cobra.Command{
		Use:   "paths [simulation.yaml]",
		Short: "print the file family of every run",
		Args:  cobra.ExactArgs(1),
		RunE:  printPaths,
	}
	setupFlags(pathsCmd)
	pathsCmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().BoolVar(&csvOut, "csv", false, "print CSV")

	showCmd := &cobra.Command{
		Use:   "show [simulation.yaml]",
		Short: "summarize a simulation setup",
		Args:  cobra.ExactArgs(1),
		RunE:  showSetup,
	}
	setupFlags(showCmd)

	profileCmd := &cobra.Command{
		Use:   "profile [simulation.yaml]",
		Short: "plot recoil depth profiles",
		Args:  cobra.ExactArgs(1),
		RunE:  plotProfiles,
	}
	setupFlags(profileCmd)
	profileCmd.Flags().IntVar(&width, "width", 80, "plot width")
	profileCmd.Flags().IntVar(&height, "height", 12, "plot height")

	publishCmd := &cobra.Command{
		Use:   "publish [run_id]...",
		Short: "upload the files of recorded runs to the object store",
		Args:  cobra.MinimumNArgs(1),
		RunE:  publishRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [kind]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := config.PresetKinds()
			if len(args) > 0 {
				kinds = args
			}
			for _, kind := range kinds {
				names := config.ListPresets(kind)
				if len(names) == 0 {
					fmt.Printf("no presets for kind: %s\n", kind)
					continue
				}
				fmt.Printf("%s:\n", kind)
				for _, name := range names {
					fmt.Printf("  %s/%s\n", kind, name)
				}
			}
			return nil
		},
	}

	newCmd := &cobra.Command{
		Use:   "new [sample_dir] [name]",
		Short: "create a simulation folder with a starter simulation file",
		Args:  cobra.ExactArgs(2),
		RunE:  newSimulation,
	}
	newCmd.Flags().StringSliceVar(&newPresets, "preset", []string{"beam/cl35-8.5", "detector/jyfl-tof", "target/tin-sio2", "run/default"}, "apply preset kind/name (repeatable)")

	rootCmd.AddCommand(runCmd, batchCmd, renderCmd, pathsCmd, listCmd, showCmd, profileCmd, publishCmd, presetsCmd, newCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format: %s", format)
}

// parsePreset splits "kind/name".
func parsePreset(s string) (*config.Config, error) {
	kind, name, ok := strings.Cut(s, "/")
	if !ok {
		return nil, fmt.Errorf("preset %q: expected kind/name", s)
	}
	p := config.GetPreset(kind, name)
	if p == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", s, config.ListPresets(kind))
	}
	return p, nil
}

// loadSimulation reads a simulation file and layers presets, the
// environment and the command line flags over it, in that order.
func loadSimulation(cmd *cobra.Command, path string) (*config.Config, *config.Environment, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	env, err := config.FromEnv(envFiles...)
	if err != nil {
		return nil, nil, err
	}

	for _, s := range presets {
		p, err := parsePreset(s)
		if err != nil {
			return nil, nil, err
		}
		cfg.ApplyPreset(p)
	}
	env.Apply(cfg)

	flags := cmd.Flags()
	if flags.Changed("exe") {
		cfg.Executable = executable
	}
	if flags.Changed("platform") {
		cfg.Platform = platformName
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("seeds") {
		cfg.Seeds = seeds
	}
	if flags.Changed("parallel") {
		cfg.MaxParallel = parallel
	}
	return cfg, env, nil
}

// selectRuns expands cfg and keeps the runs of the recoil element named
// by filter, matched against its name or prefix.
func selectRuns(cfg *config.Config, filter string) ([]config.RunSpec, error) {
	runs, err := cfg.Runs()
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return runs, nil
	}
	var out []config.RunSpec
	for _, r := range runs {
		rec := r.Physics.Recoil
		if rec.Name == filter || rec.Prefix() == filter {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no recoil element matches %q", filter)
	}
	return out, nil
}

func resolvePlatform(cfg *config.Config) platform.Platform {
	if cfg.Platform != "" {
		return platform.Parse(cfg.Platform)
	}
	return platform.Detect()
}

func newController(cfg *config.Config, env *config.Environment, logger *slog.Logger, stdout io.Writer) (*sim.Controller, error) {
	ledger := storage.New(dataDir)
	if err := ledger.Init(); err != nil {
		return nil, err
	}

	runner := process.NewShellRunner(logger)
	if env.WaitDelay > 0 {
		runner.WaitDelay = env.WaitDelay
	}

	opts := sim.Options{
		Executable: cfg.Executable,
		Platform:   resolvePlatform(cfg),
		Runner:     runner,
		Ledger:     ledger,
		Logger:     logger,
	}
	if stdout != nil {
		opts.Stdout = func(paths.Identity) io.Writer { return stdout }
	}
	return sim.NewController(opts)
}

func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr, logLevel, logFormat)
	if err != nil {
		return err
	}
	cfg, env, err := loadSimulation(cmd, args[0])
	if err != nil {
		return err
	}
	runs, err := selectRuns(cfg, recoil)
	if err != nil {
		return err
	}
	first := runs[0]

	var stdout io.Writer
	if stream {
		stdout = os.Stdout
	}
	ctrl, err := newController(cfg, env, logger, stdout)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return err
	}

	ctx, stop := interruptible(cmd.Context())
	defer stop()

	h, err := ctrl.StartRun(ctx, first.Identity, first.Physics)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", viz.Subtle.Render("run"), h.ID)

	res, err := h.Wait(context.Background())
	fmt.Fprintf(os.Stderr, "%s in %s\n", first.Identity, res.Duration().Round(time.Millisecond))
	if err != nil {
		if h.Incomplete != "" {
			fmt.Fprintf(os.Stderr, "partial result kept in %s\n", h.Incomplete)
		}
		return err
	}
	fmt.Println(h.Paths.Result)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr, logLevel, logFormat)
	if err != nil {
		return err
	}
	cfg, env, err := loadSimulation(cmd, args[0])
	if err != nil {
		return err
	}
	runs, err := selectRuns(cfg, recoil)
	if err != nil {
		return err
	}
	if tui {
		// the monitor owns the terminal
		logger = slog.New(slog.DiscardHandler)
	}
	ctrl, err := newController(cfg, env, logger, nil)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return err
	}

	jobs := make([]sim.Job, len(runs))
	for i, r := range runs {
		jobs[i] = sim.Job{Identity: r.Identity, Config: r.Physics}
	}
	batch := sim.NewBatch(ctrl, jobs, cfg.MaxParallel)

	ctx, stop := interruptible(cmd.Context())
	defer stop()

	var results []sim.BatchResult
	if tui {
		results, err = viz.RunMonitored(ctx, cfg.Name, batch)
	} else {
		batch.OnEvent(func(ev sim.Event) {
			if ev.State == sim.StateQueued {
				return
			}
			logger.Debug("batch", "run", ev.Job.Identity.String(), "state", ev.State.String())
		})
		results, err = batch.Run(ctx)
	}

	failed := printBatch(os.Stdout, results)
	if err != nil {
		return err
	}

	if publishAfter {
		if err := publish(cmd.Context(), env, logger, completedRuns(results)); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

func completedRuns(results []sim.BatchResult) []string {
	var ids []string
	for _, r := range results {
		if r.RunID != "" && r.Err == nil {
			ids = append(ids, r.RunID)
		}
	}
	return ids
}

func printBatch(out io.Writer, results []sim.BatchResult) int {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tID\tSTATUS\tEXIT\tDURATION")
	failed := 0
	for _, r := range results {
		exit, dur := "-", "-"
		if r.Result != nil {
			exit = fmt.Sprint(r.Result.ExitCode)
			dur = r.Result.Duration().Round(time.Millisecond).String()
		}
		status := "completed"
		switch {
		case r.Err == nil:
		case errors.Is(r.Err, simerr.ErrCancelled), errors.Is(r.Err, context.Canceled):
			status = "cancelled"
		default:
			status = "failed"
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Job.Identity, r.RunID, status, exit, dur)
	}
	w.Flush()
	return failed
}

func renderFiles(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSimulation(cmd, args[0])
	if err != nil {
		return err
	}
	runs, err := selectRuns(cfg, recoil)
	if err != nil {
		return err
	}
	first := runs[0]

	p := paths.Derive(first.Identity)
	files, err := render.All(first.Physics, p, first.Identity.Seed)
	if err != nil {
		return err
	}
	for _, kind := range render.Kinds {
		fmt.Printf("==> %s <==\n%s\n", kind.Path(p), files[kind])
	}
	return nil
}

func printPaths(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSimulation(cmd, args[0])
	if err != nil {
		return err
	}
	runs, err := selectRuns(cfg, recoil)
	if err != nil {
		return err
	}

	type entry struct {
		Run   string      `json:"run"`
		Seed  int         `json:"seed"`
		Paths paths.Paths `json:"paths"`
	}
	entries := make([]entry, len(runs))
	for i, r := range runs {
		entries[i] = entry{Run: r.Identity.ElementStem(), Seed: r.Identity.Seed, Paths: paths.Derive(r.Identity)}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		fmt.Printf("%s (seed %d)\n", e.Run, e.Seed)
		for _, f := range e.Paths.Files() {
			fmt.Printf("  %s\n", f)
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if csvOut {
		return storage.WriteCSV(os.Stdout, runs)
	}
	fmt.Println(viz.Runs(runs))
	return nil
}

func showSetup(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSimulation(cmd, args[0])
	if err != nil {
		return err
	}
	fmt.Println(viz.Setup(cfg))
	return nil
}

func plotProfiles(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadSimulation(cmd, args[0])
	if err != nil {
		return err
	}
	shown := 0
	for _, r := range cfg.RecoilElements() {
		if recoil != "" && r.Name != recoil && r.Prefix() != recoil {
			continue
		}
		graph, err := viz.PlotProfile(&r, width, height)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
		shown++
	}
	if shown == 0 {
		return errors.New("no recoil elements to plot")
	}
	return nil
}

func publishRuns(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr, logLevel, logFormat)
	if err != nil {
		return err
	}
	env, err := config.FromEnv(envFiles...)
	if err != nil {
		return err
	}
	ctx, stop := interruptible(cmd.Context())
	defer stop()
	return publish(ctx, env, logger, args)
}

func publish(ctx context.Context, env *config.Environment, logger *slog.Logger, runIDs []string) error {
	if len(runIDs) == 0 {
		return nil
	}
	if err := env.Artifacts.Validate(); err != nil {
		return err
	}
	pub, err := artifacts.NewPublisher(env.Artifacts, logger)
	if err != nil {
		return err
	}
	if err := pub.EnsureBucket(ctx); err != nil {
		return err
	}

	st := storage.New(dataDir)
	for _, id := range runIDs {
		meta, err := st.Load(id)
		if err != nil {
			return err
		}
		files := append(meta.Paths.Files(), meta.Paths.Result+sim.IncompleteSuffix)
		keys, err := pub.Publish(ctx, meta.ID, files)
		if err != nil {
			return fmt.Errorf("publish %s: %w", id, err)
		}
		fmt.Printf("%s: %d files\n", meta.ID, len(keys))
	}
	return nil
}

func newSimulation(cmd *cobra.Command, args []string) error {
	folder, plain, serial, err := config.SimulationFolder(args[0], args[1])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(folder, 0755); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	for _, s := range newPresets {
		p, err := parsePreset(s)
		if err != nil {
			return err
		}
		cfg.ApplyPreset(p)
	}
	cfg.Name = plain
	cfg.Directory = "."
	cfg.Physics.Recoil = &physics.RecoilElement{
		Name:    config.DefaultName,
		Element: physics.Element{Symbol: "He"},
		Points: []physics.Point{
			{Depth: 0, Concentration: 0.1},
			{Depth: 50, Concentration: 0.1},
			{Depth: 50.01, Concentration: 0},
			{Depth: 100, Concentration: 0},
		},
	}

	file := filepath.Join(folder, plain+".yaml")
	if _, err := os.Stat(file); err == nil {
		return fmt.Errorf("%s already exists", file)
	}
	if err := config.Save(file, cfg); err != nil {
		return err
	}
	fmt.Printf("simulation %02d: %s\n", serial, file)
	return nil
}
