// Package sim drives MCERD runs: it writes a run's input files, starts the
// binary and tracks the run until it ends.
package sim

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/san-kum/mcerdsim/internal/paths"
	"github.com/san-kum/mcerdsim/internal/physics"
	"github.com/san-kum/mcerdsim/internal/platform"
	"github.com/san-kum/mcerdsim/internal/process"
	"github.com/san-kum/mcerdsim/internal/render"
	"github.com/san-kum/mcerdsim/internal/simerr"
	"github.com/san-kum/mcerdsim/internal/storage"
)

const (
	DefaultCacheSize = 256

	// IncompleteSuffix marks the result file of a cancelled run.
	IncompleteSuffix = ".incomplete"
)

type Options struct {
	// Executable is the MCERD binary without the Windows .exe suffix.
	// Paths containing a separator are made absolute.
	Executable string
	Platform   platform.Platform
	Runner     process.Runner
	// Ledger records every run when set.
	Ledger *storage.Store
	Logger *slog.Logger
	// Now is sampled whenever a run starts or ends.
	Now       func() time.Time
	CacheSize int
	// Stdout, when set, receives the standard output of each run.
	Stdout func(paths.Identity) io.Writer
}

type Controller struct {
	exe      string
	platform platform.Platform
	runner   process.Runner
	ledger   *storage.Store
	logger   *slog.Logger
	now      func() time.Time
	stdout   func(paths.Identity) io.Writer

	shared  *lru.Cache[string, fileStamp]
	running *Registry
}

// fileStamp identifies the content last written to a shared file.
type fileStamp struct {
	digest  string
	size    int64
	modTime time.Time
}

func NewController(opts Options) (*Controller, error) {
	if opts.Executable == "" {
		return nil, simerr.Config("executable", "is required")
	}
	exe := opts.Executable
	if strings.ContainsRune(exe, '/') || strings.ContainsRune(exe, filepath.Separator) {
		abs, err := filepath.Abs(exe)
		if err != nil {
			return nil, simerr.Config("executable", "%v", err)
		}
		exe = abs
	}

	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, fileStamp](size)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		exe:      exe,
		platform: opts.Platform,
		runner:   opts.Runner,
		ledger:   opts.Ledger,
		logger:   opts.Logger,
		now:      opts.Now,
		stdout:   opts.Stdout,
		shared:   cache,
		running:  NewRegistry(),
	}
	if c.runner == nil {
		c.runner = process.NewShellRunner(opts.Logger)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func (c *Controller) Executable() string { return c.exe }

func (c *Controller) Platform() platform.Platform { return c.platform }

// Running lists the runs that have not finished yet.
func (c *Controller) Running() *Registry { return c.running }

// StartRun writes every input file of the run and starts MCERD on it.
// Nothing is written when the platform is unsupported or the
// configuration does not render. Cancelling ctx cancels the run.
func (c *Controller) StartRun(ctx context.Context, id paths.Identity, cfg *physics.Config) (*Handle, error) {
	if c.platform == platform.Unsupported {
		return nil, &simerr.UnsupportedPlatformError{Tag: c.platform.String()}
	}

	p, err := paths.Resolve(id)
	if err != nil {
		return nil, err
	}
	files, err := render.All(cfg, p, id.Seed)
	if err != nil {
		return nil, err
	}
	cmdline, err := platform.BuildCommand(c.exe, p.Command, c.platform)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	h := newHandle(uuid.NewString(), id, p, cmdline, cancel)
	h.StartedAt = c.now()
	if err := c.running.Add(h); err != nil {
		cancel(nil)
		return nil, err
	}
	started := false
	defer func() {
		if !started {
			cancel(nil)
			c.running.Remove(id.Key())
		}
	}()

	for _, kind := range render.Kinds {
		if kind.Shared() {
			err = c.writeShared(kind.Path(p), files[kind])
		} else {
			err = storage.WriteAtomic(kind.Path(p), []byte(files[kind]), 0644)
		}
		if err != nil {
			return nil, fmt.Errorf("%s file: %w", kind, err)
		}
	}

	if err := process.CheckExecutable(platform.ExecutablePath(c.exe, c.platform)); err != nil {
		return nil, err
	}

	opts := process.Options{Dir: id.Directory}
	if c.stdout != nil {
		opts.Stdout = c.stdout(id)
	}
	proc, err := c.runner.Start(runCtx, cmdline, opts)
	if err != nil {
		return nil, err
	}
	started = true

	c.logger.Info("run started",
		"run_id", h.ID,
		"run", id.String(),
		"pid", proc.Pid(),
		"command", cmdline,
	)
	c.record(h, storage.StatusRunning, nil)

	go c.finish(h, proc)
	return h, nil
}

func (c *Controller) finish(h *Handle, proc *process.Process) {
	res := proc.Wait()
	h.EndedAt = c.now()
	h.cancel(nil)

	status := storage.StatusCompleted
	switch {
	case errors.Is(res.Err, simerr.ErrCancelled):
		status = storage.StatusCancelled
		c.markIncomplete(h)
	case res.Err != nil:
		status = storage.StatusFailed
	}

	c.logger.Info("run finished",
		"run_id", h.ID,
		"run", h.Identity.String(),
		"status", status,
		"exit_code", res.ExitCode,
		"duration", res.Duration(),
	)
	if res.Err != nil && status == storage.StatusFailed {
		c.logger.Warn("run failed", "run_id", h.ID, "error", res.Err)
	}

	h.result = res
	c.record(h, status, res)
	c.running.Remove(h.Identity.Key())
	close(h.done)
}

// markIncomplete moves a partial result out of the way so it is never
// mistaken for a finished one.
func (c *Controller) markIncomplete(h *Handle) {
	result := h.Paths.Result
	if _, err := os.Stat(result); err != nil {
		return
	}
	if err := os.Rename(result, result+IncompleteSuffix); err != nil {
		c.logger.Warn("could not mark result incomplete", "file", result, "error", err)
		return
	}
	h.Incomplete = result + IncompleteSuffix
}

// writeShared replaces a file sibling runs have in common, unless it still
// holds exactly what this controller last wrote there.
func (c *Controller) writeShared(path, content string) error {
	sum := sha256.Sum256([]byte(content))
	digest := hex.EncodeToString(sum[:])

	if stamp, ok := c.shared.Get(path); ok && stamp.digest == digest {
		if info, err := os.Stat(path); err == nil && info.Size() == stamp.size && info.ModTime().Equal(stamp.modTime) {
			c.logger.Debug("shared file current", "file", path)
			return nil
		}
	}

	if err := storage.WriteAtomic(path, []byte(content), 0644); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	c.shared.Add(path, fileStamp{digest: digest, size: info.Size(), modTime: info.ModTime()})
	return nil
}

func (c *Controller) record(h *Handle, status storage.Status, res *process.Result) {
	if c.ledger == nil {
		return
	}
	meta := &storage.RunMetadata{
		ID:            h.ID,
		Name:          h.Identity.Name,
		RecoilName:    h.Identity.RecoilName,
		ElementPrefix: h.Identity.ElementPrefix,
		ParentPrefix:  h.Identity.ParentPrefix,
		Seed:          h.Identity.Seed,
		Directory:     h.Identity.Directory,
		Platform:      c.platform.String(),
		Command:       h.Command,
		Paths:         h.Paths,
		Status:        status,
		StartedAt:     h.StartedAt,
		EndedAt:       h.EndedAt,
	}
	if res != nil {
		meta.ExitCode = res.ExitCode
		if res.Err != nil {
			meta.Error = res.Err.Error()
		}
	}
	if err := c.ledger.Save(meta); err != nil {
		c.logger.Warn("could not record run", "run_id", h.ID, "error", err)
	}
}
