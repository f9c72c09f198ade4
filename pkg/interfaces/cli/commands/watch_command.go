package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/application/services/orchestration"
	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
	"github.com/vsinha/stockpick/pkg/interfaces/cli/output"
)

// Inbox subdirectories the watcher owns
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
	OutDir       = "out"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Inbox    string
	Schedule string
	// OutputDir defaults to the inbox's out directory
	OutputDir string
	// Extension selects ledger files, e.g. ".xlsx"; empty selects
	// directories, one per csv dataset
	Extension string
	Format    string
	Verbose   bool
}

// WatchCommand picks every ledger dropped into an inbox, on a cron schedule.
// A picked input moves to processed/, a failed one to failed/; an input
// whose dataset is locked stays for the next tick.
type WatchCommand struct {
	config WatchConfig
	fs     afs.Service
	runner Runner
	out    io.Writer
	logger *zap.Logger
}

// NewWatchCommand creates a new watch command
func NewWatchCommand(config WatchConfig, fs afs.Service, runner Runner, out io.Writer, logger *zap.Logger) *WatchCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Inbox != "" {
		config.Inbox = url.Normalize(config.Inbox, file.Scheme)
	}
	if config.OutputDir == "" {
		config.OutputDir = repositories.JoinLocation(config.Inbox, OutDir)
	}
	return &WatchCommand{
		config: config,
		fs:     fs,
		runner: runner,
		out:    out,
		logger: logger,
	}
}

// Execute scans the inbox on every tick until ctx is cancelled. Ticks never
// overlap: a scan still running when the next one is due makes it skip.
func (c *WatchCommand) Execute(ctx context.Context) error {
	if c.config.Inbox == "" {
		return fmt.Errorf("validation error: watch mode needs an inbox (-input or WATCH_INBOX)")
	}

	logger := cronLogger{sugar: c.logger.Sugar()}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := scheduler.AddFunc(c.config.Schedule, func() {
		picked, err := c.Scan(ctx)
		if err != nil {
			c.logger.Error("inbox scan finished with failures", zap.Int("picked", picked), zap.Error(err))
			return
		}
		if picked > 0 {
			c.logger.Info("inbox scan finished", zap.Int("picked", picked))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", c.config.Schedule, err)
	}

	c.logger.Info("watching inbox",
		zap.String("inbox", c.config.Inbox),
		zap.String("schedule", c.config.Schedule),
		zap.String("output", c.config.OutputDir),
	)
	scheduler.Start()

	<-ctx.Done()
	stopped := scheduler.Stop()
	<-stopped.Done()

	c.logger.Info("stopped watching inbox")
	return nil
}

// Scan runs every pending ledger in the inbox once, in name order, and
// returns how many were picked. Run failures are combined into the error.
func (c *WatchCommand) Scan(ctx context.Context) (int, error) {
	pending, err := c.pending(ctx)
	if err != nil {
		return 0, err
	}

	var (
		picked int
		errs   error
	)
	for _, object := range pending {
		if ctx.Err() != nil {
			return picked, multierr.Append(errs, ctx.Err())
		}

		log := c.logger.With(zap.String("input", object.URL()))
		summary, err := c.runner.Run(ctx, orchestration.RunRequest{
			Input:     object.URL(),
			OutputDir: c.config.OutputDir,
		})

		switch {
		case errors.Is(err, entities.ErrRunLocked):
			log.Info("ledger is locked by another run, retrying next tick")
			continue
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", object.Name(), err))
			if merr := c.moveTo(ctx, object, FailedDir); merr != nil {
				errs = multierr.Append(errs, merr)
			}
			continue
		}

		picked++
		if merr := c.moveTo(ctx, object, ProcessedDir); merr != nil {
			errs = multierr.Append(errs, merr)
		}
		if gerr := output.Generate(c.out, summary, output.Config{Format: c.config.Format, Verbose: c.config.Verbose}); gerr != nil {
			log.Warn("failed to write run summary", zap.Error(gerr))
		}
	}

	return picked, errs
}

// pending lists the ledgers waiting in the inbox
func (c *WatchCommand) pending(ctx context.Context) ([]storage.Object, error) {
	objects, err := c.fs.List(ctx, c.config.Inbox)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox %s: %w", c.config.Inbox, err)
	}

	inboxPath := strings.TrimSuffix(url.Path(c.config.Inbox), "/")
	var pending []storage.Object
	for _, object := range objects {
		if strings.TrimSuffix(url.Path(object.URL()), "/") == inboxPath {
			continue
		}
		if c.accepts(object) {
			pending = append(pending, object)
		}
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].Name() < pending[j].Name() })
	return pending, nil
}

func (c *WatchCommand) accepts(object storage.Object) bool {
	name := object.Name()
	switch {
	case name == ProcessedDir, name == FailedDir, name == OutDir:
		return false
	case strings.HasPrefix(name, "."), strings.HasPrefix(name, "~$"):
		return false
	case strings.HasSuffix(name, ".partial"):
		return false
	}

	if c.config.Extension == "" {
		return object.IsDir()
	}
	return !object.IsDir() && strings.EqualFold(path.Ext(name), c.config.Extension)
}

func (c *WatchCommand) moveTo(ctx context.Context, object storage.Object, dir string) error {
	target := repositories.JoinLocation(c.config.Inbox, dir)
	exists, err := c.fs.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.fs.Create(ctx, target, file.DefaultDirOsMode, true); err != nil {
			return fmt.Errorf("failed to create %s: %w", target, err)
		}
	}

	dest := repositories.JoinLocation(target, object.Name())
	if err := c.fs.Move(ctx, object.URL(), dest); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", object.Name(), dir, err)
	}
	return nil
}
