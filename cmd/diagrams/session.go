package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ritzau/infra-diagrams/pkg/assets"
	"github.com/ritzau/infra-diagrams/pkg/config"
	"github.com/ritzau/infra-diagrams/pkg/definition"
	"github.com/ritzau/infra-diagrams/pkg/logging"
	"github.com/ritzau/infra-diagrams/pkg/pipeline"
	"github.com/ritzau/infra-diagrams/pkg/publish"
	"github.com/ritzau/infra-diagrams/pkg/render"
	"github.com/ritzau/infra-diagrams/pkg/topology"
	"github.com/ritzau/infra-diagrams/pkg/watcher"
)

// session ties the configuration of one command invocation to the diagrams
// it works on. The watch loop reconfigures it in place.
type session struct {
	flags    *pflag.FlagSet
	cfgPath  string
	args     []string
	observer pipeline.Observer
	out      io.Writer

	cfg      *config.Config
	renderer *render.Renderer
	runOpts  pipeline.Options
	fetcher  *assets.Fetcher
	runner   *pipeline.Runner

	// iconsRefreshed is set once a run has re-downloaded icons. Later
	// rebuilds reuse them; a refresh writes into the watched icon directory
	// and would trigger the next rebuild.
	iconsRefreshed bool
}

func newSession(ctx context.Context, cmd *cobra.Command, args []string, observer pipeline.Observer) (*session, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	s := &session{
		flags:    cmd.Flags(),
		cfgPath:  cfgPath,
		args:     args,
		observer: observer,
		out:      cmd.OutOrStdout(),
	}
	if err := s.configure(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// configure (re)loads settings and rebuilds everything derived from them.
func (s *session) configure(ctx context.Context) error {
	cfg, err := config.Load(s.flags, s.cfgPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		return err
	}
	logging.Setup(os.Stderr, level, cfg.LogJSON)

	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	renderer := render.NewRenderer(render.NewExecutor(cfg.Engine), render.Options{
		OutputDir: cfg.OutputDir,
		Format:    format,
		Timeout:   cfg.RenderTimeout,
	})
	opts := pipeline.Options{Observer: s.observer, Out: s.out}
	if cfg.Publish != "" {
		target, err := publish.ParseTarget(cfg.Publish)
		if err != nil {
			return err
		}
		pub, err := publish.NewS3Publisher(ctx, target, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return err
		}
		opts.Publisher = pub
	}

	logging.Debug("configuration loaded", "outputDir", cfg.OutputDir, "format", cfg.Format, "engine", cfg.Engine, "iconDir", cfg.IconDir)
	s.cfg = cfg
	s.renderer = renderer
	s.runOpts = opts
	s.newRunner()
	return nil
}

func (s *session) newRunner() {
	s.fetcher = assets.NewFetcher(nil, assets.Options{
		Dir:     s.cfg.IconDir,
		Timeout: s.cfg.FetchTimeout,
		Refresh: s.cfg.RefreshIcons && !s.iconsRefreshed,
	})
	s.runner = pipeline.NewRunner(s.fetcher, s.renderer, s.runOpts)
}

// execute runs jobs and turns off icon refresh for every later run.
func (s *session) execute(ctx context.Context, reason string, jobs []pipeline.Job) error {
	_, err := s.runner.Run(ctx, reason, jobs)
	if s.cfg.RefreshIcons && !s.iconsRefreshed {
		s.iconsRefreshed = true
		s.newRunner()
	}
	return err
}

// jobs resolves the command arguments. Each argument names a built-in
// example or a definition file or directory; no arguments means every
// built-in example.
func (s *session) jobs() ([]pipeline.Job, error) {
	var jobs []pipeline.Job
	if len(s.args) == 0 {
		for _, e := range topology.Examples() {
			jobs = append(jobs, pipeline.FromExample(e))
		}
		return jobs, nil
	}

	var paths []string
	for _, arg := range s.args {
		if e, ok := topology.Lookup(arg); ok {
			jobs = append(jobs, pipeline.FromExample(e))
			continue
		}
		if _, err := os.Stat(arg); err != nil {
			return nil, fmt.Errorf("unknown diagram %q: not a built-in example or a definition path", arg)
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 {
		return jobs, nil
	}

	defs, err := definition.Load(paths...)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		jobs = append(jobs, pipeline.FromDefinition(d))
	}
	return jobs, nil
}

// run resolves and renders every diagram.
func (s *session) run(ctx context.Context, reason string) error {
	jobs, err := s.jobs()
	if err != nil {
		return err
	}
	return s.execute(ctx, reason, jobs)
}

// watchPaths lists the existing files and directories whose changes
// trigger a rebuild.
func (s *session) watchPaths() []string {
	var paths []string
	for _, arg := range s.args {
		if _, ok := topology.Lookup(arg); !ok {
			paths = append(paths, arg)
		}
	}
	cfgFile := s.cfgPath
	if cfgFile == "" {
		cfgFile = config.DefaultFile
	}
	if _, err := os.Stat(cfgFile); err == nil {
		paths = append(paths, cfgFile)
	}
	return paths
}

// buildStatus is told when a rebuild starts and how it ended.
type buildStatus func(state string, changed []string, err error)

// watch rebuilds affected diagrams on file changes until ctx is cancelled.
func (s *session) watch(ctx context.Context, status buildStatus) error {
	fw, err := watcher.NewFileWatcher(s.watchPaths(), s.cfg.IconDir)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}
	defer fw.Stop()

	debouncer := watcher.NewDebouncer(fw.Events(), 300*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	for batch := range debouncer.Output() {
		plan := watcher.Plan(batch...)
		if plan.Empty() {
			continue
		}
		changed := changedPaths(batch)
		logging.Info("change detected", "files", strings.Join(changed, ", "))

		status("building", changed, nil)
		if err := s.rebuild(ctx, plan); err != nil {
			status("failed", changed, err)
			continue
		}
		status("ready", changed, nil)
	}
	return nil
}

func (s *session) rebuild(ctx context.Context, plan *watcher.RebuildPlan) error {
	if plan.ReloadConfig {
		if err := s.configure(ctx); err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
	}

	jobs, err := s.jobs()
	if err != nil {
		return err
	}
	if !plan.RebuildAll {
		jobs = fromSources(jobs, plan.Definitions)
	}
	if len(jobs) == 0 {
		logging.Debug("no diagrams affected by change")
		return nil
	}
	return s.execute(ctx, "file change", jobs)
}

// fromSources keeps the jobs declared in one of the given files.
func fromSources(jobs []pipeline.Job, files []string) []pipeline.Job {
	want := make(map[string]bool, len(files))
	for _, f := range files {
		want[absPath(f)] = true
	}
	var out []pipeline.Job
	for _, j := range jobs {
		if j.Source != "" && want[absPath(j.Source)] {
			out = append(out, j)
		}
	}
	return out
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func changedPaths(batch []watcher.ChangeEvent) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, event := range batch {
		for _, p := range event.Paths {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	return paths
}
