// Package pipeline sequences the sqlcipher vendoring build: fetch the
// engine and binding trees, compile the encrypted engine to an
// amalgamation, publish it into the binding's staging slots, build
// the extension module, and collect the artifacts.
//
// The pipeline is strictly sequential. Each stage's filesystem output
// is the next stage's input, any failure aborts the run, and every
// stage is safe to re-run against a clean working directory.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/sigexport/cipherbuild/internal/amalgam"
	"github.com/sigexport/cipherbuild/internal/artifact"
	"github.com/sigexport/cipherbuild/internal/buildsys/autotools"
	"github.com/sigexport/cipherbuild/internal/buildsys/setuppy"
	"github.com/sigexport/cipherbuild/internal/config"
	"github.com/sigexport/cipherbuild/internal/vcs"
)

// EngineDriver compiles the engine tree to its amalgamation.
type EngineDriver interface {
	Env(key, value string)
	Configure(ctx context.Context, args ...string) error
	Make(ctx context.Context, args ...string) error
}

// BindingDriver runs the binding's two-step build and locates its
// platform-tagged output directories.
type BindingDriver interface {
	BuildAmalgamation(ctx context.Context) error
	Build(ctx context.Context) error
	OutputDirs(glob string) ([]string, error)
}

// Options configures a Pipeline beyond its config.
type Options struct {
	// VCS overrides the source acquisition backend.
	VCS vcs.VCS
	// Engine and Binding override the build drivers, keyed by tree dir.
	Engine  func(dir string) EngineDriver
	Binding func(python, dir string) BindingDriver
	// EngineOnly stops the run after the amalgamation is verified.
	EngineOnly bool
	// Stdout and Stderr receive subprocess output. Compiler
	// diagnostics must surface verbatim, so these default to the
	// process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Pipeline is a single sequential vendoring run.
type Pipeline struct {
	cfg  *config.Config
	opts Options
}

// New returns a Pipeline for cfg. Zero options select git, the
// autotools engine driver, and the setup.py binding driver.
func New(cfg *config.Config, opts Options) *Pipeline {
	if opts.VCS == nil {
		opts.VCS = vcs.NewGitVCS()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Engine == nil {
		opts.Engine = func(dir string) EngineDriver {
			a := autotools.New(dir)
			a.SetStdout(opts.Stdout)
			a.SetStderr(opts.Stderr)
			return a
		}
	}
	if opts.Binding == nil {
		opts.Binding = func(python, dir string) BindingDriver {
			s := setuppy.New(python, dir)
			s.SetStdout(opts.Stdout)
			s.SetStderr(opts.Stderr)
			return s
		}
	}
	return &Pipeline{cfg: cfg, opts: opts}
}

// stage is one sequential step. detail is what Plan prints for it.
type stage struct {
	name   string
	detail string
	run    func(ctx context.Context) error
}

func (p *Pipeline) engineDir() string {
	return filepath.Join(p.cfg.WorkDir, p.cfg.Engine.Dir())
}

func (p *Pipeline) bindingDir() string {
	return filepath.Join(p.cfg.WorkDir, p.cfg.Binding.Dir())
}

// configureArgs is the full configure argv for the engine: the
// configured flags plus the compile/link variables. CFLAGS carries
// the codec define; without it the engine silently builds without
// encryption, so it is passed even when empty flags were configured.
func (p *Pipeline) configureArgs() []string {
	args := append([]string{}, p.cfg.Engine.ConfigureArgs...)
	if p.cfg.Engine.CFlags != "" {
		args = append(args, "CFLAGS="+p.cfg.Engine.CFlags)
	}
	if p.cfg.Engine.LDFlags != "" {
		args = append(args, "LDFLAGS="+p.cfg.Engine.LDFlags)
	}
	return args
}

func (p *Pipeline) stages() []stage {
	cfg := p.cfg
	engineDir := p.engineDir()
	bindingDir := p.bindingDir()
	pair := amalgam.At(engineDir, cfg.Engine.Target)

	stages := []stage{
		{
			name:   "fetch-engine",
			detail: fmt.Sprintf("git fetch --depth 1 %s@%s into %s", cfg.Engine.Repo, cfg.Engine.Ref, cfg.Engine.Dir()),
			run: func(ctx context.Context) error {
				return p.fetch(ctx, "fetch-engine", cfg.Engine.Upstream, engineDir)
			},
		},
		{
			name:   "fetch-binding",
			detail: fmt.Sprintf("git fetch --depth 1 %s@%s into %s", cfg.Binding.Repo, cfg.Binding.Ref, cfg.Binding.Dir()),
			run: func(ctx context.Context) error {
				return p.fetch(ctx, "fetch-binding", cfg.Binding.Upstream, bindingDir)
			},
		},
		{
			name:   "compile-engine",
			detail: fmt.Sprintf("./configure %s && make %s", strings.Join(p.configureArgs(), " "), cfg.Engine.Target),
			run: func(ctx context.Context) error {
				eng := p.opts.Engine(engineDir)
				for k, v := range cfg.Engine.Env {
					eng.Env(k, v)
				}
				if err := eng.Configure(ctx, p.configureArgs()...); err != nil {
					return stageErr("compile-engine", KindConfigure, err)
				}
				if err := eng.Make(ctx, cfg.Engine.Target); err != nil {
					return stageErr("compile-engine", KindToolchain, err)
				}
				return nil
			},
		},
		{
			name:   "verify-codec",
			detail: fmt.Sprintf("require %s in %s/%s", amalgam.CodecGuard, cfg.Engine.Dir(), cfg.Engine.Target),
			run: func(ctx context.Context) error {
				if err := pair.Verify(); err != nil {
					return stageErr("verify-codec", KindConfigure, err)
				}
				return nil
			},
		},
	}

	if p.opts.EngineOnly {
		return stages
	}

	return append(stages,
		stage{
			name: "stage-amalgamation",
			detail: fmt.Sprintf("copy %s pair into %s/{%s}",
				cfg.Engine.Target, cfg.Binding.Dir(), strings.Join(cfg.Binding.Slots, ", ")),
			run: func(ctx context.Context) error {
				if err := pair.Publish(bindingDir, cfg.Binding.Slots); err != nil {
					return stageErr("stage-amalgamation", KindPipeline, err)
				}
				return nil
			},
		},
		stage{
			name:   "build-binding",
			detail: fmt.Sprintf("%s setup.py build_amalgamation && %s setup.py build", cfg.Binding.Python, cfg.Binding.Python),
			run: func(ctx context.Context) error {
				bind := p.opts.Binding(cfg.Binding.Python, bindingDir)
				if err := bind.BuildAmalgamation(ctx); err != nil {
					return stageErr("build-binding", KindToolchain, err)
				}
				if err := bind.Build(ctx); err != nil {
					return stageErr("build-binding", KindToolchain, err)
				}
				return nil
			},
		},
		stage{
			name: "collect",
			detail: fmt.Sprintf("copy %s/%s/*{%s} into %s",
				cfg.Binding.OutputGlob, cfg.Binding.Subpackage,
				strings.Join(cfg.Collect.Extensions, ","), cfg.Collect.Dest),
			run: func(ctx context.Context) error {
				bind := p.opts.Binding(cfg.Binding.Python, bindingDir)
				dirs, err := bind.OutputDirs(cfg.Binding.OutputGlob)
				if err != nil {
					return stageErr("collect", KindArtifact, err)
				}
				dest := filepath.Join(cfg.WorkDir, filepath.FromSlash(cfg.Collect.Dest))
				files, err := artifact.Collect(dirs, cfg.Binding.Subpackage, cfg.Collect.Extensions, dest)
				if err != nil {
					return stageErr("collect", KindArtifact, err)
				}
				log.Infof("collected %d artifacts into %s", len(files), dest)
				return nil
			},
		},
	)
}

func (p *Pipeline) fetch(ctx context.Context, name string, up config.Upstream, dir string) error {
	ref, err := p.opts.VCS.ResolveRef(ctx, up.Repo, up.Ref)
	if err != nil {
		return stageErr(name, KindFetch, err)
	}
	if ref != up.Ref {
		log.Infof("resolved %s %s to %s", up.Repo, up.Ref, ref)
	}
	if err := p.opts.VCS.Sync(ctx, up.Repo, ref, dir); err != nil {
		return stageErr(name, KindFetch, err)
	}
	return nil
}

// Run executes every stage in order. The first failure aborts the
// run; later stages never execute against a partially built tree.
func (p *Pipeline) Run(ctx context.Context) error {
	stages := p.stages()
	for i, s := range stages {
		log.Infof("[%d/%d] %s", i+1, len(stages), s.name)
		if err := s.run(ctx); err != nil {
			if _, ok := err.(*Error); ok {
				return err
			}
			return &Error{Stage: s.name, Kind: KindPipeline, Err: err}
		}
	}
	return nil
}

// Plan renders the stage sequence without executing anything.
func (p *Pipeline) Plan() string {
	var b strings.Builder
	stages := p.stages()
	for i, s := range stages {
		fmt.Fprintf(&b, "%d. %-18s %s\n", i+1, s.name, s.detail)
	}
	return b.String()
}
