// Package release drives one bundling run end to end: it resolves the file
// sets from the project configuration, recreates the output directory,
// writes the amalgamated header, copies the vendor directory and the README.
//
// Runs are strictly sequential. Two runs against the same output directory
// at the same time are not supported; one may delete what the other just
// created.
package release

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kingrea/objbundle/internal/bundle"
	"github.com/kingrea/objbundle/internal/config"
	"github.com/kingrea/objbundle/internal/logbook"
)

// Option customizes a Runner.
type Option func(*Runner)

// WithLogbook records progress in lb.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(r *Runner) {
		r.log = lb
	}
}

// Runner builds releases for one configured project.
type Runner struct {
	cfg *config.Config
	log *logbook.Logbook
}

// Plan is the resolved input of a run, before anything is written.
type Plan struct {
	Headers    []string
	Sources    []string
	Discovered bool
	OutputDir  string
	BundlePath string
	VendorDir  string
}

// Result describes a finished release.
type Result struct {
	Version      string
	OutputDir    string
	BundlePath   string
	ReadmePath   string
	Headers      int
	Sources      int
	DroppedLines int
	Bytes        int64
	VendorCopied bool
}

// New constructs a Runner for cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Plan resolves the header and implementation sets. Configured headers keep
// their order; without a list the include directory is walked with the
// exclusion filters applied.
func (r *Runner) Plan() (Plan, error) {
	if r == nil || r.cfg == nil {
		return Plan{}, fmt.Errorf("release: missing configuration")
	}
	plan := Plan{
		OutputDir:  r.cfg.OutputDir(),
		BundlePath: r.cfg.BundlePath(),
		VendorDir:  r.cfg.VendorSourceDir(),
	}
	var err error
	if len(r.cfg.Project.Headers) > 0 {
		plan.Headers, err = bundle.ResolveOrdered(r.cfg.IncludeDir(), r.cfg.Project.Headers)
	} else {
		plan.Discovered = true
		plan.Headers, err = bundle.Discover(r.cfg.IncludeDir(), r.cfg.Project.Exclude)
	}
	if err != nil {
		return Plan{}, err
	}
	plan.Sources, err = bundle.Discover(r.cfg.SourceDir(), nil)
	if err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Clean removes the configured output directory.
func (r *Runner) Clean() error {
	if r == nil || r.cfg == nil {
		return fmt.Errorf("release: missing configuration")
	}
	dir := r.cfg.OutputDir()
	if err := Clean(dir); err != nil {
		r.log.Error("clean failed: %v", err)
		return err
	}
	r.log.Info("removed %s", dir)
	return nil
}

// Run produces the release for version. Inputs are resolved before the
// output directory is touched, and a run that fails after creating the
// directory removes it again so no partial release is left behind.
func (r *Runner) Run(ctx context.Context, version string) (Result, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return Result{}, fmt.Errorf("release: version tag is required")
	}
	plan, err := r.Plan()
	if err != nil {
		r.log.Error("plan %s: %v", version, err)
		return Result{}, err
	}
	return r.Execute(ctx, version, plan)
}

// Execute writes a release from a plan produced by Plan.
func (r *Runner) Execute(ctx context.Context, version string, plan Plan) (Result, error) {
	if r == nil || r.cfg == nil {
		return Result{}, fmt.Errorf("release: missing configuration")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return Result{}, fmt.Errorf("release: version tag is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r.log.Info("release %s: %d headers, %d sources -> %s", version, len(plan.Headers), len(plan.Sources), plan.OutputDir)

	if err := Prepare(plan.OutputDir, r.cfg.Project.OnExisting); err != nil {
		if errors.Is(err, ErrOutputExists) {
			r.log.Warn("release %s aborted: %v", version, err)
		} else {
			r.log.Error("release %s: %v", version, err)
		}
		return Result{}, err
	}

	result, err := r.write(ctx, version, plan)
	if err != nil {
		r.log.Error("release %s failed: %v", version, err)
		if cleanErr := Clean(plan.OutputDir); cleanErr != nil {
			r.log.Error("discard partial release: %v", cleanErr)
		}
		return Result{}, err
	}
	r.log.Info("release %s written: %s (%d bytes, %d guard/include lines dropped)",
		version, filepath.Base(result.BundlePath), result.Bytes, result.DroppedLines)
	return result, nil
}

func (r *Runner) write(ctx context.Context, version string, plan Plan) (Result, error) {
	w := bundle.Writer{
		Project:  r.cfg.Project.Project,
		Version:  version,
		Selector: r.cfg.Project.ImplementationSymbol,
		Filter:   bundle.Filter{VendorPrefix: r.cfg.Project.VendorDir},
	}
	stats, err := w.WriteFile(plan.BundlePath, plan.Headers, plan.Sources)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Version:      version,
		OutputDir:    plan.OutputDir,
		BundlePath:   plan.BundlePath,
		Headers:      stats.Headers,
		Sources:      stats.Sources,
		DroppedLines: stats.DroppedLines,
		Bytes:        stats.Bytes,
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	copied, err := CopyVendor(plan.VendorDir, r.cfg.VendorOutputDir())
	if err != nil {
		return Result{}, err
	}
	result.VendorCopied = copied
	if copied {
		r.log.Info("copied vendor dir %s", r.cfg.Project.VendorDir)
	}

	if r.cfg.Project.Readme {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		path, err := WriteReadme(plan.OutputDir, r.cfg.Project.Project, version, r.cfg.Project.Homepage)
		if err != nil {
			return Result{}, err
		}
		result.ReadmePath = path
	}
	return result, nil
}
