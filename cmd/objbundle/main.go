// cmd/objbundle/main.go
//
// Entry point for the release bundler. Run it from (or point it at) the
// root of the OBJ parser source tree:
//
//	objbundle v_1_0_0
//
// Flow:
// 1. Load objbundle.yaml (defaults when it is missing)
// 2. Resolve headers and implementation files
// 3. Optionally show the plan and wait for confirmation
// 4. Recreate the release directory and write the bundle
//
// `objbundle -log 20` prints the tail of .objbundle/logs/release.log.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kingrea/objbundle/internal/config"
	"github.com/kingrea/objbundle/internal/logbook"
	"github.com/kingrea/objbundle/internal/release"
	"github.com/kingrea/objbundle/internal/tui"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitOutputSet = 3
)

// confirmPlan is swapped out in tests; the real one runs the TUI.
var confirmPlan = tui.RunPlan

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("objbundle", flag.ContinueOnError)
	flags.SetOutput(stderr)
	projectDir := flags.String("project", "", "path to the source tree root (defaults to cwd)")
	configFile := flags.String("config", "", "path to the project file (defaults to <project>/"+config.FileName+")")
	outDir := flags.String("out", "", "release directory override")
	onExisting := flags.String("on-existing", "", "what to do when the release directory exists: abort or overwrite")
	readme := flags.Bool("readme", true, "write README.txt next to the bundle (when enabled in the project file)")
	initOnly := flags.Bool("init", false, "write a default "+config.FileName+" and exit")
	cleanOnly := flags.Bool("clean", false, "remove the release directory and exit")
	showPlan := flags.Bool("plan", false, "preview the inputs and confirm before writing")
	verbose := flags.Bool("v", false, "echo log entries to stderr")
	logLines := flags.Int("log", 0, "print the last N release log entries and exit")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: objbundle [flags] <version>\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(stderr, "determine working directory: %v\n", err)
			return exitFailure
		}
	}

	if *initOnly {
		path, err := config.InitProject(project)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "Project file ready: %s\n", path)
		return exitOK
	}

	cfg, err := config.Load(project, *configFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	if *outDir != "" {
		if err := cfg.SetOutputDir(*outDir); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}
	if *onExisting != "" {
		if err := cfg.SetOnExisting(*onExisting); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}
	if !*readme {
		cfg.Project.Readme = false
	}

	var logOpts []logbook.Option
	if *verbose {
		logOpts = append(logOpts, logbook.WithMirror(stderr))
	}
	lb, err := logbook.New(cfg.LogPath(), logOpts...)
	if err != nil {
		fmt.Fprintf(stderr, "warning: release log disabled: %v\n", err)
	}
	if *logLines > 0 {
		lines, total := lb.Tail(*logLines)
		fmt.Fprintf(stdout, "%s: showing %d of %d entries\n", cfg.LogPath(), len(lines), total)
		for _, line := range lines {
			fmt.Fprintln(stdout, line)
		}
		return exitOK
	}
	runner := release.New(cfg, release.WithLogbook(lb))

	if *cleanOnly {
		if err := runner.Clean(); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "Removed %s\n", cfg.OutputDir())
		return exitOK
	}

	version, code := resolveVersion(flags.Args(), cfg, stderr)
	if code != exitOK {
		flags.Usage()
		return code
	}

	plan, err := runner.Plan()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	if *showPlan {
		ok, err := confirmPlan(plan, version, cfg.ProjectDir)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		if !ok {
			lb.Info("release %s cancelled from plan view", version)
			fmt.Fprintln(stdout, "Release cancelled.")
			return exitOK
		}
	}

	result, err := runner.Execute(ctx, version, plan)
	if err != nil {
		if errors.Is(err, release.ErrOutputExists) {
			fmt.Fprintf(stderr, "Release directory %s already exists. Aborting.\n", cfg.OutputDir())
			return exitOutputSet
		}
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	fmt.Fprintln(stdout, tui.RenderSummary(result, cfg.ProjectDir))
	return exitOK
}

// resolveVersion takes the tag from the single positional argument, falling
// back to the configured version file.
func resolveVersion(args []string, cfg *config.Config, stderr io.Writer) (string, int) {
	switch len(args) {
	case 0:
		version, err := cfg.ReadVersionFile()
		if err != nil {
			fmt.Fprintf(stderr, "a version tag is required: %v\n", err)
			return "", exitUsage
		}
		return version, exitOK
	case 1:
		version := strings.TrimSpace(args[0])
		if version == "" {
			fmt.Fprintln(stderr, "a version tag is required")
			return "", exitUsage
		}
		return version, exitOK
	default:
		fmt.Fprintf(stderr, "expected one version tag, got %d arguments\n", len(args))
		return "", exitUsage
	}
}
