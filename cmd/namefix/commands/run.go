// Package commands implements CLI command handlers for namefix.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/namefix/pkg/config"
	"github.com/Sumatoshi-tech/namefix/pkg/engine"
	"github.com/Sumatoshi-tech/namefix/pkg/observability"
	"github.com/Sumatoshi-tech/namefix/pkg/rules"
	"github.com/Sumatoshi-tech/namefix/pkg/version"
)

// ErrRuleFailures is returned when at least one rule could not be applied
// to a document. Other documents are still rewritten.
var ErrRuleFailures = errors.New("some rules failed")

// RunCommand holds configuration for the run command.
type RunCommand struct {
	ruleIDs    []string
	dryRun     bool
	configPath string
	workers    int
	noColor    bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Apply naming rules to a directory",
		Long: `Load every C# source under path, apply the selected naming rules in
order and write the renamed files back. With --dry-run, print a diff instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringSliceVarP(&rc.ruleIDs, "rules", "r", nil,
		"Rule IDs or glob patterns (example: variable-names,*-naming)")
	cmd.Flags().BoolVar(&rc.dryRun, "dry-run", false, "Print a diff instead of writing files")
	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file (default: .namefix.yaml in ., ./config or $HOME)")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Number of parallel parse workers (0 = from config, then CPU count)")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	if rc.noColor && !color.NoColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return err
	}

	silent := flagBool(cmd, "quiet")
	progress := cmd.ErrOrStderr()

	mode := observability.ModeCLI
	if rc.dryRun {
		mode = observability.ModeDryRun
	}

	ctx := observability.ContextFromEnvironment(cmd.Context())

	providers, err := observability.Init(ctx, rc.observabilityConfig(cmd, cfg, mode))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(ctx))
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	start := time.Now()

	changed, err := rc.execute(ctx, cmd, cfg, providers, path, silent, progress)

	runMetrics, metricsErr := observability.NewRunMetrics(providers.Meter)
	if metricsErr == nil {
		status := observability.StatusOK
		if err != nil {
			status = observability.StatusError
		}

		runMetrics.RecordRun(ctx, mode, status, time.Since(start), changed)
	}

	return err
}

func (rc *RunCommand) execute(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	providers observability.Providers,
	path string,
	silent bool,
	progress io.Writer,
) (int, error) {
	ruleMetrics, err := rules.NewMetrics(providers.Meter)
	if err != nil {
		return 0, err
	}

	registry, err := rules.NewRegistry(rules.Builtin(
		rules.WithTracer(providers.Tracer),
		rules.WithMetrics(ruleMetrics),
		rules.WithLogger(providers.Logger),
	)...)
	if err != nil {
		return 0, err
	}

	enabled := cfg.Rules.Enabled
	if len(rc.ruleIDs) > 0 {
		enabled = rc.ruleIDs
	}

	selected, err := registry.Select(enabled, cfg.Rules.Disabled)
	if err != nil {
		return 0, err
	}

	progressf(silent, progress, "starting run path=%s rules=%d", path, len(selected))

	workers := cfg.Workspace.Workers
	if rc.workers > 0 {
		workers = rc.workers
	}

	ws, err := engine.LoadWorkspace(ctx, path, engine.LoadOptions{
		Extensions:  cfg.Workspace.Extensions,
		Exclude:     cfg.Workspace.Exclude,
		MaxFileSize: cfg.Workspace.MaxFileSize,
		Workers:     workers,
	})
	if err != nil {
		return 0, err
	}

	progressf(silent, progress, "loaded documents=%d skipped=%d", ws.Snapshot.Len(), len(ws.Skipped))

	for _, skipped := range ws.Skipped {
		providers.Logger.DebugContext(ctx, "file skipped", "path", skipped.Path, "reason", skipped.Reason)
	}

	eng := engine.New(selected, engine.WithLogger(providers.Logger), engine.WithTracer(providers.Tracer))

	out, report, err := eng.Run(ctx, ws.Snapshot)
	if err != nil {
		return 0, fmt.Errorf("run rules: %w", err)
	}

	changes := engine.Changes(ws.Snapshot, out)

	if rc.dryRun {
		err = engine.RenderDiff(cmd.OutOrStdout(), changes)
	} else {
		err = engine.WriteChanges(ws.Root, changes)
	}

	if err != nil {
		return 0, err
	}

	if !silent {
		writeSummary(cmd.OutOrStdout(), report, changes, rc.dryRun)
	}

	progressf(silent, progress, "run completed")

	if len(report.Failures) > 0 {
		return len(changes), fmt.Errorf("%w: %d", ErrRuleFailures, len(report.Failures))
	}

	return len(changes), nil
}

func (rc *RunCommand) observabilityConfig(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogJSON = cfg.Logging.Format == "json"
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogOutput = cmd.ErrOrStderr()

	obsCfg.OTLPHeaders = cfg.Telemetry.OTLPHeaders
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.SuppressedSpans = []string{rules.SpanApply}

	switch {
	case flagBool(cmd, "quiet"):
		obsCfg.LogLevel = observability.ParseLevel("error")
	case flagBool(cmd, "verbose"):
		obsCfg.LogLevel = observability.ParseLevel("debug")
		obsCfg.TraceVerbose = true
	}

	return obsCfg
}

func writeSummary(w io.Writer, report *engine.Report, changes []engine.Change, dryRun bool) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Fprintf(w, "\nRun %s\n", report.RunID)

	for _, rr := range report.Rules {
		fmt.Fprintf(w, "  %-22s applied=%d changed=%d", rr.ID, rr.Applied, rr.Changed)

		if rr.Failed > 0 {
			red.Fprintf(w, " failed=%d", rr.Failed)
		}

		fmt.Fprintln(w)
	}

	for _, failure := range report.Failures {
		yellow.Fprintf(w, "  %s: %s left unmodified: %v\n", failure.Rule, failure.Document, failure.Err)
	}

	var (
		written uint64
		lines   int
	)

	for _, change := range changes {
		written += uint64(len(change.After))
		lines += change.LinesChanged()
	}

	verb := "changed"
	if dryRun {
		verb = "would change"
	}

	green.Fprintf(w, "%s %s, %s lines (%s) in %s\n",
		humanize.Comma(int64(len(changes))), pluralFiles(verb, len(changes)), humanize.Comma(int64(lines)),
		humanize.Bytes(written), report.Duration.Round(time.Millisecond))
}

func pluralFiles(verb string, n int) string {
	if n == 1 {
		return "file " + verb
	}

	return "files " + verb
}

func flagBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return value
}

func progressf(silent bool, writer io.Writer, format string, args ...any) {
	if silent {
		return
	}

	_, _ = fmt.Fprintf(writer, "progress: "+format+"\n", args...)
}
