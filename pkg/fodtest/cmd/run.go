package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/fodtest/output"
	"github.com/fodqa/fod-regression/pkg/mail"
	"github.com/fodqa/fod-regression/pkg/metrics"
	"github.com/fodqa/fod-regression/pkg/report"
	"github.com/fodqa/fod-regression/pkg/results"
	"github.com/fodqa/fod-regression/pkg/suite"
	"github.com/fodqa/fod-regression/pkg/telemetry"
	"github.com/fodqa/fod-regression/pkg/version"
)

// ErrScenariosFailed is returned by run when at least one scenario failed.
var ErrScenariosFailed = errors.New("scenarios failed")

type runOptions struct {
	groups     []string
	names      []string
	parallel   int
	retries    int
	reportPath string
	mail       bool
	push       bool
}

func NewRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run regression scenarios",
		Example: `  fodtest run --groups regression
  fodtest run --run 'WebHooks*' --parallel 2 --report out/report.html --mail`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("retries") {
				opts.retries = -1
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScenarios(ctx, rt, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.groups, "groups", nil, "Only run scenarios in these groups (default: runner.groups)")
	cmd.Flags().StringSliceVar(&opts.names, "run", nil, "Glob patterns over Class, scenario or Class/scenario")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 0, "Classes to run at the same time (default: runner.parallel)")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "Default max retry count (default: retry.maxRetryCount)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write a report; the format follows the extension (.html, .md, .json)")
	cmd.Flags().BoolVar(&opts.mail, "mail", false, "Mail the run summary to mail.receivers")
	cmd.Flags().BoolVar(&opts.push, "push", false, "Push metrics to metrics.pushGateway")
	return cmd
}

func runScenarios(ctx context.Context, rt *runtimeState, opts runOptions) error {
	cfg := *rt.cfg
	log := rt.Logger()

	filter := suite.Filter{Groups: opts.groups, Names: opts.names}
	if len(filter.Groups) == 0 {
		filter.Groups = cfg.Runner.Groups
	}
	classes := rt.registry.Select(filter)
	if len(classes) == 0 {
		return errors.New("no scenarios match the given groups and patterns")
	}

	env := suite.NewEnv(cfg, log)

	_, shutdownTracing, err := telemetry.Init(ctx, telemetryOptions(cfg, rt, env.RunID))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warnw("Failed to flush traces", "error", err)
		}
	}()

	sinks, err := results.FromConfig(cfg.Results, log.Desugar())
	if err != nil {
		return fmt.Errorf("result sinks: %w", err)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Warnw("Failed to close result sinks", "error", err)
		}
	}()

	env.Results = sinks

	runnerOpts := []suite.RunnerOption{suite.WithParallel(opts.parallel)}
	if opts.retries >= 0 {
		runnerOpts = append(runnerOpts, suite.WithDefaultMaxRetryCount(opts.retries))
	}
	rep, runErr := suite.NewRunner(env, runnerOpts...).Run(ctx, classes)
	if rep == nil {
		return runErr
	}

	if err := rt.writeObject(rep, func(w io.Writer) { output.WriteReportTable(w, rep) }); err != nil {
		return err
	}

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if path := reportPath(opts, cfg); path != "" {
		if err := report.WriteFile(path, rep, report.WithTitle(fmt.Sprintf("FoD regression %s run %s", cfg.Environment.Name, rep.RunID))); err != nil {
			errs = append(errs, err)
		} else {
			log.Infow("Wrote report", "path", path)
		}
	}
	if opts.mail {
		if err := mail.SendRunSummary(mail.NewSender(cfg, log), cfg.Mail.Receivers, rep); err != nil {
			errs = append(errs, err)
		}
	}
	if opts.push {
		pctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := metrics.Push(pctx, cfg.Metrics.PushGateway, cfg.Metrics.Job, rep.RunID)
		cancel()
		if err != nil {
			errs = append(errs, err)
		}
	}
	if !rep.OK() {
		errs = append(errs, fmt.Errorf("%w: %d of %d", ErrScenariosFailed, rep.Failed(), len(rep.Results)))
	}
	return errors.Join(errs...)
}

func reportPath(opts runOptions, cfg config.Config) string {
	if opts.reportPath != "" {
		return opts.reportPath
	}
	return cfg.Runner.ReportPath
}

func telemetryOptions(cfg config.Config, rt *runtimeState, runID string) telemetry.Options {
	return telemetry.Options{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "fodtest",
		ServiceVersion: version.Version,
		Environment:    cfg.Environment.Name,
		Target:         cfg.Environment.UIURL,
		RunID:          runID,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		Logger:         rt.Logger(),
	}
}
