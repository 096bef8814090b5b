package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/fodtest/output"
	"github.com/fodqa/fod-regression/pkg/suite"
	"github.com/fodqa/fod-regression/pkg/system"
)

type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	// Registry holds the scenarios run and list operate on.
	Registry *suite.Registry
}

type runtimeState struct {
	configPath   string
	cfg          *config.Config
	outputFormat string
	verbose      bool
	writer       io.Writer
	registry     *suite.Registry
	log          *zap.SugaredLogger
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultPath(),
		OutputWriter: os.Stdout,
		Registry:     suite.DefaultRegistry,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{configPath: cfg.ConfigPath, writer: cfg.OutputWriter, registry: cfg.Registry}

	root := &cobra.Command{
		Use:           "fodtest",
		Short:         "FoD regression harness",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.registry == nil {
				rt.registry = suite.DefaultRegistry
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultPath()
			}
			if rt.outputFormat == "" {
				rt.outputFormat = os.Getenv("FODTEST_OUTPUT")
			}
			if !rt.verbose {
				rt.verbose = strings.EqualFold(os.Getenv("FODTEST_VERBOSE"), "true")
			}
			rt.log = system.SetupLogger(rt.verbose)

			// Skip config loading for commands that don't need it
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" || strings.HasPrefix(cmd.Name(), cobra.ShellCompRequestCmd) {
				return nil
			}
			return rt.EnsureConfigLoaded()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "", "Output format: table, json, yaml")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewRunCommand(),
		NewListCommand(),
		NewConfigCommand(),
		NewTokenCommand(),
		NewReceiverCommand(),
		NewVerifyCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)
	registerFlagCompletions(root, rt)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) OutputFormat() (output.Format, error) {
	return output.ParseFormat(rt.outputFormat)
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	if rt.log == nil {
		rt.log = system.SetupLogger(rt.verbose)
	}
	return rt.log
}

func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	// the default path may be absent; Load then falls back to defaults and env
	var paths []string
	if rt.configPath != config.DefaultPath() {
		paths = append(paths, rt.configPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}
	rt.cfg = &cfg
	return nil
}

// writeObject prints obj as json or yaml, or calls table for the table format.
func (rt *runtimeState) writeObject(obj any, table func(io.Writer)) error {
	format, err := rt.OutputFormat()
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		table(rt.Writer())
		return nil
	}
	return output.WriteObject(rt.Writer(), format, obj)
}
