package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fodqa/fod-regression/pkg/suite"
)

func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			w, root := rt.Writer(), cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(w)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}

// registerFlagCompletions completes --groups and --run from the registry the
// root command was built with. Completion bypasses PersistentPreRunE, so the
// registry is taken from rt directly.
func registerFlagCompletions(root *cobra.Command, rt *runtimeState) {
	_ = root.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))

	registry := func() *suite.Registry {
		if rt.registry != nil {
			return rt.registry
		}
		return suite.DefaultRegistry
	}
	for _, name := range []string{"run", "list"} {
		sub, _, err := root.Find([]string{name})
		if err != nil || sub == root {
			continue
		}
		_ = sub.RegisterFlagCompletionFunc("groups", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return withPrefix(registry().Groups(), toComplete), cobra.ShellCompDirectiveNoFileComp
		})
		_ = sub.RegisterFlagCompletionFunc("run", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return withPrefix(scenarioPatterns(registry()), toComplete), cobra.ShellCompDirectiveNoFileComp
		})
	}
}

// scenarioPatterns lists every class and Class/scenario name.
func scenarioPatterns(r *suite.Registry) []string {
	var out []string
	for _, c := range r.Classes() {
		out = append(out, c.Name)
		for _, s := range c.Scenarios {
			out = append(out, c.Name+"/"+s.Name)
		}
	}
	return out
}

func withPrefix(values []string, prefix string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	return out
}
