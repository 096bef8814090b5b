package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/fodqa/fod-regression/pkg/fodtest/output"
	"github.com/fodqa/fod-regression/pkg/suite"
)

func NewListCommand() *cobra.Command {
	var (
		groups     []string
		names      []string
		listGroups bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered scenarios",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if listGroups {
				all := rt.registry.Groups()
				return rt.writeObject(all, func(w io.Writer) {
					for _, g := range all {
						_, _ = io.WriteString(w, g+"\n")
					}
				})
			}
			rows := output.Scenarios(rt.registry.Select(suite.Filter{Groups: groups, Names: names}))
			return rt.writeObject(rows, func(w io.Writer) { output.WriteScenarioTable(w, rows) })
		},
	}

	cmd.Flags().StringSliceVar(&groups, "groups", nil, "Only list scenarios in these groups")
	cmd.Flags().StringSliceVar(&names, "run", nil, "Glob patterns over Class, scenario or Class/scenario")
	cmd.Flags().BoolVar(&listGroups, "group-names", false, "List the known groups instead of scenarios")
	return cmd
}
