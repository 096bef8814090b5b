package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fodqa/fod-regression/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show fodtest version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			info := version.GetBuildInfo()
			return rt.writeObject(info, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "fodtest %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildDate)
			})
		},
	}
}
