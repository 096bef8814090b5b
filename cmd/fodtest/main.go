package main

import (
	"errors"
	"fmt"
	"os"

	_ "github.com/fodqa/fod-regression/e2e/scenarios"
	fodtestcmd "github.com/fodqa/fod-regression/pkg/fodtest/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := fodtestcmd.NewRootCommand(fodtestcmd.DefaultConfig())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, fodtestcmd.ErrScenariosFailed) {
			return 1
		}
		return 2
	}
	return 0
}
