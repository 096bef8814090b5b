package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fodqa/fod-regression/pkg/files"
	"github.com/fodqa/fod-regression/pkg/fodtest/output"
)

// NewVerifyCommand checks artifacts downloaded from the product outside of a
// run, with the same assertions scenarios use.
func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Inspect and assert on downloaded report and export files",
	}
	cmd.AddCommand(
		newVerifyCSVCommand(),
		newVerifyPDFCommand(),
		newVerifyHTMLCommand(),
		newVerifyZipCommand(),
		newVerifySBOMCommand(),
	)
	return cmd
}

func missing(what string, items []string) error {
	if len(items) == 0 {
		return nil
	}
	return fmt.Errorf("missing %s: %s", what, strings.Join(items, ", "))
}

type csvSummary struct {
	File    string   `json:"file" yaml:"file"`
	Headers []string `json:"headers" yaml:"headers"`
	Rows    int      `json:"rows" yaml:"rows"`
}

func newVerifyCSVCommand() *cobra.Command {
	var (
		columns []string
		minRows int
	)
	cmd := &cobra.Command{
		Use:   "csv FILE",
		Short: "Check a CSV export for columns and row count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			c, err := files.OpenCSV(args[0])
			if err != nil {
				return err
			}
			sum := csvSummary{File: args[0], Headers: c.Headers(), Rows: c.RowsCount()}
			if err := rt.writeObject(sum, func(w io.Writer) {
				output.WriteKeyValues(w, [][2]string{
					{"File", sum.File},
					{"Columns", strings.Join(sum.Headers, ", ")},
					{"Rows", strconv.Itoa(sum.Rows)},
				})
			}); err != nil {
				return err
			}
			var absent []string
			for _, col := range columns {
				if _, err := c.ColumnValues(col); err != nil {
					absent = append(absent, col)
				}
			}
			if err := missing("columns", absent); err != nil {
				return err
			}
			if sum.Rows < minRows {
				return fmt.Errorf("expected at least %d rows, got %d", minRows, sum.Rows)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns that must be present")
	cmd.Flags().IntVar(&minRows, "min-rows", 0, "Minimum number of data rows")
	return cmd
}

type pdfSummary struct {
	File  string `json:"file" yaml:"file"`
	Pages int    `json:"pages" yaml:"pages"`
}

func newVerifyPDFCommand() *cobra.Command {
	var contains []string
	cmd := &cobra.Command{
		Use:   "pdf FILE",
		Short: "Validate a PDF report and look for text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			p, err := files.OpenPDF(args[0])
			if err != nil {
				return err
			}
			if err := p.Validate(); err != nil {
				return err
			}
			pages, err := p.PageCount()
			if err != nil {
				return err
			}
			sum := pdfSummary{File: args[0], Pages: pages}
			if err := rt.writeObject(sum, func(w io.Writer) {
				output.WriteKeyValues(w, [][2]string{{"File", sum.File}, {"Pages", strconv.Itoa(sum.Pages)}})
			}); err != nil {
				return err
			}
			var absent []string
			for _, s := range contains {
				ok, err := p.Contains(s)
				if err != nil {
					return err
				}
				if !ok {
					absent = append(absent, strconv.Quote(s))
				}
			}
			return missing("text", absent)
		},
	}
	cmd.Flags().StringArrayVar(&contains, "contains", nil, "Text the report must contain (repeatable)")
	return cmd
}

type htmlSummary struct {
	File  string     `json:"file" yaml:"file"`
	Title string     `json:"title" yaml:"title"`
	Rows  [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

func newVerifyHTMLCommand() *cobra.Command {
	var (
		contains []string
		table    string
	)
	cmd := &cobra.Command{
		Use:   "html FILE",
		Short: "Inspect an HTML report and look for text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			h, err := files.OpenHTML(args[0])
			if err != nil {
				return err
			}
			sum := htmlSummary{File: args[0], Title: h.Title()}
			if table != "" {
				sum.Rows = h.TableRows(table)
			}
			if err := rt.writeObject(sum, func(w io.Writer) {
				output.WriteKeyValues(w, [][2]string{{"File", sum.File}, {"Title", sum.Title}})
				for _, r := range sum.Rows {
					_, _ = fmt.Fprintln(w, strings.Join(r, " | "))
				}
			}); err != nil {
				return err
			}
			var absent []string
			for _, s := range contains {
				if !h.Contains(s) {
					absent = append(absent, strconv.Quote(s))
				}
			}
			return missing("text", absent)
		},
	}
	cmd.Flags().StringArrayVar(&contains, "contains", nil, "Text the report must contain (repeatable)")
	cmd.Flags().StringVar(&table, "table", "", "CSS selector of a table whose rows are printed")
	return cmd
}

func newVerifyZipCommand() *cobra.Command {
	var (
		extract string
		expect  []string
	)
	cmd := &cobra.Command{
		Use:   "zip FILE",
		Short: "List or extract an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			var entries []string
			if extract != "" {
				entries, err = files.Unzip(args[0], extract)
			} else {
				entries, err = files.ZipEntries(args[0])
			}
			if err != nil {
				return err
			}
			if err := rt.writeObject(entries, func(w io.Writer) {
				for _, e := range entries {
					_, _ = fmt.Fprintln(w, e)
				}
			}); err != nil {
				return err
			}
			var absent []string
			for _, want := range expect {
				found := false
				for _, e := range entries {
					if strings.HasSuffix(e, want) {
						found = true
						break
					}
				}
				if !found {
					absent = append(absent, want)
				}
			}
			return missing("entries", absent)
		},
	}
	cmd.Flags().StringVar(&extract, "extract", "", "Extract into this directory")
	cmd.Flags().StringSliceVar(&expect, "expect", nil, "Entry names (or suffixes) that must be present")
	return cmd
}

func newVerifySBOMCommand() *cobra.Command {
	var components []string
	cmd := &cobra.Command{
		Use:   "sbom FILE",
		Short: "Check a CycloneDX SBOM for components",
		Long:  "Check a CycloneDX SBOM. --component takes name or name@version.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			s, err := files.OpenSBOM(args[0])
			if err != nil {
				return err
			}
			comps := s.Components()
			if err := rt.writeObject(comps, func(w io.Writer) {
				output.WriteKeyValues(w, [][2]string{
					{"File", args[0]},
					{"Format", s.BOMFormat + " " + s.SpecVersion},
					{"Components", strconv.Itoa(len(comps))},
				})
			}); err != nil {
				return err
			}
			var absent []string
			for _, c := range components {
				name, version, _ := strings.Cut(c, "@")
				if !s.HasComponent(name, version) {
					absent = append(absent, c)
				}
			}
			return missing("components", absent)
		},
	}
	cmd.Flags().StringSliceVar(&components, "component", nil, "Components that must be present")
	return cmd
}
