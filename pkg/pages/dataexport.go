package pages

import (
	"fmt"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selExportsGrid      = "#dataExportsGrid"
	selExportsSearch    = "#dataExportsSearch"
	selNewExport        = "#btnNewDataExport"
	selExportName       = "#dataExportName"
	selExportTemplate   = "#dataExportTemplate"
	selExportSuppressed = "#dataExportIncludeSuppressed"
	selExportColumn     = ".modal.show [data-column=%q] input[type='checkbox']"
	selExportFiles      = ".export-files .export-file"
	selExportFileLink   = ".export-files .export-file:nth-child(%d) a.download"
	selExportFileDelete = ".export-files .export-file:nth-child(%d) .btn-delete-file"
	selExportRunNow     = ".btn-run-export"
	colExportName       = 0
	exportDownloadKind  = "export"
)

// DataExportPage lists data export templates and their generated files.
type DataExportPage struct {
	page
	Grid Table
}

func newDataExportPage(p page) *DataExportPage {
	return &DataExportPage{page: p, Grid: newTable(p, selExportsGrid)}
}

func (e *DataExportPage) PressNewExport() (*DataExportWizard, error) {
	if err := e.d.Click(selNewExport); err != nil {
		return nil, err
	}
	if err := e.d.WaitVisible(selExportName, e.env.Timeout); err != nil {
		return nil, err
	}
	return &DataExportWizard{page: e.page}, nil
}

func (e *DataExportPage) GetDataExportByName(name string) (*DataExportCell, error) {
	if err := e.search(selExportsSearch, name); err != nil {
		return nil, err
	}
	row, err := e.Grid.FindRow(colExportName, name)
	if err != nil {
		return nil, err
	}
	return &DataExportCell{page: e.page, grid: e.Grid, row: row}, nil
}

// DataExportWizard is the new-export form.
type DataExportWizard struct {
	page
}

func (w *DataExportWizard) Fill(exp *dto.DataExport) error {
	if err := w.d.Type(selExportName, exp.ExportName); err != nil {
		return err
	}
	if err := w.selectIf(selExportTemplate, string(exp.Template)); err != nil {
		return err
	}
	if err := w.d.SetChecked(selExportSuppressed, exp.IsSuppressed); err != nil {
		return err
	}
	for _, col := range exp.Columns {
		if err := w.d.SetChecked(fmt.Sprintf(selExportColumn, col), true); err != nil {
			return err
		}
	}
	return nil
}

func (w *DataExportWizard) Submit() (*DataExportPage, error) {
	if err := w.saveModal(selModalSave); err != nil {
		return nil, err
	}
	return newDataExportPage(w.page), nil
}

// DataExportCell is one export template row. Files are numbered from 0, newest first.
type DataExportCell struct {
	page
	grid Table
	row  int
}

// RunNow generates a new export file.
func (c *DataExportCell) RunNow() error {
	if err := c.grid.clickInRow(c.row, selExportRunNow); err != nil {
		return err
	}
	return c.waitLoaded()
}

func (c *DataExportCell) FilesCount() (int, error) {
	return c.d.Count(c.grid.rowSelector(c.row) + " " + selExportFiles)
}

// Download fetches the i-th generated file.
func (c *DataExportCell) Download(i int) (string, error) {
	if err := c.requireFile(i); err != nil {
		return "", err
	}
	return c.d.Download(exportDownloadKind, func() error {
		return c.grid.clickInRow(c.row, fmt.Sprintf(selExportFileLink, i+1))
	}, c.env.DownloadTimeout)
}

// DeleteTemplateFile removes the i-th generated file.
func (c *DataExportCell) DeleteTemplateFile(i int) error {
	if err := c.requireFile(i); err != nil {
		return err
	}
	if err := c.grid.clickInRow(c.row, fmt.Sprintf(selExportFileDelete, i+1)); err != nil {
		return err
	}
	return c.confirm()
}

func (c *DataExportCell) requireFile(i int) error {
	n, err := c.FilesCount()
	if err != nil {
		return err
	}
	if i < 0 || i >= n {
		return testerr.ElementNotFound(fmt.Sprintf("export file #%d of %d", i, n), selExportFiles)
	}
	return nil
}
