package pages

import (
	"fmt"
	"strings"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selReportsGrid     = "#reportsGrid"
	selReportsSearch   = "#reportsSearch"
	selNewReport       = "#btnNewReport"
	selReportApp       = "#reportApplication"
	selReportRelease   = "#reportRelease"
	selReportTemplate  = "#reportTemplate"
	selReportName      = "#reportName"
	selReportFormat    = ".modal.show input[name='reportFormat'][value=%q]"
	selReportNotes     = "#reportNotes"
	selReportDownload  = ".btn-download-report"
	colReportName      = 0
	colReportStatus    = 4
	reportDownloadKind = "report"
)

// ReportsPage lists generated reports.
type ReportsPage struct {
	page
	Grid Table
}

func newReportsPage(p page) *ReportsPage {
	return &ReportsPage{page: p, Grid: newTable(p, selReportsGrid)}
}

func (r *ReportsPage) PressNewReport() (*ReportWizard, error) {
	if err := r.d.Click(selNewReport); err != nil {
		return nil, err
	}
	if err := r.d.WaitVisible(selReportApp, r.env.Timeout); err != nil {
		return nil, err
	}
	return &ReportWizard{page: r.page}, nil
}

// GetReportByName searches for the report called name.
func (r *ReportsPage) GetReportByName(name string) (*ReportCell, error) {
	if err := r.search(selReportsSearch, name); err != nil {
		return nil, err
	}
	row, err := r.Grid.FindRow(colReportName, name)
	if err != nil {
		return nil, err
	}
	return &ReportCell{page: r.page, grid: r.Grid, row: row, name: name}, nil
}

// ReportWizard is the new-report form.
type ReportWizard struct {
	page
}

func (w *ReportWizard) Fill(rep *dto.Report) error {
	if rep.Application != nil {
		if err := w.d.SelectOption(selReportApp, rep.Application.ApplicationName); err != nil {
			return err
		}
		if err := w.waitLoaded(); err != nil {
			return err
		}
		if err := w.selectIf(selReportRelease, rep.Application.ReleaseName); err != nil {
			return err
		}
	}
	if err := w.d.Click(selModalNext); err != nil {
		return err
	}
	if err := w.d.WaitVisible(selReportTemplate, w.env.Timeout); err != nil {
		return err
	}
	if err := w.selectIf(selReportTemplate, string(rep.ReportTemplate)); err != nil {
		return err
	}
	if err := w.d.SetValue(selReportName, rep.ReportName); err != nil {
		return err
	}
	if err := w.d.Click(fmt.Sprintf(selReportFormat, string(rep.FileType))); err != nil {
		return err
	}
	return w.fill(selReportNotes, rep.Notes)
}

// Submit queues the report and returns to the reports grid.
func (w *ReportWizard) Submit() (*ReportsPage, error) {
	if err := w.saveModal(selModalSave); err != nil {
		return nil, err
	}
	return newReportsPage(w.page), nil
}

// ReportCell is one row of the reports grid.
type ReportCell struct {
	page
	grid Table
	row  int
	name string
}

func (c *ReportCell) Status() (dto.ReportStatus, error) {
	text, err := c.grid.CellText(c.row, colReportStatus)
	if err != nil {
		return "", err
	}
	st, ok := matchStatus(text, dto.ReportStatuses)
	if !ok {
		return "", testerr.UnexpectedConditions("unknown report status %q", strings.TrimSpace(text))
	}
	return st, nil
}

// Download clicks the row's download link and returns the downloaded file path.
func (c *ReportCell) Download() (string, error) {
	return c.d.Download(reportDownloadKind, func() error {
		return c.grid.clickInRow(c.row, selReportDownload)
	}, c.env.DownloadTimeout)
}
