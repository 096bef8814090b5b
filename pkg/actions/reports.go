package actions

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/pages"
	"github.com/fodqa/fod-regression/pkg/waitutil"
)

type Reports struct {
	*base
}

// CreateReportAndDownload queues rep, waits for it to complete and downloads
// it. The path of the downloaded file is returned.
func (r *Reports) CreateReportAndDownload(rep *dto.Report) (string, error) {
	if err := rep.Validate(); err != nil {
		return "", fmt.Errorf("invalid report: %w", err)
	}
	r.log().Infow("Creating report", "name", rep.ReportName, "template", rep.ReportTemplate, "format", rep.FileType)

	var path string
	err := r.traced("CreateReportAndDownload", func() error {
		list, err := r.navbar().OpenReports()
		if err != nil {
			return err
		}
		wizard, err := list.PressNewReport()
		if err != nil {
			return err
		}
		if err := wizard.Fill(rep); err != nil {
			return err
		}
		if list, err = wizard.Submit(); err != nil {
			return err
		}
		cell, err := r.waitCompleted(list, rep.ReportName)
		if err != nil {
			return err
		}
		path, err = cell.Download()
		return err
	}, attribute.String("template", string(rep.ReportTemplate)))
	if err != nil {
		return "", fmt.Errorf("report %s: %w", rep.ReportName, err)
	}
	r.log().Infow("Report downloaded", "name", rep.ReportName, "path", path)
	return path, nil
}

func (r *Reports) waitCompleted(list *pages.ReportsPage, name string) (*pages.ReportCell, error) {
	var cell *pages.ReportCell
	supplier := func() (dto.ReportStatus, error) {
		var err error
		if cell, err = list.GetReportByName(name); err != nil {
			return "", err
		}
		return cell.Status()
	}
	_, err := waitutil.WaitFor(r.deps.Ctx, waitutil.Equals, dto.ReportStatusCompleted, supplier, r.deps.WaitTimeout, true,
		waitutil.WithInterval(r.deps.PollInterval))
	if err != nil {
		return nil, err
	}
	return cell, nil
}

type DataExports struct {
	*base
}

// CreateDataExportAndDownload creates the export template, runs it and
// downloads the newest generated file.
func (d *DataExports) CreateDataExportAndDownload(exp *dto.DataExport) (string, error) {
	if err := exp.Validate(); err != nil {
		return "", fmt.Errorf("invalid data export: %w", err)
	}
	d.log().Infow("Creating data export", "name", exp.ExportName, "template", exp.Template)

	var path string
	err := d.traced("CreateDataExportAndDownload", func() error {
		list, err := d.navbar().OpenDataExport()
		if err != nil {
			return err
		}
		wizard, err := list.PressNewExport()
		if err != nil {
			return err
		}
		if err := wizard.Fill(exp); err != nil {
			return err
		}
		if list, err = wizard.Submit(); err != nil {
			return err
		}
		cell, err := list.GetDataExportByName(exp.ExportName)
		if err != nil {
			return err
		}
		if err := cell.RunNow(); err != nil {
			return err
		}
		ready := func() (bool, error) {
			c, err := list.GetDataExportByName(exp.ExportName)
			if err != nil {
				return false, err
			}
			cell = c
			n, err := c.FilesCount()
			return n > 0, err
		}
		if _, err := waitutil.WaitForTrue(d.deps.Ctx, ready, d.deps.WaitTimeout, true, waitutil.WithInterval(d.deps.PollInterval)); err != nil {
			return err
		}
		path, err = cell.Download(0)
		return err
	}, attribute.String("template", string(exp.Template)))
	if err != nil {
		return "", fmt.Errorf("data export %s: %w", exp.ExportName, err)
	}
	return path, nil
}
