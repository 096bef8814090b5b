package dto

import (
	"errors"
	"fmt"

	"github.com/fodqa/fod-regression/pkg/uniquetag"
)

// Report is a report generated for an application release.
type Report struct {
	ReportName  string
	Application *Application
	// ReportTemplate is a built-in template or the name of a custom one.
	ReportTemplate ReportTemplateType
	FileType       ReportFileType
	Notes          string
}

// NewReport returns a static summary PDF report. Application is set by the caller.
func NewReport() *Report {
	return &Report{
		ReportName:     uniquetag.WithPrefix("Report"),
		ReportTemplate: ReportStaticSummary,
		FileType:       ReportFilePDF,
	}
}

// NewReportFor returns NewReport bound to app using template.
func NewReportFor(app *Application, template ReportTemplateType) *Report {
	r := NewReport()
	r.Application = app
	r.ReportTemplate = template
	return r
}

func (r *Report) Validate() error {
	var errs []error
	if r.ReportName == "" {
		errs = append(errs, errors.New("report name is required"))
	}
	if r.ReportTemplate == "" {
		errs = append(errs, errors.New("report template is required"))
	}
	if !oneOf(r.FileType, ReportFileTypes) {
		errs = append(errs, fmt.Errorf("unknown report file type %q", r.FileType))
	}
	return errors.Join(errs...)
}

// Extension returns the file extension of the downloaded report.
func (r *Report) Extension() string {
	if r.FileType == ReportFileHTML {
		return ".zip"
	}
	return ".pdf"
}

// DataExport is a data export definition.
type DataExport struct {
	ExportName   string
	Template     DataExportTemplate
	IsSuppressed bool
	// Columns lists the CSV columns a scenario expects in the export.
	Columns []string
}

// NewDataExport returns an issues export.
func NewDataExport() *DataExport {
	return NewDataExportWithTemplate(ExportIssues)
}

// NewDataExportWithTemplate returns an export of template with its default columns.
func NewDataExportWithTemplate(t DataExportTemplate) *DataExport {
	return &DataExport{
		ExportName: uniquetag.WithPrefix("Export"),
		Template:   t,
		Columns:    defaultExportColumns[t],
	}
}

var defaultExportColumns = map[DataExportTemplate][]string{
	ExportIssues:                 {"Application Name", "Release Name", "Severity", "Category", "Primary Location", "Issue Id"},
	ExportScans:                  {"Application Name", "Release Name", "Scan Type", "Status", "Started Date"},
	ExportApplications:           {"Application Name", "Business Criticality", "Application Type"},
	ExportApplicationReleases:    {"Application Name", "Release Name", "SDLC Status"},
	ExportEntitlementConsumption: {"Entitlement Id", "Units Consumed", "Scan Type"},
}

func (d *DataExport) Validate() error {
	var errs []error
	if d.ExportName == "" {
		errs = append(errs, errors.New("export name is required"))
	}
	if !oneOf(d.Template, DataExportTemplates) {
		errs = append(errs, fmt.Errorf("unknown data export template %q", d.Template))
	}
	return errors.Join(errs...)
}
