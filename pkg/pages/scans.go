package pages

import (
	"fmt"
	"strings"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selScansGrid        = "#scansGrid"
	selScanCancel       = ".btn-cancel-scan"
	colScanStatus       = 3
	selSetupAssessment  = "#ddlAssessmentType"
	selSetupEntitlement = "#ddlEntitlement"
	selSetupTechStack   = "#ddlTechnologyStack"
	selSetupLanguage    = "#ddlLanguageLevel"
	selSetupAudit       = "#ddlAuditPreference"
	selSetupThirdParty  = "#cbIncludeThirdParty"
	selSetupOpenSource  = "#cbOpenSourceComponent"
	selSetupAviator     = "#cbFortifyAviator"
	selSetupSave        = "#btnSaveSetup"
	selSetupStartScan   = "#btnStartScan"
	selSetupStatus      = "#scanSetupStatus"

	selStartScanFile  = ".modal.show input[type='file']"
	selStartScanStart = ".modal.show .btn-start-scan"
	selStartScanError = ".modal.show .upload-error, .modal.show .alert-danger"
)

// ReleaseScansPage is the scans grid of a release. The newest scan is row 0.
type ReleaseScansPage struct {
	page
	Grid Table
}

func newReleaseScansPage(p page) *ReleaseScansPage {
	return &ReleaseScansPage{page: p, Grid: newTable(p, selScansGrid)}
}

// ScanStatuses returns the status of every listed scan.
func (s *ReleaseScansPage) ScanStatuses() ([]dto.ScansPageStatus, error) {
	texts, err := s.Grid.ColumnTexts(colScanStatus)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ScansPageStatus, 0, len(texts))
	for _, t := range texts {
		st, ok := matchStatus(t, dto.ScansPageStatuses)
		if !ok {
			return nil, testerr.UnexpectedConditions("unknown scan status %q", t)
		}
		out = append(out, st)
	}
	return out, nil
}

// LatestScanStatus returns the status of the newest scan.
func (s *ReleaseScansPage) LatestScanStatus() (dto.ScansPageStatus, error) {
	if err := s.d.Reload(); err != nil {
		return "", err
	}
	if err := s.waitLoaded(); err != nil {
		return "", err
	}
	statuses, err := s.ScanStatuses()
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		return "", testerr.ElementNotFound("scan", selScansGrid)
	}
	return statuses[0], nil
}

// CancelLatestScan cancels the newest scan.
func (s *ReleaseScansPage) CancelLatestScan() error {
	if err := s.Grid.clickInRow(0, selScanCancel); err != nil {
		return err
	}
	return s.confirm()
}

// StaticScanSetupPage configures and starts a static scan of a release.
type StaticScanSetupPage struct {
	page
}

func (s *StaticScanSetupPage) ChooseAssessmentType(v string) error {
	return s.selectIf(selSetupAssessment, v)
}

func (s *StaticScanSetupPage) ChooseEntitlement(v string) error {
	return s.selectIf(selSetupEntitlement, v)
}

func (s *StaticScanSetupPage) ChooseTechnologyStack(v dto.TechnologyStack) error {
	return s.selectIf(selSetupTechStack, string(v))
}

func (s *StaticScanSetupPage) ChooseLanguageLevel(v string) error {
	return s.selectIf(selSetupLanguage, v)
}

func (s *StaticScanSetupPage) ChooseAuditPreference(v dto.AuditPreference) error {
	return s.selectIf(selSetupAudit, string(v))
}

// Fill applies every setting of scan and saves the setup.
func (s *StaticScanSetupPage) Fill(scan *dto.StaticScan) error {
	steps := []func() error{
		func() error { return s.ChooseAssessmentType(scan.AssessmentType) },
		func() error { return s.ChooseEntitlement(scan.Entitlement) },
		func() error { return s.ChooseTechnologyStack(scan.TechnologyStack) },
		func() error { return s.ChooseLanguageLevel(scan.LanguageLevel) },
		func() error { return s.ChooseAuditPreference(scan.AuditPreference) },
		func() error { return s.d.SetChecked(selSetupThirdParty, scan.IncludeThirdParty) },
		func() error { return s.d.SetChecked(selSetupOpenSource, scan.OpenSourceComponent) },
		func() error { return s.d.SetChecked(selSetupAviator, scan.IncludeFortifyAviator) },
		func() error { return s.d.Click(selSetupSave) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return s.waitLoaded()
}

// PressStartScan opens the upload popup.
func (s *StaticScanSetupPage) PressStartScan() (*StartStaticScanPopup, error) {
	if err := s.d.Click(selSetupStartScan); err != nil {
		return nil, err
	}
	if err := s.d.WaitVisible(selModal, s.env.Timeout); err != nil {
		return nil, err
	}
	return &StartStaticScanPopup{page: s.page}, nil
}

// Status reloads the page and returns the scan status it shows.
func (s *StaticScanSetupPage) Status() (dto.SetupScanPageStatus, error) {
	if err := s.d.Reload(); err != nil {
		return "", err
	}
	if err := s.d.WaitVisible(selSetupStatus, s.env.LoadTimeout); err != nil {
		return "", err
	}
	text, err := s.d.Text(selSetupStatus)
	if err != nil {
		return "", err
	}
	st, ok := matchStatus(text, dto.SetupScanPageStatuses)
	if !ok {
		return "", testerr.UnexpectedConditions("unknown setup status %q", text)
	}
	return st, nil
}

// StartStaticScanPopup uploads the payload and starts the scan.
type StartStaticScanPopup struct {
	page
}

func (p *StartStaticScanPopup) UploadFile(path string) error {
	if err := p.d.UploadFile(selStartScanFile, path); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return p.waitLoaded()
}

func (p *StartStaticScanPopup) PressNext() error {
	return p.d.Click(selModalNext)
}

// PressStartScan submits the upload. A rejection message shown by the popup is
// returned as an UnexpectedConditions error.
func (p *StartStaticScanPopup) PressStartScan() error {
	if err := p.d.Click(selStartScanStart); err != nil {
		return err
	}
	if err := p.d.WaitNotVisible(selModal, p.env.LoadTimeout); err != nil {
		if msg := p.ErrorMessage(); msg != "" {
			return testerr.UnexpectedConditions("scan not started: %s", msg)
		}
		return err
	}
	return p.waitLoaded()
}

// ErrorMessage returns the upload validation message, or "" when none is shown.
func (p *StartStaticScanPopup) ErrorMessage() string {
	if !p.d.Exists(selStartScanError) {
		return ""
	}
	text, err := p.d.Text(selStartScanError)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Close dismisses the popup without starting a scan.
func (p *StartStaticScanPopup) Close() error {
	if err := p.d.Click(selModalClose); err != nil {
		return err
	}
	return p.d.WaitNotVisible(selModal, p.env.Timeout)
}
