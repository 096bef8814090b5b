package pages

import (
	"errors"
	"fmt"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selApplicationsGrid   = "#applicationsGrid"
	selApplicationsSearch = "#applicationsSearch"
	selYourReleasesTab    = "a[href$='/Applications/YourReleases']"
	selReleasesGrid       = "#releasesGrid"
	selAddApplication     = "#btnAddApplication"
	selDeleteApplication  = ".btn-delete-application"

	selAppWizardName         = "#applicationName"
	selAppWizardDescription  = "#applicationDescription"
	selAppWizardCriticality  = "#businessCriticality"
	selAppWizardType         = "#applicationType"
	selAppWizardMicroservice = "#hasMicroservices"
	selAppWizardMsName       = "#microserviceName"
	selAppWizardMsAdd        = "#btnAddMicroservice"
	selAppWizardRelease      = "#releaseName"
	selAppWizardSdlc         = "#sdlcStatus"
	selAppWizardMsChoose     = "#releaseMicroservice"
	selAppWizardAttribute    = ".modal.show [data-attribute-name=%q] input, .modal.show [data-attribute-name=%q] select"

	selReleaseOverview = "#releaseOverview"
	selReleaseName     = "#releaseOverview .release-name"
	selReleaseTabScans = "a[href$='/Scans']"
	selReleaseTabSetup = "a[href$='/StaticScanSetup']"
	selReleaseTabIssue = "a[href$='/Issues']"
)

// ApplicationsPage lists the tenant's applications.
type ApplicationsPage struct {
	page
	Grid Table
}

func newApplicationsPage(p page) *ApplicationsPage {
	return &ApplicationsPage{page: p, Grid: newTable(p, selApplicationsGrid)}
}

// PressAddApplication opens the create-application wizard.
func (a *ApplicationsPage) PressAddApplication() (*CreateApplicationPopup, error) {
	if err := a.d.Click(selAddApplication); err != nil {
		return nil, err
	}
	if err := a.d.WaitVisible(selAppWizardName, a.env.Timeout); err != nil {
		return nil, err
	}
	return &CreateApplicationPopup{page: a.page}, nil
}

// Search filters the grid by application name.
func (a *ApplicationsPage) Search(name string) error {
	return a.search(selApplicationsSearch, name)
}

// HasApplication reports whether an application named name is listed.
func (a *ApplicationsPage) HasApplication(name string) (bool, error) {
	if err := a.Search(name); err != nil {
		return false, err
	}
	_, err := a.Grid.FindRow(0, name)
	if errors.Is(err, testerr.ErrElementNotFound) {
		return false, nil
	}
	return err == nil, err
}

// OpenRelease opens the overview of app's release from the Your Releases tab.
func (a *ApplicationsPage) OpenRelease(app *dto.Application) (*ReleaseOverviewPage, error) {
	if err := a.open(selYourReleasesTab, selReleasesGrid); err != nil {
		return nil, err
	}
	if err := a.search(selApplicationsSearch, app.ReleaseName); err != nil {
		return nil, err
	}
	releases := newTable(a.page, selReleasesGrid)
	row, err := releases.FindRow(1, app.ReleaseName)
	if err != nil {
		return nil, err
	}
	if err := releases.clickInRow(row, "a.release-link"); err != nil {
		return nil, err
	}
	return waitReleaseOverview(a.page)
}

// DeleteApplication deletes the application named name.
func (a *ApplicationsPage) DeleteApplication(name string) error {
	if err := a.Search(name); err != nil {
		return err
	}
	row, err := a.Grid.FindRow(0, name)
	if err != nil {
		return err
	}
	if err := a.Grid.clickInRow(row, selDeleteApplication); err != nil {
		return err
	}
	return a.confirm()
}

// CreateApplicationPopup is the multi-step create-application wizard.
type CreateApplicationPopup struct {
	page
}

// Fill enters every wizard step from app.
func (w *CreateApplicationPopup) Fill(app *dto.Application) error {
	if err := w.fill(selAppWizardName, app.ApplicationName); err != nil {
		return err
	}
	if err := w.fill(selAppWizardDescription, app.Description); err != nil {
		return err
	}
	if err := w.selectIf(selAppWizardCriticality, string(app.BusinessCriticality)); err != nil {
		return err
	}
	if err := w.selectIf(selAppWizardType, string(app.AppType)); err != nil {
		return err
	}
	for name, value := range app.Attributes {
		if err := w.setAttribute(name, value); err != nil {
			return err
		}
	}
	if app.MicroservicesEnabled {
		if err := w.d.SetChecked(selAppWizardMicroservice, true); err != nil {
			return err
		}
		for _, ms := range app.Microservices {
			if err := w.d.Type(selAppWizardMsName, ms); err != nil {
				return err
			}
			if err := w.d.Click(selAppWizardMsAdd); err != nil {
				return err
			}
		}
	}
	if err := w.d.Click(selModalNext); err != nil {
		return err
	}
	if err := w.d.WaitVisible(selAppWizardRelease, w.env.Timeout); err != nil {
		return err
	}
	if err := w.fill(selAppWizardRelease, app.ReleaseName); err != nil {
		return err
	}
	if err := w.selectIf(selAppWizardSdlc, string(app.Sdlc)); err != nil {
		return err
	}
	if app.MicroservicesEnabled {
		return w.selectIf(selAppWizardMsChoose, app.MicroserviceToChoose)
	}
	return nil
}

func (w *CreateApplicationPopup) setAttribute(name, value string) error {
	sel := fmt.Sprintf(selAppWizardAttribute, name, name)
	if err := w.d.SelectOption(sel, value); err == nil {
		return nil
	}
	return w.d.Type(sel, value)
}

// Submit saves the wizard and lands on the new release's overview.
func (w *CreateApplicationPopup) Submit() (*ReleaseOverviewPage, error) {
	if err := w.saveModal(selModalSave); err != nil {
		return nil, err
	}
	return waitReleaseOverview(w.page)
}

// ReleaseOverviewPage is the landing page of a release.
type ReleaseOverviewPage struct {
	page
}

func waitReleaseOverview(p page) (*ReleaseOverviewPage, error) {
	if err := p.d.WaitVisible(selReleaseOverview, p.env.LoadTimeout); err != nil {
		return nil, err
	}
	if err := p.waitLoaded(); err != nil {
		return nil, err
	}
	return &ReleaseOverviewPage{page: p}, nil
}

// ReleaseID parses the release id out of the current URL.
func (r *ReleaseOverviewPage) ReleaseID() (int, error) {
	u, err := r.d.URL()
	if err != nil {
		return 0, err
	}
	return dto.ParseReleaseID(u)
}

func (r *ReleaseOverviewPage) ReleaseName() (string, error) {
	return r.d.Text(selReleaseName)
}

func (r *ReleaseOverviewPage) OpenScans() (*ReleaseScansPage, error) {
	if err := r.open(selReleaseTabScans, selScansGrid); err != nil {
		return nil, err
	}
	return newReleaseScansPage(r.page), nil
}

func (r *ReleaseOverviewPage) OpenStaticScanSetup() (*StaticScanSetupPage, error) {
	if err := r.open(selReleaseTabSetup, selSetupAssessment); err != nil {
		return nil, err
	}
	return &StaticScanSetupPage{page: r.page}, nil
}

func (r *ReleaseOverviewPage) OpenIssues() (*ReleaseIssuesPage, error) {
	if err := r.open(selReleaseTabIssue, selIssuesList); err != nil {
		return nil, err
	}
	return &ReleaseIssuesPage{page: r.page}, nil
}
