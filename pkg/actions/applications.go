package actions

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/pages"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

type Applications struct {
	*base
}

// CreateApplication creates app with its first release and stores the release id
// the product assigned in app.ReleaseID. The browser is left on the release overview.
func (a *Applications) CreateApplication(app *dto.Application) (*pages.ReleaseOverviewPage, error) {
	if err := app.Validate(); err != nil {
		return nil, fmt.Errorf("invalid application: %w", err)
	}
	a.log().Infow("Creating application", "application", app.ApplicationName, "release", app.ReleaseName)

	var overview *pages.ReleaseOverviewPage
	err := a.traced("CreateApplication", func() error {
		apps, err := a.navbar().OpenApplications()
		if err != nil {
			return err
		}
		popup, err := apps.PressAddApplication()
		if err != nil {
			return err
		}
		if err := popup.Fill(app); err != nil {
			return err
		}
		if overview, err = popup.Submit(); err != nil {
			return err
		}
		id, err := overview.ReleaseID()
		if err != nil {
			return testerr.ElementNotCreated("release", app.ReleaseName)
		}
		app.ReleaseID = id
		return nil
	}, attribute.String("application", app.ApplicationName))
	if err != nil {
		return nil, fmt.Errorf("create application %s: %w", app.ApplicationName, err)
	}
	a.log().Infow("Application created", "application", app.ApplicationName, "releaseID", app.ReleaseID)
	return overview, nil
}

// CreateApplications creates every app in order and stops at the first failure.
func (a *Applications) CreateApplications(apps ...*dto.Application) error {
	for _, app := range apps {
		if _, err := a.CreateApplication(app); err != nil {
			return err
		}
	}
	return nil
}

// OpenRelease navigates to app's release overview.
func (a *Applications) OpenRelease(app *dto.Application) (*pages.ReleaseOverviewPage, error) {
	apps, err := a.navbar().OpenApplications()
	if err != nil {
		return nil, err
	}
	return apps.OpenRelease(app)
}

// DeleteApplication removes the application and checks it is gone from the grid.
func (a *Applications) DeleteApplication(app *dto.Application) error {
	apps, err := a.navbar().OpenApplications()
	if err != nil {
		return err
	}
	if err := apps.DeleteApplication(app.ApplicationName); err != nil {
		return err
	}
	still, err := apps.HasApplication(app.ApplicationName)
	if err != nil {
		return err
	}
	if still {
		return testerr.UnexpectedConditions("application %s still listed after delete", app.ApplicationName)
	}
	return nil
}
