package dto

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/fodqa/fod-regression/pkg/uniquetag"
)

// Application describes an application and its first release as entered in the
// create-application wizard.
type Application struct {
	ApplicationName     string
	ReleaseName         string
	Description         string
	BusinessCriticality BusinessCriticality
	AppType             AppType
	Sdlc                Sdlc
	// Attributes maps attribute names to the values picked in the wizard.
	Attributes map[string]string

	MicroservicesEnabled bool
	Microservices        []string
	// MicroserviceToChoose is the microservice the first release belongs to.
	MicroserviceToChoose string

	// ReleaseID is assigned by the product once the release exists.
	ReleaseID int
}

// NewApplication returns a web application with a development release.
func NewApplication() *Application {
	tag := uniquetag.Generate()
	return &Application{
		ApplicationName:     "WebApp" + tag,
		ReleaseName:         "Release" + tag,
		Description:         "Created by fodtest run " + tag,
		BusinessCriticality: CriticalityHigh,
		AppType:             AppTypeWeb,
		Sdlc:                SdlcDevelopment,
		Attributes:          map[string]string{},
	}
}

// NewMobileApplication returns a mobile application.
func NewMobileApplication() *Application {
	a := NewApplication()
	a.ApplicationName = "MobileApp" + a.ReleaseName[len("Release"):]
	a.AppType = AppTypeMobile
	return a
}

// NewMicroserviceApplication returns a web application with a single microservice
// that the first release is bound to.
func NewMicroserviceApplication() *Application {
	a := NewApplication()
	ms := uniquetag.WithPrefix("microservice")
	a.MicroservicesEnabled = true
	a.Microservices = []string{ms}
	a.MicroserviceToChoose = ms
	return a
}

func (a *Application) Validate() error {
	var errs []error
	if a.ApplicationName == "" {
		errs = append(errs, errors.New("application name is required"))
	}
	if a.ReleaseName == "" {
		errs = append(errs, errors.New("release name is required"))
	}
	if !oneOf(a.BusinessCriticality, BusinessCriticalities) {
		errs = append(errs, fmt.Errorf("unknown business criticality %q", a.BusinessCriticality))
	}
	if !oneOf(a.AppType, AppTypes) {
		errs = append(errs, fmt.Errorf("unknown application type %q", a.AppType))
	}
	if !oneOf(a.Sdlc, Sdlcs) {
		errs = append(errs, fmt.Errorf("unknown SDLC status %q", a.Sdlc))
	}
	if a.MicroservicesEnabled {
		if len(a.Microservices) == 0 {
			errs = append(errs, errors.New("microservices enabled but none listed"))
		} else if a.MicroserviceToChoose != "" && !oneOf(a.MicroserviceToChoose, a.Microservices) {
			errs = append(errs, fmt.Errorf("microservice %q is not one of %v", a.MicroserviceToChoose, a.Microservices))
		}
	}
	return errors.Join(errs...)
}

var releaseIDPattern = regexp.MustCompile(`(?i)/Releases/(\d+)(?:[/?#]|$)`)

// ParseReleaseID extracts the release id from a release page URL such as
// https://host/Redirect/Releases/1234/Overview.
func ParseReleaseID(url string) (int, error) {
	m := releaseIDPattern.FindStringSubmatch(url)
	if m == nil {
		return 0, fmt.Errorf("no release id in url %q", url)
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("release id in url %q: %w", url, err)
	}
	return id, nil
}
