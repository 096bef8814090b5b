package actions

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/pages"
	"github.com/fodqa/fod-regression/pkg/testerr"
	"github.com/fodqa/fod-regression/pkg/waitutil"
)

type StaticScans struct {
	*base
	apps *Applications
}

// CreateStaticScan configures and starts a static scan of app's release, then
// waits for the setup page to show expect. An empty expect returns right after
// the scan was started.
func (s *StaticScans) CreateStaticScan(scan *dto.StaticScan, app *dto.Application, expect dto.SetupScanPageStatus) (dto.SetupScanPageStatus, error) {
	if err := scan.Validate(); err != nil {
		return "", fmt.Errorf("invalid static scan: %w", err)
	}
	s.log().Infow("Creating static scan", "release", app.ReleaseName, "payload", scan.FileToUpload, "expect", expect)

	var status dto.SetupScanPageStatus
	err := s.traced("CreateStaticScan", func() error {
		setup, _, err := s.start(scan, app)
		if err != nil {
			return err
		}
		if expect == "" {
			return nil
		}
		status, err = s.waitStatus(setup, expect)
		return err
	}, attribute.String("release", app.ReleaseName), attribute.String("expect", string(expect)))
	if err != nil {
		return status, fmt.Errorf("static scan of %s: %w", app.ReleaseName, err)
	}
	return status, nil
}

// StartWithPayload tries to start a scan uploading scan.FileToUpload and returns
// the rejection message the upload popup shows, or "" when the scan started.
func (s *StaticScans) StartWithPayload(scan *dto.StaticScan, app *dto.Application) (string, error) {
	_, popup, err := s.start(scan, app)
	if err == nil {
		return "", nil
	}
	if popup != nil && errors.Is(err, testerr.ErrUnexpectedConditions) {
		if msg := popup.ErrorMessage(); msg != "" {
			s.log().Infow("Payload rejected", "payload", scan.FileToUpload, "message", msg)
			return msg, popup.Close()
		}
	}
	return "", err
}

func (s *StaticScans) start(scan *dto.StaticScan, app *dto.Application) (*pages.StaticScanSetupPage, *pages.StartStaticScanPopup, error) {
	overview, err := s.apps.OpenRelease(app)
	if err != nil {
		return nil, nil, err
	}
	setup, err := overview.OpenStaticScanSetup()
	if err != nil {
		return nil, nil, err
	}
	if err := setup.Fill(scan); err != nil {
		return nil, nil, err
	}
	popup, err := setup.PressStartScan()
	if err != nil {
		return nil, nil, err
	}
	if err := popup.UploadFile(scan.FileToUpload); err != nil {
		return setup, popup, err
	}
	if err := popup.PressStartScan(); err != nil {
		return setup, popup, err
	}
	return setup, popup, nil
}

func (s *StaticScans) waitStatus(setup *pages.StaticScanSetupPage, expect dto.SetupScanPageStatus) (dto.SetupScanPageStatus, error) {
	supplier := func() (dto.SetupScanPageStatus, error) {
		st, err := setup.Status()
		if err != nil {
			return "", err
		}
		if st.Final() && st != expect {
			s.log().Warnw("Scan reached a final status", "status", st, "expect", expect)
		}
		return st, nil
	}
	return waitutil.WaitFor(s.deps.Ctx, waitutil.Equals, expect, supplier, s.deps.ScanTimeout, true,
		waitutil.WithInterval(s.deps.PollInterval))
}
