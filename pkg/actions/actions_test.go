package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/pages"
	"github.com/fodqa/fod-regression/pkg/system"
	"github.com/fodqa/fod-regression/pkg/testerr"
	"github.com/fodqa/fod-regression/pkg/waitutil"
)

// scriptedDriver succeeds on every interaction unless told otherwise. Text
// answers pop from per-selector queues; the last answer repeats.
type scriptedDriver struct {
	url          string
	texts        map[string][]string
	lists        map[string][]string
	counts       map[string]int
	attrs        map[string]string
	present      map[string]bool
	hideFailures map[string]int

	calls     []string
	downloads int
}

func newScriptedDriver() *scriptedDriver {
	return &scriptedDriver{
		texts:        map[string][]string{},
		lists:        map[string][]string{},
		counts:       map[string]int{},
		attrs:        map[string]string{},
		present:      map[string]bool{},
		hideFailures: map[string]int{},
	}
}

func (s *scriptedDriver) record(c string) { s.calls = append(s.calls, c) }

func (s *scriptedDriver) Navigate(url string) error {
	s.record("navigate " + url)
	return nil
}
func (s *scriptedDriver) URL() (string, error) { return s.url, nil }
func (s *scriptedDriver) Reload() error { return nil }
func (s *scriptedDriver) WaitVisible(string, time.Duration) error {
	return nil
}

func (s *scriptedDriver) WaitNotVisible(sel string, _ time.Duration) error {
	if s.hideFailures[sel] > 0 {
		s.hideFailures[sel]--
		return testerr.UnexpectedConditions("%s still visible", sel)
	}
	return nil
}

func (s *scriptedDriver) Exists(sel string) bool { return s.present[sel] }
func (s *scriptedDriver) Count(sel string) (int, error) { return s.counts[sel], nil }
func (s *scriptedDriver) Click(sel string) error {
	s.record("click " + sel)
	return nil
}
func (s *scriptedDriver) ClickByText(string) error { return nil }
func (s *scriptedDriver) SetValue(string, string) error { return nil }
func (s *scriptedDriver) Type(string, string) error { return nil }
func (s *scriptedDriver) SelectOption(string, string) error {
	return nil
}
func (s *scriptedDriver) SetChecked(string, bool) error { return nil }
func (s *scriptedDriver) UploadFile(string, string) error { return nil }
func (s *scriptedDriver) Evaluate(string, interface{}) error { return nil }
func (s *scriptedDriver) Texts(sel string) ([]string, error) { return s.lists[sel], nil }

func (s *scriptedDriver) ClearCookies() error {
	s.record("clear cookies")
	return nil
}

func (s *scriptedDriver) Text(sel string) (string, error) {
	q := s.texts[sel]
	if len(q) == 0 {
		return "", testerr.ElementNotFound("element", sel)
	}
	if len(q) > 1 {
		s.texts[sel] = q[1:]
	}
	return q[0], nil
}

func (s *scriptedDriver) Attribute(sel, name string) (string, bool, error) {
	v, ok := s.attrs[sel+"@"+name]
	return v, ok, nil
}

func (s *scriptedDriver) Download(kind string, trigger func() error, _ time.Duration) (string, error) {
	if err := trigger(); err != nil {
		return "", err
	}
	s.downloads++
	return "/downloads/" + kind + ".pdf", nil
}

func newTestActions(d pages.Driver) *Actions {
	return New(Deps{
		Ctx:          context.Background(),
		Driver:       d,
		Env:          pages.Env{UIURL: "https://fod.example.test", AdminURL: "https://fod.example.test/Admin"},
		Creds:        config.Credentials{AdminUser: "admin", AdminPassword: "pw", TAMUser: "tam"},
		WaitTimeout:  time.Second,
		ScanTimeout:  time.Second,
		PollInterval: time.Millisecond,
		Log:          system.NewTestLogger(),
	})
}

func TestLoginClearsCookiesFirst(t *testing.T) {
	d := newScriptedDriver()
	_, err := newTestActions(d).LogIn.TenantUserLogIn("lead", "pw", "ACME")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(d.calls), 2)
	assert.Equal(t, "clear cookies", d.calls[0])
	assert.Equal(t, "navigate https://fod.example.test", d.calls[1])
}

func TestAdminLoginUsesConfiguredCredentials(t *testing.T) {
	d := newScriptedDriver()
	_, err := newTestActions(d).LogIn.AdminUserLogIn()
	require.NoError(t, err)
	assert.Contains(t, d.calls, "navigate https://fod.example.test/Admin")
}

func TestCreateApplicationStoresReleaseID(t *testing.T) {
	d := newScriptedDriver()
	d.url = "https://fod.example.test/Redirect/Releases/1234/Overview"
	app := dto.NewApplication()

	overview, err := newTestActions(d).Applications.CreateApplication(app)
	require.NoError(t, err)
	require.NotNil(t, overview)
	assert.Equal(t, 1234, app.ReleaseID)
}

func TestCreateApplicationWithoutReleaseIDIsNotCreated(t *testing.T) {
	d := newScriptedDriver()
	d.url = "https://fod.example.test/Applications"

	_, err := newTestActions(d).Applications.CreateApplication(dto.NewApplication())
	assert.True(t, errors.Is(err, testerr.ErrElementNotCreated))
}

func TestCreateApplicationRejectsInvalidDTO(t *testing.T) {
	d := newScriptedDriver()
	app := dto.NewApplication()
	app.Sdlc = "Someday"

	_, err := newTestActions(d).Applications.CreateApplication(app)
	require.Error(t, err)
	assert.Empty(t, d.calls)
}

func scriptRelease(d *scriptedDriver, app *dto.Application) {
	d.lists["#releasesGrid tbody tr:not(.k-no-data) td:nth-child(2)"] = []string{app.ReleaseName}
}

func TestCreateStaticScanWaitsForStatus(t *testing.T) {
	d := newScriptedDriver()
	app := dto.NewApplication()
	scriptRelease(d, app)
	d.texts["#scanSetupStatus"] = []string{"Queued", "In Progress - Scanning", "Completed"}

	status, err := newTestActions(d).StaticScans.CreateStaticScan(dto.NewStaticScan(), app, dto.SetupStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, dto.SetupStatusCompleted, status)
}

func TestCreateStaticScanTimesOut(t *testing.T) {
	d := newScriptedDriver()
	app := dto.NewApplication()
	scriptRelease(d, app)
	d.texts["#scanSetupStatus"] = []string{"Queued"}

	status, err := newTestActions(d).StaticScans.CreateStaticScan(dto.NewStaticScan(), app, dto.SetupStatusCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, waitutil.ErrConditionNotMet))
	assert.Equal(t, dto.SetupStatusQueued, status)
}

func TestStartWithPayloadReturnsRejection(t *testing.T) {
	d := newScriptedDriver()
	app := dto.NewApplication()
	scriptRelease(d, app)
	errSel := ".modal.show .upload-error, .modal.show .alert-danger"
	d.hideFailures[".modal.show"] = 1
	d.present[errSel] = true
	d.texts[errSel] = []string{"Invalid file extension"}

	scan := dto.NewStaticScan()
	scan.FileToUpload = "payloads/fod/notes.txt"
	msg, err := newTestActions(d).StaticScans.StartWithPayload(scan, app)
	require.NoError(t, err)
	assert.Equal(t, "Invalid file extension", msg)
}

func TestCreateReportAndDownload(t *testing.T) {
	d := newScriptedDriver()
	rep := dto.NewReport()
	d.lists["#reportsGrid tbody tr:not(.k-no-data) td:nth-child(1)"] = []string{rep.ReportName}
	d.texts["#reportsGrid tbody tr:nth-child(1) td:nth-child(5)"] = []string{"Started", "Completed"}

	path, err := newTestActions(d).Reports.CreateReportAndDownload(rep)
	require.NoError(t, err)
	assert.Equal(t, "/downloads/report.pdf", path)
	assert.Equal(t, 1, d.downloads)
}

func TestCreateTokenStoresSecret(t *testing.T) {
	d := newScriptedDriver()
	d.attrs[".modal.show #accessTokenSecret@value"] = "abc.def"
	pat := dto.NewPersonalAccessToken()
	pat.Scopes = []dto.Scope{dto.ScopeViewApps, dto.ScopeStartScans}

	secret, err := newTestActions(d).AccessTokens.CreateToken(pat)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", secret)
	assert.Equal(t, "abc.def", pat.Secret)
}
