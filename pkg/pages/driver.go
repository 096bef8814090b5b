package pages

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/testerr"
)

// Driver is the browser surface page objects need. *browser.Session implements it.
type Driver interface {
	Navigate(url string) error
	URL() (string, error)
	Reload() error
	WaitVisible(sel string, timeout time.Duration) error
	WaitNotVisible(sel string, timeout time.Duration) error
	Exists(sel string) bool
	Count(sel string) (int, error)
	Click(sel string) error
	ClickByText(text string) error
	SetValue(sel, value string) error
	Type(sel, value string) error
	SelectOption(sel, label string) error
	SetChecked(sel string, checked bool) error
	Text(sel string) (string, error)
	Texts(sel string) ([]string, error)
	Attribute(sel, name string) (string, bool, error)
	UploadFile(sel, path string) error
	Download(kind string, trigger func() error, timeout time.Duration) (string, error)
	Evaluate(js string, res interface{}) error
	ClearCookies() error
}

// Env carries what every page needs besides the driver.
type Env struct {
	UIURL    string
	AdminURL string
	// Timeout bounds waiting for an element to appear.
	Timeout time.Duration
	// LoadTimeout bounds waiting for spinners and grid reloads.
	LoadTimeout time.Duration
	// DownloadTimeout bounds report and export downloads.
	DownloadTimeout time.Duration
	Log             *zap.SugaredLogger
}

func (e Env) withDefaults() Env {
	if e.Timeout <= 0 {
		e.Timeout = 30 * time.Second
	}
	if e.LoadTimeout <= 0 {
		e.LoadTimeout = 2 * time.Minute
	}
	if e.DownloadTimeout <= 0 {
		e.DownloadTimeout = 5 * time.Minute
	}
	if e.Log == nil {
		e.Log = zap.NewNop().Sugar()
	}
	return e
}

const (
	selSpinner     = ".spinner-overlay"
	selModal       = ".modal.show"
	selModalError  = ".modal.show .validation-summary, .modal.show .alert-danger"
	selAlert       = ".alert-success"
	selAlertClose  = ".alert-success .close"
	selConfirmOK   = ".modal.show .btn-confirm"
	selModalSave   = ".modal.show .btn-save"
	selModalClose  = ".modal.show .btn-close"
	selModalNext   = ".modal.show .btn-next"
	selGridLoading = ".k-loading-mask"
)

// page holds the state shared by every page object.
type page struct {
	d   Driver
	env Env
}

func newPage(d Driver, env Env) page {
	return page{d: d, env: env.withDefaults()}
}

func (p page) log() *zap.SugaredLogger { return p.env.Log }

// waitLoaded waits for the page spinner and grid masks to go away.
func (p page) waitLoaded() error {
	if err := p.d.WaitNotVisible(selSpinner, p.env.LoadTimeout); err != nil {
		return err
	}
	return p.d.WaitNotVisible(selGridLoading, p.env.LoadTimeout)
}

// open clicks sel and waits for marker, the element identifying the next page.
func (p page) open(sel, marker string) error {
	if err := p.d.Click(sel); err != nil {
		return err
	}
	if err := p.d.WaitVisible(marker, p.env.Timeout); err != nil {
		return err
	}
	return p.waitLoaded()
}

// fill types value into sel, skipping empty values.
func (p page) fill(sel, value string) error {
	if value == "" {
		return nil
	}
	return p.d.Type(sel, value)
}

// selectIf picks label in the select sel, skipping empty labels.
func (p page) selectIf(sel, label string) error {
	if label == "" {
		return nil
	}
	return p.d.SelectOption(sel, label)
}

// modalError returns the validation message shown in the open modal, if any.
func (p page) modalError() string {
	if !p.d.Exists(selModalError) {
		return ""
	}
	text, err := p.d.Text(selModalError)
	if err != nil {
		return ""
	}
	return text
}

// saveModal clicks the modal's save button and waits for it to close. A
// validation message left in the modal becomes an UnexpectedConditions error.
func (p page) saveModal(saveSel string) error {
	if err := p.d.Click(saveSel); err != nil {
		return err
	}
	if err := p.d.WaitNotVisible(selModal, p.env.Timeout); err != nil {
		if msg := p.modalError(); msg != "" {
			return testerr.UnexpectedConditions("modal not saved: %s", msg)
		}
		return err
	}
	return p.waitLoaded()
}

// closeAlert dismisses the success alert if one is shown.
func (p page) closeAlert() error {
	if !p.d.Exists(selAlertClose) {
		return nil
	}
	return p.d.Click(selAlertClose)
}

// confirm accepts the confirmation modal.
func (p page) confirm() error {
	if err := p.d.Click(selConfirmOK); err != nil {
		return err
	}
	if err := p.d.WaitNotVisible(selModal, p.env.Timeout); err != nil {
		return err
	}
	return p.waitLoaded()
}

// search types term into the grid search box sel and waits for the grid to reload.
func (p page) search(sel, term string) error {
	if err := p.d.Type(sel, term+"\r"); err != nil {
		return err
	}
	return p.waitLoaded()
}

// matchStatus maps a status label to the first catalog value it starts with,
// case-insensitively ("In Progress - Scan Imported" is In Progress).
func matchStatus[T ~string](text string, catalog []T) (T, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	var best T
	for _, c := range catalog {
		if strings.HasPrefix(text, strings.ToLower(string(c))) && len(c) > len(best) {
			best = c
		}
	}
	return best, best != ""
}
