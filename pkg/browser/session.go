package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/metrics"
	"github.com/fodqa/fod-regression/pkg/system"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

// Session is one Chrome instance driven over the DevTools protocol.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    Options
	log     *zap.SugaredLogger

	mu            sync.Mutex
	console       []string
	pending       map[string]string // download guid -> suggested file name
	downloadDone  chan download
	screenshotNum int
}

type download struct {
	guid     string
	name     string
	canceled bool
}

// NewSession starts Chrome and prepares the download directory.
func NewSession(ctx context.Context, opts Options, log *zap.SugaredLogger) (*Session, error) {
	opts.defaults()
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	downloadDir, err := filepath.Abs(opts.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("resolve download dir: %w", err)
	}
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	opts.DownloadDir = downloadDir

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(system.Printf(log)),
		chromedp.WithErrorf(system.Errorf(log)),
	)

	s := &Session{
		ctx:          browserCtx,
		cancels:      []context.CancelFunc{cancelAlloc, cancelBrowser},
		opts:         opts,
		log:          log,
		pending:      map[string]string{},
		downloadDone: make(chan download, 8),
	}

	chromedp.ListenTarget(browserCtx, s.onEvent)

	err = chromedp.Run(browserCtx,
		network.Enable(),
		runtime.Enable(),
		cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
	)
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	log.Infow("Browser session started", "headless", opts.Headless, "downloadDir", downloadDir)
	return s, nil
}

func (s *Session) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		s.mu.Lock()
		s.console = append(s.console, consoleText(e))
		s.mu.Unlock()
	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails != nil {
			s.mu.Lock()
			s.console = append(s.console, "exception: "+e.ExceptionDetails.Text)
			s.mu.Unlock()
		}
	case *cdpbrowser.EventDownloadWillBegin:
		s.mu.Lock()
		s.pending[e.GUID] = e.SuggestedFilename
		s.mu.Unlock()
	case *cdpbrowser.EventDownloadProgress:
		if e.State != cdpbrowser.DownloadProgressStateCompleted && e.State != cdpbrowser.DownloadProgressStateCanceled {
			return
		}
		s.mu.Lock()
		name := s.pending[e.GUID]
		delete(s.pending, e.GUID)
		s.mu.Unlock()
		select {
		case s.downloadDone <- download{guid: e.GUID, name: name, canceled: e.State == cdpbrowser.DownloadProgressStateCanceled}:
		default:
			s.log.Warnw("Dropping download event, nobody is waiting", "guid", e.GUID, "file", name)
		}
	}
}

func consoleText(e *runtime.EventConsoleAPICalled) string {
	parts := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		switch {
		case len(a.Value) > 0:
			parts = append(parts, strings.Trim(string(a.Value), `"`))
		case a.Description != "":
			parts = append(parts, a.Description)
		}
	}
	return fmt.Sprintf("%s: %s", e.Type, strings.Join(parts, " "))
}

func (s *Session) cancel() {
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
}

// Close shuts the browser down.
func (s *Session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// DownloadDir is the absolute directory downloads land in.
func (s *Session) DownloadDir() string { return s.opts.DownloadDir }

// Timeout is the default per-action timeout.
func (s *Session) Timeout() time.Duration { return s.opts.Timeout }

func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = s.opts.Timeout
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// notFound maps a deadline while looking for sel to ErrElementNotFound.
func notFound(sel string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return testerr.ElementNotFoundErr("element", sel, err)
	}
	return err
}

// Navigate opens url and waits for the body to be ready.
func (s *Session) Navigate(url string) error {
	s.log.Debugw("Navigate", "url", url)
	if err := s.run(0, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Reload reloads the current page.
func (s *Session) Reload() error {
	return s.run(0, chromedp.Reload(), chromedp.WaitReady("body", chromedp.ByQuery))
}

// URL returns the current location.
func (s *Session) URL() (string, error) {
	var u string
	err := s.run(0, chromedp.Location(&u))
	return u, err
}

// WaitVisible waits until sel is visible.
func (s *Session) WaitVisible(sel string, timeout time.Duration) error {
	return notFound(sel, s.run(timeout, chromedp.WaitVisible(sel, chromedp.ByQuery)))
}

// WaitNotVisible waits until sel is hidden or gone.
func (s *Session) WaitNotVisible(sel string, timeout time.Duration) error {
	err := s.run(timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		for {
			var visible bool
			js := fmt.Sprintf(`(() => { const e = document.querySelector(%s); return !!e && e.offsetParent !== null; })()`, jsString(sel))
			if err := chromedp.Evaluate(js, &visible).Do(ctx); err != nil {
				return err
			}
			if !visible {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
		}
	}))
	if errors.Is(err, context.DeadlineExceeded) {
		return testerr.UnexpectedConditions("element %q still visible after %s", sel, timeout)
	}
	return err
}

// Count returns how many nodes currently match sel.
func (s *Session) Count(sel string) (int, error) {
	var n int
	err := s.run(0, chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(sel)), &n))
	return n, err
}

// Exists reports whether at least one node matches sel right now.
func (s *Session) Exists(sel string) bool {
	n, err := s.Count(sel)
	return err == nil && n > 0
}

// Click clicks the first node matching sel once it is visible.
func (s *Session) Click(sel string) error {
	s.log.Debugw("Click", "selector", sel)
	return notFound(sel, s.run(0, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible)))
}

// ClickByText clicks the first visible element whose trimmed text equals text.
func (s *Session) ClickByText(text string) error {
	xp := fmt.Sprintf(`//*[normalize-space(text())=%s]`, xpathLiteral(text))
	s.log.Debugw("Click by text", "text", text)
	return notFound(xp, s.run(0, chromedp.Click(xp, chromedp.BySearch, chromedp.NodeVisible)))
}

// SetValue sets the value of an input without key events.
func (s *Session) SetValue(sel, value string) error {
	return notFound(sel, s.run(0, chromedp.SetValue(sel, value, chromedp.ByQuery)))
}

// Type clears sel and types value with key events.
func (s *Session) Type(sel, value string) error {
	return notFound(sel, s.run(0,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	))
}

// SelectOption picks the option of the select sel whose label equals label.
func (s *Session) SelectOption(sel, label string) error {
	var ok bool
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const opt = Array.from(el.options).find(o => o.text.trim() === %s);
		if (!opt) return false;
		el.value = opt.value;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, jsString(sel), jsString(label))
	if err := s.run(0, chromedp.WaitVisible(sel, chromedp.ByQuery), chromedp.Evaluate(js, &ok)); err != nil {
		return notFound(sel, err)
	}
	if !ok {
		return testerr.ElementNotFound(fmt.Sprintf("option %q", label), sel)
	}
	return nil
}

// SetChecked clicks the checkbox sel if its state differs from checked.
func (s *Session) SetChecked(sel string, checked bool) error {
	var current bool
	js := fmt.Sprintf(`!!document.querySelector(%s)?.checked`, jsString(sel))
	if err := s.run(0, chromedp.WaitReady(sel, chromedp.ByQuery), chromedp.Evaluate(js, &current)); err != nil {
		return notFound(sel, err)
	}
	if current == checked {
		return nil
	}
	return s.Click(sel)
}

// Text returns the visible text of sel.
func (s *Session) Text(sel string) (string, error) {
	var text string
	if err := s.run(0, chromedp.Text(sel, &text, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return "", notFound(sel, err)
	}
	return strings.TrimSpace(text), nil
}

// Texts returns the trimmed text of every node matching sel, in document order.
func (s *Session) Texts(sel string) ([]string, error) {
	var texts []string
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => e.innerText.trim())`, jsString(sel))
	err := s.run(0, chromedp.Evaluate(js, &texts))
	return texts, err
}

// Attribute returns the attribute name of sel.
func (s *Session) Attribute(sel, name string) (string, bool, error) {
	var value string
	var ok bool
	err := s.run(0, chromedp.AttributeValue(sel, name, &value, &ok, chromedp.ByQuery))
	return value, ok, notFound(sel, err)
}

// UploadFile sets path on the file input sel.
func (s *Session) UploadFile(sel, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("upload payload: %w", err)
	}
	s.log.Debugw("Upload file", "selector", sel, "file", abs)
	return notFound(sel, s.run(0, chromedp.SetUploadFiles(sel, []string{abs}, chromedp.ByQuery)))
}

// Evaluate runs js and stores its JSON result in res.
func (s *Session) Evaluate(js string, res interface{}) error {
	return s.run(0, chromedp.Evaluate(js, res))
}

// ConsoleMessages returns the console output collected so far.
func (s *Session) ConsoleMessages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.console...)
}

// ClearCookies drops every cookie, which logs the user off.
func (s *Session) ClearCookies() error {
	return s.run(0, network.ClearBrowserCookies())
}

// Download runs trigger and waits for the download it starts to finish. The file
// is renamed to the name the server suggested and its absolute path returned.
func (s *Session) Download(kind string, trigger func() error, timeout time.Duration) (string, error) {
	// Drain completions from earlier downloads nobody waited for.
	for drained := false; !drained; {
		select {
		case <-s.downloadDone:
		default:
			drained = true
		}
	}

	if err := trigger(); err != nil {
		metrics.Downloads.WithLabelValues(kind, "trigger_failed").Inc()
		return "", testerr.FileDownload(kind, err)
	}

	select {
	case d := <-s.downloadDone:
		if d.canceled {
			metrics.Downloads.WithLabelValues(kind, "canceled").Inc()
			return "", testerr.FileDownload(d.name, errors.New("download canceled by browser"))
		}
		target, err := finalizeDownload(s.opts.DownloadDir, d.guid, d.name)
		if err != nil {
			metrics.Downloads.WithLabelValues(kind, "failed").Inc()
			return "", testerr.FileDownload(d.name, err)
		}
		metrics.Downloads.WithLabelValues(kind, "ok").Inc()
		s.log.Infow("Downloaded file", "kind", kind, "path", target)
		return target, nil
	case <-time.After(timeout):
		metrics.Downloads.WithLabelValues(kind, "timeout").Inc()
		return "", testerr.FileDownload(kind, fmt.Errorf("not finished within %s", timeout))
	case <-s.ctx.Done():
		return "", testerr.FileDownload(kind, s.ctx.Err())
	}
}

// finalizeDownload renames dir/guid to a free variant of dir/name.
func finalizeDownload(dir, guid, name string) (string, error) {
	if name == "" {
		name = guid
	}
	target := uniquePath(dir, filepath.Base(name))
	if err := os.Rename(filepath.Join(dir, guid), target); err != nil {
		return "", err
	}
	return target, nil
}

// uniquePath returns dir/name, or dir/name (n).ext for the first n that is free.
func uniquePath(dir, name string) string {
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		return target
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// Screenshot writes a full-page PNG named with a sequence number and returns its path.
func (s *Session) Screenshot(name string) (string, error) {
	s.mu.Lock()
	s.screenshotNum++
	n := s.screenshotNum
	s.mu.Unlock()

	if err := os.MkdirAll(s.opts.ScreenshotDir, 0o755); err != nil {
		return "", err
	}
	var buf []byte
	if err := s.run(0, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	path := filepath.Join(s.opts.ScreenshotDir, screenshotName(n, name))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func screenshotName(n int, name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return fmt.Sprintf("%02d_%s.png", n, clean)
}

// Nodes returns the DOM nodes matching sel; used for attribute reads in bulk.
func (s *Session) Nodes(sel string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := s.run(0, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	return nodes, err
}
