package browser

import (
	"time"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/version"
)

// Options configures a browser session.
type Options struct {
	Headless      bool
	WindowWidth   int
	WindowHeight  int
	DownloadDir   string
	ScreenshotDir string
	// Timeout bounds every single action unless the call takes its own timeout.
	Timeout   time.Duration
	UserAgent string
	ExecPath  string
}

// OptionsFromConfig maps the browser section of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Headless:      cfg.Browser.Headless,
		WindowWidth:   cfg.Browser.WindowWidth,
		WindowHeight:  cfg.Browser.WindowHeight,
		DownloadDir:   cfg.Browser.DownloadDir,
		ScreenshotDir: cfg.Browser.ScreenshotDir,
		Timeout:       cfg.BrowserTimeout(),
		UserAgent:     cfg.Browser.UserAgent,
		ExecPath:      cfg.Browser.ExecPath,
	}
}

func (o *Options) defaults() {
	if o.WindowWidth == 0 {
		o.WindowWidth = 1920
	}
	if o.WindowHeight == 0 {
		o.WindowHeight = 1080
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.DownloadDir == "" {
		o.DownloadDir = "downloads"
	}
	if o.ScreenshotDir == "" {
		o.ScreenshotDir = "screenshots"
	}
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 " + version.UserAgent()
	}
}
