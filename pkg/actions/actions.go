package actions

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/pages"
	"github.com/fodqa/fod-regression/pkg/telemetry"
)

// Deps is what every action helper needs.
type Deps struct {
	Ctx    context.Context
	Driver pages.Driver
	Env    pages.Env
	Creds  config.Credentials
	// WaitTimeout bounds status polling of reports and exports.
	WaitTimeout time.Duration
	// ScanTimeout bounds waiting for a scan to reach the expected status.
	ScanTimeout  time.Duration
	PollInterval time.Duration
	Log          *zap.SugaredLogger
}

// DepsFromConfig fills timeouts and credentials from cfg.
func DepsFromConfig(ctx context.Context, d pages.Driver, cfg config.Config, log *zap.SugaredLogger) Deps {
	return Deps{
		Ctx:    ctx,
		Driver: d,
		Env: pages.Env{
			UIURL:    cfg.Environment.UIURL,
			AdminURL: cfg.Environment.AdminURL,
			Timeout:  cfg.BrowserTimeout(),
			Log:      log,
		},
		Creds:        cfg.Credentials,
		WaitTimeout:  cfg.WaitTimeout(),
		PollInterval: cfg.PollInterval(),
		Log:          log,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	if d.Env.Log == nil {
		d.Env.Log = d.Log
	}
	if d.WaitTimeout <= 0 {
		d.WaitTimeout = 5 * time.Minute
	}
	if d.ScanTimeout <= 0 {
		d.ScanTimeout = time.Hour
	}
	if d.PollInterval <= 0 {
		d.PollInterval = 5 * time.Second
	}
	return d
}

// Actions groups the action helpers that share one browser session.
type Actions struct {
	LogIn        *LogIn
	Applications *Applications
	Tenants      *Tenants
	Entitlements *Entitlements
	Webhooks     *Webhooks
	Attributes   *Attributes
	StaticScans  *StaticScans
	Reports      *Reports
	DataExports  *DataExports
	AccessTokens *AccessTokens
}

func New(deps Deps) *Actions {
	b := &base{deps: deps.withDefaults()}
	a := &Actions{
		LogIn:        &LogIn{b},
		Applications: &Applications{b},
		Webhooks:     &Webhooks{b},
		Attributes:   &Attributes{b},
		Reports:      &Reports{b},
		DataExports:  &DataExports{b},
		AccessTokens: &AccessTokens{b},
	}
	a.Entitlements = &Entitlements{base: b, login: a.LogIn}
	a.Tenants = &Tenants{base: b, login: a.LogIn, entitlements: a.Entitlements}
	a.StaticScans = &StaticScans{base: b, apps: a.Applications}
	return a
}

type base struct {
	deps Deps
}

func (b *base) log() *zap.SugaredLogger { return b.deps.Log }

func (b *base) navbar() *pages.TenantTopNavbar {
	return pages.NewTenantTopNavbar(b.deps.Driver, b.deps.Env)
}

// traced runs fn inside a span named after the action.
func (b *base) traced(name string, fn func() error, attrs ...attribute.KeyValue) error {
	_, span := telemetry.StartSpan(b.deps.Ctx, "action."+name, attrs...)
	err := fn()
	telemetry.EndSpan(span, err)
	return err
}
