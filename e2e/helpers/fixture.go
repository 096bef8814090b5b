/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package helpers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/actions"
	"github.com/fodqa/fod-regression/pkg/browser"
	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/fodapi"
	"github.com/fodqa/fod-regression/pkg/fodsql"
	"github.com/fodqa/fod-regression/pkg/webhookrecv"
)

// Fixture bundles what a scenario class works with: one browser session and
// the action helpers bound to it, plus lazily started API clients, webhook
// receiver and product database lookup.
//
// Example usage:
//
//	f, err := helpers.NewFixture(ctx, cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer f.Close(ctx)
//	nav, err := f.Actions.LogIn.DefaultTenantUserLogIn()
type Fixture struct {
	Config  config.Config
	Session *browser.Session
	Actions *actions.Actions
	Cleanup *Cleanup
	Log     *zap.SugaredLogger

	mu       sync.Mutex
	clients  []*fodapi.Client
	receiver *webhookrecv.Server
	lookup   *fodsql.Lookup
}

// NewFixture starts a browser session for cfg.
func NewFixture(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*Fixture, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	session, err := browser.NewSession(ctx, browser.OptionsFromConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return &Fixture{
		Config:  cfg,
		Session: session,
		Actions: actions.New(actions.DepsFromConfig(ctx, session, cfg, log)),
		Cleanup: NewCleanup(log),
		Log:     log,
	}, nil
}

func (f *Fixture) track(c *fodapi.Client) *fodapi.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = append(f.clients, c)
	return c
}

// API returns a client authenticated as user in tenant with scopes.
func (f *Fixture) API(ctx context.Context, user fodapi.UserPayload, tenant string, scopes ...dto.Scope) (*fodapi.Client, error) {
	c, err := fodapi.Init(ctx, f.Config, user, tenant, scopes...)
	if err != nil {
		return nil, err
	}
	return f.track(c), nil
}

// DefaultAPI authenticates with the configured API key when there is one,
// otherwise as the configured tenant user.
func (f *Fixture) DefaultAPI(ctx context.Context, scopes ...dto.Scope) (*fodapi.Client, error) {
	creds := f.Config.Credentials
	if creds.APIKey != "" {
		c, err := fodapi.InitAPIKey(ctx, f.Config, scopes...)
		if err != nil {
			return nil, err
		}
		return f.track(c), nil
	}
	return f.API(ctx, fodapi.UserPayload{UserName: creds.TenantUser, Password: creds.TenantPassword}, creds.TenantCode, scopes...)
}

// Receiver starts the webhook receiver on first use.
func (f *Fixture) Receiver() (*webhookrecv.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiver != nil {
		return f.receiver, nil
	}
	srv := webhookrecv.New(f.Config.Receiver, f.Log)
	if err := srv.Start(); err != nil {
		return nil, fmt.Errorf("failed to start webhook receiver: %w", err)
	}
	f.receiver = srv
	return srv, nil
}

// Lookup opens the product database on first use.
func (f *Fixture) Lookup() (*fodsql.Lookup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookup != nil {
		return f.lookup, nil
	}
	if f.Config.Database.Driver == "" {
		return nil, errors.New("no product database configured (database.driver)")
	}
	l, err := fodsql.OpenFromConfig(f.Config.Database, f.Log)
	if err != nil {
		return nil, err
	}
	f.lookup = l
	return l, nil
}

// Close runs the cleanup steps and releases everything the fixture opened.
func (f *Fixture) Close(ctx context.Context) error {
	var errs []error
	if f.Cleanup != nil {
		errs = append(errs, f.Cleanup.Run(ctx))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		c.Close()
	}
	f.clients = nil
	if f.receiver != nil {
		sctx, cancel := context.WithTimeout(ctx, ReceiverShutdownTimeout)
		errs = append(errs, f.receiver.Shutdown(sctx))
		cancel()
		f.receiver = nil
	}
	if f.lookup != nil {
		errs = append(errs, f.lookup.Close())
		f.lookup = nil
	}
	if f.Session != nil {
		errs = append(errs, f.Session.Close())
		f.Session = nil
	}
	return errors.Join(errs...)
}
