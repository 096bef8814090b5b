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
)

// Cleanup collects undo steps for entities a class created and runs them in
// reverse order.
type Cleanup struct {
	log   *zap.SugaredLogger
	mu    sync.Mutex
	steps []cleanupStep
}

type cleanupStep struct {
	name string
	fn   func(context.Context) error
}

// NewCleanup creates a new cleanup handler
func NewCleanup(log *zap.SugaredLogger) *Cleanup {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Cleanup{log: log}
}

// Add registers fn under name. Steps run last-in first-out.
func (c *Cleanup) Add(name string, fn func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, cleanupStep{name: name, fn: fn})
}

// Len returns the number of pending steps.
func (c *Cleanup) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.steps)
}

// Run executes and forgets every registered step. A failing step does not stop
// the others; all failures are returned joined.
func (c *Cleanup) Run(ctx context.Context) error {
	c.mu.Lock()
	steps := c.steps
	c.steps = nil
	c.mu.Unlock()

	if isCleanupDisabled() {
		c.log.Infow("Skipping cleanup (FOD_E2E_SKIP_CLEANUP=true)", "steps", len(steps))
		return nil
	}

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if err := s.fn(ctx); err != nil {
			c.log.Warnw("Cleanup step failed", "step", s.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		c.log.Debugw("Cleaned up", "step", s.name)
	}
	return errors.Join(errs...)
}
