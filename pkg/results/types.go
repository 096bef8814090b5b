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

package results

import (
	"time"

	"github.com/google/uuid"
)

// EventType is the kind of result event.
type EventType string

const (
	EventRunStarted       EventType = "run.started"
	EventRunFinished      EventType = "run.finished"
	EventScenarioStarted  EventType = "scenario.started"
	EventAttemptFailed    EventType = "scenario.attempt_failed"
	EventScenarioFinished EventType = "scenario.finished"
)

// Status is the outcome of a scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Event is one entry of the result stream.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"runId"`

	Class    string `json:"class,omitempty"`
	Scenario string `json:"scenario,omitempty"`
	// Attempt is 1-based; 0 for run level events.
	Attempt int `json:"attempt,omitempty"`

	Status      Status        `json:"status,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`
	Groups      []string      `json:"groups,omitempty"`
	BacklogItem string        `json:"backlogItem,omitempty"`

	Details map[string]interface{} `json:"details,omitempty"`
}

// complete fills in the id and timestamp when missing.
func (e *Event) complete() {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}
