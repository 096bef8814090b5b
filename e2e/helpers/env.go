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
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Timeouts of scenario steps run under go test.
const (
	// DeliveryTimeout is how long a webhook delivery may take to arrive.
	DeliveryTimeout = 10 * time.Minute

	// ReceiverShutdownTimeout bounds draining the webhook receiver.
	ReceiverShutdownTimeout = 5 * time.Second

	// ImportTimeout is how long an imported FPR may take to be processed.
	ImportTimeout = 15 * time.Minute

	// ScanTimeout is how long a started scan may take to complete.
	ScanTimeout = time.Hour

	// ScanPollInterval is the pause between scan status checks.
	ScanPollInterval = 30 * time.Second
)

// getEnvOrDefault returns the environment variable value or the default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsE2EEnabled returns true if E2E tests should run
func IsE2EEnabled() bool {
	return os.Getenv("FOD_E2E") == "true"
}

// isCleanupDisabled returns true if FOD_E2E_SKIP_CLEANUP is set.
// Entities then stay in the tenant for debugging; every name carries a run tag.
func isCleanupDisabled() bool {
	return os.Getenv("FOD_E2E_SKIP_CLEANUP") == "true"
}

// GetPayloadRoot returns the directory scan payload paths are resolved against.
func GetPayloadRoot() string {
	return getEnvOrDefault("FOD_PAYLOAD_ROOT", ".")
}

// Payload resolves a payload path such as "payloads/fod/static.java.fpr".
// Absolute paths are returned unchanged.
func Payload(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetPayloadRoot(), filepath.FromSlash(path))
}

// GetConfigPath returns the harness configuration file used by go test runs.
// Empty means the default lookup of the config package.
func GetConfigPath() string {
	return getEnvOrDefault("FOD_E2E_CONFIG", "")
}

// GetGroups returns the scenario groups go test runs, from the comma separated
// FOD_E2E_GROUPS. It defaults to the regression group; "all" selects everything.
func GetGroups() []string {
	raw := getEnvOrDefault("FOD_E2E_GROUPS", "regression")
	if raw == "all" {
		return nil
	}
	var groups []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}
