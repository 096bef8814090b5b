// Package config loads the fodtest YAML configuration: target environment,
// credentials, browser, wait and retry defaults, API client tuning, product
// database, SSO, result sinks, mail, metrics, telemetry and the webhook receiver.
// FOD_* environment variables override file values.
package config
