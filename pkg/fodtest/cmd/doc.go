/*
SPDX-FileCopyrightText: 2026 Deutsche Telekom AG

SPDX-License-Identifier: Apache-2.0
*/

// Package cmd implements the fodtest command line: running and listing
// regression scenarios, managing the harness configuration, fetching API
// tokens, hosting the webhook receiver and checking downloaded artifacts.
package cmd
