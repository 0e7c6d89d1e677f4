// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package actions inspects the CI runner environment and talks back to it:
// host and event validation, weekly cache keys, step outputs, saved state and
// warnings.
package actions
