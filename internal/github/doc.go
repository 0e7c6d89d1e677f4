// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package github looks up workflow artifacts through the GitHub REST API and
// extracts single files from their zip archives.
package github
