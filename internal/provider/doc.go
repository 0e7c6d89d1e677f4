// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package provider is the cache provider the restore and save steps talk to.
// It validates keys and paths, archives the cached paths and moves the
// archive in and out of a backing store.
package provider
