// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package cacheutil manages the on-disk cache directory: resolving and
// creating it, reading and writing hashed entry directories, and purging old ones.
package cacheutil
