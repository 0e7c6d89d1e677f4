// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package archive packs cached paths into a zstd-compressed tar stream and
// unpacks them again beneath a workspace root.
package archive
