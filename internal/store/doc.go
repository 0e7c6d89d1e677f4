// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package store defines the byte-blob stores that hold cache entries. The
// implementations live in subpackages (local, s3, minio, redis, memcache).
package store
