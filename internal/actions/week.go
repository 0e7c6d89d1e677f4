// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"fmt"
	"time"
)

// DefaultKeyPrefix is the prefix of the weekly cache key.
const DefaultKeyPrefix = "flavors"

// WeekNumber returns the ISO-8601 week of t, 1 through 53. Dates early in
// January can belong to the last week of the previous year and dates late in
// December to week 1.
func WeekNumber(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// PrimaryKey builds the cache key for the week containing t. The year is not
// part of the key, so an entry is reused only within its week.
func PrimaryKey(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return fmt.Sprintf("%s-%d", prefix, WeekNumber(t))
}
