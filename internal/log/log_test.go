// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestHandleLog_Actions(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		want  string
	}{
		{"info is plain", log.InfoLevel, "hello\n"},
		{"warn gets prefix", log.WarnLevel, "[warning]hello\n"},
		{"error is a workflow command", log.ErrorLevel, "::error::hello\n"},
		{"debug is a workflow command", log.DebugLevel, "::debug::hello\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &CustomHandler{Writer: &buf, Actions: true}
			err := h.HandleLog(&log.Entry{Level: tt.level, Message: "hello"})
			assert.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestHandleLog_Plain(t *testing.T) {
	var buf bytes.Buffer
	h := &CustomHandler{Writer: &buf}

	err := h.HandleLog(&log.Entry{Level: log.WarnLevel, Message: "careful"})
	assert.NoError(t, err)
	assert.Equal(t, "W careful\n", buf.String())
}

func TestHandleLog_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	h := &CustomHandler{Writer: &buf, Actions: true}

	err := h.HandleLog(&log.Entry{
		Level:   log.WarnLevel,
		Message: "save failed",
		Fields:  log.Fields{"error": errors.New("boom")},
	})
	assert.NoError(t, err)
	assert.Equal(t, "[warning]save failed: boom\n", buf.String())
}

func TestNewHandler_ActionsFromEnv(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "true")
	h := NewHandler(&bytes.Buffer{})
	assert.True(t, h.Actions)
	assert.False(t, h.Timestamps)

	t.Setenv("GITHUB_ACTIONS", "")
	h = NewHandler(&bytes.Buffer{})
	assert.False(t, h.Actions)
}
