// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/term"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// FLAVORCACHE_LOG env variable, INFO by default.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("FLAVORCACHE_LOG"))
	if level == "" {
		level = "INFO"
	}
	log.SetHandler(NewHandler(os.Stdout))
	log.SetLevelFromString(level)
}

// CustomHandler formats log messages and writes them to Writer.
type CustomHandler struct {
	Writer io.Writer
	// Actions renders entries the way the Actions runner expects them.
	Actions bool
	// Timestamps prefixes plain entries with the local time.
	Timestamps bool

	mu sync.Mutex
}

// NewHandler returns a handler writing to w. Actions mode follows
// GITHUB_ACTIONS, and timestamps are only added when w is a terminal.
func NewHandler(w io.Writer) *CustomHandler {
	h := &CustomHandler{
		Writer:  w,
		Actions: os.Getenv("GITHUB_ACTIONS") == "true",
	}
	if f, ok := w.(*os.File); ok {
		h.Timestamps = term.IsTerminal(int(f.Fd()))
	}
	return h
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	message := e.Message
	if err, ok := e.Fields["error"]; ok {
		message = fmt.Sprintf("%s: %v", message, err)
	}

	if h.Actions {
		switch e.Level {
		case log.WarnLevel:
			message = "[warning]" + message
		case log.ErrorLevel, log.FatalLevel:
			message = "::error::" + message
		case log.DebugLevel:
			message = "::debug::" + message
		}
		_, err := fmt.Fprintln(h.Writer, message)
		return err
	}

	level := strings.ToUpper(e.Level.String())
	if h.Timestamps {
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		_, err := fmt.Fprintf(h.Writer, "%s %.1s %s\n", timestamp, level, message)
		return err
	}
	_, err := fmt.Fprintf(h.Writer, "%.1s %s\n", level, message)
	return err
}
