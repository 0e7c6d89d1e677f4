// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/apex/log"

	"github.com/staranto/flavorcache/internal/cacheutil"
	"github.com/staranto/flavorcache/internal/command"
	mylog "github.com/staranto/flavorcache/internal/log"
	"github.com/staranto/flavorcache/internal/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitSetup   = 1
	exitCommand = 2
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	// A cancelled job stops transfers instead of leaving them to the runner's
	// kill timeout.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "No command specified.")
		args = append(args, "--help")
	}

	if slices.Contains(args[1:], "--version") || slices.Contains(args[1:], "-v") {
		fmt.Fprintln(stdout, version.Version)
		return exitOK
	}

	// Best-effort, the local store reports an unusable cache itself.
	if _, _, err := cacheutil.EnsureBaseDir(); err != nil {
		fmt.Fprintln(stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		log.Error(err.Error())
		return exitSetup
	}
	app.Writer = stdout
	app.ErrWriter = stderr

	if err := app.Run(ctx, args); err != nil {
		log.Error(command.ErrorMessage(err))
		return exitCommand
	}
	return exitOK
}
