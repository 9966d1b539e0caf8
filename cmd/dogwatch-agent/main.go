package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/agent"
	"github.com/dogwatchapp/dogwatch/internal/localstore"
	"github.com/dogwatchapp/dogwatch/internal/logging"
	"github.com/dogwatchapp/dogwatch/internal/reminder"
)

func main() {
	logger := logging.Setup(os.Getenv("DOGWATCH_LOG_LEVEL"))

	serverURL := os.Getenv("DOGWATCH_URL")
	token := os.Getenv("DOGWATCH_TOKEN")
	if serverURL == "" || token == "" {
		logger.Error("DOGWATCH_URL and DOGWATCH_TOKEN are required")
		os.Exit(1)
	}

	stateDir := os.Getenv("DOGWATCH_STATE_DIR")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Error("resolve home directory", "error", err)
			os.Exit(1)
		}
		stateDir = filepath.Join(home, ".dogwatch")
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		logger.Error("create state directory", "path", stateDir, "error", err)
		os.Exit(1)
	}

	pollInterval := 5 * time.Minute
	if v := os.Getenv("DOGWATCH_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Error("parse DOGWATCH_POLL_INTERVAL", "value", v, "error", err)
			os.Exit(1)
		}
		pollInterval = d
	}

	store, err := localstore.NewFileStore(filepath.Join(stateDir, "reminders.json"))
	if err != nil {
		logger.Error("open reminder state", "error", err)
		os.Exit(1)
	}

	// Timers print to stdout; wiring a desktop notifier in is a matter of
	// swapping this callback.
	sched := reminder.NewTimerScheduler(func(title, body string) {
		fmt.Printf("[reminder] %s: %s\n", title, body)
	}, logger.With("component", "timers"))
	defer sched.Stop()

	reconciler := reminder.NewReconciler(sched, store, logger.With("component", "reconciler"))

	a := agent.New(agent.Config{
		ServerURL:    serverURL,
		Token:        token,
		PollInterval: pollInterval,
	}, agent.NewClient(serverURL, token), reconciler, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("dogwatch agent started", "server", serverURL, "poll_interval", pollInterval)
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("agent stopped", "error", err)
		os.Exit(1)
	}
}
