package main

import (
	"context"
	"testing"

	"github.com/songscout/songscout/internal/dashboard"
)

func TestRunDashboardCmdCore_NonTTYUsesStatic(t *testing.T) {
	staticCalled := false
	interactiveCalled := false

	deps := dashboardCoreDeps{
		isTTY: func() bool { return false },
		runStatic: func(ctx context.Context, opts dashboard.Options) error {
			staticCalled = true
			return nil
		},
		runInteractive: func(opts dashboard.Options) error {
			interactiveCalled = true
			return nil
		},
	}

	if err := runDashboardCmdCore(context.Background(), dashboard.Options{}, deps); err != nil {
		t.Fatalf("runDashboardCmdCore: %v", err)
	}
	if !staticCalled {
		t.Error("expected static renderer for non-TTY")
	}
	if interactiveCalled {
		t.Error("interactive renderer must not run for non-TTY")
	}
}

func TestRunDashboardCmdCore_TTYUsesInteractive(t *testing.T) {
	staticCalled := false
	interactiveCalled := false

	deps := dashboardCoreDeps{
		isTTY: func() bool { return true },
		runStatic: func(ctx context.Context, opts dashboard.Options) error {
			staticCalled = true
			return nil
		},
		runInteractive: func(opts dashboard.Options) error {
			interactiveCalled = true
			return nil
		},
	}

	if err := runDashboardCmdCore(context.Background(), dashboard.Options{}, deps); err != nil {
		t.Fatalf("runDashboardCmdCore: %v", err)
	}
	if !interactiveCalled {
		t.Error("expected interactive renderer for TTY")
	}
	if staticCalled {
		t.Error("static renderer must not run for TTY")
	}
}

func TestRunDashboardCmdCore_PropagatesError(t *testing.T) {
	deps := dashboardCoreDeps{
		isTTY:          func() bool { return false },
		runStatic:      func(ctx context.Context, opts dashboard.Options) error { return errMock },
		runInteractive: func(opts dashboard.Options) error { return nil },
	}

	if err := runDashboardCmdCore(context.Background(), dashboard.Options{}, deps); err != errMock {
		t.Fatalf("err = %v, want errMock", err)
	}
}
