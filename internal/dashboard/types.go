package dashboard

import (
	"context"
	"time"

	"github.com/songscout/songscout/internal/config"
	"github.com/songscout/songscout/internal/metrics"
	"github.com/songscout/songscout/internal/process"
	"github.com/songscout/songscout/internal/store"
)

// Message types for the Bubble Tea event loop.

// tickMsg is sent periodically to trigger data refresh.
type tickMsg time.Time

// dataMsg contains successfully fetched dashboard data.
type dataMsg Data

// dataErrMsg contains an error from a failed data fetch.
type dataErrMsg struct {
	err error
}

// fetchStartedMsg carries the cancel func for the in-flight fetch so it is
// assigned on the UI thread, not in the Cmd goroutine.
type fetchStartedMsg struct {
	cancel context.CancelFunc
}

// forceRefreshMsg is sent when the user presses 'r'.
type forceRefreshMsg struct{}

// toggleHelpMsg is sent when the user toggles the help overlay.
type toggleHelpMsg struct{}

// Data aggregates everything the dashboard shows.
type Data struct {
	Metrics metrics.Snapshot

	// Most recent songs in the library, newest last.
	Songs []store.Song

	// Tail of the server log.
	LogLines []string

	UpdateInfo struct {
		Available     bool
		LatestVersion string
	}

	CLIVersion string
	LastUpdate time.Time
	Err        error
}

// Options configures dashboard behavior.
type Options struct {
	Config          config.Config
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	NoColor         bool
	NoEmoji         bool
	CLIVersion      string
	Supervisor      process.Supervisor
	DB              store.Store
}
