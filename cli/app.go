package cli

import (
	"time"

	"github.com/brunoscheufler/inkwell/content"
	"github.com/brunoscheufler/inkwell/store"
	"github.com/brunoscheufler/inkwell/telemetry"
)

// AppConfig groups common application dependencies to reduce parameter lists
type AppConfig struct {
	Users     *store.UserStore
	Posts     *store.PostStore
	Searcher  *store.Searcher
	Renderer  *content.Renderer
	Telemetry *telemetry.Telemetry
}

type CLIOptions struct {
	Theme        string
	PaymentDelay time.Duration
}

// RunCLI starts the terminal UI and blocks until the user quits
func RunCLI(appConfig *AppConfig, options CLIOptions) error {
	cliApp := NewCLIApp(appConfig, options)
	cliApp.Setup()

	return cliApp.Start()
}
