// Package cli is the interactive client: a small REPL over the sync engine,
// the local cache and the asset API.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/daybook/internal/client/api"
	"github.com/dmitrijs2005/daybook/internal/client/config"
	"github.com/dmitrijs2005/daybook/internal/client/store"
	clientsync "github.com/dmitrijs2005/daybook/internal/client/sync"
	"github.com/dmitrijs2005/daybook/internal/client/transport"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

type App struct {
	config *config.Config
	api    *api.Client
	store  *store.Store
	engine *clientsync.Engine
	logger logging.Logger

	masterKey []byte
	userName  string
	reader    *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	cache, err := store.Open(ctx, c.CacheDSN)
	if err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app := &App{
		config: c,
		api:    api.New(c.ServerURL),
		store:  cache,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
	}
	return app, nil
}

// startEngine builds the sync engine once a token is available. The dial
// closure captures the api client so token refreshes are picked up.
func (a *App) startEngine() {
	dial := func(ctx context.Context) (clientsync.Transport, error) {
		return transport.Dial(ctx, a.config.ServerURL, a.api.Token())
	}
	a.engine = clientsync.NewEngine(dial, a.store, a.printRemoteUpdate, a.logger,
		clientsync.WithIdleThreshold(a.config.IdleThreshold),
		clientsync.WithPushDebounce(a.config.PushDebounce))
}

func (a *App) isLoggedIn() bool { return a.masterKey != nil }

func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, func() string {
		if a.isLoggedIn() {
			return a.userName
		}
		return "not logged in"
	}, scanner)

	if a.engine != nil {
		a.engine.Close()
	}
	a.store.Close()
}
