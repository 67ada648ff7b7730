package commands

import (
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/auth"
	"github.com/shopfront-dev/shopfront/internal/cli/backendselect"
	"github.com/shopfront-dev/shopfront/internal/cli/client"
	"github.com/shopfront-dev/shopfront/internal/cli/config"
	"github.com/shopfront-dev/shopfront/internal/cli/session"
	"github.com/shopfront-dev/shopfront/internal/cli/userconfig"
	"github.com/shopfront-dev/shopfront/internal/logger"
)

// backendAlias is bound to the persistent --backend flag
var backendAlias string

// RegisterPersistentFlags adds the flags shared by every command
func RegisterPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&backendAlias, "backend", "", "Backend alias from shopfront.json (uses the selected backend if not specified)")
}

// environment is everything a command needs to talk to one backend
type environment struct {
	backend *config.Backend
	session *session.Service
	logger  zerolog.Logger
	stop    func()
}

func (e *environment) api() *client.Client {
	return e.session.Client()
}

func (e *environment) close() {
	if e.stop != nil {
		e.stop()
	}
}

// newEnvironment resolves the backend and wires the token store, token
// service, API client and session service for it. Logout events print a
// re-login hint to out.
func newEnvironment(out io.Writer) (*environment, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		return nil, err
	}

	log := logger.NewCLI(rt.LogLevel)

	backend, err := backendselect.ResolveBackend(rt.BackendURL, backendAlias)
	if err != nil {
		return nil, err
	}

	if backend.URL == "" {
		return nil, fmt.Errorf("backend URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	store, err := newTokenStore(rt.TokenStore, backend.URL)
	if err != nil {
		return nil, err
	}

	signals := auth.NewSignals()
	tokens := auth.NewTokenService(backend.URL, store,
		auth.WithHTTPClient(&http.Client{Timeout: rt.HTTPTimeout}),
		auth.WithSignals(signals),
		auth.WithLogger(log.With().Str("component", "tokens").Logger()),
	)

	api := client.New(tokens, log.With().Str("component", "client").Logger())
	svc := session.NewService(api, log.With().Str("component", "session").Logger())

	events, unsubscribe := signals.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Kind == auth.EventLoggedOut {
				fmt.Fprintf(out, "Session ended. Run 'shopfront login' to sign in again (%s).\n", ev.Route)
			}
		}
	}()

	return &environment{
		backend: backend,
		session: svc,
		logger:  log,
		stop: func() {
			unsubscribe()
			<-done
		},
	}, nil
}

// newTokenStore picks the credential backend. The env var wins over the
// user config; the OS keyring is the default.
func newTokenStore(kind, backendURL string) (auth.TokenStore, error) {
	if kind == "" {
		cfg, err := userconfig.Load()
		if err != nil {
			return nil, err
		}
		kind = cfg.TokenStore
	}

	switch kind {
	case config.TokenStoreFile:
		path, err := userconfig.SessionPath(backendURL)
		if err != nil {
			return nil, err
		}
		return auth.NewFileStore(path), nil
	case "", config.TokenStoreKeyring:
		return auth.NewKeyringStore(backendURL), nil
	default:
		return nil, fmt.Errorf("unknown token store '%s'", kind)
	}
}
