package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/franz/score-librarian/internal/api"
	"github.com/franz/score-librarian/internal/report"
	"github.com/franz/score-librarian/internal/store"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (SLIB_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// apiConfig builds the client configuration from flags, env and config file
func apiConfig() api.Config {
	return api.Config{
		BaseURL:      GetConfigString("api", "http://localhost:8000/api"),
		EventsPrefix: GetConfigString("events-prefix", api.DefaultEventsPrefix),
		Timeout:      util.RequestTimeout(),
		UserAgent:    fmt.Sprintf("score-librarian/%s (slib)", Version),
	}
}

// app bundles what most commands need: the state database, an API client
// whose session is persisted there, and the event log
type app struct {
	store  *store.Store
	client *api.Client
	events *report.EventLogger
}

func openApp() (*app, error) {
	db, err := store.Open(GetConfigString("db", "slib-state.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	events, err := report.NewEventLogger(filepath.Join(util.ArtifactsDir(), "events"),
		report.ParseLevel(GetConfigString("event-level", string(report.LevelInfo))))
	if err != nil {
		util.WarnLog("Event log disabled: %v", err)
		events = report.NullLogger()
	}

	client, err := api.New(apiConfig(), api.NewSession(db))
	if err != nil {
		db.Close()
		events.Close()
		return nil, err
	}
	client.OnAuth(func(event api.AuthEvent, username string, err error) {
		events.LogAuth(report.EventType(event), username, err)
		if event == api.AuthExpired {
			util.WarnLog("Session expired, signed out")
		}
	})

	return &app{store: db, client: client, events: events}, nil
}

func (a *app) Close() {
	a.events.Close()
	a.store.Close()
}

// mutation logs the outcome of a create, update or delete and passes err through
func (a *app) mutation(event report.EventType, resource string, id int, err error) error {
	a.events.LogMutation(event, resource, id, err)
	return err
}

// withApp opens the app for the duration of fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmdContext(cmd), a)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
