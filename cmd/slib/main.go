package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/franz/score-librarian/internal/classify"
	"github.com/franz/score-librarian/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "slib",
		Short: "Score Librarian - administer a band's sheet-music library",
		Long: `slib (Score Librarian) manages the sheet-music library of a wind band
from the command line: themes, their versions and per-instrument files,
instruments, events, venues and repertoires.

Uploads are validated locally against the rules of each version type before
anything is sent to the server.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: applyGlobalFlags,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/slib.yaml)")
	rootCmd.PersistentFlags().String("api", "http://localhost:8000/api", "backend API base URL")
	rootCmd.PersistentFlags().String("events-prefix", "/events", "path of the events app under the API")
	rootCmd.PersistentFlags().String("db", "slib-state.db", "state database file")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-request timeout (default 30s)")
	rootCmd.PersistentFlags().String("artifacts", "artifacts", "directory for event logs and reports")
	rootCmd.PersistentFlags().String("event-level", "info", "minimum level written to the event log (debug, info, warning, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	// Bind flags to viper
	for _, name := range []string{"api", "events-prefix", "db", "timeout", "artifacts", "event-level", "verbose", "quiet", "no-color"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("slib")
		viper.SetConfigType("yaml")
	}

	// SLIB_EVENTS_PREFIX and friends
	viper.SetEnvPrefix("SLIB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("NO_COLOR", "NO_COLOR")

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.DebugLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func applyGlobalFlags(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
	util.SetColors(util.ColorsEnabled() && util.IsTerminal(os.Stderr.Fd()))
	return nil
}

// reportError prints err with a hint for the errors a user can act on
func reportError(err error) {
	var verr *classify.ValidationError
	switch {
	case errors.As(err, &verr):
		util.ErrorLog("%s upload rejected:", verr.Type.Label())
		for _, fe := range verr.Result.Errors {
			util.ErrorLog("  %s: %s", fe.Field, fe.Message)
		}
	case errors.Is(err, util.ErrSessionExpired), errors.Is(err, util.ErrNotAuthenticated):
		util.ErrorLog("%v", err)
		util.ErrorLog("Run 'slib login' to sign in.")
	case errors.Is(err, context.Canceled):
		util.WarnLog("Interrupted")
	default:
		util.ErrorLog("%v", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}
