package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"campusdate/internal/api"
	"campusdate/internal/screens"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Run executes the campusdate command line
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, screens.ErrNoSession) {
			fmt.Fprintln(os.Stderr, "Error:", api.Message(err))
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		a          *app
	)

	root := &cobra.Command{
		Use:           "campusdate",
		Short:         "Campus dating client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(configPath, cmd.OutOrStdout(), cmd.InOrStdin())
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")

	get := func() *app { return a }
	root.AddCommand(
		newLoginCmd(get),
		newSignupCmd(get),
		newLogoutCmd(get),
		newWhoamiCmd(get),
		newProfileCmd(get),
		newPrefsCmd(get),
		newChatsCmd(get),
		newChatCmd(get),
		newMatchesCmd(get),
		newFeedCmd(get),
		newTicketsCmd(get),
		newContactsCmd(get),
		newAlertCmd(get),
		newDevServerCmd(get),
	)
	return root
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
