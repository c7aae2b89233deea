package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Suhaibinator/panelgate/internal/config"
	"github.com/Suhaibinator/panelgate/internal/logger"
	"github.com/Suhaibinator/panelgate/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panelgate",
		Short: "Discord login gate for the admin panel",
		Long: `panelgate runs the Discord OAuth2 callback endpoint. Users who sign in with
Discord are sent to the admin panel if their Discord user ID is on the allow-list,
and back to the login page otherwise.`,
		SilenceUsage: true,
		RunE:         run,
	}
	config.InitFlags(cmd.Flags())
	cmd.Flags().BoolP("version", "v", false, "Show version information")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	if v, _ := cmd.Flags().GetBool("version"); v {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetVersionInfo())
		return nil
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // flushing stdout can fail harmlessly

	app := fx.New(
		fx.Supply(cfg),
		fx.Supply(log),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		server.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
