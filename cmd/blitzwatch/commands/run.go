package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	"blitzwatch/cmd/blitzwatch/shell"
	"blitzwatch/lib/notify"
	"blitzwatch/lib/serviceutil"
	"blitzwatch/lib/telemetry"
	"blitzwatch/lib/watchstore"
	"blitzwatch/lib/watchstore/db"
	"blitzwatch/services/watcher"

	"github.com/spf13/cobra"
)

var noShell bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the configured games until interrupted, with an interactive control shell.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		ctx := serviceutil.SignalContext()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		otel, err := telemetry.SetupFromEnv(ctx, "cmd/blitzwatch")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			otel.Shutdown(ctx)
		}()
		telemetry.InstrumentPerfStats(ctx)

		slog.Info("opening database...")
		database, err := config.Database.OpenDB(db.Schema)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer database.Close()

		client, err := newBlitzClient(config)
		if err != nil {
			serviceutil.Fatal("failed to create blitzserver client", err)
		}
		policy, err := config.policy()
		if err != nil {
			serviceutil.Fatal("failed to read reminder policy", err)
		}

		service, err := watcher.NewService(ctx, watcher.ServiceOptions{
			Fetcher:      client,
			Transport:    buildTransport(config),
			Store:        watchstore.NewStore(database),
			Roster:       config.roster(),
			Policy:       &policy,
			PollInterval: config.pollInterval(),
		})
		if err != nil {
			serviceutil.Fatal("failed to create watcher", err)
		}

		resumed := service.Restore(ctx)
		slog.Info("resumed watches", "count", resumed)
		for _, gameId := range config.Games {
			service.StartWatch(gameId)
		}

		if noShell {
			<-ctx.Done()
		} else {
			sh, err := shell.New(service)
			if err != nil {
				serviceutil.Fatal("failed to start shell", err)
			}
			sh.Loop(ctx)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*15)
		defer shutdownCancel()
		err = service.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error("failed to shut down watches", "err", err)
		}
	},
}

func init() {
	runCmd.Flags().BoolVar(&noShell, "no-shell", false, "run without the interactive shell")
	rootCmd.AddCommand(runCmd)
}

func buildTransport(config Config) watcher.Transport {
	var transports notify.Fanout
	if config.Transport.Discord.WebhookUrl != "" {
		transports = append(transports, notify.NewDiscord(config.Transport.Discord))
	}
	if config.Transport.Smtp.Server != "" && len(config.Transport.Smtp.To) > 0 {
		transports = append(transports, notify.NewEmail(config.Transport.Smtp))
	}
	if config.Transport.Console || len(transports) == 0 {
		transports = append(transports, notify.NewConsole(os.Stdout))
	}
	return transports
}
