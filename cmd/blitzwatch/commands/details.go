package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"blitzwatch/lib/notify"
	"blitzwatch/lib/scrapers/blitz"
	"blitzwatch/lib/serviceutil"
	"blitzwatch/lib/watchstore"
	"blitzwatch/lib/watchstore/db"
	"blitzwatch/services/watcher"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds the requests made to blitzserver at once.
const maxConcurrentFetches = 4

type snapshotFetcher interface {
	FetchSnapshot(ctx context.Context, gameId string) (blitz.GameSnapshot, error)
}

// fetchDetails fetches every game once and composes its details, in the
// order of gameIds. registrations may be nil.
func fetchDetails(
	ctx context.Context,
	fetcher snapshotFetcher,
	registrations map[string]map[string]string,
	gameIds []string,
) ([]watcher.Message, error) {
	snapshots := make([]blitz.GameSnapshot, len(gameIds))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentFetches)
	for i, gameId := range gameIds {
		group.Go(func() error {
			snapshot, err := fetcher.FetchSnapshot(groupCtx, gameId)
			if err != nil {
				return fmt.Errorf("game %s: %w", gameId, err)
			}
			snapshots[i] = snapshot
			return nil
		})
	}
	err := group.Wait()
	if err != nil {
		return nil, err
	}

	composer := watcher.Composer{}
	messages := make([]watcher.Message, len(gameIds))
	for i, gameId := range gameIds {
		messages[i] = composer.Details(gameId, snapshots[i], registrations[gameId])
	}
	return messages, nil
}

// loadRegistrations reads the players registered by the run command. A
// local database that does not exist yet is not created, and any failure
// only means the details are printed without mentions.
func loadRegistrations(ctx context.Context, config Config) map[string]map[string]string {
	if config.Database.Url == "" {
		if config.Database.File == "" {
			return nil
		}
		_, err := os.Stat(config.Database.File)
		if err != nil {
			return nil
		}
	}

	database, err := config.Database.OpenDB(db.Schema)
	if err != nil {
		slog.WarnContext(ctx, "open database, printing details without registrations", "err", err)
		return nil
	}
	defer database.Close()

	registrations, err := watchstore.NewStore(database).LoadRegistrations(ctx)
	if err != nil {
		slog.WarnContext(ctx, "load registrations, printing details without them", "err", err)
		return nil
	}
	return registrations
}

var detailsCmd = &cobra.Command{
	Use:   "details <game id>...",
	Short: "Fetch the given games once and print an overview of every player.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		client, err := newBlitzClient(config)
		if err != nil {
			serviceutil.Fatal("failed to create blitzserver client", err)
		}

		ctx := cmd.Context()
		messages, err := fetchDetails(ctx, client, loadRegistrations(ctx, config), args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for i, msg := range messages {
			fmt.Println(notify.RenderMessage(msg))
			fmt.Println(client.GameUrl(args[i]))
		}
	},
}

func init() {
	rootCmd.AddCommand(detailsCmd)
}
