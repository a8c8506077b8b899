package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"blitzwatch/lib/restyutil"
	"blitzwatch/lib/scrapers/blitz"
	"blitzwatch/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "blitzwatch",
	Short: "blitzwatch follows Dominions games hosted on blitzserver and announces their turns.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func newBlitzClient(config Config) (*blitz.Client, error) {
	opts := blitz.ClientOptions{
		BaseUrl:          config.Blitz.BaseUrl,
		Timeout:          time.Duration(config.Blitz.TimeoutSeconds) * time.Second,
		BypassCloudflare: config.Blitz.BypassCloudflare,
	}
	if config.RestyOutput != "" {
		output, err := restyutil.NewFilesystemOutput(config.RestyOutput)
		if err != nil {
			return nil, err
		}
		opts.Output = output
	}
	return blitz.NewClient(opts), nil
}
