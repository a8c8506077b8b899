package commands

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"blitzwatch/lib/scrapers/blitz"
	"blitzwatch/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.html>",
	Short: "Parse a saved status page and print what the watcher would see.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		contents, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read page", err)
		}
		snapshot, err := blitz.ParseStatusPage(string(contents))
		if err != nil {
			serviceutil.Fatal("failed to parse page", err)
		}

		info := table.NewWriter()
		info.SetOutputMirror(os.Stdout)
		info.SetStyle(table.StyleRounded)
		info.SetTitle(snapshot.LobbyName)
		info.AppendRow(table.Row{"game status", snapshot.Status()})
		keys := lo.Keys(snapshot.Info)
		slices.Sort(keys)
		for _, key := range keys {
			info.AppendRow(table.Row{key, snapshot.Info[key]})
		}
		info.Render()

		players := table.NewWriter()
		players.SetOutputMirror(os.Stdout)
		players.SetStyle(table.StyleRounded)
		players.AppendHeader(table.Row{"Nation", "Status", "Kind"})
		for _, p := range snapshot.Players {
			players.AppendRow(table.Row{p.NationName, p.Status, p.Kind().String()})
		}
		players.Render()

		if snapshot.IsOver() {
			fmt.Println("A watch on this game would stop.")
		}
	},
}

var hoursCmd = &cobra.Command{
	Use:   "hours <next turn text>",
	Short: `Convert a "next turn" text like "1 day, 2 hours" into hours.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hours, err := blitz.ParseHours(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hours)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(hoursCmd)
}
