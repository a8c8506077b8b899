package watcher

import (
	"fmt"
	"slices"
	"strings"

	"blitzwatch/lib/scrapers/blitz"

	"github.com/samber/lo"
)

const (
	colorStatus   = 0xD75BF4
	colorReminder = 0xF1C40F
	colorStopped  = 0xE02B2B
)

var statusEmojis = map[blitz.StatusKind]string{
	blitz.StatusSubmitted:       ":ballot_box_with_check:",
	blitz.StatusUnsubmitted:     ":x:",
	blitz.StatusComputer:        ":desktop:",
	blitz.StatusUnfinished:      ":warning:",
	blitz.StatusDead:            ":headstone:",
	blitz.StatusRemovePretender: ":wastebasket:",
	blitz.StatusUnknown:         ":question:",
}

// Composer builds notification messages, it has no side effects.
type Composer struct{}

func gameFields(snapshot blitz.GameSnapshot) []Field {
	fields := []Field{{Name: "Game Status", Value: snapshot.Status()}}
	if address := snapshot.Address(); address != "" {
		fields = append(fields, Field{Name: "Game Address", Value: address})
	}
	if nextTurn := snapshot.NextTurn(); nextTurn != "" {
		fields = append(fields, Field{Name: "Next Turn", Value: nextTurn})
	}
	return fields
}

func (Composer) StatusUpdate(gameId string, snapshot blitz.GameSnapshot, text string, mentions []string) Message {
	return Message{
		GameId:   gameId,
		Kind:     KindStatusUpdate,
		Title:    fmt.Sprintf("Lobby: %s", snapshot.LobbyName),
		Color:    colorStatus,
		Fields:   gameFields(snapshot),
		Body:     text,
		Mentions: mentions,
	}
}

func (Composer) Reminder(gameId string, snapshot blitz.GameSnapshot, text string, hoursLeft float64, mentions []string) Message {
	fields := gameFields(snapshot)
	fields = append(fields, Field{
		Name:  "Hours Left",
		Value: strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", hoursLeft), "0"), "."),
	})
	if waiting := UnsubmittedNations(snapshot); len(waiting) > 0 {
		fields = append(fields, Field{Name: "Waiting On", Value: strings.Join(waiting, "\n")})
	}
	return Message{
		GameId:   gameId,
		Kind:     KindReminder,
		Title:    fmt.Sprintf("Lobby: %s", snapshot.LobbyName),
		Color:    colorReminder,
		Fields:   fields,
		Body:     text,
		Mentions: mentions,
	}
}

// Stopped announces the end of a watch, reason reads after "due to".
func (Composer) Stopped(gameId string, reason string) Message {
	return Message{
		GameId: gameId,
		Kind:   KindStopped,
		Title:  fmt.Sprintf("Stopped watching game %s", gameId),
		Color:  colorStopped,
		Fields: []Field{
			{Name: "Game ID", Value: gameId, Inline: true},
			{Name: "Reason", Value: reason, Inline: true},
		},
		Body: fmt.Sprintf("Stopped watching game %s due to %s.", gameId, reason),
	}
}

// Details renders a full overview of a game, one line per player.
func (Composer) Details(gameId string, snapshot blitz.GameSnapshot, registered map[string]string) Message {
	fields := gameFields(snapshot)

	lines := make([]string, len(snapshot.Players))
	for i, player := range snapshot.Players {
		line := fmt.Sprintf("%s: %s", statusEmojis[player.Kind()], player.NationName)
		if mention, ok := registered[player.NationName]; ok {
			line += " " + mention
		}
		lines[i] = line
	}
	if len(lines) > 0 {
		fields = append(fields, Field{Name: "**Players**", Value: strings.Join(lines, "\n")})
	}

	return Message{
		GameId: gameId,
		Kind:   KindDetails,
		Title:  fmt.Sprintf("Lobby: %s", snapshot.LobbyName),
		Color:  colorStatus,
		Fields: fields,
	}
}

// TurnChangeMentions addresses every registered player of a game, or
// everyone when nobody registered.
func TurnChangeMentions(registered map[string]string) []string {
	if len(registered) == 0 {
		return []string{Broadcast}
	}
	nations := lo.Keys(registered)
	slices.Sort(nations)
	return lo.Uniq(lo.Map(nations, func(nation string, _ int) string {
		return registered[nation]
	}))
}

// ReminderMentions addresses the registered players that still have to
// submit. A single unregistered straggler, or nobody to address at all,
// falls back to a broadcast.
func ReminderMentions(snapshot blitz.GameSnapshot, registered map[string]string) []string {
	var mentions []string
	for _, nation := range UnsubmittedNations(snapshot) {
		mention, ok := registered[nation]
		if !ok {
			return []string{Broadcast}
		}
		mentions = append(mentions, mention)
	}
	if len(mentions) == 0 {
		return []string{Broadcast}
	}
	return lo.Uniq(mentions)
}

func UnsubmittedNations(snapshot blitz.GameSnapshot) []string {
	unsubmitted := lo.Filter(snapshot.Players, func(p blitz.PlayerStatus, _ int) bool {
		return p.Kind() == blitz.StatusUnsubmitted
	})
	return lo.Map(unsubmitted, func(p blitz.PlayerStatus, _ int) string {
		return p.NationName
	})
}
