package watcher

import (
	"testing"

	"blitzwatch/lib/scrapers/blitz"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testSnapshot() blitz.GameSnapshot {
	return blitz.GameSnapshot{
		LobbyName: "Ulm Bros",
		HasStatus: true,
		Info: map[string]string{
			blitz.InfoStatus:   "Turn 14",
			blitz.InfoNextTurn: "5 hours",
		},
		Players: []blitz.PlayerStatus{
			{NationName: "Ulm", Status: "Unsubmitted"},
			{NationName: "Marverni", Status: "Submitted"},
			{NationName: "Ermor", Status: "Unsubmitted"},
			{NationName: "Pythium", Status: "Dead"},
		},
	}
}

func TestComposerReminder(t *testing.T) {
	msg := Composer{}.Reminder("42", testSnapshot(), "hurry", 4.5, []string{"<@1>"})

	expected := Message{
		GameId: "42",
		Kind:   KindReminder,
		Title:  "Lobby: Ulm Bros",
		Color:  colorReminder,
		Fields: []Field{
			{Name: "Game Status", Value: "Turn 14"},
			{Name: "Next Turn", Value: "5 hours"},
			{Name: "Hours Left", Value: "4.5"},
			{Name: "Waiting On", Value: "Ulm\nErmor"},
		},
		Body:     "hurry",
		Mentions: []string{"<@1>"},
	}
	if diff := cmp.Diff(expected, msg); diff != "" {
		t.Fatalf("unexpected reminder (-want +got):\n%s", diff)
	}
}

func TestComposerStopped(t *testing.T) {
	msg := Composer{}.Stopped("42", "request error")
	require.Equal(t, "Stopped watching game 42 due to request error.", msg.Body)
	require.Equal(t, msg.Body, msg.Content())
	require.Equal(t, colorStopped, msg.Color)
}

func TestComposerDetailsUnknownStatus(t *testing.T) {
	snapshot := testSnapshot()
	snapshot.Players = []blitz.PlayerStatus{{NationName: "Atlantis", Status: "Something new"}}

	msg := Composer{}.Details("42", snapshot, nil)
	require.Contains(t, msg.Fields, Field{Name: "**Players**", Value: ":question:: Atlantis"})
}

func TestTurnChangeMentions(t *testing.T) {
	require.Equal(t, []string{Broadcast}, TurnChangeMentions(nil))
	require.Equal(t, []string{"<@1>", "<@2>"}, TurnChangeMentions(map[string]string{
		"Ermor":    "<@1>",
		"Ulm":      "<@2>",
		"Marverni": "<@1>",
	}))
}

func TestReminderMentions(t *testing.T) {
	snapshot := testSnapshot()

	testCases := []struct {
		name       string
		registered map[string]string
		expected   []string
	}{
		{
			name:       "all stragglers registered",
			registered: map[string]string{"Ulm": "<@1>", "Ermor": "<@2>", "Marverni": "<@3>"},
			expected:   []string{"<@1>", "<@2>"},
		},
		{
			name:       "same player twice",
			registered: map[string]string{"Ulm": "<@1>", "Ermor": "<@1>"},
			expected:   []string{"<@1>"},
		},
		{
			name:       "unregistered straggler",
			registered: map[string]string{"Ulm": "<@1>"},
			expected:   []string{Broadcast},
		},
		{
			name:     "nobody registered",
			expected: []string{Broadcast},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, ReminderMentions(snapshot, test.registered))
		})
	}

	snapshot.Players = []blitz.PlayerStatus{{NationName: "Ulm", Status: "Submitted"}}
	require.Equal(t, []string{Broadcast}, ReminderMentions(snapshot, map[string]string{"Ulm": "<@1>"}))
}

func TestMessageContent(t *testing.T) {
	require.Equal(t, "hi <@1> <@2>", Message{Body: "hi", Mentions: []string{"<@1>", "<@2>"}}.Content())
	require.Equal(t, "@here", Message{Mentions: []string{Broadcast}}.Content())
	require.Equal(t, "hi", Message{Body: "hi"}.Content())
}

func TestReminderPolicy(t *testing.T) {
	policy := ReminderPolicy{ThresholdHours: 12}
	require.False(t, policy.ShouldRemind(0))
	require.True(t, policy.ShouldRemind(0.5))
	require.True(t, policy.ShouldRemind(12))
	require.False(t, policy.ShouldRemind(12.01))

	require.Equal(t, DefaultTurnMessage, policy.PickTurnMessage(fixedRand(3)))
	policy.TurnMessages = []string{"a", "b", "c"}
	require.Equal(t, "b", policy.PickTurnMessage(fixedRand(4)))
}
