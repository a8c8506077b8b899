package watcher

import (
	"context"
	"strings"
	"time"
)

type Kind string

const (
	KindStatusUpdate Kind = "status_update"
	KindStopped      Kind = "stopped"
	KindReminder     Kind = "reminder"
	KindDetails      Kind = "details"
)

// Broadcast is the mention used when nobody in particular can be addressed.
const Broadcast = "@here"

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a transport agnostic notification.
type Message struct {
	GameId   string
	Kind     Kind
	Title    string
	Color    int
	Fields   []Field
	Body     string
	Mentions []string
}

// Content is the body followed by the mentions, the way it is posted to chat.
func (m Message) Content() string {
	if len(m.Mentions) == 0 {
		return m.Body
	}
	mentions := strings.Join(m.Mentions, " ")
	if m.Body == "" {
		return mentions
	}
	return m.Body + " " + mentions
}

// Transport delivers messages to subscribers.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type Member struct {
	Name    string
	Mention string
}

// Roster lists the users a transport can address.
type Roster interface {
	Roster(ctx context.Context) ([]Member, error)
}

// Fetcher retrieves the raw html of a game's status page.
type Fetcher interface {
	FetchStatusPage(ctx context.Context, gameId string) (string, error)
}

type Rand interface {
	Intn(n int) int
}

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// WatchState is what the registry remembers about one watched game.
type WatchState struct {
	GameId    string
	LobbyName string
	// "" until the first poll completes
	LastStatus string
	// raw "time remaining" text of the last poll, "" when absent
	LastNextTurn string
	// zero when no reminder has been sent since the last status change
	LastReminderSentAt time.Time
	Nations            []string
	StartedAt          time.Time
	LastPolledAt       time.Time
}

func (s WatchState) clone() WatchState {
	s.Nations = append([]string(nil), s.Nations...)
	return s
}

// Transition is the outcome of a single poll.
type Transition int

const (
	NoOp Transition = iota
	NotifyChange
	NotifyReminder
	TerminatedError
	TerminatedGameOver
	TerminatedByRequest
)

func (t Transition) Terminal() bool {
	return t == TerminatedError || t == TerminatedGameOver || t == TerminatedByRequest
}

func (t Transition) String() string {
	switch t {
	case NoOp:
		return "no_op"
	case NotifyChange:
		return "notify_change"
	case NotifyReminder:
		return "notify_reminder"
	case TerminatedError:
		return "terminated_error"
	case TerminatedGameOver:
		return "terminated_game_over"
	case TerminatedByRequest:
		return "terminated_by_request"
	}
	return "invalid"
}
