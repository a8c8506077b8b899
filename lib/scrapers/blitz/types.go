package blitz

import "strings"

// UnknownStatus is the game status reported when a page has no status
// section or the section carries no status row.
const UnknownStatus = "Unknown"

// info keys recognized on the status pane.
const (
	InfoStatus   = "status"
	InfoAddress  = "address"
	InfoNextTurn = "next_turn"
)

type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusSubmitted
	StatusUnsubmitted
	StatusComputer
	StatusUnfinished
	StatusDead
	StatusRemovePretender
)

var statusKinds = map[string]StatusKind{
	"submitted":        StatusSubmitted,
	"unsubmitted":      StatusUnsubmitted,
	"computer":         StatusComputer,
	"unfinished":       StatusUnfinished,
	"dead":             StatusDead,
	"remove pretender": StatusRemovePretender,
}

func (k StatusKind) String() string {
	switch k {
	case StatusSubmitted:
		return "submitted"
	case StatusUnsubmitted:
		return "unsubmitted"
	case StatusComputer:
		return "computer"
	case StatusUnfinished:
		return "unfinished"
	case StatusDead:
		return "dead"
	case StatusRemovePretender:
		return "remove pretender"
	}
	return "unknown"
}

type PlayerStatus struct {
	NationName string
	Status     string
}

// Kind classifies the player's status case-insensitively.
func (p PlayerStatus) Kind() StatusKind {
	kind, ok := statusKinds[strings.ToLower(strings.TrimSpace(p.Status))]
	if !ok {
		return StatusUnknown
	}
	return kind
}

// GameSnapshot is the structured content of one status page.
type GameSnapshot struct {
	LobbyName string
	Players   []PlayerStatus
	Info      map[string]string
	// HasStatus is false when the page had no status section, such a
	// snapshot must be treated as unparseable rather than an empty game.
	HasStatus bool
}

// Status returns the game status, or UnknownStatus when the page had no
// status section or an empty status row.
func (s GameSnapshot) Status() string {
	if !s.HasStatus {
		return UnknownStatus
	}
	status := s.Info[InfoStatus]
	if status == "" {
		return UnknownStatus
	}
	return status
}

// NextTurn returns the raw "time remaining" text, "" when absent.
func (s GameSnapshot) NextTurn() string {
	return s.Info[InfoNextTurn]
}

func (s GameSnapshot) Address() string {
	return s.Info[InfoAddress]
}

// IsOver reports whether the status means there is nothing left to watch.
func (s GameSnapshot) IsOver() bool {
	status := s.Status()
	return status == UnknownStatus || strings.Contains(status, "Won")
}

func (s GameSnapshot) NationNames() []string {
	names := make([]string, len(s.Players))
	for i, p := range s.Players {
		names[i] = p.NationName
	}
	return names
}
