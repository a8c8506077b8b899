package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"blitzwatch/lib/notify"
	"blitzwatch/services/watcher"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"
)

var errExit = errors.New("exit")

const helpText = `Commands:
  watch <game id>...                   start watching games
  unwatch <game id>...                 stop watching games
  list                                 list watched games
  status <game id>                     show the last known state of a game
  details <game id>                    fetch a game and show every player
  register <game id> <nation> <mention>
                                       mention a player when their nation is up
  unregister <game id> <nation>        forget a registration
  roster                               list the members that can be mentioned
  threshold [hours]                    show or set the reminder threshold
  reminder <text>                      set the reminder message
  turnmsg <text>                       add a turn message
  exit                                 stop the watcher`

// Shell is the interactive control surface of a running watcher.
type Shell struct {
	l       *readline.Instance
	service *watcher.Service
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func New(service *watcher.Service) (*Shell, error) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[35mblitzwatch>\033[0m ",
		HistoryFile:     "/tmp/blitzwatch.history",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	return &Shell{l: l, service: service}, nil
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// Loop reads commands until exit, end of input, an interrupt on an empty
// line or ctx is done.
func (s *Shell) Loop(ctx context.Context) {
	var closeOnce sync.Once
	closeReadline := func() {
		closeOnce.Do(func() { s.l.Close() })
	}
	defer closeReadline()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeReadline()
		case <-done:
		}
	}()

	for {
		line, err := s.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return
			}
			continue
		} else if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		out, err := s.handle(ctx, line)
		if errors.Is(err, errExit) {
			return
		}
		if err != nil {
			writeln("Error: "+err.Error(), s.l.Stderr())
			continue
		}
		if out != "" {
			writeln(out, s.l.Stdout())
		}
	}
}

func (s *Shell) handle(ctx context.Context, line string) (string, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", nil
	}
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "watch", "w":
		return s.watch(args)
	case "unwatch", "uw":
		return s.unwatch(args)
	case "list", "ls":
		return s.list(), nil
	case "status", "st":
		return s.status(args)
	case "details", "d":
		return s.details(ctx, args)
	case "register", "reg":
		return s.register(ctx, args)
	case "unregister", "unreg":
		return s.unregister(ctx, args)
	case "roster":
		return s.roster(ctx)
	case "threshold":
		return s.threshold(ctx, args)
	case "reminder":
		return s.reminder(ctx, args)
	case "turnmsg":
		return s.turnMessage(ctx, args)
	case "help", "h", "?":
		return helpText, nil
	case "exit", "quit", "q":
		return "", errExit
	default:
		return "", fmt.Errorf("command %s not found", strconv.Quote(cmd))
	}
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func (s *Shell) watch(args []string) (string, error) {
	if err := requireArgs(args, 1, "watch <game id>..."); err != nil {
		return "", err
	}
	lines := lo.Map(args, func(gameId string, _ int) string {
		if s.service.StartWatch(gameId) {
			return fmt.Sprintf("Started watching game %s.", gameId)
		}
		return fmt.Sprintf("Game %s is already being watched.", gameId)
	})
	return strings.Join(lines, "\n"), nil
}

func (s *Shell) unwatch(args []string) (string, error) {
	if err := requireArgs(args, 1, "unwatch <game id>..."); err != nil {
		return "", err
	}
	lines := lo.Map(args, func(gameId string, _ int) string {
		if s.service.StopWatch(gameId) {
			return fmt.Sprintf("Stopped watching game %s.", gameId)
		}
		return fmt.Sprintf("Game %s is not being watched.", gameId)
	})
	return strings.Join(lines, "\n"), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateTime)
}

func (s *Shell) list() string {
	ids := s.service.ListWatched()
	if len(ids) == 0 {
		return "No games are being watched."
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Game", "Lobby", "Status", "Next Turn", "Last Polled"})
	for _, gameId := range ids {
		state, ok := s.service.Status(gameId)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{
			gameId,
			state.LobbyName,
			state.LastStatus,
			state.LastNextTurn,
			formatTime(state.LastPolledAt),
		})
	}
	return t.Render()
}

func (s *Shell) status(args []string) (string, error) {
	if err := requireArgs(args, 1, "status <game id>"); err != nil {
		return "", err
	}
	gameId := args[0]
	state, ok := s.service.Status(gameId)
	if !ok {
		return "", fmt.Errorf("game %s is not being watched", gameId)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("Game %s", gameId))
	t.AppendRows([]table.Row{
		{"Lobby", state.LobbyName},
		{"Status", state.LastStatus},
		{"Next Turn", state.LastNextTurn},
		{"Watching Since", formatTime(state.StartedAt)},
		{"Last Polled", formatTime(state.LastPolledAt)},
		{"Reminder Sent", formatTime(state.LastReminderSentAt)},
	})

	registered := s.service.Registrations(gameId)
	nations := lo.Keys(registered)
	slices.Sort(nations)
	for _, nation := range nations {
		t.AppendRow(table.Row{nation, registered[nation]})
	}
	return t.Render(), nil
}

func (s *Shell) details(ctx context.Context, args []string) (string, error) {
	if err := requireArgs(args, 1, "details <game id>"); err != nil {
		return "", err
	}
	msg, err := s.service.Details(ctx, args[0])
	if err != nil {
		return "", err
	}
	return notify.RenderMessage(msg), nil
}

func (s *Shell) register(ctx context.Context, args []string) (string, error) {
	if err := requireArgs(args, 3, `register <game id> "<nation>" <mention>`); err != nil {
		return "", err
	}
	gameId := args[0]
	mention := args[len(args)-1]
	nation := strings.Join(args[1:len(args)-1], " ")

	resolved, err := s.service.RegisterPlayer(ctx, gameId, nation, mention)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Registered %s as %s in game %s.", mention, resolved, gameId), nil
}

func (s *Shell) unregister(ctx context.Context, args []string) (string, error) {
	if err := requireArgs(args, 2, `unregister <game id> "<nation>"`); err != nil {
		return "", err
	}
	gameId := args[0]
	nation := strings.Join(args[1:], " ")
	if !s.service.UnregisterPlayer(ctx, gameId, nation) {
		return "", fmt.Errorf("%s is not registered in game %s", nation, gameId)
	}
	return fmt.Sprintf("Unregistered %s in game %s.", nation, gameId), nil
}

func (s *Shell) roster(ctx context.Context) (string, error) {
	members, err := s.service.Roster(ctx)
	if err != nil {
		return "", err
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Name", "Mention"})
	for _, m := range members {
		t.AppendRow(table.Row{m.Name, m.Mention})
	}
	return t.Render(), nil
}

func (s *Shell) threshold(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return fmt.Sprintf("Reminders are sent %v hours before the turn ends.", s.service.ReminderPolicy().ThresholdHours), nil
	}
	hours, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return "", fmt.Errorf("invalid number of hours %s", strconv.Quote(args[0]))
	}
	err = s.service.SetReminderThreshold(ctx, hours)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Reminder threshold set to %v hours.", hours), nil
}

func (s *Shell) reminder(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return s.service.ReminderPolicy().ReminderMessage, nil
	}
	err := s.service.SetReminderMessage(ctx, strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	return "Reminder message updated.", nil
}

func (s *Shell) turnMessage(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		messages := s.service.ReminderPolicy().TurnMessages
		if len(messages) == 0 {
			return watcher.DefaultTurnMessage, nil
		}
		return strings.Join(messages, "\n"), nil
	}
	err := s.service.AddTurnMessage(ctx, strings.Join(args, " "))
	if err != nil {
		return "", err
	}
	return "Turn message added.", nil
}
