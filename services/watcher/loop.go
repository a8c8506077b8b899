package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blitzwatch/lib/scrapers/blitz"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// sendTimeout bounds a single notification, a stalled transport must not
// keep a watch from stopping.
const sendTimeout = 30 * time.Second

func (r *Registry) run(ctx context.Context, w *watch) {
	defer r.wg.Done()
	defer close(w.done)

	r.activeWatches.Add(ctx, 1)
	defer r.activeWatches.Add(context.WithoutCancel(ctx), -1)

	initial := r.state(w)
	r.saveStatus(ctx, initial.GameId, SavedStatus{
		Status:   initial.LastStatus,
		NextTurn: initial.LastNextTurn,
	})

	for {
		transition := r.step(ctx, w)
		if transition.Terminal() {
			r.finish(w, transition)
			return
		}

		select {
		case <-ctx.Done():
			r.finish(w, TerminatedByRequest)
			return
		case <-r.clock.After(r.interval):
		}
	}
}

// step performs one poll of a watched game and sends at most one
// notification.
func (r *Registry) step(ctx context.Context, w *watch) Transition {
	state := r.state(w)
	gameId := state.GameId

	ctx, span := tracer.Start(ctx, "registry:step")
	defer span.End()
	span.SetAttributes(attribute.String("game_id", gameId))

	r.pollCounter.Add(ctx, 1)

	page, err := r.fetcher.FetchStatusPage(ctx, gameId)
	if ctx.Err() != nil {
		return TerminatedByRequest
	}
	var snapshot blitz.GameSnapshot
	if err == nil {
		snapshot, err = blitz.ParseStatusPage(page)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch status page")
		slog.WarnContext(ctx, "poll game", "game_id", gameId, "err", err)
		r.send(ctx, r.composer.Stopped(gameId, "request error"))
		return TerminatedError
	}

	status := snapshot.Status()
	if snapshot.IsOver() {
		r.send(ctx, r.composer.Stopped(gameId, fmt.Sprintf("game status: %s", status)))
		return TerminatedGameOver
	}

	now := r.clock.Now()
	nextTurn := snapshot.NextTurn()
	policy := r.policy.Get()
	registered := r.registrations.Get(gameId)

	if state.LastStatus == "" || state.LastStatus != status {
		r.update(w, func(s *WatchState) {
			s.LobbyName = snapshot.LobbyName
			s.Nations = snapshot.NationNames()
			s.LastStatus = status
			s.LastNextTurn = nextTurn
			s.LastReminderSentAt = time.Time{}
			s.LastPolledAt = now
		})
		r.saveStatus(ctx, gameId, SavedStatus{Status: status, NextTurn: nextTurn})

		r.send(ctx, r.composer.StatusUpdate(
			gameId, snapshot,
			policy.PickTurnMessage(r.rand),
			TurnChangeMentions(registered),
		))
		return NotifyChange
	}

	r.update(w, func(s *WatchState) {
		s.LobbyName = snapshot.LobbyName
		s.Nations = snapshot.NationNames()
		s.LastNextTurn = nextTurn
		s.LastPolledAt = now
	})
	if nextTurn != state.LastNextTurn {
		r.saveStatus(ctx, gameId, SavedStatus{Status: status, NextTurn: nextTurn})
	}
	if nextTurn == "" {
		return NoOp
	}

	hoursLeft, err := blitz.ParseHours(nextTurn)
	if err != nil {
		slog.WarnContext(ctx, "cannot evaluate reminder", "game_id", gameId, "next_turn", nextTurn, "err", err)
		return NoOp
	}
	if !policy.ShouldRemind(hoursLeft) || !state.LastReminderSentAt.IsZero() {
		return NoOp
	}

	r.send(ctx, r.composer.Reminder(
		gameId, snapshot,
		policy.ReminderMessage,
		hoursLeft,
		ReminderMentions(snapshot, registered),
	))
	r.update(w, func(s *WatchState) {
		s.LastReminderSentAt = now
	})
	return NotifyReminder
}

func (r *Registry) send(ctx context.Context, msg Message) {
	r.notifyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(msg.Kind))))
	slog.InfoContext(ctx, "notify", "game_id", msg.GameId, "kind", msg.Kind, "body", msg.Body)

	if r.transport == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	err := r.transport.Send(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "send notification", "game_id", msg.GameId, "kind", msg.Kind, "err", err)
	}
}
