package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("services/watcher")
	meter  = otel.Meter("services/watcher")
)

type Options struct {
	Fetcher   Fetcher
	Transport Transport
	// optional, nothing is persisted when nil
	Store         Store
	Policy        *SharedPolicy
	Registrations *Registrations
	// optional, defaults to lukechampine.com/frand
	Rand Rand
	// optional, defaults to the wall clock
	Clock Clock
	// optional, defaults to DefaultPollInterval
	PollInterval time.Duration
}

type watch struct {
	state  WatchState
	cancel context.CancelFunc
	done   chan struct{}
	// set once the stored status is to be deleted, guarded by Registry.mu
	stopped bool
}

// Registry owns the running watches, one goroutine per game id.
type Registry struct {
	fetcher       Fetcher
	transport     Transport
	store         Store
	policy        *SharedPolicy
	registrations *Registrations
	rand          Rand
	clock         Clock
	interval      time.Duration
	composer      Composer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	watches map[string]*watch
	closed  bool

	pollCounter   metric.Int64Counter
	notifyCounter metric.Int64Counter
	activeWatches metric.Int64UpDownCounter
}

// NewRegistry creates a registry, every watch it starts lives at most as
// long as ctx.
func NewRegistry(ctx context.Context, opts Options) (*Registry, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("a fetcher is required")
	}

	pollCounter, err := meter.Int64Counter(
		"watcher_polls_total",
		metric.WithDescription("The total amount of status page polls."),
	)
	if err != nil {
		return nil, err
	}
	notifyCounter, err := meter.Int64Counter(
		"watcher_notifications_total",
		metric.WithDescription("The total amount of notifications sent, by kind."),
	)
	if err != nil {
		return nil, err
	}
	activeWatches, err := meter.Int64UpDownCounter(
		"watcher_active_watches",
		metric.WithDescription("The amount of games currently watched."),
	)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		fetcher:       opts.Fetcher,
		transport:     opts.Transport,
		store:         opts.Store,
		policy:        opts.Policy,
		registrations: opts.Registrations,
		rand:          opts.Rand,
		clock:         opts.Clock,
		interval:      opts.PollInterval,
		watches:       map[string]*watch{},
		pollCounter:   pollCounter,
		notifyCounter: notifyCounter,
		activeWatches: activeWatches,
	}
	if r.store == nil {
		r.store = nopStore{}
	}
	if r.policy == nil {
		r.policy = NewSharedPolicy(DefaultPolicy())
	}
	if r.registrations == nil {
		r.registrations = NewRegistrations(nil)
	}
	if r.rand == nil {
		r.rand = frandSource{}
	}
	if r.clock == nil {
		r.clock = realClock{}
	}
	if r.interval <= 0 {
		r.interval = DefaultPollInterval
	}
	r.ctx, r.cancel = context.WithCancel(ctx)

	return r, nil
}

// StartWatch starts polling a game. It returns false if the game is
// already watched, the id is empty or the registry is shut down.
func (r *Registry) StartWatch(gameId string) bool {
	return r.startWatch(gameId, SavedStatus{})
}

// startWatch starts a watch whose state is seeded from a previous run.
func (r *Registry) startWatch(gameId string, seed SavedStatus) bool {
	gameId = strings.TrimSpace(gameId)
	if gameId == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if _, ok := r.watches[gameId]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(r.ctx)
	w := &watch{
		state: WatchState{
			GameId:       gameId,
			LastStatus:   seed.Status,
			LastNextTurn: seed.NextTurn,
			StartedAt:    r.clock.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.watches[gameId] = w

	r.wg.Add(1)
	go r.run(ctx, w)

	slog.Info("started watching game", "game_id", gameId)
	return true
}

// StopWatch cancels a watch and forgets its state. It returns false if the
// game was not watched.
func (r *Registry) StopWatch(gameId string) bool {
	r.mu.Lock()
	w, ok := r.watches[gameId]
	if ok {
		delete(r.watches, gameId)
		w.stopped = true
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	w.cancel()
	<-w.done

	r.mu.Lock()
	_, restarted := r.watches[gameId]
	r.mu.Unlock()
	if !restarted {
		r.deleteStatus(gameId)
	}

	slog.Info("stopped watching game", "game_id", gameId)
	return true
}

// ListWatched returns the watched game ids in sorted order.
func (r *Registry) ListWatched() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := lo.Keys(r.watches)
	slices.Sort(ids)
	return ids
}

func (r *Registry) LastStatus(gameId string) (WatchState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[gameId]
	if !ok {
		return WatchState{}, false
	}
	return w.state.clone(), true
}

// Shutdown stops every watch without forgetting it, waits for the loops to
// exit and flushes their last state to the store so they can be restored.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	remaining := lo.Values(r.watches)
	r.mu.Unlock()

	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	// watches stopped or terminated while shutting down already had their
	// status deleted and must not be written back
	r.mu.Lock()
	flush := make([]WatchState, 0, len(remaining))
	for _, w := range remaining {
		if !w.stopped {
			flush = append(flush, w.state.clone())
		}
	}
	r.mu.Unlock()

	for _, state := range flush {
		err := r.store.SaveStatus(ctx, state.GameId, SavedStatus{
			Status:   state.LastStatus,
			NextTurn: state.LastNextTurn,
		})
		if err != nil {
			slog.WarnContext(ctx, "flush watch state", "game_id", state.GameId, "err", err)
		}
	}
	return nil
}

func (r *Registry) state(w *watch) WatchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return w.state.clone()
}

func (r *Registry) update(w *watch, fn func(state *WatchState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&w.state)
}

// finish removes w from the registry, unless it was already replaced by a
// newer watch of the same game.
func (r *Registry) finish(w *watch, transition Transition) {
	gameId := w.state.GameId

	forget := transition == TerminatedError || transition == TerminatedGameOver

	r.mu.Lock()
	if r.watches[gameId] == w {
		delete(r.watches, gameId)
	}
	if forget {
		w.stopped = true
	}
	r.mu.Unlock()

	if forget {
		r.deleteStatus(gameId)
	}
	slog.Info("watch finished", "game_id", gameId, "transition", transition.String())
}

func (r *Registry) saveStatus(ctx context.Context, gameId string, status SavedStatus) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*5)
	defer cancel()
	err := r.store.SaveStatus(ctx, gameId, status)
	if err != nil {
		slog.WarnContext(ctx, "save watch status", "game_id", gameId, "err", err)
	}
}

func (r *Registry) deleteStatus(gameId string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := r.store.DeleteStatus(ctx, gameId)
	if err != nil {
		slog.WarnContext(ctx, "delete watch status", "game_id", gameId, "err", err)
	}
}
