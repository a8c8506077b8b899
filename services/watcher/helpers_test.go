package watcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"blitzwatch/lib/scrapers/blitz"
	"blitzwatch/lib/telemetry"
)

type player struct {
	nation string
	status string
}

// renderPage builds a status page the way the blitzserver lays it out.
func renderPage(lobby, status, nextTurn string, players ...player) string {
	var out strings.Builder
	out.WriteString("<html><body>")
	out.WriteString(fmt.Sprintf("<h1>%s</h1>", lobby))
	out.WriteString(`<div id="status"><div class="pane status"><table>`)
	if status != "" {
		out.WriteString(fmt.Sprintf("<tr><td>Status</td><td>%s</td></tr>", status))
	}
	out.WriteString("<tr><td>Address</td><td>beta.blitzserver.net:10042</td></tr>")
	if nextTurn != "" {
		out.WriteString(fmt.Sprintf("<tr><td>Next turn</td><td>%s</td></tr>", nextTurn))
	}
	out.WriteString(`</table></div><div class="players"><table class="striped-table">`)
	for _, p := range players {
		out.WriteString(fmt.Sprintf(
			`<tr class="disciple"><td class="nation-name wide-column"><b>%s</b></td><td>%s</td></tr>`,
			p.nation, p.status,
		))
	}
	out.WriteString("</table></div></div></body></html>")
	return out.String()
}

type fetchResult struct {
	page string
	err  error
}

// fakeFetcher replays queued results per game, repeating the last one.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string][]fetchResult
	calls   map[string]int
	// when set, FetchStatusPage blocks until the context is done
	block bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		results: map[string][]fetchResult{},
		calls:   map[string]int{},
	}
}

func (f *fakeFetcher) push(gameId string, page string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[gameId] = append(f.results[gameId], fetchResult{page: page})
}

func (f *fakeFetcher) fail(gameId string, statusCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[gameId] = append(f.results[gameId], fetchResult{
		err: &blitz.FetchError{GameId: gameId, StatusCode: statusCode},
	})
}

func (f *fakeFetcher) callCount(gameId string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[gameId]
}

func (f *fakeFetcher) FetchStatusPage(ctx context.Context, gameId string) (string, error) {
	f.mu.Lock()
	f.calls[gameId]++
	block := f.block
	queue := f.results[gameId]
	var result fetchResult
	switch {
	case len(queue) == 0:
		result = fetchResult{err: &blitz.FetchError{GameId: gameId, StatusCode: 404}}
	case len(queue) == 1:
		result = queue[0]
	default:
		result = queue[0]
		f.results[gameId] = queue[1:]
	}
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", &blitz.FetchError{GameId: gameId, Err: ctx.Err()}
	}
	return result.page, result.err
}

type recordingTransport struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (t *recordingTransport) Send(_ context.Context, msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return t.err
}

func (t *recordingTransport) sent() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// blockingTransport parks every Send until release is closed. When honorCtx
// is set a done ctx also releases it.
type blockingTransport struct {
	honorCtx bool
	release  chan struct{}
	entered  chan struct{}
	once     sync.Once

	mu        sync.Mutex
	deadlines []time.Time
}

func newBlockingTransport(honorCtx bool) *blockingTransport {
	return &blockingTransport{
		honorCtx: honorCtx,
		release:  make(chan struct{}),
		entered:  make(chan struct{}),
	}
}

func (t *blockingTransport) Send(ctx context.Context, _ Message) error {
	deadline, _ := ctx.Deadline()
	t.mu.Lock()
	t.deadlines = append(t.deadlines, deadline)
	t.mu.Unlock()
	t.once.Do(func() { close(t.entered) })

	if !t.honorCtx {
		<-t.release
		return nil
	}
	select {
	case <-t.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *blockingTransport) firstDeadline() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.deadlines) == 0 {
		return time.Time{}
	}
	return t.deadlines[0]
}

type memStore struct {
	mu            sync.Mutex
	statuses      map[string]SavedStatus
	registrations map[string]map[string]string
	policy        *ReminderPolicy
	err           error
}

func newMemStore() *memStore {
	return &memStore{
		statuses:      map[string]SavedStatus{},
		registrations: map[string]map[string]string{},
	}
}

func (s *memStore) LoadStatuses(context.Context) (map[string]SavedStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]SavedStatus{}
	for k, v := range s.statuses {
		out[k] = v
	}
	return out, s.err
}

func (s *memStore) SaveStatus(_ context.Context, gameId string, status SavedStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.statuses[gameId] = status
	return nil
}

func (s *memStore) DeleteStatus(_ context.Context, gameId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, gameId)
	return s.err
}

func (s *memStore) status(gameId string) (SavedStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[gameId]
	return status, ok
}

func (s *memStore) LoadRegistrations(context.Context) (map[string]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewRegistrations(s.registrations).players, s.err
}

func (s *memStore) SaveRegistration(_ context.Context, gameId, nation, mention string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registrations[gameId] == nil {
		s.registrations[gameId] = map[string]string{}
	}
	s.registrations[gameId][nation] = mention
	return s.err
}

func (s *memStore) DeleteRegistration(_ context.Context, gameId, nation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registrations[gameId], nation)
	return s.err
}

func (s *memStore) LoadPolicy(context.Context) (ReminderPolicy, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == nil {
		return ReminderPolicy{}, false, s.err
	}
	return s.policy.clone(), true, s.err
}

func (s *memStore) SavePolicy(_ context.Context, policy ReminderPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy = policy.clone()
	s.policy = &policy
	return s.err
}

type fixedRand int

func (r fixedRand) Intn(n int) int {
	return int(r) % n
}

// manualClock never fires After on its own, loops park after their first
// poll until tick is called.
type manualClock struct {
	mu   sync.Mutex
	now  time.Time
	tick chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{
		now:  time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
		tick: make(chan time.Time),
	}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) After(time.Duration) <-chan time.Time {
	return c.tick
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	c.tick <- now
}

type testEnv struct {
	fetcher       *fakeFetcher
	transport     *recordingTransport
	store         *memStore
	clock         *manualClock
	policy        *SharedPolicy
	registrations *Registrations
	registry      *Registry
}

func setupRegistry(t testing.TB, configure ...func(opts *Options)) *testEnv {
	telemetry.SetupForTesting()

	env := &testEnv{
		fetcher:       newFakeFetcher(),
		transport:     &recordingTransport{},
		store:         newMemStore(),
		clock:         newManualClock(),
		policy:        NewSharedPolicy(DefaultPolicy()),
		registrations: NewRegistrations(nil),
	}
	opts := Options{
		Fetcher:       env.fetcher,
		Transport:     env.transport,
		Store:         env.store,
		Policy:        env.policy,
		Registrations: env.registrations,
		Rand:          fixedRand(0),
		Clock:         env.clock,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	registry, err := NewRegistry(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	env.registry = registry

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		registry.Shutdown(ctx)
	})
	return env
}

// newWatch builds a watch that is not run by a goroutine, for driving step
// directly.
func (env *testEnv) newWatch(gameId string, seed SavedStatus) *watch {
	return &watch{
		state: WatchState{
			GameId:       gameId,
			LastStatus:   seed.Status,
			LastNextTurn: seed.NextTurn,
		},
		cancel: func() {},
		done:   make(chan struct{}),
	}
}
