package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blitzwatch/lib/scrapers/blitz"
	"blitzwatch/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// minNationSimilarity is the Jaro-Winkler similarity a typed nation name
// needs to be resolved to a nation of the game.
const minNationSimilarity = 0.85

var ErrNoRoster = errors.New("the transport cannot list its members")

type ServiceOptions struct {
	Fetcher   Fetcher
	Transport Transport
	Store     Store
	// optional
	Roster Roster
	// used until a policy is loaded from the store, nil means DefaultPolicy
	Policy       *ReminderPolicy
	Rand         Rand
	Clock        Clock
	PollInterval time.Duration
}

// Service is the control surface used by the command layer.
type Service struct {
	registry      *Registry
	fetcher       Fetcher
	store         Store
	roster        Roster
	policy        *SharedPolicy
	registrations *Registrations
	composer      Composer
}

func NewService(ctx context.Context, opts ServiceOptions) (*Service, error) {
	store := opts.Store
	if store == nil {
		store = nopStore{}
	}
	policy := DefaultPolicy()
	if opts.Policy != nil {
		policy = opts.Policy.clone()
	}
	err := ValidateThreshold(policy.ThresholdHours)
	if err != nil {
		return nil, err
	}

	s := &Service{
		fetcher:       opts.Fetcher,
		store:         store,
		roster:        opts.Roster,
		policy:        NewSharedPolicy(policy),
		registrations: NewRegistrations(nil),
	}

	registry, err := NewRegistry(ctx, Options{
		Fetcher:       opts.Fetcher,
		Transport:     opts.Transport,
		Store:         store,
		Policy:        s.policy,
		Registrations: s.registrations,
		Rand:          opts.Rand,
		Clock:         opts.Clock,
		PollInterval:  opts.PollInterval,
	})
	if err != nil {
		return nil, err
	}
	s.registry = registry

	return s, nil
}

// Restore loads the persisted policy and registrations and resumes every
// game that was watched when the process last stopped. Persistence errors
// are logged and the affected state starts out empty. It returns the
// number of resumed watches.
func (s *Service) Restore(ctx context.Context) int {
	policy, found, err := s.store.LoadPolicy(ctx)
	if err != nil {
		slog.WarnContext(ctx, "load reminder policy", "err", err)
	} else if found {
		s.policy.Replace(policy)
	}

	registrations, err := s.store.LoadRegistrations(ctx)
	if err != nil {
		slog.WarnContext(ctx, "load registrations", "err", err)
	}
	for gameId, nations := range registrations {
		for nation, mention := range nations {
			s.registrations.Set(gameId, nation, mention)
		}
	}

	statuses, err := s.store.LoadStatuses(ctx)
	if err != nil {
		slog.WarnContext(ctx, "load watched games", "err", err)
	}
	resumed := 0
	for gameId, saved := range statuses {
		if s.registry.startWatch(gameId, saved) {
			resumed++
		}
	}
	return resumed
}

func (s *Service) StartWatch(gameId string) bool {
	return s.registry.StartWatch(gameId)
}

func (s *Service) StopWatch(gameId string) bool {
	return s.registry.StopWatch(gameId)
}

func (s *Service) ListWatched() []string {
	return s.registry.ListWatched()
}

func (s *Service) Status(gameId string) (WatchState, bool) {
	return s.registry.LastStatus(gameId)
}

func (s *Service) ReminderPolicy() ReminderPolicy {
	return s.policy.Get()
}

func (s *Service) SetReminderThreshold(ctx context.Context, hours float64) error {
	err := s.policy.SetThreshold(hours)
	if err != nil {
		return err
	}
	s.savePolicy(ctx)
	return nil
}

func (s *Service) SetReminderMessage(ctx context.Context, text string) error {
	err := s.policy.SetReminderMessage(text)
	if err != nil {
		return err
	}
	s.savePolicy(ctx)
	return nil
}

func (s *Service) AddTurnMessage(ctx context.Context, text string) error {
	err := s.policy.AddTurnMessage(text)
	if err != nil {
		return err
	}
	s.savePolicy(ctx)
	return nil
}

func (s *Service) savePolicy(ctx context.Context) {
	err := s.store.SavePolicy(ctx, s.policy.Get())
	if err != nil {
		slog.WarnContext(ctx, "save reminder policy", "err", err)
	}
}

// RegisterPlayer links a nation of a game to a mention. When the game is
// watched, the nation is resolved against the nations of its last poll so
// small typos still land on the displayed name. It returns the nation name
// that was registered.
func (s *Service) RegisterPlayer(ctx context.Context, gameId, nation, mention string) (string, error) {
	gameId = strings.TrimSpace(gameId)
	nation = strings.TrimSpace(nation)
	mention = strings.TrimSpace(mention)
	if gameId == "" || nation == "" || mention == "" {
		return "", fmt.Errorf("game id, nation and mention are all required")
	}

	state, ok := s.registry.LastStatus(gameId)
	if ok && len(state.Nations) > 0 {
		closest, similarity := textutil.ClosestName(nation, state.Nations)
		if similarity < minNationSimilarity {
			return "", fmt.Errorf("game %s has no nation like %q", gameId, nation)
		}
		nation = closest
	}

	s.registrations.Set(gameId, nation, mention)
	err := s.store.SaveRegistration(ctx, gameId, nation, mention)
	if err != nil {
		slog.WarnContext(ctx, "save registration", "game_id", gameId, "nation", nation, "err", err)
	}
	return nation, nil
}

func (s *Service) UnregisterPlayer(ctx context.Context, gameId, nation string) bool {
	if !s.registrations.Delete(gameId, nation) {
		return false
	}
	err := s.store.DeleteRegistration(ctx, gameId, nation)
	if err != nil {
		slog.WarnContext(ctx, "delete registration", "game_id", gameId, "nation", nation, "err", err)
	}
	return true
}

func (s *Service) Registrations(gameId string) map[string]string {
	return s.registrations.Get(gameId)
}

// Details fetches a game once and renders its full overview.
func (s *Service) Details(ctx context.Context, gameId string) (Message, error) {
	ctx, span := tracer.Start(ctx, "service:Details")
	defer span.End()
	span.SetAttributes(attribute.String("game_id", gameId))

	page, err := s.fetcher.FetchStatusPage(ctx, gameId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch status page")
		return Message{}, err
	}
	snapshot, err := blitz.ParseStatusPage(page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse status page")
		return Message{}, err
	}

	return s.composer.Details(gameId, snapshot, s.registrations.Get(gameId)), nil
}

func (s *Service) Roster(ctx context.Context) ([]Member, error) {
	if s.roster == nil {
		return nil, ErrNoRoster
	}
	return s.roster.Roster(ctx)
}

func (s *Service) Shutdown(ctx context.Context) error {
	return s.registry.Shutdown(ctx)
}
