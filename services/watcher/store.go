package watcher

import "context"

// SavedStatus is the persisted part of a WatchState.
type SavedStatus struct {
	Status   string
	NextTurn string
}

// Store persists watcher state across restarts. The keys of LoadStatuses
// are the games that were being watched.
type Store interface {
	LoadStatuses(ctx context.Context) (map[string]SavedStatus, error)
	SaveStatus(ctx context.Context, gameId string, status SavedStatus) error
	DeleteStatus(ctx context.Context, gameId string) error

	LoadRegistrations(ctx context.Context) (map[string]map[string]string, error)
	SaveRegistration(ctx context.Context, gameId, nation, mention string) error
	DeleteRegistration(ctx context.Context, gameId, nation string) error

	// LoadPolicy returns false when no policy was ever saved.
	LoadPolicy(ctx context.Context) (ReminderPolicy, bool, error)
	SavePolicy(ctx context.Context, policy ReminderPolicy) error
}

type nopStore struct{}

func (nopStore) LoadStatuses(context.Context) (map[string]SavedStatus, error) {
	return nil, nil
}

func (nopStore) SaveStatus(context.Context, string, SavedStatus) error {
	return nil
}

func (nopStore) DeleteStatus(context.Context, string) error {
	return nil
}

func (nopStore) LoadRegistrations(context.Context) (map[string]map[string]string, error) {
	return nil, nil
}

func (nopStore) SaveRegistration(context.Context, string, string, string) error {
	return nil
}

func (nopStore) DeleteRegistration(context.Context, string, string) error {
	return nil
}

func (nopStore) LoadPolicy(context.Context) (ReminderPolicy, bool, error) {
	return ReminderPolicy{}, false, nil
}

func (nopStore) SavePolicy(context.Context, ReminderPolicy) error {
	return nil
}
