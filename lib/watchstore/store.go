package watchstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"blitzwatch/lib/watchstore/db"
	"blitzwatch/services/watcher"
)

const (
	settingThreshold       = "reminder_threshold_hours"
	settingReminderMessage = "reminder_message"
)

// Store persists watcher state in sqlite (or libsql) so watches survive a
// restart.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

var _ watcher.Store = Store{}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func (s Store) LoadStatuses(ctx context.Context) (map[string]watcher.SavedStatus, error) {
	rows, err := s.qry.GetStatuses(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]watcher.SavedStatus, len(rows))
	for _, r := range rows {
		out[r.GameID] = watcher.SavedStatus{
			Status:   r.Status,
			NextTurn: r.NextTurn,
		}
	}
	return out, nil
}

func (s Store) SaveStatus(ctx context.Context, gameId string, status watcher.SavedStatus) error {
	return s.qry.PutStatus(ctx, db.CurrentStatus{
		GameID:    gameId,
		Status:    status.Status,
		NextTurn:  status.NextTurn,
		UpdatedAt: time.Now().Unix(),
	})
}

func (s Store) DeleteStatus(ctx context.Context, gameId string) error {
	return s.qry.DeleteStatus(ctx, gameId)
}

func (s Store) LoadRegistrations(ctx context.Context) (map[string]map[string]string, error) {
	rows, err := s.qry.GetRegisteredPlayers(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]map[string]string{}
	for _, r := range rows {
		nations, ok := out[r.GameID]
		if !ok {
			nations = map[string]string{}
			out[r.GameID] = nations
		}
		nations[r.Nation] = r.Mention
	}
	return out, nil
}

func (s Store) SaveRegistration(ctx context.Context, gameId, nation, mention string) error {
	return s.qry.PutRegisteredPlayer(ctx, db.RegisteredPlayer{
		GameID:  gameId,
		Nation:  nation,
		Mention: mention,
	})
}

func (s Store) DeleteRegistration(ctx context.Context, gameId, nation string) error {
	return s.qry.DeleteRegisteredPlayer(ctx, db.DeleteRegisteredPlayerParams{
		GameID: gameId,
		Nation: nation,
	})
}

// LoadPolicy returns false if no policy was ever saved.
func (s Store) LoadPolicy(ctx context.Context) (watcher.ReminderPolicy, bool, error) {
	settings, err := s.qry.GetSettings(ctx)
	if err != nil {
		return watcher.ReminderPolicy{}, false, err
	}
	if len(settings) == 0 {
		return watcher.ReminderPolicy{}, false, nil
	}

	var policy watcher.ReminderPolicy
	for _, setting := range settings {
		switch setting.Key {
		case settingThreshold:
			policy.ThresholdHours, err = strconv.ParseFloat(setting.Value, 64)
			if err != nil {
				return watcher.ReminderPolicy{}, false, fmt.Errorf("setting %s: %w", setting.Key, err)
			}
		case settingReminderMessage:
			policy.ReminderMessage = setting.Value
		}
	}

	policy.TurnMessages, err = s.qry.GetTurnMessages(ctx)
	if err != nil {
		return watcher.ReminderPolicy{}, false, err
	}
	return policy, true, nil
}

// SavePolicy replaces the stored policy, turn messages included.
func (s Store) SavePolicy(ctx context.Context, policy watcher.ReminderPolicy) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.PutSetting(ctx, db.Setting{
		Key:   settingThreshold,
		Value: strconv.FormatFloat(policy.ThresholdHours, 'f', -1, 64),
	})
	if err != nil {
		return err
	}
	err = txqry.PutSetting(ctx, db.Setting{
		Key:   settingReminderMessage,
		Value: policy.ReminderMessage,
	})
	if err != nil {
		return err
	}

	err = txqry.DeleteTurnMessages(ctx)
	if err != nil {
		return err
	}
	for _, message := range policy.TurnMessages {
		err = txqry.CreateTurnMessage(ctx, message)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
