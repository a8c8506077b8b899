package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type CurrentStatus struct {
	GameID    string
	Status    string
	NextTurn  string
	UpdatedAt int64
}

const getStatuses = `select game_id, status, next_turn, updated_at from current_status`

func (q *Queries) GetStatuses(ctx context.Context) ([]CurrentStatus, error) {
	rows, err := q.db.QueryContext(ctx, getStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CurrentStatus
	for rows.Next() {
		var i CurrentStatus
		err := rows.Scan(&i.GameID, &i.Status, &i.NextTurn, &i.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const putStatus = `insert into current_status(game_id, status, next_turn, updated_at)
values (?, ?, ?, ?)
on conflict (game_id) do update set
    status = excluded.status,
    next_turn = excluded.next_turn,
    updated_at = excluded.updated_at`

func (q *Queries) PutStatus(ctx context.Context, arg CurrentStatus) error {
	_, err := q.db.ExecContext(ctx, putStatus, arg.GameID, arg.Status, arg.NextTurn, arg.UpdatedAt)
	return err
}

const deleteStatus = `delete from current_status where game_id = ?`

func (q *Queries) DeleteStatus(ctx context.Context, gameID string) error {
	_, err := q.db.ExecContext(ctx, deleteStatus, gameID)
	return err
}

type RegisteredPlayer struct {
	GameID  string
	Nation  string
	Mention string
}

const getRegisteredPlayers = `select game_id, nation, mention from registered_players`

func (q *Queries) GetRegisteredPlayers(ctx context.Context) ([]RegisteredPlayer, error) {
	rows, err := q.db.QueryContext(ctx, getRegisteredPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RegisteredPlayer
	for rows.Next() {
		var i RegisteredPlayer
		err := rows.Scan(&i.GameID, &i.Nation, &i.Mention)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const putRegisteredPlayer = `insert into registered_players(game_id, nation, mention)
values (?, ?, ?)
on conflict (game_id, nation) do update set mention = excluded.mention`

func (q *Queries) PutRegisteredPlayer(ctx context.Context, arg RegisteredPlayer) error {
	_, err := q.db.ExecContext(ctx, putRegisteredPlayer, arg.GameID, arg.Nation, arg.Mention)
	return err
}

const deleteRegisteredPlayer = `delete from registered_players where game_id = ? and nation = ?`

type DeleteRegisteredPlayerParams struct {
	GameID string
	Nation string
}

func (q *Queries) DeleteRegisteredPlayer(ctx context.Context, arg DeleteRegisteredPlayerParams) error {
	_, err := q.db.ExecContext(ctx, deleteRegisteredPlayer, arg.GameID, arg.Nation)
	return err
}

const getTurnMessages = `select message from turn_messages order by id`

func (q *Queries) GetTurnMessages(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getTurnMessages)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var message string
		if err := rows.Scan(&message); err != nil {
			return nil, err
		}
		items = append(items, message)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const deleteTurnMessages = `delete from turn_messages`

func (q *Queries) DeleteTurnMessages(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteTurnMessages)
	return err
}

const createTurnMessage = `insert into turn_messages(message) values (?)`

func (q *Queries) CreateTurnMessage(ctx context.Context, message string) error {
	_, err := q.db.ExecContext(ctx, createTurnMessage, message)
	return err
}

type Setting struct {
	Key   string
	Value string
}

const getSettings = `select key, value from settings`

func (q *Queries) GetSettings(ctx context.Context) ([]Setting, error) {
	rows, err := q.db.QueryContext(ctx, getSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Setting
	for rows.Next() {
		var i Setting
		if err := rows.Scan(&i.Key, &i.Value); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const putSetting = `insert into settings(key, value) values (?, ?)
on conflict (key) do update set value = excluded.value`

func (q *Queries) PutSetting(ctx context.Context, arg Setting) error {
	_, err := q.db.ExecContext(ctx, putSetting, arg.Key, arg.Value)
	return err
}
