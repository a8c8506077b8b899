package sqliteutil

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config chooses between a local sqlite file and a remote libsql database.
// Url takes precedence when set.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens the configured database and applies schema. Statements that
// fail because the object already exists are ignored so the schema can be
// applied on every start.
func (config Config) OpenDB(schema string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	switch {
	case config.Url != "":
		values := url.Values{}
		if config.AuthToken != "" {
			values.Add("authToken", config.AuthToken)
		}
		db, err = sql.Open("libsql", config.Url+"?"+values.Encode())
	case config.File != "":
		db, err = OpenFile(config.File)
	default:
		return nil, fmt.Errorf("neither a database file nor url was specified")
	}
	if err != nil {
		return nil, err
	}

	err = ApplySchema(db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenFile opens a local sqlite database, ":memory:" is accepted.
func OpenFile(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection serializes writers, and every pooled connection
	// to ":memory:" would otherwise get its own empty database
	db.SetMaxOpenConns(1)
	if path == ":memory:" {
		return db, nil
	}

	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ApplySchema(db *sql.DB, schema string) error {
	_, err := db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
