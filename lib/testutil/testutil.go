package testutil

import (
	"database/sql"
	"testing"

	"blitzwatch/lib/sqliteutil"
	"blitzwatch/lib/telemetry"
)

type ServiceParams struct {
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService initializes test telemetry and opens a database with the
// given schema, the database is closed when the test ends.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	telemetry.SetupForTesting()

	if params.DbSchema == "" {
		return ServiceResult{}
	}

	dbpath := params.DbPath
	if dbpath == "" {
		dbpath = ":memory:"
	}
	db, err := sqliteutil.OpenFile(dbpath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	err = sqliteutil.ApplySchema(db, params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}

	return ServiceResult{DB: db}
}
