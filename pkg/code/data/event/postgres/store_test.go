package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/code/data/event/tests"

	postgrestest "github.com/code-payments/presale-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
		CREATE TABLE presale__core_event(
			id SERIAL NOT NULL PRIMARY KEY,

			event_id TEXT NOT NULL,
			event_type INTEGER NOT NULL,

			sale TEXT NOT NULL,
			actor TEXT NOT NULL,
			position TEXT NULL,

			amount NUMERIC(20, 0) NOT NULL,
			payment NUMERIC(20, 0) NOT NULL,
			unlock_at BIGINT NULL,
			is_active BOOL NULL,

			created_at TIMESTAMP WITH TIME ZONE NOT NULL,

			CONSTRAINT presale__core_event__uniq__event_id UNIQUE (event_id)
		);
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE presale__core_event;
	`
)

var (
	testStore event.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		os.Exit(1)
	}
	defer db.Close()

	if err := createTestTables(db); err != nil {
		log.WithError(err).Error("Error creating test tables")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			log.WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestEventPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(tableCreate)
	return err
}

func resetTestTables(db *sql.DB) error {
	if _, err := db.Exec(tableDestroy); err != nil {
		return err
	}
	return createTestTables(db)
}
