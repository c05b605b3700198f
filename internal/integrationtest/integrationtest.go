// Package integrationtest wires the ledger against a real PostgreSQL for integration tests.
//
// Test packages live two directories below the module root, so configs are read from ../../configs.
package integrationtest

import (
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

const configPath = "../../configs"

// LoadConfig reads the test configuration or fails the test.
func LoadConfig(t *testing.T) configpkg.Config {
	t.Helper()

	config, err := configpkg.Load(configPath)
	if err != nil {
		t.Fatalf("configpkg.Load(%q) returned error: %v", configPath, err)
	}

	return config
}

// SetupServer returns a postgres backed server whose tables are truncated when the test ends.
func SetupServer(t *testing.T) *httpserver.Server {
	t.Helper()

	config := LoadConfig(t)
	// Recorded requests share an empty client IP, so a limiter would throttle whole tests.
	config.RateLimitRPS = 0

	zerolog.SetGlobalLevel(zerolog.FatalLevel)
	gin.SetMode(gin.ReleaseMode)

	db := SetupDB(t)

	server, err := httpserver.New(db, httpserver.PostgresRepos(db, config), middleware.CreateLogger(config), config)
	if err != nil {
		t.Fatalf("httpserver.New returned error: %v", err)
	}

	return server
}

// SetupDB connects to the test database and truncates every table once the test ends.
func SetupDB(t *testing.T) *sql.DB {
	t.Helper()

	db := connect(t)

	t.Cleanup(func() {
		truncate(t, db)

		if err := db.Close(); err != nil {
			t.Errorf("db.Close() returned error: %v", err)
		}
	})

	return db
}

// SetupTX opens a transaction that is rolled back once the test ends.
func SetupTX(t *testing.T) *sql.Tx {
	t.Helper()

	db := connect(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("db.Begin() returned error: %v", err)
	}

	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Errorf("tx.Rollback() returned error: %v", err)
		}

		if err := db.Close(); err != nil {
			t.Errorf("db.Close() returned error: %v", err)
		}
	})

	return tx
}

func connect(t *testing.T) *sql.DB {
	t.Helper()

	config := LoadConfig(t)

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		t.Fatalf("dbpkg.Setup(%q) returned error: %v", config.DBDriver, err)
	}

	return db
}

const listTablesQuery = `
SELECT string_agg(quote_ident(table_name), ', ')
FROM information_schema.tables
WHERE table_schema = 'public' AND table_name <> 'schema_migrations'
`

func truncate(t *testing.T, db *sql.DB) {
	t.Helper()

	var tables sql.NullString
	if err := db.QueryRow(listTablesQuery).Scan(&tables); err != nil {
		t.Fatalf("listing tables returned error: %v", err)
	}

	if !tables.Valid {
		return
	}

	if _, err := db.Exec(`TRUNCATE TABLE ` + tables.String + ` RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncating %s returned error: %v", tables.String, err)
	}
}
