package database

import (
	"path/filepath"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "abordo", Name: "abordo"})
	require.NoError(t, err)
	require.Equal(t, "host=localhost port=5432 user=abordo dbname=abordo TimeZone=UTC sslmode=disable", dsn)
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options:  map[string]string{"sslmode": "require", "TimeZone": "Europe/Rome"},
	})
	require.NoError(t, err)
	for _, part := range []string{"host=db.example.com", "port=6543", "password=pass", "sslmode=require", "TimeZone=Europe/Rome"} {
		require.Contains(t, dsn, part)
	}
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "abordo", Password: "secret", Name: "abordo", Options: map[string]string{"timeout": "5s"}})
	require.NoError(t, err)

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "abordo", parsed.User)
	require.Equal(t, "secret", parsed.Passwd)
	require.Equal(t, "127.0.0.1:3306", parsed.Addr)
	require.Equal(t, "abordo", parsed.DBName)
	require.True(t, parsed.ParseTime)
	require.Equal(t, time.UTC, parsed.Loc)
	require.Equal(t, 5*time.Second, parsed.Timeout)
	require.Contains(t, dsn, "charset=utf8mb4")
}

func TestBuildMySQLDSNKeepsDatesInUTC(t *testing.T) {
	_, err := buildMySQLDSN(Config{User: "abordo", Name: "abordo", Options: map[string]string{"loc": "Local"}})
	require.Error(t, err)
	_, err = buildMySQLDSN(Config{User: "abordo", Name: "abordo", Options: map[string]string{"parseTime": "false"}})
	require.Error(t, err)
	_, err = buildMySQLDSN(Config{DSN: "abordo@tcp(db:3306)/abordo"})
	require.Error(t, err)
	_, err = buildMySQLDSN(Config{DSN: "abordo@tcp(db:3306)/abordo?parseTime=true&loc=Europe%2FRome"})
	require.Error(t, err)

	dsn, err := buildMySQLDSN(Config{DSN: "abordo@tcp(db:3306)/abordo?parseTime=true"})
	require.NoError(t, err)
	require.Equal(t, "abordo@tcp(db:3306)/abordo?parseTime=true", dsn)
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{})
	require.NoError(t, err)
	require.Equal(t, "file::memory:?_foreign_keys=1&cache=shared", dsn)

	path := filepath.Join(t.TempDir(), "data", "abordo.sqlite")
	dsn, err = buildSQLiteDSN(Config{Path: path, Options: map[string]string{"_busy_timeout": "10000"}})
	require.NoError(t, err)
	require.Equal(t, "file:"+filepath.ToSlash(path)+"?_busy_timeout=10000&_foreign_keys=1&_journal_mode=WAL", dsn)
	require.DirExists(t, filepath.Dir(path))

	_, err = buildSQLiteDSN(Config{Options: map[string]string{"_foreign_keys": "0"}})
	require.Error(t, err)
}

func TestBuildDSNRequiresUserAndName(t *testing.T) {
	_, err := buildPostgresDSN(Config{})
	require.Error(t, err)
	_, err = buildMySQLDSN(Config{Host: "localhost"})
	require.Error(t, err)
}

func TestBuildDSNPrefersExplicitDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{DSN: "postgres://x"})
	require.NoError(t, err)
	require.Equal(t, "postgres://x", dsn)
}
