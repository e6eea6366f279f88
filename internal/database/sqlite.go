package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, err := buildSQLiteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := enableForeignKeys(db); err != nil {
		return nil, err
	}
	return db, nil
}

// buildSQLiteDSN turns a file path into a DSN. database.options are appended
// as query parameters on top of the defaults; _foreign_keys cannot be turned
// off.
func buildSQLiteDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := strings.TrimSpace(cfg.Path)
	params := map[string]string{"_foreign_keys": "1"}
	target := "file::memory:"
	if path == "" || strings.EqualFold(path, ":memory:") {
		params["cache"] = "shared"
	} else {
		if err := ensureDir(path); err != nil {
			return "", err
		}
		target = "file:" + filepath.ToSlash(path)
		params["_journal_mode"] = "WAL"
		params["_busy_timeout"] = "5000"
	}

	for key, value := range cfg.Options {
		if key == "_foreign_keys" && value != "1" {
			return "", fmt.Errorf("sqlite option _foreign_keys=%s is not supported", value)
		}
		params[key] = value
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	return target + "?" + strings.Join(pairs, "&"), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Cascading deletes from vehicles rely on SQLite enforcing foreign keys.
func enableForeignKeys(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil && err != sql.ErrConnDone {
		return err
	}
	return nil
}
