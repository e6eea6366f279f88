package database

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), gormConfig(cfg))
}

// buildMySQLDSN renders the connection string. Deadlines are DATE columns read
// back as UTC midnight, so parseTime must stay on and loc must stay UTC.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		parsed, err := mysqldriver.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		if err := checkMySQLTime(parsed); err != nil {
			return "", err
		}
		return cfg.DSN, nil
	}

	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql configuration requires user and database name")
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	dc := mysqldriver.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = fmt.Sprintf("%s:%d", host, port)
	dc.DBName = cfg.Name
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}

	for key, value := range cfg.Options {
		switch key {
		case "parseTime":
			enabled, err := strconv.ParseBool(value)
			if err != nil || !enabled {
				return "", fmt.Errorf("mysql option parseTime=%s is not supported", value)
			}
		case "loc":
			if !strings.EqualFold(value, "UTC") {
				return "", fmt.Errorf("mysql option loc=%s is not supported, deadlines are stored in UTC", value)
			}
		default:
			dc.Params[key] = value
		}
	}

	return dc.FormatDSN(), nil
}

func checkMySQLTime(dc *mysqldriver.Config) error {
	if !dc.ParseTime {
		return errors.New("mysql dsn must set parseTime=true")
	}
	if dc.Loc != time.UTC {
		return fmt.Errorf("mysql dsn loc=%s is not supported, deadlines are stored in UTC", dc.Loc)
	}
	return nil
}
