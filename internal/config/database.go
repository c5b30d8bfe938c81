package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

type Database struct {
	Username string
	Password string
	Host     string
	Port     uint16
	DBName   string
	SSLMode  string
}

// NewDatabase assembles connection settings from the POSTGRES_* variables.
// The password may come from POSTGRES_PASSWORD_FILE instead.
func NewDatabase() (*Database, error) {
	var (
		cfg Database
		err error
	)
	for key, dst := range map[string]*string{
		"POSTGRES_USER":    &cfg.Username,
		"POSTGRES_HOST":    &cfg.Host,
		"POSTGRES_DB":      &cfg.DBName,
		"POSTGRES_SSLMODE": &cfg.SSLMode,
	} {
		if *dst, err = required(key); err != nil {
			return nil, err
		}
	}

	password, ok, err := secret("POSTGRES_PASSWORD")
	if err != nil {
		return nil, fmt.Errorf("unable to load password: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("no POSTGRES_PASSWORD or POSTGRES_PASSWORD_FILE env variable set")
	}
	cfg.Password = password

	portStr, err := required("POSTGRES_PORT")
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("unable to parse POSTGRES_PORT: %w", err)
	}
	cfg.Port = uint16(port)

	return &cfg, nil
}

func (c Database) URL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username,
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}

// DbURL prefers DATABASE_URL and falls back to the POSTGRES_* variables.
func DbURL() (string, error) {
	if dbURL, ok := os.LookupEnv("DATABASE_URL"); ok {
		return dbURL, nil
	}

	cfg, err := NewDatabase()
	if err != nil {
		return "", fmt.Errorf("no DATABASE_URL set; %w", err)
	}
	return cfg.URL(), nil
}
