package config

import (
	"fmt"
	"os"
)

type Records struct {
	File string
	// bcrypt hash; clearing over HTTP is disabled when empty
	AdminPasswordHash []byte
}

func NewRecords() (*Records, error) {
	file, ok := os.LookupEnv("RECORDS_FILE")
	if !ok || file == "" {
		file = "records.db"
	}

	hash, _, err := secret("RECORDS_ADMIN_PASSWORD_HASH")
	if err != nil {
		return nil, fmt.Errorf("unable to load admin password hash: %w", err)
	}

	records := &Records{File: file}
	if hash != "" {
		records.AdminPasswordHash = []byte(hash)
	}
	return records, nil
}
