package config

import (
	"fmt"
	"os"
	"strings"
)

// secret reads key from the environment, or from the file named by
// key_FILE. ok is false when neither is set.
func secret(key string) (value string, ok bool, err error) {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value), true, nil
	}

	file, ok := os.LookupEnv(key + "_FILE")
	if !ok {
		return "", false, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", false, fmt.Errorf("unable to read %s_FILE: %w", key, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

func required(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("no %s env variable set", key)
	}
	return value, nil
}
