package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

func intOr(key string, fallback int) (int, error) {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unable to convert %s to int: %w", key, err)
	}
	return n, nil
}

// LogWriter returns stderr, teed into a rotating LOG_FILE when one is set.
func LogWriter() (io.Writer, error) {
	path, ok := os.LookupEnv("LOG_FILE")
	if !ok || path == "" {
		return os.Stderr, nil
	}

	maxSize, err := intOr("LOG_FILE_MAX_SIZE_MB", 10)
	if err != nil {
		return nil, err
	}
	maxBackups, err := intOr("LOG_FILE_MAX_BACKUPS", 3)
	if err != nil {
		return nil, err
	}
	maxAge, err := intOr("LOG_FILE_MAX_AGE_DAYS", 28)
	if err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	}

	return io.MultiWriter(os.Stderr, file), nil
}
