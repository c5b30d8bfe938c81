package config

import (
	"os"
	"strconv"
)

// Development switches on colored console logs. Any value other than a
// false boolean ("0", "false", ...) counts as on.
func Development() bool {
	development, ok := os.LookupEnv("DEVELOPMENT")
	if !ok || development == "" {
		return false
	}
	on, err := strconv.ParseBool(development)
	return err != nil || on
}
