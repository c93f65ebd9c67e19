package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Lookup resolves a configuration key. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// MapLookup serves keys from m, e.g. a parsed .env file.
func MapLookup(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func GetEnvOrDefault(key, def string) string {
	return Lookup(os.LookupEnv).getOrDefault(key, def)
}

func RequireEnv(key string) (string, error) {
	return Lookup(os.LookupEnv).require(key)
}

func (l Lookup) getOrDefault(key, def string) string {
	if v, ok := l(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (l Lookup) require(key string) (string, error) {
	v, _ := l(key)
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("missing required env var %s", key)
	}
	return v, nil
}

func (l Lookup) intOrDefault(key string, def int) (int, error) {
	v := l.getOrDefault(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not an integer", key, v)
	}
	return n, nil
}

func (l Lookup) boolOrDefault(key string, def bool) (bool, error) {
	v := l.getOrDefault(key, "")
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("%s=%q is not a boolean", key, v)
}

func (l Lookup) durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	v := l.getOrDefault(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a duration", key, v)
	}
	return d, nil
}
