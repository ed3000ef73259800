package env

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv parses a .env file and returns key-value pairs.
// This does NOT export to the OS environment.
func LoadDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file: %w", err)
	}
	return vars, nil
}

// Environ overlays variables onto base (KEY=value entries, as returned by
// os.Environ). Later overlays win. The result is sorted by key.
func Environ(base []string, overlays ...map[string]string) []string {
	merged := make(map[string]string, len(base))
	for _, kv := range base {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			continue
		}
		merged[key] = value
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, len(keys))
	for i, k := range keys {
		result[i] = k + "=" + merged[k]
	}
	return result
}
