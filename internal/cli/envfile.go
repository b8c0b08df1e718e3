package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// loadDotEnvFiles applies .env then .env.local from cwd. Variables already
// present in environ are never overridden.
func loadDotEnvFiles(cwd string, environ []string, setenv func(string, string) error) error {
	if strings.TrimSpace(cwd) == "" {
		return nil
	}
	if setenv == nil {
		return fmt.Errorf("setenv is required")
	}

	protected := map[string]struct{}{}
	for _, pair := range environ {
		key, _, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		protected[key] = struct{}{}
	}

	var files []string
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return nil
	}

	// later files win
	values, err := godotenv.Read(files...)
	if err != nil {
		return fmt.Errorf("parse %s: %w", strings.Join(files, ", "), err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, exists := protected[key]; exists {
			continue
		}
		if err := setenv(key, values[key]); err != nil {
			return fmt.Errorf("set %s from dotenv: %w", key, err)
		}
	}
	return nil
}
