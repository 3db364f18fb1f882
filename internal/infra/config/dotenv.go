package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads the first existing file of paths into the process environment.
// Variables already set in the environment win over the file. It returns the path that
// was loaded, or "" when none exist.
func LoadDotenv(paths ...string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return "", fmt.Errorf("stat %s: %w", path, err)
		}

		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("load %s: %w", path, err)
		}

		return path, nil
	}

	return "", nil
}
