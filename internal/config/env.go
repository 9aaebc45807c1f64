package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnv pulls a .env file into the environment before viper reads
// it. A project-local .env wins; otherwise ~/.technologic.env is
// tried. Missing files are not errors.
func loadEnv() error {
	if err := godotenv.Load(); err != nil {
		home, err := os.UserHomeDir()
		if err == nil {
			_ = godotenv.Load(filepath.Join(home, ".technologic.env"))
		}
	}
	return nil
}
