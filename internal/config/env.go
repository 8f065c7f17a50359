package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/easearch/internal/logfields"
)

// envFiles are loaded in order; the process environment and earlier files
// take precedence over later ones.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the .env files present in the working directory.
// Missing files are not an error.
func loadEnvFile() {
	for _, name := range envFiles {
		err := godotenv.Load(name)
		switch {
		case err == nil:
			slog.Debug("Loaded environment file", logfields.File(name))
		case errors.Is(err, fs.ErrNotExist):
		default:
			slog.Warn("Failed to load environment file", logfields.File(name), logfields.Error(err))
		}
	}
}
