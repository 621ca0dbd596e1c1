package tasks

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// MaterializeCredentials writes credentials.json and token.json from the
// GOOGLE_CREDENTIALS and GOOGLE_TOKEN environment variables when the files do
// not exist yet. Hosted deployments keep the raw JSON in env vars instead of
// committing the files; a local checkout that already has them is left alone.
// Writes are atomic so a crash mid-startup never leaves a truncated file.
func MaterializeCredentials(credentialsPath, tokenPath string) error {
	pairs := []struct {
		env  string
		path string
	}{
		{"GOOGLE_CREDENTIALS", credentialsPath},
		{"GOOGLE_TOKEN", tokenPath},
	}

	for _, p := range pairs {
		raw := os.Getenv(p.env)
		if raw == "" || p.path == "" {
			continue
		}
		if _, err := os.Stat(p.path); err == nil {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
			return fmt.Errorf("create credential directory: %w", err)
		}
		if err := atomic.WriteFile(p.path, bytes.NewReader([]byte(raw))); err != nil {
			return fmt.Errorf("materialize %s: %w", filepath.Base(p.path), err)
		}
		slog.Info("Credential file materialized from environment", "path", p.path)
	}

	return nil
}
