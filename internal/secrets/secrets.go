// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key and the trimmed file
// contents are the value.
//
// Keys read: smtp-username, smtp-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/publish-or-not/internal/logging"
	"github.com/pdiddy/publish-or-not/pkg/types"
)

// DefaultDir is the secrets directory used when none is configured.
const DefaultDir = ".secrets"

const (
	KeySMTPUsername = "smtp-username"
	KeySMTPPassword = "smtp-password"
)

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty map. Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			l := logging.WithComponent("secrets")
			l.Warn().Err(err).Str("key", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// ApplyAlert fills SMTP credentials missing from cfg with values from
// secrets. Values already set in cfg win.
func ApplyAlert(cfg *types.AlertConfig, secrets map[string]string) {
	if cfg.Username == "" {
		cfg.Username = secrets[KeySMTPUsername]
	}
	if cfg.Password == "" {
		cfg.Password = secrets[KeySMTPPassword]
	}
}
