// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the file name is the key and the trimmed
// contents are the value.
//
// Known keys: server-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/biomarker-engine/pkg/types"
)

// ServerAPIKey is the secret clients must send in X-API-Key.
const ServerAPIKey = "server-api-key"

// Store maps secret names to values.
type Store map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty store. Unreadable files, and files that
// other users can read, are reported through log and the former skipped.
// log may be nil.
func Load(dir string, log logrus.FieldLogger) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			if log != nil {
				log.WithField("secret", name).WithError(err).Warn("could not read secret")
			}
			continue
		}
		if info, err := entry.Info(); err == nil && info.Mode().Perm()&0o077 != 0 && log != nil {
			log.WithFields(logrus.Fields{
				"secret": name,
				"mode":   info.Mode().Perm().String(),
			}).Warn("secret file is accessible to other users")
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			store[name] = value
		}
	}
	return store, nil
}

// Get returns the named secret.
func (s Store) Get(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// Apply fills credentials in cfg that the configuration left empty.
func (s Store) Apply(cfg *types.Config) {
	if cfg.Server.APIKey == "" {
		if v, ok := s.Get(ServerAPIKey); ok {
			cfg.Server.APIKey = v
		}
	}
}
