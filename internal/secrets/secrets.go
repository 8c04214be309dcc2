// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key and the trimmed
// contents are the value.
//
// Known keys: citechat-api-token.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// APIToken is the key of the backend bearer token.
const APIToken = "citechat-api-token"

// TokenEnv overrides the APIToken file when set.
const TokenEnv = "CITECHAT_API_TOKEN"

// Secrets maps key names to values.
type Secrets map[string]string

// Token returns the backend bearer token. The environment variable wins
// over the file; "" means requests are sent unauthenticated.
func (s Secrets) Token() string {
	if v := strings.TrimSpace(os.Getenv(TokenEnv)); v != "" {
		return v
	}
	return s[APIToken]
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty set. Unreadable files are reported on
// warn and skipped.
func Load(dir string, warn io.Writer) (Secrets, error) {
	if warn == nil {
		warn = io.Discard
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}
