// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes one conversation, messages and sources included, as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, id string) error {
	c, err := s.Conversation(ctx, id)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes one conversation as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, id string) error {
	c, err := s.Conversation(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
