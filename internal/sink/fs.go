// Package sink implements document sinks consuming crawl batches.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/geodocs/webharvest/internal/connector"
)

// FileSystem writes every batch as one numbered JSON file under a root dir.
type FileSystem struct {
	root   string
	logger *zap.Logger
	seq    int
}

// NewFileSystem returns a sink rooted at dir, creating it if needed.
func NewFileSystem(root string, logger *zap.Logger) (*FileSystem, error) {
	if root == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create sink dir %s: %w", root, err)
	}
	return &FileSystem{
		root:   root,
		logger: logger,
	}, nil
}

// Emit writes the batch to disk. The write completes before Emit returns so
// the engine's back-pressure contract holds.
func (s *FileSystem) Emit(ctx context.Context, batch []connector.Document) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	s.seq++
	target := filepath.Join(s.root, fmt.Sprintf("batch_%06d.json", s.seq))
	payload, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write batch %s: %w", target, err)
	}
	s.logger.Debug("batch written",
		zap.String("path", target),
		zap.Int("documents", len(batch)),
	)
	return nil
}
