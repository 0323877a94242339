// Package sink persists page records as JSON documents in a blob store.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/VikramTiwari/website-scraper/internal/scraper"
	"github.com/VikramTiwari/website-scraper/internal/storage"
)

// IDGenerator produces unique object names.
type IDGenerator interface {
	NewID() (string, error)
}

// RecordSink writes each record to <hostname>/<id>.json in the configured
// blob store.
type RecordSink struct {
	provider storage.Provider
	ids      IDGenerator
	logger   *zap.Logger
}

// New builds a RecordSink.
func New(provider storage.Provider, ids IDGenerator, logger *zap.Logger) *RecordSink {
	return &RecordSink{
		provider: provider,
		ids:      ids,
		logger:   logger,
	}
}

// SaveRecord marshals the record and uploads it, returning the stored URI.
func (s *RecordSink) SaveRecord(ctx context.Context, record scraper.PageRecord) (string, error) {
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate object id: %w", err)
	}

	path := fmt.Sprintf("%s/%s.json", scraper.Hostname(record.URL), id)
	uri, err := s.provider.PutObject(ctx, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("store record: %w", err)
	}
	s.logger.Debug("record stored", zap.String("path", path), zap.String("uri", uri))
	return uri, nil
}
