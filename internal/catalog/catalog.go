// Package catalog reads deal catalogues from JSON documents.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mpepping/deal-view/internal/state"
	"github.com/mpepping/deal-view/pkg/limits"
	"go.uber.org/zap"
)

var (
	// ErrCatalogueTooLarge is returned when a catalogue exceeds limits.CatalogueDealsMax
	ErrCatalogueTooLarge = errors.New("catalogue too large")
)

// document is the on-disk shape: {"deals": [...]}
type document struct {
	Deals []state.Deal `json:"deals"`
}

// Decode reads a catalogue document from r
func Decode(r io.Reader) ([]state.Deal, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}

	if len(doc.Deals) > limits.CatalogueDealsMax {
		return nil, fmt.Errorf("%w: %d deals, max %d", ErrCatalogueTooLarge, len(doc.Deals), limits.CatalogueDealsMax)
	}

	if doc.Deals == nil {
		doc.Deals = make([]state.Deal, 0)
	}

	return doc.Deals, nil
}

// LoadFile reads a catalogue document from path
func LoadFile(path string) ([]state.Deal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()

	deals, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return deals, nil
}

// Watch reloads path whenever it is written and passes the result to fn.
// Reload failures are logged and the previous catalogue is kept.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, logger *zap.Logger, fn func([]state.Deal)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			deals, err := LoadFile(path)
			if err != nil {
				logger.Warn("catalogue reload failed",
					zap.String("path", path),
					zap.Error(err),
				)
				continue
			}

			logger.Info("catalogue reloaded",
				zap.String("path", path),
				zap.Int("deals", len(deals)),
			)
			fn(deals)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalogue watcher error", zap.Error(err))
		}
	}
}
