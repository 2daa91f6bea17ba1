// Package output provides the serialization and persistence of harvested
// records.
package output

import (
	"fmt"

	"github.com/watchharvest/watchharvest/internal/types"
)

// WriterConfig defines where the harvested records are written to.
type WriterConfig struct {
	Type     WriterType `yaml:"type" env:"WRITER_TYPE" env-default:"file"`
	FilePath string     `yaml:"filepath" env:"WRITER_FILEPATH" env-default:"youtube_watch_history.json"`
	Uri      string     `yaml:"uri,omitempty" env:"WRITER_URI"`
	User     string     `yaml:"user,omitempty" env:"WRITER_USER"`
	Password string     `yaml:"password,omitempty" env:"WRITER_PASSWORD"`
}

// WriterType encapsulates the type of a store
// See below constants for possible types
type WriterType string

const (
	FILE_WRITER_TYPE WriterType = "file"
	API_WRITER_TYPE  WriterType = "api"
)

// NewStore returns a new store depending on the writer type
func NewStore(wc *WriterConfig) (Store, error) {
	switch wc.Type {
	case FILE_WRITER_TYPE, "":
		return NewFileStore(wc.FilePath)
	case API_WRITER_TYPE:
		return NewAPIStore(wc)
	default:
		return nil, fmt.Errorf("writer of type '%s' not implemented", wc.Type)
	}
}

// IncrementalWriter keeps the accepted records in memory and persists the
// whole set after every append.
type IncrementalWriter struct {
	store   Store
	records []types.ActivityRecord
}

// NewIncrementalWriter returns a writer with an empty result set.
func NewIncrementalWriter(store Store) *IncrementalWriter {
	return &IncrementalWriter{
		store:   store,
		records: []types.ActivityRecord{},
	}
}

// Append adds r to the result set and writes the complete set to the store.
// If writing fails r is dropped again and the error is returned.
func (w *IncrementalWriter) Append(r types.ActivityRecord) error {
	w.records = append(w.records, r)
	if err := w.Flush(); err != nil {
		w.records = w.records[:len(w.records)-1]
		return err
	}
	return nil
}

// Flush writes the current result set to the store.
func (w *IncrementalWriter) Flush() error {
	data, err := MarshalRecords(w.records)
	if err != nil {
		return err
	}
	if err := w.store.WriteAll(data); err != nil {
		return fmt.Errorf("failed to persist %d records: %w", len(w.records), err)
	}
	return nil
}

// Len returns the number of accepted records.
func (w *IncrementalWriter) Len() int {
	return len(w.records)
}

// Records returns a copy of the accepted records in acceptance order.
func (w *IncrementalWriter) Records() []types.ActivityRecord {
	out := make([]types.ActivityRecord, len(w.records))
	copy(out, w.records)
	return out
}
