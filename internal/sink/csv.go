// Package sink persists resolved companies one row at a time so an
// interrupted run keeps every completed row.
package sink

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ppiankov/cohortscan/internal/model"
)

// CSVSink appends companies to a CSV file
type CSVSink struct {
	path string
	mu   sync.Mutex
	rows int
}

// NewCSVSink creates a sink writing to path
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the file the sink writes to
func (s *CSVSink) Path() string {
	return s.path
}

// Rows returns how many rows this sink has appended
func (s *CSVSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Reset deletes any existing file so the run starts empty
func (s *CSVSink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	s.rows = 0
	return nil
}

// Append writes one company as a row. The header is written first when
// the file is new or empty. Each call issues a single write followed by
// fsync, so a completed Append is durable on its own.
func (s *CSVSink) Append(c model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(model.Columns); err != nil {
			return err
		}
	}
	if err := w.Write(c.Row()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}

	s.rows++
	return nil
}

// ReadAll reads a store written by CSVSink. A missing file yields no rows.
func ReadAll(path string) ([]model.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if !slices.Equal(records[0], model.Columns) {
		return nil, fmt.Errorf("read %s: unexpected header %v", path, records[0])
	}

	companies := make([]model.Company, 0, len(records)-1)
	for _, rec := range records[1:] {
		companies = append(companies, model.Company{
			Candidate: model.Candidate{
				Name:        rec[0],
				Description: rec[2],
				DetailURL:   rec[3],
				Batch:       rec[7],
			},
			Website:            rec[1],
			ProfileURL:         rec[4],
			ProfileDescription: rec[5],
			MarkerPresent:      model.ParseBool(rec[6]),
		})
	}
	return companies, nil
}
