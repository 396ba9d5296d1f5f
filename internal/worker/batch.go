package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/cohortscan/internal/model"
)

// ProfileInspector inspects a single profile URL
type ProfileInspector interface {
	Inspect(ctx context.Context, profileURL string) model.Outcome[model.Inspection]
}

// InspectJob inspects one profile URL
type InspectJob struct {
	Index     int
	URL       string
	Inspector ProfileInspector
}

// Execute executes the inspect job
func (j *InspectJob) Execute(ctx context.Context) Result {
	out := j.Inspector.Inspect(ctx, j.URL)
	return &InspectResult{
		Index:      j.Index,
		URL:        j.URL,
		Inspection: out.Value,
		Error:      out.Reason,
	}
}

// InspectResult is the result of one inspect job
type InspectResult struct {
	Index      int
	URL        string
	Inspection model.Inspection
	Error      error
}

// GetError returns the reason the inspection degraded, if any
func (r *InspectResult) GetError() error {
	return r.Error
}

// BatchInspector inspects many profile URLs concurrently
type BatchInspector struct {
	inspector   ProfileInspector
	concurrency int
}

// NewBatchInspector creates a new batch inspector
func NewBatchInspector(inspector ProfileInspector, concurrency int) *BatchInspector {
	return &BatchInspector{
		inspector:   inspector,
		concurrency: concurrency,
	}
}

// InspectURLs inspects urls and returns results in input order
func (b *BatchInspector) InspectURLs(ctx context.Context, urls []string) []*InspectResult {
	if len(urls) == 0 {
		return []*InspectResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, u := range urls {
			if !pool.Submit(&InspectJob{Index: i, URL: u, Inspector: b.inspector}) {
				break
			}
		}
		pool.Close()
	}()

	var out []*InspectResult
	for result := range pool.Results() {
		out = append(out, result.(*InspectResult))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// InspectFile reads profile URLs from a file and inspects them
func (b *BatchInspector) InspectFile(ctx context.Context, filePath string) ([]*InspectResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.InspectURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line), skipping blanks,
// comments and duplicates
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
