package worker

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/cohortscan/internal/model"
)

// mockInspector implements ProfileInspector
type mockInspector struct {
	failFor string
}

func (m *mockInspector) Inspect(ctx context.Context, profileURL string) model.Outcome[model.Inspection] {
	time.Sleep(5 * time.Millisecond)
	if m.failFor != "" && strings.Contains(profileURL, m.failFor) {
		return model.Failed[model.Inspection](errors.New("status 999"))
	}
	return model.Success(model.Inspection{
		Description:   "Backed by YC S25 " + profileURL,
		MarkerPresent: true,
	})
}

func TestBatchInspector_InspectURLs(t *testing.T) {
	inspector := NewBatchInspector(&mockInspector{}, 2)

	urls := []string{
		"https://www.linkedin.com/company/a",
		"https://www.linkedin.com/company/b",
		"https://www.linkedin.com/company/c",
	}

	results := inspector.InspectURLs(context.Background(), urls)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.URL != urls[i] {
			t.Errorf("result %d: expected %s, got %s (order not preserved)", i, urls[i], res.URL)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.URL, res.Error)
		}
		if !res.Inspection.MarkerPresent {
			t.Errorf("expected marker for %s", res.URL)
		}
	}
}

func TestBatchInspector_InspectURLs_Degraded(t *testing.T) {
	inspector := NewBatchInspector(&mockInspector{failFor: "/b"}, 3)

	results := inspector.InspectURLs(context.Background(), []string{
		"https://www.linkedin.com/company/a",
		"https://www.linkedin.com/company/b",
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("unexpected error: %v", results[0].Error)
	}
	if results[1].Error == nil {
		t.Error("expected degraded result for /b")
	}
	if results[1].Inspection.MarkerPresent {
		t.Error("degraded result must not carry a marker")
	}
}

func TestBatchInspector_InspectURLs_Empty(t *testing.T) {
	inspector := NewBatchInspector(&mockInspector{}, 2)

	results := inspector.InspectURLs(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadURLsFromFile(t *testing.T) {
	content := `https://www.linkedin.com/company/a
# comment
https://www.linkedin.com/company/b
   
https://www.linkedin.com/company/a
https://www.linkedin.com/company/c   `

	tmpfile, err := os.CreateTemp(t.TempDir(), "urls")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{
		"https://www.linkedin.com/company/a",
		"https://www.linkedin.com/company/b",
		"https://www.linkedin.com/company/c",
	}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d urls, got %d: %v", len(expected), len(urls), urls)
	}
	for i, u := range expected {
		if urls[i] != u {
			t.Errorf("url %d: expected %s, got %s", i, u, urls[i])
		}
	}
}

func TestReadURLsFromFile_Missing(t *testing.T) {
	if _, err := ReadURLsFromFile("/nonexistent/urls.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
