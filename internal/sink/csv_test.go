package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/cohortscan/internal/model"
)

func company(name string, marker bool) model.Company {
	return model.Company{
		Candidate: model.Candidate{
			Name:        name,
			Description: "Builds things, \"fast\"",
			Batch:       "Summer 2025",
			DetailURL:   "https://www.ycombinator.com/companies/" + strings.ToLower(name),
		},
		Website:            "https://" + strings.ToLower(name) + ".com",
		ProfileURL:         "https://www.linkedin.com/company/" + strings.ToLower(name),
		ProfileDescription: "line one\nline two",
		MarkerPresent:      marker,
	}
}

func TestCSVSink_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)

	for _, c := range []model.Company{company("Acme", true), company("Beta", false)} {
		if err := s.Append(c); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	header := strings.Join(model.Columns, ",")
	if !strings.HasPrefix(string(data), header+"\n") {
		t.Errorf("file should start with header, got %q", string(data))
	}
	if n := strings.Count(string(data), header); n != 1 {
		t.Errorf("expected header once, found %d times", n)
	}
	if s.Rows() != 2 {
		t.Errorf("expected 2 rows, got %d", s.Rows())
	}
}

func TestCSVSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)

	want := []model.Company{company("Acme", true), company("Beta", false)}
	want[1].Website = ""
	want[1].ProfileURL = ""
	want[1].ProfileDescription = ""

	for _, c := range want {
		if err := s.Append(c); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if strings.Join(got[i].Row(), "|") != strings.Join(want[i].Row(), "|") {
			t.Errorf("row %d: expected %v, got %v", i, want[i].Row(), got[i].Row())
		}
	}
}

func TestCSVSink_BooleanEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)

	if err := s.Append(company("Acme", true)); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(company("Beta", false)); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), ",True,Summer 2025") || !strings.Contains(string(data), ",False,Summer 2025") {
		t.Errorf("booleans should be written as True/False:\n%s", data)
	}
}

func TestCSVSink_InterruptionKeepsCompletedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	const n = 5
	s := NewCSVSink(path)
	for i := range n {
		if err := s.Append(company(string(rune('A'+i))+"co", i%2 == 0)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}
	// the process stops here; nothing is flushed or closed afterwards

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d rows, got %d", n, len(got))
	}
	for i, c := range got {
		if c.Name != string(rune('A'+i))+"co" {
			t.Errorf("row %d: unexpected name %q", i, c.Name)
		}
	}
}

func TestCSVSink_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("stale,data\n1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewCSVSink(path)
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, got %v", err)
	}

	// resetting a missing file is fine
	if err := s.Reset(); err != nil {
		t.Fatalf("second Reset failed: %v", err)
	}

	if err := s.Append(company("Acme", false)); err != nil {
		t.Fatal(err)
	}
	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 row after reset, got %d", len(got))
	}
}

func TestCSVSink_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.csv")
	if err := NewCSVSink(path).Append(company("Acme", false)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file created: %v", err)
	}
}

func TestReadAll(t *testing.T) {
	dir := t.TempDir()

	got, err := ReadAll(filepath.Join(dir, "missing.csv"))
	if err != nil || got != nil {
		t.Errorf("missing file: expected nil, nil; got %v, %v", got, err)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("a,b,c,d,e,f,g,h\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadAll(bad); err == nil {
		t.Error("expected header error")
	}
}
