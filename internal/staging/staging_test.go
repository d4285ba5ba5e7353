package staging

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestStagingManager(t *testing.T) {
	tmpDir := t.TempDir()
	mgr := NewManager(tmpDir)

	// Test FinalDir
	if mgr.FinalDir() != tmpDir {
		t.Errorf("expected FinalDir %s, got %s", tmpDir, mgr.FinalDir())
	}

	// Test StagingPath
	expectedStaging := filepath.Join(tmpDir, ".staging", "incidents.jsonl")
	if mgr.StagingPath("incidents.jsonl") != expectedStaging {
		t.Errorf("expected StagingPath %s, got %s", expectedStaging, mgr.StagingPath("incidents.jsonl"))
	}

	// Test WriteToStaging
	size, err := mgr.WriteToStaging("incidents.jsonl", func(w io.Writer) error {
		_, err := io.WriteString(w, `{"id": 1}`+"\n")
		return err
	})
	if err != nil {
		t.Fatalf("WriteToStaging failed: %v", err)
	}
	if size != 10 {
		t.Errorf("expected size 10, got %d", size)
	}
	if _, err := os.Stat(expectedStaging); err != nil {
		t.Errorf("staged file missing: %v", err)
	}
	if _, err := os.Stat(expectedStaging + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not exist after successful write")
	}

	// Test Commit
	finalPath, err := mgr.Commit("incidents.jsonl")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	content, err := os.ReadFile(finalPath)
	if err != nil {
		t.Fatalf("reading committed file: %v", err)
	}
	if string(content) != `{"id": 1}`+"\n" {
		t.Errorf("unexpected content: %s", content)
	}

	// Test Cleanup
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(mgr.StagingRoot()); !os.IsNotExist(err) {
		t.Error("staging root should be removed after cleanup")
	}
}

func TestWriteToStagingFailure(t *testing.T) {
	mgr := NewManager(t.TempDir())

	_, err := mgr.WriteToStaging("broken.jsonl", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("encoder failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	for _, p := range []string{mgr.StagingPath("broken.jsonl"), mgr.StagingPath("broken.jsonl") + ".tmp"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s to be absent", p)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"incidents":                    "incidents.jsonl",
		"incidents?office=3":           "incidents_office-3.jsonl",
		"incidents?office=3&status=op": "incidents_office-3_status-op.jsonl",
		"reports/daily?q=a%20b":        "reports_daily_q-a20b.jsonl",
		"":                             "export.jsonl",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}
