package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Manager writes exports under a hidden staging directory and moves them
// into the output directory only once they are complete.
type Manager struct {
	baseDir     string
	stagingRoot string
}

func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir:     baseDir,
		stagingRoot: filepath.Join(baseDir, ".staging"),
	}
}

func (m *Manager) FinalDir() string {
	return m.baseDir
}

func (m *Manager) StagingRoot() string {
	return m.stagingRoot
}

func (m *Manager) StagingPath(name string) string {
	return filepath.Join(m.stagingRoot, name)
}

func (m *Manager) FinalPath(name string) string {
	return filepath.Join(m.baseDir, name)
}

// WriteToStaging streams write's output into the staged file for name. A
// failed write leaves no staged file behind.
func (m *Manager) WriteToStaging(name string, write func(io.Writer) error) (int64, error) {
	destPath := m.StagingPath(name)
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return 0, fmt.Errorf("creating directories: %w", err)
	}

	// Write to temp file
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	cw := &countingWriter{w: f}
	err = write(cw)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("writing export: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}

	return cw.n, nil
}

// Commit moves the staged file for name into the output directory,
// replacing any previous export.
func (m *Manager) Commit(name string) (string, error) {
	finalPath := m.FinalPath(name)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0750); err != nil {
		return "", err
	}
	if err := os.Rename(m.StagingPath(name), finalPath); err != nil {
		return "", fmt.Errorf("committing %s: %w", name, err)
	}
	return finalPath, nil
}

func (m *Manager) Cleanup() error {
	return os.RemoveAll(m.stagingRoot)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName derives an export file name from a normalized query key, e.g.
// "incidents?office=3" becomes "incidents_office-3.jsonl".
func FileName(queryKey string) string {
	name := strings.NewReplacer("?", "_", "&", "_", "=", "-", "/", "_").Replace(queryKey)
	name = strings.Trim(unsafeChars.ReplaceAllString(name, ""), "._-")
	if name == "" {
		name = "export"
	}
	return name + ".jsonl"
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
