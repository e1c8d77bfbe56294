package test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/plantell/plantell/internal/model"
	"github.com/plantell/plantell/internal/parser"
)

var (
	rootPath string
	once     sync.Once
)

// RootPath resolves a path relative to the repository rootPath (where go.mod resides).
func RootPath(t *testing.T) string {
	t.Helper()
	once.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("getwd: %v", err)
		}
		for {
			if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
				rootPath = wd
				break
			}
			next := filepath.Dir(wd)
			if next == wd {
				t.Fatalf("go.mod not found from %s", wd)
			}
			wd = next
		}
	})
	return rootPath
}

// LoadSampleText reads a plan text relative to the repository rootPath.
func LoadSampleText(t *testing.T, rel string) string {
	t.Helper()
	root := RootPath(t)
	data, err := os.ReadFile(filepath.Join(root, "samples", rel))
	if err != nil {
		t.Fatalf("read plan: %v", err)
	}
	return string(data)
}

// LoadSamplePlan loads and parses a plan text relative to the repository rootPath.
func LoadSamplePlan(t *testing.T, rel string) *model.Plan {
	t.Helper()
	plan, err := parser.Parse(LoadSampleText(t, rel))
	if err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	return plan
}
