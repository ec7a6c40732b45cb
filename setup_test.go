package main

import (
	"os"
	"strings"
	"testing"
)

func TestProjectStructure(t *testing.T) {
	paths := []struct {
		path  string
		isDir bool
	}{
		{path: "go.mod"},
		{path: "main.go"},
		{path: ".gitignore"},
		{path: "cmd", isDir: true},
		{path: "internal", isDir: true},
		{path: "cmd/templates/labelbulk.yml"},
	}

	for _, p := range paths {
		t.Run(p.path, func(t *testing.T) {
			info, err := os.Stat(p.path)
			if err != nil {
				t.Fatalf("%s does not exist: %v", p.path, err)
			}
			if info.IsDir() != p.isDir {
				t.Errorf("%s: isDir = %v, want %v", p.path, info.IsDir(), p.isDir)
			}
		})
	}
}

func TestGoModContent(t *testing.T) {
	content, err := os.ReadFile("go.mod")
	if err != nil {
		t.Fatalf("failed to read go.mod: %v", err)
	}

	for _, want := range []string{
		"module github.com/douhashi/labelbulk",
		"github.com/spf13/cobra",
		"github.com/spf13/viper",
		"go.uber.org/zap",
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("go.mod does not contain %q", want)
		}
	}
}

func TestGitignoreExcludesSecrets(t *testing.T) {
	content, err := os.ReadFile(".gitignore")
	if err != nil {
		t.Fatalf("failed to read .gitignore: %v", err)
	}

	for _, want := range []string{".env", "/output/", "/logs/"} {
		if !strings.Contains(string(content), want) {
			t.Errorf(".gitignore does not exclude %s", want)
		}
	}
}
