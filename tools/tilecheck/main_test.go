package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hunomina/wave-function-collapse/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// Все 16 комбинаций кодов 0/1 по сторонам: противоречий не бывает
const openTiles = `[
  {"file": "blank.png", "ports": [[0], [0], [0], [0]], "rotations": 1},
  {"file": "end.png", "ports": [[1], [0], [0], [0]], "rotations": 4},
  {"file": "straight.png", "ports": [[1], [0], [1], [0]], "rotations": 2},
  {"file": "corner.png", "ports": [[1], [1], [0], [0]], "rotations": 4},
  {"file": "tee.png", "ports": [[1], [1], [1], [0]], "rotations": 4},
  {"file": "cross.png", "ports": [[1], [1], [1], [1]], "rotations": 1}
]`

// Стороны [7] не к чему приложить
const brokenTiles = `[
  {"file": "grass.png", "ports": [[0], [0], [0], [0]], "rotations": 1},
  {"file": "odd.png", "ports": [[7], [0], [0], [0]], "rotations": 1}
]`

func writeTiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiles.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	open := writeTiles(t, openTiles)
	broken := writeTiles(t, brokenTiles)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"no args", nil, 2, "Commands"},
		{"unknown command", []string{"fly"}, 2, "Commands"},
		{"validate", []string{"validate", open}, 0, "6 tiles, 16 variants"},
		{"validate missing", []string{"validate", "nope.json"}, 1, "Error"},
		{"closure ok", []string{"closure", open}, 0, "closed"},
		{"closure broken", []string{"closure", broken}, 1, "dead end: "},
		{"solve", []string{"solve", open, "6", "42"}, 0, "solved 6x6 in 36 steps"},
		{"solve bad size", []string{"solve", open, "six", "42"}, 1, "invalid size"},
		{"solve usage", []string{"solve", open}, 2, "Usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := run(tt.args, &out)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (output: %s)", code, tt.wantCode, out.String())
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output %q does not contain %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestSolveAndInspect(t *testing.T) {
	tilesPath := writeTiles(t, openTiles)
	saveDir := t.TempDir()

	var out bytes.Buffer
	if code := run([]string{"solve", tilesPath, "4", "7", saveDir}, &out); code != 0 {
		t.Fatalf("solve exit code %d: %s", code, out.String())
	}

	entries, err := os.ReadDir(saveDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one saved map, got %v (%v)", entries, err)
	}

	out.Reset()
	if code := run([]string{"inspect", filepath.Join(saveDir, entries[0].Name())}, &out); code != 0 {
		t.Fatalf("inspect exit code %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "seed 7, 4x4") || !strings.Contains(out.String(), "solved: true") {
		t.Errorf("unexpected inspect output:\n%s", out.String())
	}
}
