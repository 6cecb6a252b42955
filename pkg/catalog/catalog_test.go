package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hunomina/wave-function-collapse/pkg/wfc"
)

const roadTiles = `[
  {"file": "blank.png", "ports": [[0], [0], [0], [0]], "rotations": 1},
  {"file": "corner.png", "ports": [[0, 1], [1, 0], [0], [0]], "rotations": 4},
  {"file": "straight.png", "ports": [[1], [0], [1], [0]], "rotations": 2}
]`

func TestDecode(t *testing.T) {
	c, err := Decode(strings.NewReader(roadTiles), "assets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.Variants) != 1+4+2 {
		t.Fatalf("expected 7 variants, got %d", len(c.Variants))
	}
	wantFiles := []string{
		filepath.Join("assets", "blank.png"),
		filepath.Join("assets", "corner.png"),
		filepath.Join("assets", "straight.png"),
	}
	if len(c.Files) != len(wantFiles) {
		t.Fatalf("Files = %v, want %v", c.Files, wantFiles)
	}
	for i := range wantFiles {
		if c.Files[i] != wantFiles[i] {
			t.Errorf("Files[%d] = %q, want %q", i, c.Files[i], wantFiles[i])
		}
	}

	// Повороты углового тайла: индексы 0..3 и порты после k поворотов
	base := wfc.NewPorts([]int{0, 1}, []int{1, 0}, []int{0}, []int{0})
	for k := 0; k < 4; k++ {
		v := c.Variants[1+k]
		if v.ImageRotation != k {
			t.Errorf("corner variant %d: rotation %d", k, v.ImageRotation)
		}
		if !v.Ports.Equal(base) {
			t.Errorf("corner variant %d: ports %+v, want %+v", k, v.Ports, base)
		}
		base = base.Rotate()
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		index   int
	}{
		{
			name:    "three ports",
			input:   `[{"file": "a.png", "ports": [[0], [0], [0]], "rotations": 1}]`,
			wantErr: ErrPortsArity,
		},
		{
			name:    "zero rotations",
			input:   `[{"file": "a.png", "ports": [[0], [0], [0], [0]], "rotations": 0}]`,
			wantErr: ErrRotations,
		},
		{
			name:    "five rotations",
			input:   `[{"file": "a.png", "ports": [[0], [0], [0], [0]], "rotations": 5}]`,
			wantErr: ErrRotations,
		},
		{
			name:    "negative code",
			input:   `[{"file": "a.png", "ports": [[0], [-1], [0], [0]], "rotations": 1}]`,
			wantErr: ErrNegativePort,
		},
		{
			name:    "code above 65535",
			input:   `[{"file": "a.png", "ports": [[70000], [70000], [70000], [70000]], "rotations": 1}]`,
			wantErr: ErrPortCode,
		},
		{
			name:    "side with 256 codes",
			input:   `[{"file": "a.png", "ports": [[0], [` + strings.Repeat("1,", 255) + `1], [0], [0]], "rotations": 1}]`,
			wantErr: ErrSideTooLong,
		},
		{
			name: "missing file in second record",
			input: `[{"file": "a.png", "ports": [[0], [0], [0], [0]], "rotations": 1},
			         {"ports": [[0], [0], [0], [0]], "rotations": 1}]`,
			wantErr: ErrMissingFile,
			index:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %T", err)
			}
			if loadErr.Index != tt.index {
				t.Errorf("Index = %d, want %d", loadErr.Index, tt.index)
			}
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"file": 1}`), ""); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiles.json")
	if err := os.WriteFile(path, []byte(roadTiles), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := c.Variants[0].File; got != filepath.Join(dir, "blank.png") {
		t.Errorf("image path should be resolved next to tiles.json, got %q", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAnalyze(t *testing.T) {
	c, err := Decode(strings.NewReader(roadTiles), "")
	if err != nil {
		t.Fatal(err)
	}

	report := Analyze(c.Variants)
	if report.Variants != 7 {
		t.Errorf("Variants = %d", report.Variants)
	}
	// Сигнатуры [0,1] / [1,0] у угла не имеют пары у прямого тайла и пустого,
	// но находят друг друга через повороты угла.
	if !report.Closed() {
		for _, d := range report.DeadEnds {
			t.Logf("dead end: %s rot %d %s", d.Variant.File, d.Variant.ImageRotation, d.Direction)
		}
		t.Error("road catalog should be closed")
	}

	open := wfc.NewPorts([]int{0}, []int{0}, []int{0}, []int{0})
	lonely := wfc.NewCellValue("lonely.png", wfc.NewPorts([]int{7}, []int{0}, []int{0}, []int{0}), 0)
	report = Analyze([]wfc.CellValue{wfc.NewCellValue("blank.png", open, 0), lonely})

	if report.Closed() {
		t.Fatal("catalog with an unmatched [7] edge must not be closed")
	}
	if len(report.DeadEnds) != 1 || report.DeadEnds[0].Direction != wfc.Up || report.DeadEnds[0].Variant.File != "lonely.png" {
		t.Errorf("unexpected dead ends: %+v", report.DeadEnds)
	}
}
