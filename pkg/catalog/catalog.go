package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/hunomina/wave-function-collapse/pkg/wfc"
	"github.com/sirupsen/logrus"
)

// MaxRotations - у квадратного тайла всего 4 различных поворота.
const MaxRotations = 4

// Пределы формата сохранённых карт: код порта - uint16, длина стороны - uint8.
const (
	MaxPortCode     = math.MaxUint16
	MaxPortsPerSide = math.MaxUint8
)

var (
	ErrPortsArity   = errors.New("ports length must be 4")
	ErrRotations    = errors.New("rotations must be between 1 and 4")
	ErrNegativePort = errors.New("port codes must be non-negative")
	ErrPortCode     = errors.New("port code exceeds 65535")
	ErrSideTooLong  = errors.New("side has more than 255 port codes")
	ErrMissingFile  = errors.New("file is required")
)

// TileRecord - одна запись tiles.json до разворачивания поворотов.
type TileRecord struct {
	File      string  `json:"file"`
	Ports     [][]int `json:"ports"`
	Rotations int     `json:"rotations"`
}

// LoadError - битая запись каталога. Загрузка останавливается на первой такой записи.
type LoadError struct {
	Index int
	File  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("tile #%d (%q): %v", e.Index, e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Catalog - готовый к использованию набор вариантов тайлов.
type Catalog struct {
	// Variants - все повороты всех тайлов, в порядке файла.
	Variants []wfc.CellValue
	// Files - уникальные пути картинок (уже относительно рабочей директории).
	Files []string
}

// Load читает tiles.json. Пути картинок считаются относительно директории файла.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read tiles file: %w", err)
	}
	defer f.Close()

	return Decode(f, filepath.Dir(path))
}

// Decode разбирает каталог из r. baseDir добавляется к относительным путям картинок.
func Decode(r io.Reader, baseDir string) (*Catalog, error) {
	var records []TileRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("unable to parse tiles file: %w", err)
	}

	c := &Catalog{}
	seen := make(map[string]bool)

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, &LoadError{Index: i, File: rec.File, Err: err}
		}

		file := rec.File
		if baseDir != "" && !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}
		if !seen[file] {
			seen[file] = true
			c.Files = append(c.Files, file)
		}

		ports := wfc.NewPorts(rec.Ports[0], rec.Ports[1], rec.Ports[2], rec.Ports[3])
		c.Variants = append(c.Variants, wfc.Rotations(file, ports, rec.Rotations)...)
	}

	logger.Log.WithFields(logrus.Fields{
		"component": "catalog",
		"tiles":     len(records),
		"variants":  len(c.Variants),
	}).Info("Tile catalog loaded")

	return c, nil
}

// Validate проверяет одну запись каталога.
func (r TileRecord) Validate() error {
	if r.File == "" {
		return ErrMissingFile
	}
	if len(r.Ports) != 4 {
		return fmt.Errorf("%w, got %d", ErrPortsArity, len(r.Ports))
	}
	for _, side := range r.Ports {
		if len(side) > MaxPortsPerSide {
			return fmt.Errorf("%w, got %d", ErrSideTooLong, len(side))
		}
		for _, code := range side {
			if code < 0 {
				return fmt.Errorf("%w, got %d", ErrNegativePort, code)
			}
			if code > MaxPortCode {
				return fmt.Errorf("%w, got %d", ErrPortCode, code)
			}
		}
	}
	if r.Rotations < 1 || r.Rotations > MaxRotations {
		return fmt.Errorf("%w, got %d", ErrRotations, r.Rotations)
	}
	return nil
}
