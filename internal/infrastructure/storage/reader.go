package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hunomina/wave-function-collapse/pkg/wfc"
)

// MaxSize ограничивает размер карты при чтении, чтобы битый файл не
// заставил выделить гигабайты под клетки.
const MaxSize = 4096

var (
	ErrInvalidMagic       = errors.New("invalid magic")
	ErrUnsupportedVersion = errors.New("unsupported version")
)

// Load читает снимок по имени файла внутри Dir.
func (s *MapStore) Load(name string) (*MapRecord, error) {
	f, err := os.Open(filepath.Join(s.Dir, filepath.Base(name)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}

// List возвращает имена сохранённых снимков в лексикографическом порядке.
func (s *MapStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Decode читает снимок, записанный Encode.
func Decode(r io.Reader) (*MapRecord, error) {
	// 1. Заголовок целиком
	var header MapFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicHeader {
		return nil, ErrInvalidMagic
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, header.Version, Version1)
	}
	if header.Size < 0 || header.Size > MaxSize {
		return nil, fmt.Errorf("invalid map size: %d", header.Size)
	}
	if header.PaletteLen < 0 || header.PaletteLen > header.Size*header.Size {
		return nil, fmt.Errorf("invalid palette length: %d", header.PaletteLen)
	}

	rec := &MapRecord{
		Seed:      header.Seed,
		Timestamp: header.Timestamp,
		Size:      int(header.Size),
		Palette:   make([]wfc.CellValue, 0, header.PaletteLen),
		Cells:     make([]int32, int(header.Size)*int(header.Size)),
	}

	// 2. Палитра
	for i := 0; i < int(header.PaletteLen); i++ {
		v, err := readVariant(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read palette entry %d: %w", i, err)
		}
		rec.Palette = append(rec.Palette, v)
	}

	// 3. Клетки
	if err := binary.Read(r, binary.LittleEndian, rec.Cells); err != nil {
		return nil, fmt.Errorf("failed to read cells: %w", err)
	}
	for i, idx := range rec.Cells {
		if idx < -1 || idx >= header.PaletteLen {
			return nil, fmt.Errorf("cell %d references palette entry %d of %d", i, idx, header.PaletteLen)
		}
	}

	return rec, nil
}

func readVariant(r io.Reader) (wfc.CellValue, error) {
	var vh VariantHeader
	if err := binary.Read(r, binary.LittleEndian, &vh); err != nil {
		return wfc.CellValue{}, err
	}

	fileBuf := make([]byte, vh.FileLen)
	if _, err := io.ReadFull(r, fileBuf); err != nil {
		return wfc.CellValue{}, err
	}

	var sides [4][]int
	for i, n := range vh.PortLens {
		codes := make([]uint16, n)
		if err := binary.Read(r, binary.LittleEndian, codes); err != nil {
			return wfc.CellValue{}, err
		}
		sides[i] = make([]int, n)
		for j, c := range codes {
			sides[i][j] = int(c)
		}
	}

	ports := wfc.NewPorts(sides[0], sides[1], sides[2], sides[3])
	return wfc.NewCellValue(string(fileBuf), ports, int(vh.Rotation)), nil
}
