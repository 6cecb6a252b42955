package storage

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/hunomina/wave-function-collapse/pkg/catalog"
	"github.com/hunomina/wave-function-collapse/pkg/wfc"
)

const (
	MagicHeader string = `WFCM` // 4 байта
	Version1    uint32 = 1
	Extension          = ".wfcm"
)

// MapFileHeader - точное представление заголовка файла.
// Только числа и массивы, поэтому binary.Write пишет его одним вызовом.
type MapFileHeader struct {
	Magic      [4]byte // 4 байта
	Version    uint32  // 4 байта
	Seed       int64   // 8 байт
	Timestamp  int64   // 8 байт
	Size       int32   // 4 байта
	PaletteLen int32   // 4 байта
}

// VariantHeader - заголовок одной записи палитры.
// За ним идут байты пути к картинке и коды портов (uint16) по 4 сторонам.
type VariantHeader struct {
	FileLen  uint16   // 2
	Rotation uint8    // 1
	PortLens [4]uint8 // 4
}

// MapStore сохраняет и читает снимки карт из директории.
type MapStore struct {
	Dir string
}

func NewMapStore(dir string) (*MapStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create map dir: %w", err)
	}
	return &MapStore{Dir: dir}, nil
}

// maxNameAttempts - сколько суффиксов перебирает Save, если имя уже занято.
const maxNameAttempts = 1000

// Save пишет снимок в новый файл и возвращает его имя (без директории).
// Сначала пишется временный файл, затем он получает имя через os.Link,
// который не перезаписывает существующие файлы. При ошибке на диске ничего не остаётся.
func (s *MapStore) Save(rec *MapRecord) (string, error) {
	tmp, err := os.CreateTemp(s.Dir, "map_*.tmp")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeFile(tmp, rec); err != nil {
		return "", err
	}

	base := fmt.Sprintf("map_%d_%dx%d_%d", rec.Seed, rec.Size, rec.Size, rec.Timestamp)
	for i := 0; i < maxNameAttempts; i++ {
		name := base + Extension
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, Extension)
		}
		err := os.Link(tmpPath, filepath.Join(s.Dir, name))
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free file name for %s", base)
}

// writeFile кодирует снимок в f и закрывает его. Ошибка Close тоже возвращается.
func writeFile(f *os.File, rec *MapRecord) error {
	w := bufio.NewWriter(f)
	if err := Encode(w, rec); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode пишет снимок в бинарном формате.
func Encode(w io.Writer, rec *MapRecord) error {
	if len(rec.Cells) != rec.Size*rec.Size {
		return fmt.Errorf("cells length %d does not match size %d", len(rec.Cells), rec.Size)
	}

	// 1. Глобальный заголовок
	header := MapFileHeader{
		Version:    Version1,
		Seed:       rec.Seed,
		Timestamp:  rec.Timestamp,
		Size:       int32(rec.Size),
		PaletteLen: int32(len(rec.Palette)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// 2. Палитра
	for _, v := range rec.Palette {
		if err := writeVariant(w, v); err != nil {
			return err
		}
	}

	// 3. Клетки одним блоком
	if err := binary.Write(w, binary.LittleEndian, rec.Cells); err != nil {
		return fmt.Errorf("failed to write cells: %w", err)
	}
	return nil
}

func writeVariant(w io.Writer, v wfc.CellValue) error {
	fileBytes := []byte(v.File)
	if len(fileBytes) > math.MaxUint16 {
		return fmt.Errorf("file path too long: %d", len(fileBytes))
	}
	if v.ImageRotation < 0 || v.ImageRotation > math.MaxUint8 {
		return fmt.Errorf("rotation out of range: %d", v.ImageRotation)
	}

	vh := VariantHeader{
		FileLen:  uint16(len(fileBytes)),
		Rotation: uint8(v.ImageRotation),
	}
	codes := make([]uint16, 0, 8)
	for i, d := range wfc.AllDirections() {
		side := v.Ports.Get(d)
		if len(side) > catalog.MaxPortsPerSide {
			return fmt.Errorf("too many ports on %s side: %d", d, len(side))
		}
		vh.PortLens[i] = uint8(len(side))
		for _, code := range side {
			if code < 0 || code > catalog.MaxPortCode {
				return fmt.Errorf("port code out of range: %d", code)
			}
			codes = append(codes, uint16(code))
		}
	}

	if err := binary.Write(w, binary.LittleEndian, &vh); err != nil {
		return err
	}
	if _, err := w.Write(fileBytes); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, codes)
}
