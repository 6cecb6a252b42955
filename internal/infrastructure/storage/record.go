package storage

import (
	"time"

	"github.com/hunomina/wave-function-collapse/pkg/wfc"
)

// MapRecord - снимок карты для сохранения на диск.
// Варианты хранятся один раз в палитре, клетки ссылаются на них по индексу.
type MapRecord struct {
	Seed      int64
	Timestamp int64
	Size      int
	Palette   []wfc.CellValue
	// Cells - индекс в Palette для каждой клетки (line*Size + column), -1 - не схлопнута.
	Cells []int32
}

// RecordFromMap снимает состояние карты. Несхлопнутые клетки сохраняются как -1.
func RecordFromMap(m *wfc.Map, seed int64) *MapRecord {
	size := m.Size()
	rec := &MapRecord{
		Seed:      seed,
		Timestamp: time.Now().Unix(),
		Size:      size,
		Cells:     make([]int32, size*size),
	}

	index := make(map[string]int32)
	for line := 0; line < size; line++ {
		for column := 0; column < size; column++ {
			value, ok := m.GetCell(line, column).Value()
			if !ok {
				rec.Cells[line*size+column] = -1
				continue
			}
			key := value.Key()
			idx, exists := index[key]
			if !exists {
				idx = int32(len(rec.Palette))
				index[key] = idx
				rec.Palette = append(rec.Palette, value)
			}
			rec.Cells[line*size+column] = idx
		}
	}
	return rec
}

// Value возвращает тайл клетки, если она была схлопнута.
func (r *MapRecord) Value(line, column int) (wfc.CellValue, bool) {
	if line < 0 || column < 0 || line >= r.Size || column >= r.Size {
		return wfc.CellValue{}, false
	}
	idx := r.Cells[line*r.Size+column]
	if idx < 0 {
		return wfc.CellValue{}, false
	}
	return r.Palette[idx], true
}

// Solved - все клетки снимка схлопнуты.
func (r *MapRecord) Solved() bool {
	for _, idx := range r.Cells {
		if idx < 0 {
			return false
		}
	}
	return true
}
