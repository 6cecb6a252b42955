package wfc

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"
)

// Position - координаты клетки на карте.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Neighbour - соседняя клетка и направление, в котором она лежит.
type Neighbour struct {
	Cell      *Cell
	Position  Position
	Direction Direction
}

// Map - квадратная карта size x size.
// Клетки лежат в плоском слайсе (индекс = line*size + column), поэтому при
// обновлении соседей не нужно держать несколько изменяемых ссылок на вложенные слайсы.
type Map struct {
	size  int
	cells []Cell
	rng   *rand.Rand
	steps int
}

// New создает карту, в каждой клетке которой лежит своя копия полного каталога.
// rng задаёт все случайные выборы; при nil используется генератор от текущего времени.
// Каталог не изменяется и может переиспользоваться для следующих карт.
func New(size int, possibleCellValues []CellValue, rng *rand.Rand) *Map {
	if size < 0 {
		size = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	cells := make([]Cell, size*size)
	for i := range cells {
		cells[i] = NewCell(possibleCellValues)
	}

	return &Map{
		size:  size,
		cells: cells,
		rng:   rng,
	}
}

func (m *Map) Size() int { return m.size }

// Steps - количество успешных коллапсов с момента создания карты.
func (m *Map) Steps() int { return m.steps }

func (m *Map) inBounds(line, column int) bool {
	return line >= 0 && line < m.size && column >= 0 && column < m.size
}

func (m *Map) idx(line, column int) int { return line*m.size + column }

// GetCell возвращает клетку или nil, если координаты вне карты.
// Рендер и прочие внешние потребители должны только читать клетку.
func (m *Map) GetCell(line, column int) *Cell {
	if !m.inBounds(line, column) {
		return nil
	}
	return &m.cells[m.idx(line, column)]
}

// NeighbourPositions возвращает координаты существующих соседей (до 4-х)
// в порядке Up, Right, Down, Left.
func (m *Map) NeighbourPositions(line, column int) []Neighbour {
	neighbours := make([]Neighbour, 0, 4)
	for _, d := range AllDirections() {
		dl, dc := d.Delta()
		nl, nc := line+dl, column+dc
		if !m.inBounds(nl, nc) {
			continue
		}
		neighbours = append(neighbours, Neighbour{
			Position:  Position{Line: nl, Column: nc},
			Direction: d,
		})
	}
	return neighbours
}

// Neighbours - то же, что NeighbourPositions, но с указателями на клетки.
func (m *Map) Neighbours(line, column int) []Neighbour {
	neighbours := m.NeighbourPositions(line, column)
	for i := range neighbours {
		p := neighbours[i].Position
		neighbours[i].Cell = &m.cells[m.idx(p.Line, p.Column)]
	}
	return neighbours
}

// IsCellCollapsed паникует для координат вне карты: это ошибка вызывающего кода.
func (m *Map) IsCellCollapsed(line, column int) bool {
	cell := m.GetCell(line, column)
	if cell == nil {
		panic(fmt.Sprintf("wfc: can not check collapse status of cell [%d,%d] on a %dx%d map", line, column, m.size, m.size))
	}
	return cell.Collapsed
}

// CellsWithMinimumEntropy возвращает все несхлопнутые клетки с минимальной
// энтропией. Ничьи не разрешаются - это делает CollapseNextCell.
func (m *Map) CellsWithMinimumEntropy() []Position {
	var cells []Position
	minEntropy := math.MaxFloat64

	for line := 0; line < m.size; line++ {
		for column := 0; column < m.size; column++ {
			cell := &m.cells[m.idx(line, column)]
			if cell.Collapsed {
				continue
			}
			entropy := cell.Entropy()
			if entropy < minEntropy {
				minEntropy = entropy
				cells = cells[:0]
				cells = append(cells, Position{Line: line, Column: column})
			} else if entropy == minEntropy {
				cells = append(cells, Position{Line: line, Column: column})
			}
		}
	}

	return cells
}

// IsSolved - все клетки схлопнуты.
func (m *Map) IsSolved() bool {
	for i := range m.cells {
		if !m.cells[i].Collapsed {
			return false
		}
	}
	return true
}

// CollapsedCount - число схлопнутых клеток.
func (m *Map) CollapsedCount() int {
	n := 0
	for i := range m.cells {
		if m.cells[i].Collapsed {
			n++
		}
	}
	return n
}

// PossibleValuesBasedOnNeighbours возвращает по одному множеству ключей
// вариантов на каждого существующего соседа клетки (схлопнутого или нет).
func (m *Map) PossibleValuesBasedOnNeighbours(line, column int) []mapset.Set[string] {
	cell := m.GetCell(line, column)
	if cell == nil {
		return nil
	}

	var sets []mapset.Set[string]
	for _, n := range m.Neighbours(line, column) {
		set := mapset.New[string]()
		for _, v := range cell.PossibleValuesBasedOnNeighbour(n.Cell, n.Direction) {
			set.Put(v.Key())
		}
		sets = append(sets, set)
	}
	return sets
}

// matchingPossibilities пересекает множества от всех соседей.
// Порядок результата - порядок PossibleValues самой клетки, чтобы выбор
// при фиксированном сиде был воспроизводимым.
func (m *Map) matchingPossibilities(line, column int) []CellValue {
	cell := m.GetCell(line, column)
	sets := m.PossibleValuesBasedOnNeighbours(line, column)

	// Клетка без соседей (карта 1x1): кандидаты - все её варианты.
	if len(sets) == 0 {
		return uniqueValues(cell.PossibleValues)
	}

	intersection := sets[0]
	for _, other := range sets[1:] {
		intersection.Each(func(key string) {
			if !other.Has(key) {
				intersection.Remove(key)
			}
		})
	}

	matching := make([]CellValue, 0, intersection.Size())
	for _, v := range uniqueValues(cell.PossibleValues) {
		if intersection.Has(v.Key()) {
			matching = append(matching, v)
		}
	}
	return matching
}

type cellUpdate struct {
	index  int
	values []CellValue
}

// CollapseNextCell выполняет один шаг алгоритма:
//  1. выбирает случайную клетку среди клеток с минимальной энтропией;
//  2. пересекает её варианты с ограничениями от всех соседей;
//  3. фиксирует случайный вариант из пересечения;
//  4. сужает варианты несхлопнутых соседей (одна волна, без дальнейшего распространения).
//
// Если пересечение пусто, возвращает *ContradictionError и ничего не меняет.
func (m *Map) CollapseNextCell() error {
	candidates := m.CellsWithMinimumEntropy()
	if len(candidates) == 0 {
		return ErrSolved
	}

	// 1. Случайный выбор среди ничьих, иначе карта всегда растёт из левого верхнего угла
	pos := candidates[m.rng.Intn(len(candidates))]

	// 2. Допустимые варианты с учётом всех соседей
	matching := m.matchingPossibilities(pos.Line, pos.Column)
	if len(matching) == 0 {
		if logger.Log.IsLevelEnabled(logrus.DebugLevel) {
			logger.Log.WithFields(logrus.Fields{
				"component": "wfc",
				"line":      pos.Line,
				"column":    pos.Column,
				"step":      m.steps,
			}).Debug("contradiction: no tile matches all neighbours")
		}
		return &ContradictionError{Line: pos.Line, Column: pos.Column}
	}

	chosen := matching[m.rng.Intn(len(matching))]

	// 3. Сначала считаем все записи по неизменённой карте, потом применяем
	collapsed := Cell{Collapsed: true, PossibleValues: []CellValue{chosen}}
	updates := []cellUpdate{{index: m.idx(pos.Line, pos.Column), values: collapsed.PossibleValues}}

	for _, n := range m.Neighbours(pos.Line, pos.Column) {
		if n.Cell.Collapsed {
			continue
		}
		narrowed := n.Cell.PossibleValuesBasedOnNeighbour(&collapsed, n.Direction.Opposite())
		updates = append(updates, cellUpdate{
			index:  m.idx(n.Position.Line, n.Position.Column),
			values: uniqueValues(narrowed),
		})
	}

	// 4. Применяем
	for i, u := range updates {
		m.cells[u.index].PossibleValues = u.values
		if i == 0 {
			m.cells[u.index].Collapsed = true
		}
	}
	m.steps++

	if logger.Log.IsLevelEnabled(logrus.DebugLevel) {
		logger.Log.WithFields(logrus.Fields{
			"component": "wfc",
			"line":      pos.Line,
			"column":    pos.Column,
			"file":      chosen.File,
			"rotation":  chosen.ImageRotation,
			"options":   len(matching),
			"step":      m.steps,
		}).Debug("cell collapsed")
	}

	return nil
}

// uniqueValues убирает дубликаты, сохраняя порядок первых вхождений.
func uniqueValues(values []CellValue) []CellValue {
	seen := mapset.New[string]()
	unique := make([]CellValue, 0, len(values))
	for _, v := range values {
		key := v.Key()
		if seen.Has(key) {
			continue
		}
		seen.Put(key)
		unique = append(unique, v)
	}
	return unique
}
