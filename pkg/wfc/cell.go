package wfc

import "slices"

// Cell - состояние суперпозиции одной клетки карты.
// Пока клетка не схлопнута, PossibleValues - варианты, которые ещё допустимы.
// После коллапса в PossibleValues ровно один элемент - итоговый тайл.
type Cell struct {
	Collapsed      bool
	PossibleValues []CellValue
}

// NewCell создает несхлопнутую клетку с собственной копией списка вариантов.
func NewCell(possibleValues []CellValue) Cell {
	return Cell{
		Collapsed:      false,
		PossibleValues: slices.Clone(possibleValues),
	}
}

// Entropy - просто количество оставшихся вариантов (без весов).
// Чем меньше, тем клетка определённее; у схлопнутой клетки энтропия 1.
func (c *Cell) Entropy() float64 {
	return float64(len(c.PossibleValues))
}

// Value возвращает итоговый тайл схлопнутой клетки.
// Для несхлопнутой клетки ok == false, это не ошибка.
func (c *Cell) Value() (CellValue, bool) {
	if !c.Collapsed || len(c.PossibleValues) == 0 {
		return CellValue{}, false
	}
	return c.PossibleValues[0], true
}

// PossibleValuesBasedOnNeighbour возвращает варианты этой клетки, совместимые
// хотя бы с одним вариантом соседа, стоящего со стороны d.
//
// Вариант попадает в результат по разу на каждый подтвердивший его вариант соседа,
// поэтому возможны дубликаты - вызывающий код сам сводит результат к множеству.
// Ни одна из клеток не изменяется.
func (c *Cell) PossibleValuesBasedOnNeighbour(neighbour *Cell, d Direction) []CellValue {
	var possibleValues []CellValue

	for _, value := range c.PossibleValues {
		for _, neighbourValue := range neighbour.PossibleValues {
			if value.MatchesWith(neighbourValue, d) {
				possibleValues = append(possibleValues, value)
			}
		}
	}

	return possibleValues
}
