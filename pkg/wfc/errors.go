package wfc

import (
	"errors"
	"fmt"
)

var (
	// ErrContradiction - общий признак противоречия, для errors.Is.
	ErrContradiction = errors.New("wfc: contradiction")
	// ErrSolved возвращается, если CollapseNextCell вызван на уже решённой карте.
	ErrSolved = errors.New("wfc: map is already solved")
)

// ContradictionError - у выбранной клетки не осталось ни одного варианта,
// совместимого со всеми соседями. Карта при этом не изменена.
type ContradictionError struct {
	Line   int
	Column int
}

func (e *ContradictionError) Error() string {
	return fmt.Sprintf("wfc: contradiction at cell [%d,%d]: no tile matches all neighbours", e.Line, e.Column)
}

func (e *ContradictionError) Is(target error) bool {
	return target == ErrContradiction
}
