package wfc

import (
	"slices"
)

// Ports - сигнатуры портов на каждой из 4 сторон тайла.
// Каждая сигнатура - упорядоченный список кодов "формы" соединения на этой стороне.
//
// Список на стороне читается слева направо для Up/Down и сверху вниз для Left/Right,
// поэтому при повороте стороны, которые переезжают на Up/Down, разворачиваются.
type Ports struct {
	Up    []int `json:"up"`
	Right []int `json:"right"`
	Down  []int `json:"down"`
	Left  []int `json:"left"`
}

func NewPorts(up, right, down, left []int) Ports {
	return Ports{
		Up:    slices.Clone(up),
		Right: slices.Clone(right),
		Down:  slices.Clone(down),
		Left:  slices.Clone(left),
	}
}

// Get возвращает сигнатуру стороны d.
func (p Ports) Get(d Direction) []int {
	switch d {
	case Up:
		return p.Up
	case Right:
		return p.Right
	case Down:
		return p.Down
	case Left:
		return p.Left
	}
	return nil
}

// Rotate возвращает набор портов, повернутый на 90° по часовой стрелке:
//
//	left  = down
//	right = up
//	up    = reverse(left)
//	down  = reverse(right)
//
// Исходное значение не меняется. Четыре поворота подряд дают исходный набор.
func (p Ports) Rotate() Ports {
	return Ports{
		Up:    reversed(p.Left),
		Right: slices.Clone(p.Up),
		Down:  reversed(p.Right),
		Left:  slices.Clone(p.Down),
	}
}

// Equal сравнивает все 4 стороны поэлементно.
func (p Ports) Equal(other Ports) bool {
	for _, d := range AllDirections() {
		if !slices.Equal(p.Get(d), other.Get(d)) {
			return false
		}
	}
	return true
}

// Matches - единственное правило соседства в системе: две стороны могут
// соприкасаться только если их сигнатуры совпадают полностью (включая длину).
func Matches(self, other []int) bool {
	return slices.Equal(self, other)
}

func reversed(s []int) []int {
	r := slices.Clone(s)
	slices.Reverse(r)
	return r
}
