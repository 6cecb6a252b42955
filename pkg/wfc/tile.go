package wfc

import (
	"strconv"
	"strings"
)

// CellValue - вариант тайла, который можно поставить в клетку.
// Картинка + уже повернутые порты + индекс поворота (нужен только рендеру).
// После создания не меняется; несколько вариантов могут ссылаться на одну картинку.
type CellValue struct {
	File          string `json:"file"`
	Ports         Ports  `json:"ports"`
	ImageRotation int    `json:"rotation"`
}

func NewCellValue(file string, ports Ports, imageRotation int) CellValue {
	return CellValue{
		File:          file,
		Ports:         ports,
		ImageRotation: imageRotation,
	}
}

// MatchesWith проверяет, может ли other стоять со стороны d от этого тайла:
// порт d этого тайла должен совпасть с противоположным портом other.
func (v CellValue) MatchesWith(other CellValue, d Direction) bool {
	return Matches(v.Ports.Get(d), other.Ports.Get(d.Opposite()))
}

// Equal - равенство по всем полям.
func (v CellValue) Equal(other CellValue) bool {
	return v.File == other.File &&
		v.ImageRotation == other.ImageRotation &&
		v.Ports.Equal(other.Ports)
}

// Key возвращает сравнимый идентификатор варианта для множеств.
// Два варианта с равными полями дают одинаковый ключ.
func (v CellValue) Key() string {
	var b strings.Builder
	b.WriteString(strconv.Quote(v.File))
	b.WriteByte('@')
	b.WriteString(strconv.Itoa(v.ImageRotation))
	for _, d := range AllDirections() {
		b.WriteByte('|')
		for i, code := range v.Ports.Get(d) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(code))
		}
	}
	return b.String()
}

// Rotations разворачивает базовый тайл в rotations вариантов:
// вариант k - это порты после k поворотов и ImageRotation = k.
func Rotations(file string, ports Ports, rotations int) []CellValue {
	variants := make([]CellValue, 0, rotations)
	current := NewPorts(ports.Up, ports.Right, ports.Down, ports.Left)
	for k := 0; k < rotations; k++ {
		variants = append(variants, NewCellValue(file, current, k))
		current = current.Rotate()
	}
	return variants
}
