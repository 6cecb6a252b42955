package catalog

import (
	"github.com/hunomina/wave-function-collapse/pkg/wfc"
	"github.com/zyedidia/generic/mapset"
)

// DeadEnd - сторона варианта, к которой не подходит ни один вариант каталога.
type DeadEnd struct {
	Variant   wfc.CellValue
	Direction wfc.Direction
}

// ClosureReport - результат проверки замкнутости каталога.
type ClosureReport struct {
	Variants int
	DeadEnds []DeadEnd
}

// Closed - у каждой стороны каждого варианта есть хотя бы один сосед.
func (r ClosureReport) Closed() bool {
	return len(r.DeadEnds) == 0
}

// Analyze ищет "тупиковые" стороны. В каталоге с тупиками решатель
// рано или поздно упрётся в противоречие у такой стороны.
func Analyze(variants []wfc.CellValue) ClosureReport {
	// Сигнатуры, которые встречаются на каждой стороне
	var sides [4]mapset.Set[string]
	for _, d := range wfc.AllDirections() {
		sides[d] = mapset.New[string]()
	}
	for _, v := range variants {
		for _, d := range wfc.AllDirections() {
			sides[d].Put(signatureKey(v.Ports.Get(d)))
		}
	}

	report := ClosureReport{Variants: len(variants)}
	for _, v := range variants {
		for _, d := range wfc.AllDirections() {
			if !sides[d.Opposite()].Has(signatureKey(v.Ports.Get(d))) {
				report.DeadEnds = append(report.DeadEnds, DeadEnd{Variant: v, Direction: d})
			}
		}
	}
	return report
}

func signatureKey(signature []int) string {
	// Переиспользуем сериализацию ключа варианта: сигнатура кладётся на одну сторону
	return wfc.NewCellValue("", wfc.NewPorts(signature, nil, nil, nil), 0).Key()
}
