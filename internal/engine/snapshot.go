package engine

import (
	"github.com/hunomina/wave-function-collapse/pkg/api"
)

// Snapshot собирает DTO текущей карты сессии.
func Snapshot(s *Session) api.ServerResponse {
	m := s.Map()
	size := m.Size()

	resp := api.ServerResponse{
		Type:  api.TypeUpdate,
		Run:   s.Run(),
		Step:  m.Steps(),
		Seed:  s.Seed(),
		Grid:  &api.GridMeta{Size: size},
		Cells: make([]api.CellView, 0, size*size),
	}

	switch s.State() {
	case Solved:
		resp.Type = api.TypeSolved
	case Failed:
		resp.Type = api.TypeFailed
		if err := s.LastError(); err != nil {
			resp.Error = err.Error()
		}
	}

	for line := 0; line < size; line++ {
		for column := 0; column < size; column++ {
			cell := m.GetCell(line, column)
			view := api.CellView{
				Line:      line,
				Column:    column,
				Entropy:   int(cell.Entropy()),
				Collapsed: cell.Collapsed,
			}
			if v, ok := cell.Value(); ok {
				view.File = v.File
				view.Rotation = v.ImageRotation
			}
			resp.Cells = append(resp.Cells, view)
		}
	}
	return resp
}
