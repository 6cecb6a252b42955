package wfc

// Direction - сторона клетки (и сторона тайла).
// Порядок Up -> Right -> Down -> Left совпадает с порядком портов в tiles.json
// и с циклом поворота по часовой стрелке.
type Direction uint8

const (
	Up Direction = iota
	Right
	Down
	Left
)

// AllDirections возвращает все 4 направления в каноническом порядке.
func AllDirections() [4]Direction {
	return [4]Direction{Up, Right, Down, Left}
}

// Opposite возвращает противоположное направление.
func (d Direction) Opposite() Direction {
	return (d + 2) & 3
}

// Next возвращает следующее направление по часовой стрелке.
func (d Direction) Next() Direction {
	return (d + 1) & 3
}

// Delta возвращает смещение (строка, колонка) соседа в этом направлении.
func (d Direction) Delta() (int, int) {
	switch d {
	case Up:
		return -1, 0
	case Right:
		return 0, 1
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}
