package engine

import "time"

const (
	DefaultMapSize      = 20
	DefaultTilesPath    = "tiles.json"
	DefaultTickInterval = 16 * time.Millisecond // ~60 шагов в секунду, как кадры в окне
)

// Config хранит параметры запуска генератора
type Config struct {
	// Seed - мастер-зерно. От него зависят все генерации.
	// Run N Seed = MasterSeed + N
	Seed int64

	MapSize   int
	TilesPath string

	// TickInterval - пауза между автоматическими шагами сервиса.
	TickInterval time.Duration

	// AutoRestart - после противоречия сразу начинать новую генерацию,
	// не дожидаясь команды RESET.
	AutoRestart bool

	// SaveDir - куда сохранять решённые карты. Пусто - не сохранять.
	SaveDir string
}

// NewConfig создает конфиг по умолчанию (случайный сид)
func NewConfig() Config {
	return Config{
		Seed:         time.Now().UnixNano(),
		MapSize:      DefaultMapSize,
		TilesPath:    DefaultTilesPath,
		TickInterval: DefaultTickInterval,
	}
}

// RunSeed - зерно генерации с номером run.
func (c Config) RunSeed(run int) int64 {
	return c.Seed + int64(run)
}
