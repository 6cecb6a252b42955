package main

import (
	"flag"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/hunomina/wave-function-collapse/internal/engine"
	"github.com/hunomina/wave-function-collapse/internal/infrastructure/storage"
	"github.com/hunomina/wave-function-collapse/internal/tiles"
	"github.com/hunomina/wave-function-collapse/internal/version"
	"github.com/hunomina/wave-function-collapse/pkg/catalog"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/hunomina/wave-function-collapse/pkg/wfc"
)

const (
	errorMessage = "Error while collapsing the map. Press [R] to restart."
	// Ширина глифа шрифта ebitenutil.DebugPrint
	debugGlyphWidth  = 6
	debugGlyphHeight = 16
)

var (
	backgroundColor = color.RGBA{20, 20, 24, 255}
	outlineColor    = color.RGBA{70, 70, 80, 255}
)

// cellSource - то, что умеет отдать тайл клетки: живая карта или сохранённый снимок.
type cellSource interface {
	Size() int
	Value(line, column int) (wfc.CellValue, bool)
}

type mapSource struct{ m *wfc.Map }

func (s mapSource) Size() int { return s.m.Size() }

func (s mapSource) Value(line, column int) (wfc.CellValue, bool) {
	return s.m.GetCell(line, column).Value()
}

type recordSource struct{ rec *storage.MapRecord }

func (s recordSource) Size() int { return s.rec.Size }

func (s recordSource) Value(line, column int) (wfc.CellValue, bool) {
	return s.rec.Value(line, column)
}

type imageKey struct {
	file     string
	rotation int
}

// Game - окно ebiten: каждый Update делает один шаг генерации.
type Game struct {
	session *engine.Session    // nil в режиме просмотра снимка
	record  *storage.MapRecord // снимок из -load

	tiles    *tiles.Cache
	images   map[imageKey]*ebiten.Image
	window   int
	cellSize int
	err      error
}

func (g *Game) source() cellSource {
	if g.session != nil {
		return mapSource{g.session.Map()}
	}
	return recordSource{g.record}
}

func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if g.session == nil {
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.session.Reset()
		return nil
	}

	g.session.Tick()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	src := g.source()
	size := src.Size()
	cs := float32(g.cellSize)

	for line := 0; line < size; line++ {
		for column := 0; column < size; column++ {
			x := float32(column) * cs
			y := float32(line) * cs

			v, ok := src.Value(line, column)
			if !ok {
				vector.StrokeRect(screen, x+1, y+1, cs-2, cs-2, 1, outlineColor, false)
				continue
			}

			img, err := g.tileImage(v)
			if err != nil {
				// Ошибку вернёт следующий Update, окно закроется
				g.err = err
				return
			}
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Translate(float64(x), float64(y))
			screen.DrawImage(img, op)
		}
	}

	if g.session == nil {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("seed %d (saved map)", g.record.Seed))
		return
	}

	ebitenutil.DebugPrint(screen, fmt.Sprintf("run %d seed %d step %d %s",
		g.session.Run(), g.session.Seed(), g.session.Map().Steps(), g.session.State()))

	if g.session.State() == engine.Failed {
		w := len(errorMessage) * debugGlyphWidth
		ebitenutil.DebugPrintAt(screen, errorMessage, (g.window-w)/2, (g.window-debugGlyphHeight)/2)
	}
}

func (g *Game) tileImage(v wfc.CellValue) (*ebiten.Image, error) {
	key := imageKey{file: v.File, rotation: v.ImageRotation}
	if img, ok := g.images[key]; ok {
		return img, nil
	}

	src, err := g.tiles.Get(v.File, v.ImageRotation)
	if err != nil {
		return nil, err
	}
	img := ebiten.NewImageFromImage(src)
	g.images[key] = img
	return img, nil
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.window, g.window
}

func main() {
	logger.Init()

	cfg := engine.NewConfig()

	var seed int64
	var window int
	var loadPath string
	flag.Int64Var(&seed, "seed", 0, "Master seed (0 for random)")
	flag.StringVar(&cfg.TilesPath, "tiles", cfg.TilesPath, "Path to tiles.json")
	flag.IntVar(&cfg.MapSize, "size", cfg.MapSize, "Map side length in cells")
	flag.IntVar(&window, "window", 800, "Window side length in pixels")
	flag.StringVar(&loadPath, "load", "", "Show a saved .wfcm map instead of generating")
	flag.Parse()

	logger.Log.Info(version.String())
	if seed != 0 {
		cfg.Seed = seed
	}

	g := &Game{
		images: make(map[imageKey]*ebiten.Image),
		window: window,
	}

	if loadPath != "" {
		store := &storage.MapStore{Dir: filepath.Dir(loadPath)}
		rec, err := store.Load(loadPath)
		if err != nil {
			logger.Log.Fatalf("Failed to load map: %v", err)
		}
		g.record = rec
		cfg.MapSize = rec.Size
	} else {
		cat, err := catalog.Load(cfg.TilesPath)
		if err != nil {
			logger.Log.Fatalf("Failed to load tiles: %v", err)
		}
		session, err := engine.NewSession(cfg, cat.Variants)
		if err != nil {
			logger.Log.Fatalf("Failed to start session: %v", err)
		}
		g.session = session
		defer func() {
			logger.Log.Infof("Last run %d finished as %s", session.Run(), session.State())
		}()

		g.cellSize = max(window/cfg.MapSize, 1)
		g.tiles = tiles.NewCache(g.cellSize)
		if err := g.tiles.Preload(cat.Files); err != nil {
			logger.Log.Fatalf("Failed to load tile images: %v", err)
		}
	}

	if g.tiles == nil {
		g.cellSize = max(window/max(cfg.MapSize, 1), 1)
		g.tiles = tiles.NewCache(g.cellSize)
	}

	ebiten.SetWindowSize(window, window)
	ebiten.SetWindowTitle("Wave Function Collapse")

	if err := ebiten.RunGame(g); err != nil {
		logger.Log.Fatal(err)
	}
}
