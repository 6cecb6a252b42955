package tiles

import (
	"fmt"
	"image"
	_ "image/jpeg" // декодеры для image.Decode
	_ "image/png"
	"os"
	"sync"

	"github.com/anthonynsimon/bild/transform"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/sirupsen/logrus"
)

type variantKey struct {
	file     string
	rotation int
}

// Cache декодирует картинки тайлов один раз и хранит их повёрнутые и
// масштабированные копии.
type Cache struct {
	mu       sync.Mutex
	cellSize int // 0 - исходный размер

	decoded  map[string]image.Image
	variants map[variantKey]image.Image
}

// NewCache создает кеш. При cellSize > 0 все картинки приводятся к квадрату cellSize x cellSize.
func NewCache(cellSize int) *Cache {
	return &Cache{
		cellSize: max(cellSize, 0),
		decoded:  make(map[string]image.Image),
		variants: make(map[variantKey]image.Image),
	}
}

// Preload декодирует все файлы каталога сразу, чтобы битая картинка
// обнаружилась на старте, а не посреди генерации.
func (c *Cache) Preload(files []string) error {
	for _, f := range files {
		if _, err := c.Get(f, 0); err != nil {
			return err
		}
	}
	return nil
}

// Get возвращает картинку тайла, повёрнутую по часовой стрелке на 90° * rotation.
func (c *Cache) Get(file string, rotation int) (image.Image, error) {
	key := variantKey{file: file, rotation: ((rotation % 4) + 4) % 4}

	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.variants[key]; ok {
		return img, nil
	}

	src, err := c.decode(file)
	if err != nil {
		return nil, err
	}

	img := src
	if key.rotation != 0 {
		img = transform.Rotate(img, float64(90*key.rotation), &transform.RotationOptions{ResizeBounds: true})
	}
	if c.cellSize > 0 {
		b := img.Bounds()
		if b.Dx() != c.cellSize || b.Dy() != c.cellSize {
			img = transform.Resize(img, c.cellSize, c.cellSize, transform.Lanczos)
		}
	}

	c.variants[key] = img
	return img, nil
}

// Len - количество подготовленных вариантов.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.variants)
}

func (c *Cache) decode(file string) (image.Image, error) {
	if img, ok := c.decoded[file]; ok {
		return img, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open tile image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode tile image %s: %w", file, err)
	}

	b := img.Bounds()
	logger.Log.WithFields(logrus.Fields{
		"component": "tiles",
		"file":      file,
		"format":    format,
		"width":     b.Dx(),
		"height":    b.Dy(),
	}).Debug("Tile image decoded")

	c.decoded[file] = img
	return img, nil
}
