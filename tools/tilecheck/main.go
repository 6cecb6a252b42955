package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hunomina/wave-function-collapse/internal/engine"
	"github.com/hunomina/wave-function-collapse/internal/infrastructure/storage"
	"github.com/hunomina/wave-function-collapse/pkg/catalog"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/hunomina/wave-function-collapse/pkg/wfc"
	"github.com/sirupsen/logrus"
)

func main() {
	logger.Init()
	// Логи генерации мешают выводу утилиты
	if os.Getenv("LOG_LEVEL") == "" {
		logger.Log.SetLevel(logrus.WarnLevel)
	}
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) < 1 {
		printHelp(out)
		return 2
	}

	var err error
	switch args[0] {
	case "validate":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: tilecheck validate <tiles.json>")
			return 2
		}
		err = validate(out, args[1])
	case "closure":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: tilecheck closure <tiles.json>")
			return 2
		}
		var closed bool
		closed, err = closure(out, args[1])
		if err == nil && !closed {
			return 1
		}
	case "solve":
		if len(args) < 4 {
			fmt.Fprintln(out, "Usage: tilecheck solve <tiles.json> <size> <seed> [save-dir]")
			return 2
		}
		var solved bool
		solved, err = solve(out, args[1], args[2], args[3], optional(args, 4))
		if err == nil && !solved {
			return 1
		}
	case "inspect":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: tilecheck inspect <map.wfcm>")
			return 2
		}
		err = inspect(out, args[1])
	default:
		printHelp(out)
		return 2
	}

	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return 1
	}
	return 0
}

func optional(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func validate(out io.Writer, path string) error {
	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d tiles, %d variants\n", len(cat.Files), len(cat.Variants))
	return nil
}

func closure(out io.Writer, path string) (bool, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return false, err
	}

	report := catalog.Analyze(cat.Variants)
	for _, d := range report.DeadEnds {
		fmt.Fprintf(out, "dead end: %s rotation %d, %s side %v\n",
			d.Variant.File, d.Variant.ImageRotation, d.Direction, d.Variant.Ports.Get(d.Direction))
	}
	if report.Closed() {
		fmt.Fprintf(out, "closed: all %d variants have a neighbour on every side\n", report.Variants)
	} else {
		fmt.Fprintf(out, "not closed: %d dead ends\n", len(report.DeadEnds))
	}
	return report.Closed(), nil
}

func solve(out io.Writer, path, sizeArg, seedArg, saveDir string) (bool, error) {
	size, err := strconv.Atoi(sizeArg)
	if err != nil {
		return false, fmt.Errorf("invalid size: %w", err)
	}
	seed, err := strconv.ParseInt(seedArg, 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid seed: %w", err)
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return false, err
	}

	cfg := engine.NewConfig()
	cfg.MapSize = size
	cfg.Seed = seed
	session, err := engine.NewSession(cfg, cat.Variants)
	if err != nil {
		return false, err
	}

	if session.RunToEnd() == engine.Failed {
		var ce *wfc.ContradictionError
		if errors.As(session.LastError(), &ce) {
			fmt.Fprintf(out, "contradiction at [%d,%d] after %d steps\n", ce.Line, ce.Column, session.Map().Steps())
		} else {
			fmt.Fprintf(out, "failed: %v\n", session.LastError())
		}
		return false, nil
	}

	fmt.Fprintf(out, "solved %dx%d in %d steps\n", size, size, session.Map().Steps())

	if saveDir != "" {
		store, err := storage.NewMapStore(saveDir)
		if err != nil {
			return true, err
		}
		name, err := store.Save(storage.RecordFromMap(session.Map(), seed))
		if err != nil {
			return true, err
		}
		fmt.Fprintf(out, "saved %s\n", name)
	}
	return true, nil
}

func inspect(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rec, err := storage.Decode(f)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "seed %d, %dx%d, %d distinct variants, solved: %v\n",
		rec.Seed, rec.Size, rec.Size, len(rec.Palette), rec.Solved())

	// Карта индексов палитры: '.' - пустая клетка
	for line := 0; line < rec.Size; line++ {
		for column := 0; column < rec.Size; column++ {
			idx := rec.Cells[line*rec.Size+column]
			if idx < 0 {
				fmt.Fprint(out, "  .")
				continue
			}
			fmt.Fprintf(out, "%3d", idx)
		}
		fmt.Fprintln(out)
	}
	for i, v := range rec.Palette {
		fmt.Fprintf(out, "%3d: %s rotation %d\n", i, v.File, v.ImageRotation)
	}
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `tilecheck - проверка каталога тайлов
Commands:
  validate <tiles.json>                          - загрузить каталог и посчитать варианты
  closure <tiles.json>                           - найти стороны, к которым ничего не подходит
  solve <tiles.json> <size> <seed> [save-dir]    - сгенерировать карту без окна
  inspect <map.wfcm>                             - показать сохранённую карту`)
}
