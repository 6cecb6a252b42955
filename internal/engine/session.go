package engine

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/hunomina/wave-function-collapse/pkg/wfc"
	"github.com/sirupsen/logrus"
)

// State - состояние текущей генерации.
type State int

const (
	Running State = iota
	Solved
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session ведёт одну карту от пустой до решённой: по одному коллапсу за Tick.
// Не потокобезопасна: владелец один (окно или цикл сервиса).
type Session struct {
	cfg      Config
	variants []wfc.CellValue

	m       *wfc.Map
	run     int
	seed    int64
	state   State
	lastErr error
}

func NewSession(cfg Config, variants []wfc.CellValue) (*Session, error) {
	if cfg.MapSize < 1 {
		return nil, fmt.Errorf("invalid map size: %d", cfg.MapSize)
	}
	if len(variants) == 0 {
		return nil, errors.New("tile catalog is empty")
	}

	s := &Session{
		cfg:      cfg,
		variants: variants,
	}
	s.start(cfg.RunSeed(0))
	return s, nil
}

func (s *Session) start(seed int64) {
	s.seed = seed
	s.m = wfc.New(s.cfg.MapSize, s.variants, rand.New(rand.NewSource(seed)))
	s.state = Running
	s.lastErr = nil

	logger.Log.WithFields(logrus.Fields{
		"component": "session",
		"run":       s.run,
		"seed":      seed,
		"size":      s.cfg.MapSize,
	}).Info("Generation started")
}

// Tick делает один шаг генерации и возвращает состояние после него.
// В состоянии Failed с AutoRestart шагом считается перезапуск карты.
func (s *Session) Tick() State {
	switch s.state {
	case Solved:
		return s.state
	case Failed:
		if s.cfg.AutoRestart {
			s.Reset()
		}
		return s.state
	}

	err := s.m.CollapseNextCell()
	switch {
	case err == nil:
		if s.m.IsSolved() {
			s.markSolved()
		}
	case errors.Is(err, wfc.ErrSolved):
		s.markSolved()
	default:
		s.state = Failed
		s.lastErr = err
		logger.Log.WithFields(logrus.Fields{
			"component": "session",
			"run":       s.run,
			"seed":      s.seed,
			"step":      s.m.Steps(),
		}).Warnf("Generation failed: %v", err)
	}
	return s.state
}

func (s *Session) markSolved() {
	s.state = Solved
	logger.Log.WithFields(logrus.Fields{
		"component": "session",
		"run":       s.run,
		"seed":      s.seed,
		"steps":     s.m.Steps(),
	}).Info("Map solved")
}

// RunToEnd крутит Tick, пока карта не решится или не упрётся в противоречие.
// AutoRestart здесь не действует: результат - одна генерация.
func (s *Session) RunToEnd() State {
	for s.state == Running {
		s.Tick()
	}
	return s.state
}

// Reset начинает следующую генерацию с зерном Seed+run.
func (s *Session) Reset() {
	s.run++
	s.start(s.cfg.RunSeed(s.run))
}

// ResetWithSeed начинает следующую генерацию с явным зерном.
func (s *Session) ResetWithSeed(seed int64) {
	s.run++
	s.start(seed)
}

// Map - текущая карта. Вызывающий только читает её.
func (s *Session) Map() *wfc.Map { return s.m }

func (s *Session) State() State { return s.state }

// Run - номер генерации, начиная с 0.
func (s *Session) Run() int { return s.run }

func (s *Session) Seed() int64 { return s.seed }

// LastError - противоречие, на котором остановилась генерация (nil, если его не было).
func (s *Session) LastError() error { return s.lastErr }
