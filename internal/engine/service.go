package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hunomina/wave-function-collapse/internal/infrastructure/storage"
	"github.com/hunomina/wave-function-collapse/internal/network"
	"github.com/hunomina/wave-function-collapse/pkg/api"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/hunomina/wave-function-collapse/pkg/utils"
	"github.com/hunomina/wave-function-collapse/pkg/wfc"
	"github.com/sirupsen/logrus"
)

// ErrQueueFull - цикл не успевает разбирать команды.
var ErrQueueFull = errors.New("command queue full")

// Service крутит сессию в отдельной горутине и рассылает снимки через Hub.
// Все обращения к сессии идут только из цикла, наружу отдаётся копия последнего снимка.
type Service struct {
	cfg     Config
	session *Session

	Hub   *network.Broadcaster
	Store *storage.MapStore // nil, если сохранение выключено

	CommandChan chan api.ClientCommand

	mu     sync.RWMutex
	latest api.ServerResponse
	paused bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

func NewService(cfg Config, variants []wfc.CellValue) (*Service, error) {
	session, err := NewSession(cfg, variants)
	if err != nil {
		return nil, err
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}

	s := &Service{
		cfg:         cfg,
		session:     session,
		Hub:         network.NewBroadcaster(),
		CommandChan: make(chan api.ClientCommand, 100),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	if cfg.SaveDir != "" {
		store, err := storage.NewMapStore(cfg.SaveDir)
		if err != nil {
			return nil, err
		}
		s.Store = store
	}

	s.latest = Snapshot(session)
	return s, nil
}

// Start запускает цикл. Повторный вызов ничего не делает.
func (s *Service) Start() {
	if s.started.CompareAndSwap(false, true) {
		go s.loop()
	}
}

// Stop останавливает цикл и ждёт его завершения, если он был запущен.
// Повторный вызов безопасен.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}

// Subscribe регистрирует подписчика в Hub и первым кладёт ему последний снимок.
// publishUpdate рассылает под тем же s.mu, так что более старый снимок
// не попадёт в канал после более нового.
func (s *Service) Subscribe(id string) chan api.ServerResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch := s.Hub.Register(id)
	s.Hub.SendTo(id, s.latest)
	return ch
}

// ProcessCommand принимает команду от внешнего мира (HTTP, WebSocket).
// Команда проверяется сразу, исполняется циклом асинхронно.
func (s *Service) ProcessCommand(cmd api.ClientCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	switch cmd.Action {
	case api.ActionStep:
		if err := api.DecodePayload(cmd.Payload, &api.StepPayload{}); err != nil {
			return err
		}
	case api.ActionReset:
		if err := api.DecodePayload(cmd.Payload, &api.ResetPayload{}); err != nil {
			return err
		}
	}

	select {
	case s.CommandChan <- cmd:
		return nil
	default:
		logger.WithComponent("service").Warn("Command queue full")
		return ErrQueueFull
	}
}

// Latest возвращает последний разосланный снимок.
func (s *Service) Latest() api.ServerResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Service) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// --- LOOP ---

func (s *Service) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	logger.Log.WithFields(logrus.Fields{
		"component": "service",
		"tick":      s.cfg.TickInterval.String(),
	}).Info("Generation loop started")

	for {
		select {
		case <-s.stop:
			logger.WithComponent("service").Info("Generation loop stopped")
			return

		case cmd := <-s.CommandChan:
			s.executeCommand(cmd)

		case <-ticker.C:
			if s.Paused() {
				continue
			}
			if s.step() {
				s.publishUpdate()
			}
		}
	}
}

// step делает один тик сессии. Возвращает true, если карта изменилась.
func (s *Service) step() bool {
	prevState := s.session.State()
	prevRun := s.session.Run()

	state := s.session.Tick()

	if prevState == Running && state == Solved {
		s.saveSolved()
	}
	return prevState == Running || s.session.Run() != prevRun
}

func (s *Service) executeCommand(cmd api.ClientCommand) {
	log := logger.Log.WithFields(logrus.Fields{
		"component": "service",
		"action":    cmd.Action,
	})

	switch cmd.Action {
	case api.ActionStep:
		var p api.StepPayload
		if err := api.DecodePayload(cmd.Payload, &p); err != nil {
			log.Warnf("Invalid payload: %v", err)
			return
		}
		count := max(p.Count, 1)
		for i := 0; i < count && s.session.State() == Running; i++ {
			s.step()
		}

	case api.ActionReset:
		var p api.ResetPayload
		if err := api.DecodePayload(cmd.Payload, &p); err != nil {
			log.Warnf("Invalid payload: %v", err)
			return
		}
		switch {
		case p.Seed != nil:
			s.session.ResetWithSeed(*p.Seed)
		case p.SeedPhrase != "":
			s.session.ResetWithSeed(utils.StringToSeed(p.SeedPhrase))
		default:
			s.session.Reset()
		}

	case api.ActionPause, api.ActionResume:
		s.mu.Lock()
		s.paused = cmd.Action == api.ActionPause
		s.mu.Unlock()

	default:
		log.Warn("Unknown action")
		return
	}

	log.Debug("Command executed")
	s.publishUpdate()
}

func (s *Service) publishUpdate() {
	snapshot := Snapshot(s.session)

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot.Paused = s.paused
	s.latest = snapshot
	s.Hub.Broadcast(snapshot)
}

func (s *Service) saveSolved() {
	if s.Store == nil {
		return
	}

	rec := storage.RecordFromMap(s.session.Map(), s.session.Seed())
	name, err := s.Store.Save(rec)

	log := logger.Log.WithFields(logrus.Fields{
		"component": "service",
		"run":       s.session.Run(),
		"seed":      s.session.Seed(),
	})
	if err != nil {
		log.Errorf("Failed to save map: %v", err)
		return
	}
	log.WithField("file", name).Info("Map saved")
}
