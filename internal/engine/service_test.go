package engine

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/hunomina/wave-function-collapse/pkg/api"
)

// newManualService - сервис, который двигается только командами.
func newManualService(t *testing.T, cfg Config) *Service {
	t.Helper()
	cfg.TickInterval = time.Hour

	svc, err := NewService(cfg, completeCatalog())
	if err != nil {
		t.Fatal(err)
	}
	svc.Start()
	t.Cleanup(svc.Stop)
	return svc
}

func receive(t *testing.T, ch chan api.ServerResponse) api.ServerResponse {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return api.ServerResponse{}
	}
}

func send(t *testing.T, svc *Service, action string, payload any) {
	t.Helper()
	cmd := api.ClientCommand{Action: action}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		cmd.Payload = raw
	}
	if err := svc.ProcessCommand(cmd); err != nil {
		t.Fatalf("ProcessCommand(%s) error: %v", action, err)
	}
}

func TestService_StepUntilSolvedAndSave(t *testing.T) {
	cfg := testConfig(4, 11)
	cfg.SaveDir = t.TempDir()
	svc := newManualService(t, cfg)
	ch := svc.Hub.Register("test")

	send(t, svc, api.ActionStep, nil)
	msg := receive(t, ch)
	if msg.Type != api.TypeUpdate || msg.Step != 1 {
		t.Fatalf("after one STEP: type=%s step=%d", msg.Type, msg.Step)
	}

	send(t, svc, api.ActionStep, api.StepPayload{Count: 100})
	msg = receive(t, ch)
	if msg.Type != api.TypeSolved || msg.Step != 16 {
		t.Fatalf("after STEP 100: type=%s step=%d", msg.Type, msg.Step)
	}
	if got := svc.Latest(); got.Type != api.TypeSolved {
		t.Errorf("Latest().Type = %s", got.Type)
	}

	names, err := svc.Store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 {
		t.Fatalf("saved maps = %v, want exactly one", names)
	}
	rec, err := svc.Store.Load(names[0])
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Solved() || rec.Seed != 11 || rec.Size != 4 {
		t.Errorf("saved record: solved=%v seed=%d size=%d", rec.Solved(), rec.Seed, rec.Size)
	}
}

func TestService_Reset(t *testing.T) {
	svc := newManualService(t, testConfig(3, 100))
	ch := svc.Hub.Register("test")

	send(t, svc, api.ActionStep, nil)
	receive(t, ch)

	send(t, svc, api.ActionReset, nil)
	msg := receive(t, ch)
	if msg.Run != 1 || msg.Seed != 101 || msg.Step != 0 {
		t.Errorf("plain RESET: run=%d seed=%d step=%d", msg.Run, msg.Seed, msg.Step)
	}

	seed := int64(5)
	send(t, svc, api.ActionReset, api.ResetPayload{Seed: &seed})
	msg = receive(t, ch)
	if msg.Run != 2 || msg.Seed != 5 {
		t.Errorf("RESET with seed: run=%d seed=%d", msg.Run, msg.Seed)
	}

	send(t, svc, api.ActionReset, api.ResetPayload{SeedPhrase: "forest"})
	first := receive(t, ch)
	send(t, svc, api.ActionReset, api.ResetPayload{SeedPhrase: "forest"})
	second := receive(t, ch)
	if first.Seed != second.Seed {
		t.Errorf("same phrase gave seeds %d and %d", first.Seed, second.Seed)
	}
}

func TestService_PauseResume(t *testing.T) {
	cfg := testConfig(3, 1)
	cfg.TickInterval = time.Millisecond
	svc, err := NewService(cfg, completeCatalog())
	if err != nil {
		t.Fatal(err)
	}
	ch := svc.Hub.Register("test")

	if err := svc.ProcessCommand(api.ClientCommand{Action: api.ActionPause}); err != nil {
		t.Fatal(err)
	}
	svc.Start()
	t.Cleanup(svc.Stop)

	// До паузы цикл мог успеть сделать пару шагов
	msg := receive(t, ch)
	for !msg.Paused {
		msg = receive(t, ch)
	}
	pausedAt := msg.Step

	time.Sleep(20 * time.Millisecond)
	if svc.Latest().Step != pausedAt {
		t.Errorf("paused service advanced from %d to %d", pausedAt, svc.Latest().Step)
	}

	send(t, svc, api.ActionResume, nil)
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg = <-ch:
		case <-deadline:
			t.Fatalf("map not solved after RESUME, last step %d", svc.Latest().Step)
		}
		if msg.Type == api.TypeSolved {
			break
		}
	}
	if svc.Paused() {
		t.Error("service should be running after RESUME")
	}
}

func TestService_ProcessCommandValidation(t *testing.T) {
	svc, err := NewService(testConfig(2, 1), completeCatalog())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cmd  api.ClientCommand
	}{
		{"unknown action", api.ClientCommand{Action: "JUMP"}},
		{"negative step", api.ClientCommand{Action: api.ActionStep, Payload: json.RawMessage(`{"count": -3}`)}},
		{"bad reset payload", api.ClientCommand{Action: api.ActionReset, Payload: json.RawMessage(`{"seed": "x"}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.ProcessCommand(tt.cmd); err == nil {
				t.Error("expected error")
			}
		})
	}
	if len(svc.CommandChan) != 0 {
		t.Error("invalid commands must not be queued")
	}
}

func TestService_StopIsIdempotent(t *testing.T) {
	svc, err := NewService(testConfig(2, 1), completeCatalog())
	if err != nil {
		t.Fatal(err)
	}
	svc.Start()
	svc.Stop()
	svc.Stop()
}

func TestService_StopWithoutStart(t *testing.T) {
	svc, err := NewService(testConfig(2, 1), completeCatalog())
	if err != nil {
		t.Fatal(err)
	}

	stopped := make(chan struct{})
	go func() {
		svc.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() without Start() must not block")
	}
}

func TestService_SubscribeSendsLatestFirst(t *testing.T) {
	svc := newManualService(t, testConfig(6, 3))

	ch := svc.Subscribe("first")
	if msg := receive(t, ch); msg.Step != 0 || msg.Type != api.TypeUpdate {
		t.Fatalf("first snapshot: type=%s step=%d, want UPDATE step 0", msg.Type, msg.Step)
	}

	// Подписки во время работы цикла: шаги в каждом канале не убывают
	const steps = 30
	go func() {
		for i := 0; i < steps; i++ {
			if err := svc.ProcessCommand(api.ClientCommand{Action: api.ActionStep}); err != nil {
				t.Errorf("ProcessCommand() error: %v", err)
				return
			}
		}
	}()

	var channels []chan api.ServerResponse
	for i := 0; i < 20; i++ {
		channels = append(channels, svc.Subscribe(fmt.Sprintf("client-%d", i)))
		time.Sleep(time.Millisecond)
	}

	waitStep := time.After(2 * time.Second)
	for svc.Latest().Step < steps {
		select {
		case <-waitStep:
			t.Fatalf("service stuck at step %d", svc.Latest().Step)
		case <-time.After(5 * time.Millisecond):
		}
	}
	svc.Stop()

	for i, ch := range channels {
		last := -1
	drain:
		for {
			select {
			case msg := <-ch:
				if msg.Step < last {
					t.Errorf("client-%d got step %d after step %d", i, msg.Step, last)
				}
				last = msg.Step
			default:
				break drain
			}
		}
		if last < 0 {
			t.Errorf("client-%d received no snapshot", i)
		}
	}
}
