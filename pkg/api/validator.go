package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxStepsPerCommand ограничивает STEP, чтобы один клиент не занял цикл надолго.
const MaxStepsPerCommand = 10000

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (c ClientCommand) Validate() error {
	switch c.Action {
	case ActionStep, ActionReset, ActionPause, ActionResume:
		return nil
	case "":
		return errors.New("action is required")
	default:
		return fmt.Errorf("unknown action %q", c.Action)
	}
}

func (p ResetPayload) Validate() error {
	if p.Seed != nil && p.SeedPhrase != "" {
		return errors.New("seed and seedPhrase are mutually exclusive")
	}
	return nil
}

func (p StepPayload) Validate() error {
	if p.Count < 0 {
		return errors.New("count cannot be negative")
	}
	if p.Count > MaxStepsPerCommand {
		return fmt.Errorf("count too large (max %d)", MaxStepsPerCommand)
	}
	return nil
}

// DecodePayload разбирает Payload в dst и вызывает Validate, если dst его реализует.
// Пустой Payload оставляет dst нулевым.
func DecodePayload(raw json.RawMessage, dst any) error {
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
	}
	if v, ok := dst.(Validator); ok {
		return v.Validate()
	}
	return nil
}
