package api

import (
	"encoding/json"
)

// Типы сообщений сервер -> клиент
const (
	TypeUpdate = "UPDATE" // очередной шаг генерации
	TypeSolved = "SOLVED" // карта полностью схлопнута
	TypeFailed = "FAILED" // противоречие, ждём RESET
)

// Действия клиент -> сервер
const (
	ActionStep   = "STEP"
	ActionReset  = "RESET"
	ActionPause  = "PAUSE"
	ActionResume = "RESUME"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// ServerResponse это корневой объект, который сервер отправляет клиенту.
// Полный снимок текущей карты: рендерер рисует его целиком, без дельт.
type ServerResponse struct {
	// Type - UPDATE, SOLVED или FAILED.
	Type string `json:"type"`

	// Run номер генерации с момента запуска сервера. Растёт при каждом RESET.
	Run int `json:"run"`

	// Step количество успешных коллапсов в текущей генерации.
	Step int `json:"step"`

	// Seed зерно текущей генерации. Повторный запуск с тем же зерном даёт ту же карту.
	Seed int64 `json:"seed"`

	// Paused true, если автоматические шаги остановлены командой PAUSE.
	Paused bool `json:"paused,omitempty"`

	Grid *GridMeta `json:"grid,omitempty"`

	// Cells все клетки карты построчно.
	Cells []CellView `json:"cells,omitempty"`

	// Error описание противоречия, если Type == FAILED.
	Error string `json:"error,omitempty"`
}

// GridMeta размер квадратной карты.
type GridMeta struct {
	Size int `json:"size"`
}

// CellView это DTO одной клетки.
type CellView struct {
	Line   int `json:"line"`
	Column int `json:"column"`

	// File и Rotation заданы только у схлопнутых клеток.
	File     string `json:"file,omitempty"`
	Rotation int    `json:"rotation,omitempty"`

	// Entropy количество оставшихся вариантов.
	Entropy   int  `json:"entropy"`
	Collapsed bool `json:"collapsed"`
}

// MapSummary элемент списка сохранённых карт.
type MapSummary struct {
	Name      string `json:"name"`
	Seed      int64  `json:"seed"`
	Size      int    `json:"size"`
	Timestamp int64  `json:"timestamp"`
	Solved    bool   `json:"solved"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientCommand это корневой объект для всех сообщений от клиента к серверу.
type ClientCommand struct {
	// Action название действия: STEP, RESET, PAUSE, RESUME.
	Action string `json:"action"`

	// Payload JSON-объект с данными для действия. Его структура зависит от Action.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Payloads ---

// ResetPayload используется для RESET. Без зерна сервер берёт следующее по счёту.
type ResetPayload struct {
	Seed *int64 `json:"seed,omitempty"`
	// SeedPhrase превращается в зерно хешированием, если Seed не задан.
	SeedPhrase string `json:"seedPhrase,omitempty"`
}

// StepPayload используется для STEP (по умолчанию один шаг).
type StepPayload struct {
	Count int `json:"count,omitempty"`
}
