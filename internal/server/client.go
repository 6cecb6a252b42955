package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hunomina/wave-function-collapse/internal/engine"
	"github.com/hunomina/wave-function-collapse/pkg/api"
	"github.com/hunomina/wave-function-collapse/pkg/logger"
	"github.com/hunomina/wave-function-collapse/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096, // снимок карты 20x20 - несколько десятков килобайт
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и Service
type Client struct {
	Service *engine.Service
	Conn    *websocket.Conn
	ID      string

	updates chan api.ServerResponse
	log     *logrus.Entry
}

func NewClient(service *engine.Service, conn *websocket.Conn) *Client {
	id := utils.GenerateID()
	return &Client{
		Service: service,
		Conn:    conn,
		ID:      id,
		log:     logger.WithComponent("ws").WithField("client", id),
	}
}

// subscribe регистрирует клиента в Hub и сразу кладёт ему последний снимок,
// чтобы первая отрисовка не ждала следующего шага.
func (c *Client) subscribe() {
	c.updates = c.Service.Subscribe(c.ID)
	c.log.Info("Client connected")
}

// readPump читает команды от клиента
func (c *Client) readPump() {
	defer func() {
		c.Service.Hub.Unregister(c.ID)
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
		c.log.Info("Client disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd api.ClientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Errorf("WS Error: %v", err)
			}
			return
		}

		if err := c.Service.ProcessCommand(cmd); err != nil {
			c.log.WithField("action", cmd.Action).Warnf("Command rejected: %v", err)
			// Ответ об ошибке уходит только этому клиенту
			c.Service.Hub.SendTo(c.ID, api.ServerResponse{
				Type:  api.TypeFailed,
				Error: err.Error(),
			})
		}
	}
}

// writePump отправляет снимки клиенту + Ping.
// Завершается, когда Hub закрывает канал (Unregister) или запись не удалась.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.updates:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				c.log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
