package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/domain"
	"github.com/ChristopherWirtOfficial/goofworld-economy/internal/engine"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/api"
	"github.com/ChristopherWirtOfficial/goofworld-economy/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и GameService.
// Все исходящие сообщения (снимки и ответы на действия) идут через один канал хаба,
// поэтому в сокет пишет только writePump.
type Client struct {
	Game      *engine.GameService
	Conn      *websocket.Conn
	SessionID string

	inbox <-chan api.ServerMessage
	log   *logrus.Entry
}

// NewClient выдает сессии UUID и подписывает ее на снимки.
// Первый снимок уже лежит в канале.
func NewClient(game *engine.GameService, conn *websocket.Conn) (*Client, error) {
	sessionID := uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	inbox, err := game.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c := &Client{
		Game:      game,
		Conn:      conn,
		SessionID: sessionID,
		inbox:     inbox,
		log:       logger.Component("ws").WithField("session_id", sessionID),
	}
	c.log.Info("Client connected")
	return c, nil
}

// readPump читает сообщения клиента
func (c *Client) readPump() {
	defer func() {
		// Unregister закрывает канал -> writePump отправит CloseMessage и выйдет
		c.Game.Unsubscribe(c.SessionID)
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
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Error("WS Error")
			}
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg api.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(api.EventActionError, api.ActionError{Message: "invalid message format", Kind: "InvalidPayload"})
		return
	}
	if err := msg.Validate(); err != nil {
		c.reply(api.EventActionError, api.ActionError{Message: err.Error(), Kind: "InvalidPayload"})
		return
	}

	switch msg.Event {
	case api.EventPlayerAction:
		c.handleAction(msg.Data)
	case api.EventRequestState:
		c.handleRequestState()
	}
}

func (c *Client) handleAction(raw json.RawMessage) {
	raw = c.withPlayerID(raw)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	outcome, err := c.Game.Submit(ctx, raw)
	if err != nil {
		c.reply(api.EventActionError, actionError(err))
		return
	}
	c.reply(api.EventActionSuccess, api.ActionSuccess{
		NextActionTime: outcome.AppliedAt.UnixMilli(),
		Persisted:      outcome.Persisted,
	})
}

// withPlayerID подставляет ID сессии, если клиент не представился.
// Неразборчивый JSON возвращается как есть: движок сам ответит InvalidPayload.
func (c *Client) withPlayerID(raw json.RawMessage) json.RawMessage {
	var action api.PlayerAction
	if err := json.Unmarshal(raw, &action); err != nil || action.PlayerID != "" {
		return raw
	}
	action.PlayerID = c.SessionID
	patched, err := json.Marshal(action)
	if err != nil {
		return raw
	}
	return patched
}

func (c *Client) handleRequestState() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	state, err := c.Game.Snapshot(ctx)
	if err != nil {
		c.reply(api.EventActionError, api.ActionError{Message: "Failed to get game state"})
		return
	}
	c.reply(api.EventGameStateUpdate, engine.BuildSnapshot(state))
}

func (c *Client) reply(event string, data any) {
	if !c.Game.Hub.SendTo(c.SessionID, api.ServerMessage{Event: event, Data: data}) {
		c.log.WithField("event", event).Warn("Reply dropped")
	}
}

// actionError превращает ошибку движка в ответ клиенту
func actionError(err error) api.ActionError {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return api.ActionError{Message: ve.Msg, Kind: ve.KindName()}
	}
	if errors.Is(err, engine.ErrStopped) {
		return api.ActionError{Message: "server is shutting down"}
	}
	return api.ActionError{Message: err.Error()}
}

// writePump отправляет данные клиенту + Ping
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
		case message, ok := <-c.inbox:
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
