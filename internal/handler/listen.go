package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/beanbook/beanbook/internal/realtime"
)

// Websocket timing.
const (
	listenWriteWait  = 10 * time.Second
	listenPongWait   = 60 * time.Second
	listenPingPeriod = listenPongWait * 9 / 10
	listenReadLimit  = 4096
)

// Hub is the live-listener registry the websocket route needs.
type Hub interface {
	Register(userID string) *realtime.Subscriber
	Unregister(sub *realtime.Subscriber)
	Subscribe(ctx context.Context, sub *realtime.Subscriber, topic realtime.Topic) error
	Unsubscribe(sub *realtime.Subscriber, topic realtime.Topic)
}

// ListenHandler upgrades to a websocket and streams topic snapshots.
//
// Client frames: {"type":"subscribe","topic":"brews"} and
// {"type":"unsubscribe","topic":"brews"}. Server frames are snapshots or errors.
type ListenHandler struct {
	hub      Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewListenHandler creates a new ListenHandler. allowOrigin vets the Origin
// header of browser clients; requests without one are always accepted.
func NewListenHandler(hub Hub, allowOrigin func(origin string) bool, logger *slog.Logger) *ListenHandler {
	return &ListenHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || (allowOrigin != nil && allowOrigin(origin))
			},
		},
		logger: logger.With("component", "handler.listen"),
	}
}

// Listen handles GET /api/v1/listen.
func (h *ListenHandler) Listen(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	sub := h.hub.Register(s.UserID)
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	logger := h.logger.With("subscriber_id", sub.ID, "user_id", s.UserID)
	logger.Info("listener connected")

	written := make(chan struct{})
	go func() {
		defer close(written)
		h.writePump(ctx, conn, sub, logger)
	}()

	h.readPump(ctx, conn, sub, logger)

	cancel()
	h.hub.Unregister(sub)
	<-written
	_ = conn.Close()
	logger.Info("listener disconnected")
}

// readPump applies client frames until the connection fails.
func (h *ListenHandler) readPump(ctx context.Context, conn *websocket.Conn, sub *realtime.Subscriber, logger *slog.Logger) {
	conn.SetReadLimit(listenReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(listenPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(listenPongWait))
	})

	for {
		var msg realtime.Envelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("listener read failed", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(listenPongWait))

		switch msg.Type {
		case realtime.TypeSubscribe:
			if err := h.hub.Subscribe(ctx, sub, msg.Topic); err != nil {
				sub.SendError(msg.Topic, err.Error())
			}
		case realtime.TypeUnsubscribe:
			h.hub.Unsubscribe(sub, msg.Topic)
		default:
			sub.SendError(msg.Topic, "unknown message type")
		}
	}
}

// writePump is the only writer on conn. It sends queued frames and pings
// while idle. A write failure closes conn so readPump returns too.
func (h *ListenHandler) writePump(ctx context.Context, conn *websocket.Conn, sub *realtime.Subscriber, logger *slog.Logger) {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, listenPingPeriod)
		envs, err := sub.Next(waitCtx)
		cancel()

		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(listenWriteWait)); err != nil {
				_ = conn.Close()
				return
			}
			continue
		default:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(listenWriteWait))
			_ = conn.Close()
			return
		}

		for _, env := range envs {
			_ = conn.SetWriteDeadline(time.Now().Add(listenWriteWait))
			if err := conn.WriteJSON(env); err != nil {
				logger.Debug("listener write failed", "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}
