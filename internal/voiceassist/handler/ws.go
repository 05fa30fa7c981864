package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/voiceassist/session"
	"voicedesk-server/internal/voiceassist/verrors"
)

// controlMessage is the shape of inbound text frames. Binary frames are raw
// audio and bypass JSON entirely.
type controlMessage struct {
	Type string `json:"type"`
}

const (
	controlInterrupt = "interrupt"
	controlStop      = "stop_conversation"
)

// wsSink serializes all outbound writes on the connection. Gorilla
// connections allow one concurrent writer only.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) SendEvent(event interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(event)
}

func (s *wsSink) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

// HandleVoiceSocket upgrades the widget connection and runs its read loop
// until the client disconnects, sends stop_conversation, or the session ends.
func (h *Handler) HandleVoiceSocket(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, userID, err := h.parseWidgetToken(c.Query("token"))
	if err != nil {
		c.AbortWithStatus(401)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(ctx, "websocket upgrade failed", err)
		return
	}
	defer conn.Close()

	connectionID := uuid.New().String()
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "connection_id", Value: connectionID})

	sink := &wsSink{conn: conn}
	sess, err := h.processor.Open(ctx, tenantID, userID, connectionID, sink)
	if err != nil {
		h.logger.Error(ctx, "failed to open voice session", err)
		_ = sink.SendEvent(session.NewErrorEvent(openFailureMessage(err)))
		return
	}
	defer h.processor.Close(ctx, connectionID, sess)

	// A session that dies on its own (recognition loss, stop endpoint) must
	// unblock the read loop.
	go func() {
		<-sess.Stopped()
		conn.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			if err := sess.HandleAudio(data); err != nil {
				h.logger.Error(ctx, "failed to forward audio frame", err)
			}
		case websocket.TextMessage:
			var ctrl controlMessage
			if err := json.Unmarshal(data, &ctrl); err != nil {
				h.logger.Warn(ctx, "ignoring malformed control message")
				continue
			}
			switch ctrl.Type {
			case controlInterrupt:
				sess.Interrupt(ctx)
			case controlStop:
				return
			}
		}
	}
}

// openFailureMessage distinguishes a tenant that never finished setup from a
// provider outage, so the widget does not blame configuration for downtime.
func openFailureMessage(err error) string {
	if errors.Is(err, verrors.ErrConfiguration) {
		return "This assistant is not configured yet."
	}
	return "The voice service is temporarily unavailable. Please try again shortly."
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}
