package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/model"
	ws "github.com/qbank/exam-platform/internal/websocket"
)

const maxQuestionIDLen = 64

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

type draftWriter interface {
	SaveAnswer(ctx context.Context, sessionID uuid.UUID, questionID, answer string) error
	SetFlag(ctx context.Context, sessionID uuid.UUID, questionID string, flagged bool) error
}

type draftSessions interface {
	OpenDraft(ctx context.Context, sessionID, userID uuid.UUID) (*model.ExamSession, error)
	SubmitDraft(ctx context.Context, sessionID, userID uuid.UUID) (*model.ExamSession, error)
}

// WSHandler streams autosave traffic for an in-progress session.
type WSHandler struct {
	drafts   draftWriter
	sessions draftSessions
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(drafts draftWriter, sessions draftSessions, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		drafts:   drafts,
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/exams/:id/stream?token=
// Upgrades to WebSocket for autosave, flagging and submitting the draft.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	sessionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID
	if _, err := h.sessions.OpenDraft(c.Request.Context(), sessionID, userID); err != nil {
		_ = ws.WriteError(conn, draftError(err))
		return
	}

	wsLog := h.log.With().
		Str("user_id", userID.String()).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Client connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAutosave, ws.ActionFlag:
			// The session may have been submitted over HTTP since connect.
			if _, err := h.sessions.OpenDraft(context.Background(), sessionID, userID); err != nil {
				_ = ws.WriteError(conn, draftError(err))
				if errors.Is(err, apperr.ErrInvalidState) {
					return
				}
				continue
			}
			if msg.Action == ws.ActionAutosave {
				h.handleAutosave(conn, wsLog, sessionID, &msg)
			} else {
				h.handleFlag(conn, wsLog, sessionID, &msg)
			}
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		case ws.ActionSubmit:
			if h.handleSubmit(conn, wsLog, sessionID, userID) {
				return
			}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func validQID(qid string) bool {
	return qid != "" && len(qid) <= maxQuestionIDLen
}

func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, msg *ws.RequestPayload) {
	if !validQID(msg.QID) {
		_ = ws.WriteError(conn, "q_id is required")
		return
	}

	if err := h.drafts.SaveAnswer(context.Background(), sessionID, msg.QID, msg.Answer); err != nil {
		wsLog.Error().Err(err).Msg("Autosave failed")
		_ = ws.WriteError(conn, "save failed")
		return
	}

	_ = ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QID: msg.QID})
}

func (h *WSHandler) handleFlag(conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, msg *ws.RequestPayload) {
	if !validQID(msg.QID) {
		_ = ws.WriteError(conn, "q_id is required")
		return
	}

	if err := h.drafts.SetFlag(context.Background(), sessionID, msg.QID, msg.Flagged); err != nil {
		wsLog.Error().Err(err).Msg("Flag failed")
		_ = ws.WriteError(conn, "flag failed")
		return
	}

	_ = ws.WriteTyped(conn, ws.FlaggedResponse{Event: ws.EventFlagged, QID: msg.QID, Flagged: msg.Flagged})
}

// handleSubmit reports whether the connection should close.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, sessionID, userID uuid.UUID) bool {
	session, err := h.sessions.SubmitDraft(context.Background(), sessionID, userID)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Submit failed")
		_ = ws.WriteError(conn, draftError(err))
		return errors.Is(err, apperr.ErrInvalidState)
	}

	_ = ws.WriteTyped(conn, ws.SubmittedResponse{
		Event:     ws.EventSubmitted,
		SessionID: session.ID.String(),
		Score:     session.Score,
	})
	return true
}

func draftError(err error) string {
	switch {
	case errors.Is(err, apperr.ErrAlreadySubmitted):
		return "exam already submitted"
	case errors.Is(err, apperr.ErrNotFound):
		return "session not found"
	case errors.Is(err, apperr.ErrForbidden):
		return "session belongs to another user"
	default:
		return "internal error"
	}
}
