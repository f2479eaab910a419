package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rvclass/examroom-backend/internal/middleware"
	"github.com/rvclass/examroom-backend/internal/service"
	"github.com/rvclass/examroom-backend/internal/session"
	ws "github.com/rvclass/examroom-backend/internal/websocket"
)

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

// WSHandler streams the attempt countdown clock over WebSocket.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ClockStream godoc
// WS /ws/v1/student/exams/:exam_id/clock
// Pushes a tick event with the remaining time on every clock tick and a
// single finalized event when the attempt is scored. The client may
// send ping and submit actions on the same connection.
func (h *WSHandler) ClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}
	studentID := claims.UserID

	ctrl, err := h.sessionService.Subscribe(c.Request.Context(), examID, studentID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no active attempt for this exam"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Stringer("student_id", studentID).
		Stringer("exam_id", examID).
		Logger()
	wsLog.Info().Msg("Student connected to clock stream")

	// The attempt may already be scored when the socket opens, for
	// example after a timeout while the student was offline.
	if result, ok := ctrl.Result(); ok {
		h.writeFinalized(conn, result)
		return
	}

	ticks, cancel := ctrl.Subscribe()
	defer cancel()

	// Initial tick so the client renders the clock before the first
	// interval elapses.
	conn.WriteTyped(ws.TickResponse{
		Event:            ws.EventTick,
		RemainingSeconds: ctrl.Remaining().Seconds(),
	})

	// Reader goroutine: client pings and submits. Closing the socket
	// ends the read loop; readDone ends the write loop below.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			var msg ws.RequestPayload
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}

			switch msg.Action {
			case ws.ActionPing:
				conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			case ws.ActionSubmit:
				if _, err := h.sessionService.Submit(c.Request.Context(), examID, studentID); err != nil && !isAlreadyFinalized(err) {
					wsLog.Error().Err(err).Msg("Submit over WebSocket failed")
					conn.WriteError("submit failed")
				}
				// The finalized event reaches the client through the
				// tick subscription closing.
			default:
				wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
				conn.WriteError("unknown action: " + string(msg.Action))
			}
		}
	}()

	for {
		select {
		case remaining, open := <-ticks:
			if !open {
				// Subscription closed: the attempt was finalized.
				if result, ok := ctrl.Result(); ok {
					h.writeFinalized(conn, result)
				}
				return
			}
			if err := conn.WriteTyped(ws.TickResponse{
				Event:            ws.EventTick,
				RemainingSeconds: remaining.Seconds(),
			}); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}

func (h *WSHandler) writeFinalized(conn *ws.Conn, result *session.ScoredAttempt) {
	conn.WriteTyped(ws.FinalizedResponse{
		Event:  ws.EventFinalized,
		Score:  result.Score,
		Reason: string(result.Reason),
	})
}

func isAlreadyFinalized(err error) bool {
	return errors.Is(err, session.ErrSessionFinalized)
}
