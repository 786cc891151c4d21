package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/realtime"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/task"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/usecase"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/token"
)

const (
	socketReadTimeout = 60 * time.Second
	socketReadLimit   = 1 << 20 // 1MB payload cap
	inflightTimeout   = 5 * time.Second
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic. Each connection moves through: unauthenticated (handshake) ->
// authenticated/idle -> joined -> closed. Frame-level errors are silently
// dropped; no response is expected for a rejected frame.
type ChatSocketController struct {
	registry    *realtime.Registry
	tokens      *token.Service
	joinUC      *usecase.JoinRoomUseCase
	sendUC      *usecase.SendMessageUseCase
	markReadUC  *usecase.MarkReadUseCase
	listMembers *usecase.ListParticipantsUseCase
	refresher   *task.UnreadsRefresher
	logger      zerolog.Logger

	checkOrigin func(*http.Request) bool
}

func NewChatSocketController(store repository.ChatStore, tokens *token.Service, registry *realtime.Registry, refresher *task.UnreadsRefresher, checkOrigin func(*http.Request) bool, logger zerolog.Logger) *ChatSocketController {
	return &ChatSocketController{
		registry:    registry,
		tokens:      tokens,
		joinUC:      usecase.NewJoinRoomUseCase(store),
		sendUC:      usecase.NewSendMessageUseCase(store),
		markReadUC:  usecase.NewMarkReadUseCase(store),
		listMembers: usecase.NewListParticipantsUseCase(store),
		refresher:   refresher,
		logger:      logger,
		checkOrigin: checkOrigin,
	}
}

// inboundFrame is the client->server frame with a type discriminator:
// join {roomId}, send {roomId, text}, read {roomId, ts?}.
type inboundFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
	Ts     int64  `json:"ts"`
}

// Handle upgrades the connection, verifies the handshake token, and processes
// frames until the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ctl.checkOrigin,
	}

	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		claims := ctl.tokens.Verify(c.Query("token"))
		if claims == nil {
			deadline := time.Now().Add(time.Second)
			_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthorized"), deadline)
			_ = ws.Close()
			return
		}

		conn := realtime.NewConnection(claims.Subject, claims.Name, ws)
		ctl.registry.Attach(conn)
		ctl.logger.Debug().Str("user_id", conn.UserID).Str("session_id", conn.ID).Msg("socket attached")

		defer func() {
			ctl.registry.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			ctl.logger.Debug().Str("user_id", conn.UserID).Str("session_id", conn.ID).Msg("socket detached")
		}()

		ws.SetReadLimit(socketReadLimit)
		_ = ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(socketReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}
			if frame.RoomID == "" {
				continue
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), inflightTimeout)
			switch frame.Type {
			case "join":
				ctl.handleJoin(ctx, conn, frame)
			case "send":
				ctl.handleSend(ctx, conn, frame)
			case "read":
				ctl.handleRead(ctx, conn, frame)
			}
			cancel()
		}
	}
}

func (ctl *ChatSocketController) handleJoin(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	err := ctl.joinUC.Execute(ctx, usecase.JoinRoomInput{RoomID: frame.RoomID, UserID: conn.UserID})
	if err != nil {
		return
	}

	// Joining a new room implicitly leaves any previous one.
	ctl.registry.Join(frame.RoomID, conn)

	if payload, err := json.Marshal(joinedEvent{Type: "joined", RoomID: frame.RoomID}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleSend(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.Text == "" {
		return
	}

	msg, err := ctl.sendUC.Execute(ctx, usecase.SendMessageInput{
		RoomID: frame.RoomID,
		UserID: conn.UserID,
		Name:   conn.Name,
		Text:   frame.Text,
	})
	if err != nil {
		return
	}

	delivered := broadcastMessage(ctl.registry, frame.RoomID, msg)
	ctl.logger.Debug().Str("room_id", frame.RoomID).Int("delivered", delivered).Msg("message fanned out")

	ctl.refreshRecipients(ctx, frame.RoomID, conn.UserID)
}

func (ctl *ChatSocketController) handleRead(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	ts, err := ctl.markReadUC.Execute(ctx, usecase.MarkReadInput{
		RoomID: frame.RoomID,
		UserID: conn.UserID,
		Ts:     frame.Ts,
	})
	if err != nil {
		return
	}

	broadcastRead(ctl.registry, frame.RoomID, conn.UserID, ts)
	if ctl.refresher != nil {
		ctl.refresher.Enqueue(ctx, conn.UserID)
	}
}

func (ctl *ChatSocketController) refreshRecipients(ctx context.Context, roomID, senderID string) {
	if ctl.refresher == nil {
		return
	}
	ids, err := ctl.listMembers.Execute(ctx, usecase.ListParticipantsInput{RoomID: roomID})
	if err != nil {
		return
	}
	recipients := ids[:0]
	for _, id := range ids {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	ctl.refresher.Enqueue(ctx, recipients...)
}
