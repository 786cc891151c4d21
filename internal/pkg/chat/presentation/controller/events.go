package controller

import (
	"encoding/json"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/realtime"
	chat "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/domain"
)

// Server-to-client frames shared by the HTTP endpoints and the socket
// controller. Live delivery is best-effort; clients that miss an event catch
// up from history.

type messageEvent struct {
	Type    string        `json:"type"`
	RoomID  string        `json:"roomId"`
	Message *chat.Message `json:"message"`
}

type readEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Ts     int64  `json:"ts"`
}

type joinedEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

func broadcastMessage(reg *realtime.Registry, roomID string, msg *chat.Message) int {
	payload, err := json.Marshal(messageEvent{Type: "message", RoomID: roomID, Message: msg})
	if err != nil {
		return 0
	}
	return reg.Broadcast(roomID, payload)
}

func broadcastRead(reg *realtime.Registry, roomID, userID string, ts int64) int {
	payload, err := json.Marshal(readEvent{Type: "read", RoomID: roomID, UserID: userID, Ts: ts})
	if err != nil {
		return 0
	}
	return reg.Broadcast(roomID, payload)
}
