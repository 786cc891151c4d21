package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/config"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/realtime"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/adapter"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/token"
)

// fakeResolver maps upstream bearer tokens straight to identities, standing in
// for the commerce backend.
type fakeResolver struct {
	users map[string]token.Identity
}

func (f *fakeResolver) Resolve(ctx context.Context, bearer, role string) (*token.Identity, error) {
	id, ok := f.users[bearer]
	if !ok || id.Role != role {
		return nil, token.ErrUnauthenticated
	}
	return &id, nil
}

type testGateway struct {
	srv   *httptest.Server
	store *adapter.MemChatStore
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := adapter.NewMemChatStore()
	tokens := token.NewService("test-secret", 300, &fakeResolver{users: map[string]token.Identity{
		"up-u1": {ID: "u1", Name: "Alice", Role: "customer"},
		"up-u2": {ID: "u2", Name: "Bob", Role: "customer"},
		"up-u3": {ID: "u3", Name: "Carol", Role: "seller"},
	}})
	registry := realtime.NewRegistry()
	t.Cleanup(registry.Close)

	router := NewRouter(Deps{
		Cfg:      config.Config{Port: "0", CORSOrigin: "*"},
		Store:    store,
		Tokens:   tokens,
		Registry: registry,
		Logger:   zerolog.Nop(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testGateway{srv: srv, store: store}
}

func (g *testGateway) do(t *testing.T, method, path, sessionToken string, body any) (*nethttp.Response, map[string]json.RawMessage) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := nethttp.NewRequest(method, g.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}

	res, err := g.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	out := map[string]json.RawMessage{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

// session exchanges an upstream bearer for a chat session token through the
// real endpoint.
func (g *testGateway) session(t *testing.T, upstreamBearer, role string) string {
	t.Helper()
	req, err := nethttp.NewRequest(nethttp.MethodPost, g.srv.URL+"/api/token", strings.NewReader(fmt.Sprintf(`{"role":%q}`, role)))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+upstreamBearer)

	res, err := g.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("token request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != nethttp.StatusOK {
		t.Fatalf("token status = %d", res.StatusCode)
	}
	body := map[string]json.RawMessage{}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	var sessionToken string
	if err := json.Unmarshal(body["token"], &sessionToken); err != nil {
		t.Fatalf("token field: %v", err)
	}
	return sessionToken
}

func (g *testGateway) createRoom(t *testing.T, sessionToken string, participants ...string) string {
	t.Helper()
	parts := make([]map[string]string, 0, len(participants))
	for _, p := range participants {
		parts = append(parts, map[string]string{"userId": p, "name": p, "role": "customer"})
	}
	res, body := g.do(t, nethttp.MethodPost, "/api/rooms", sessionToken, map[string]any{"participants": parts})
	if res.StatusCode != nethttp.StatusOK {
		t.Fatalf("create room status = %d", res.StatusCode)
	}
	var roomID string
	if err := json.Unmarshal(body["roomId"], &roomID); err != nil {
		t.Fatalf("roomId field: %v", err)
	}
	return roomID
}

// TestTokenEndpoint covers issuance, the missing-bearer 401, the upstream
// rejection 401, and the invalid-role 400.
func TestTokenEndpoint(t *testing.T) {
	g := newTestGateway(t)

	res, _ := g.do(t, nethttp.MethodPost, "/api/token", "", nil)
	if res.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("no bearer: status = %d, want 401", res.StatusCode)
	}

	sessionToken := g.session(t, "up-u1", "customer")
	if sessionToken == "" {
		t.Fatal("expected a session token")
	}

	req, _ := nethttp.NewRequest(nethttp.MethodPost, g.srv.URL+"/api/token", strings.NewReader(`{"role":"customer"}`))
	req.Header.Set("Authorization", "Bearer unknown-upstream")
	res2, err := g.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("token request: %v", err)
	}
	res2.Body.Close()
	if res2.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("bad upstream: status = %d, want 401", res2.StatusCode)
	}

	req, _ = nethttp.NewRequest(nethttp.MethodPost, g.srv.URL+"/api/token", strings.NewReader(`{"role":"admin"}`))
	req.Header.Set("Authorization", "Bearer up-u1")
	res3, err := g.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("token request: %v", err)
	}
	res3.Body.Close()
	if res3.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("invalid role: status = %d, want 400", res3.StatusCode)
	}
}

// TestRoomKeyConvergence verifies two participants independently creating the
// same logical room land on the same id, participant order notwithstanding.
func TestRoomKeyConvergence(t *testing.T) {
	g := newTestGateway(t)
	tok1 := g.session(t, "up-u1", "customer")
	tok2 := g.session(t, "up-u2", "customer")

	room1 := g.createRoom(t, tok1, "u1", "u2")
	room2 := g.createRoom(t, tok2, "u2", "u1")

	if room1 != room2 {
		t.Fatalf("rooms diverged: %q vs %q", room1, room2)
	}
}

// TestRoomCreationRejections covers the two-distinct-participants rule and
// the caller-must-be-included rule.
func TestRoomCreationRejections(t *testing.T) {
	g := newTestGateway(t)
	tok1 := g.session(t, "up-u1", "customer")

	res, _ := g.do(t, nethttp.MethodPost, "/api/rooms", tok1, map[string]any{
		"participants": []map[string]string{{"userId": "u1"}, {"userId": "u1"}},
	})
	if res.StatusCode != nethttp.StatusBadRequest {
		t.Fatalf("duplicate participants: status = %d, want 400", res.StatusCode)
	}

	res, _ = g.do(t, nethttp.MethodPost, "/api/rooms", tok1, map[string]any{
		"participants": []map[string]string{{"userId": "u2"}, {"userId": "u3"}},
	})
	if res.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("caller excluded: status = %d, want 403", res.StatusCode)
	}
}

// TestMembershipGate verifies a valid session that is not a room participant
// is locked out of history, sending, and read marks.
func TestMembershipGate(t *testing.T) {
	g := newTestGateway(t)
	tok1 := g.session(t, "up-u1", "customer")
	tok3 := g.session(t, "up-u3", "seller")

	roomID := g.createRoom(t, tok1, "u1", "u2")

	res, _ := g.do(t, nethttp.MethodGet, "/api/messages?roomId="+roomID, tok3, nil)
	if res.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("history: status = %d, want 403", res.StatusCode)
	}
	res, _ = g.do(t, nethttp.MethodPost, "/api/messages", tok3, map[string]string{"roomId": roomID, "text": "hi"})
	if res.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("send: status = %d, want 403", res.StatusCode)
	}
	res, _ = g.do(t, nethttp.MethodPost, "/api/read", tok3, map[string]any{"roomId": roomID})
	if res.StatusCode != nethttp.StatusForbidden {
		t.Fatalf("read: status = %d, want 403", res.StatusCode)
	}

	res, _ = g.do(t, nethttp.MethodGet, "/api/messages?roomId="+roomID, "", nil)
	if res.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("no session: status = %d, want 401", res.StatusCode)
	}
}

// TestSendHistoryAndUnreads walks the HTTP message path end to end: send,
// fetch history as the peer, check the unread badge, mark read, re-check.
func TestSendHistoryAndUnreads(t *testing.T) {
	g := newTestGateway(t)
	tok1 := g.session(t, "up-u1", "customer")
	tok2 := g.session(t, "up-u2", "customer")

	roomID := g.createRoom(t, tok1, "u1", "u2")

	res, body := g.do(t, nethttp.MethodPost, "/api/messages", tok1, map[string]string{"roomId": roomID, "text": "hello"})
	if res.StatusCode != nethttp.StatusOK {
		t.Fatalf("send: status = %d", res.StatusCode)
	}
	var sent struct {
		Ts   int64  `json:"ts"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body["message"], &sent); err != nil || sent.Text != "hello" {
		t.Fatalf("send response message = %s err=%v", body["message"], err)
	}

	res, body = g.do(t, nethttp.MethodGet, "/api/messages?roomId="+roomID, tok2, nil)
	if res.StatusCode != nethttp.StatusOK {
		t.Fatalf("history: status = %d", res.StatusCode)
	}
	var msgs []struct {
		UserID string `json:"userId"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal(body["messages"], &msgs); err != nil {
		t.Fatalf("messages field: %v", err)
	}
	if len(msgs) != 1 || msgs[0].UserID != "u1" || msgs[0].Text != "hello" {
		t.Fatalf("history = %+v", msgs)
	}

	res, body = g.do(t, nethttp.MethodGet, "/api/unreads", tok2, nil)
	if res.StatusCode != nethttp.StatusOK {
		t.Fatalf("unreads: status = %d", res.StatusCode)
	}
	var total int
	if err := json.Unmarshal(body["total"], &total); err != nil || total != 1 {
		t.Fatalf("unread total = %d err=%v, want 1", total, err)
	}

	res, _ = g.do(t, nethttp.MethodPost, "/api/read", tok2, map[string]any{"roomId": roomID, "ts": sent.Ts})
	if res.StatusCode != nethttp.StatusOK {
		t.Fatalf("mark read: status = %d", res.StatusCode)
	}

	_, body = g.do(t, nethttp.MethodGet, "/api/unreads", tok2, nil)
	if err := json.Unmarshal(body["total"], &total); err != nil || total != 0 {
		t.Fatalf("unread total after read = %d err=%v, want 0", total, err)
	}
}

// TestNonAdminAllIgnored verifies the monitoring view is admin-only: a
// customer asking for all rooms still gets just their own.
func TestNonAdminAllIgnored(t *testing.T) {
	g := newTestGateway(t)
	tok1 := g.session(t, "up-u1", "customer")
	tok2 := g.session(t, "up-u2", "customer")

	g.createRoom(t, tok1, "u1", "u3")
	g.createRoom(t, tok2, "u2", "u3")

	res, body := g.do(t, nethttp.MethodGet, "/api/rooms?all=true", tok1, nil)
	if res.StatusCode != nethttp.StatusOK {
		t.Fatalf("list rooms: status = %d", res.StatusCode)
	}
	var rooms []json.RawMessage
	if err := json.Unmarshal(body["rooms"], &rooms); err != nil {
		t.Fatalf("rooms field: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("non-admin all returned %d rooms, want 1", len(rooms))
	}
}

// TestHealth verifies the probe reports the active storage variant.
func TestHealth(t *testing.T) {
	g := newTestGateway(t)

	res, body := g.do(t, nethttp.MethodGet, "/health", "", nil)
	if res.StatusCode != nethttp.StatusOK {
		t.Fatalf("health: status = %d", res.StatusCode)
	}
	var storage string
	if err := json.Unmarshal(body["storage"], &storage); err != nil || storage != "memory" {
		t.Fatalf("storage = %q err=%v", storage, err)
	}
}

func dialSocket(t *testing.T, g *testGateway, sessionToken string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(g.srv.URL, "http") + "/ws?token=" + sessionToken
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEventFrame(t *testing.T, ws *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("frame %s: %v", data, err)
	}
	return out
}

func frameType(t *testing.T, frame map[string]json.RawMessage) string {
	t.Helper()
	var typ string
	if err := json.Unmarshal(frame["type"], &typ); err != nil {
		t.Fatalf("type field: %v", err)
	}
	return typ
}

// TestWebsocketLiveDelivery walks the realtime path: both participants join
// over websockets, one sends, the other receives without polling, then a read
// receipt fans out.
func TestWebsocketLiveDelivery(t *testing.T) {
	g := newTestGateway(t)
	tok1 := g.session(t, "up-u1", "customer")
	tok2 := g.session(t, "up-u2", "customer")

	roomID := g.createRoom(t, tok1, "u1", "u2")

	ws1 := dialSocket(t, g, tok1)
	ws2 := dialSocket(t, g, tok2)

	for _, ws := range []*websocket.Conn{ws1, ws2} {
		if err := ws.WriteJSON(map[string]string{"type": "join", "roomId": roomID}); err != nil {
			t.Fatalf("join: %v", err)
		}
		frame := readEventFrame(t, ws)
		if frameType(t, frame) != "joined" {
			t.Fatalf("expected joined ack, got %v", frame)
		}
	}

	if err := ws1.WriteJSON(map[string]string{"type": "send", "roomId": roomID, "text": "hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, ws := range []*websocket.Conn{ws1, ws2} {
		frame := readEventFrame(t, ws)
		if frameType(t, frame) != "message" {
			t.Fatalf("expected message frame, got %v", frame)
		}
		var msg struct {
			UserID string `json:"userId"`
			Text   string `json:"text"`
		}
		if err := json.Unmarshal(frame["message"], &msg); err != nil {
			t.Fatalf("message field: %v", err)
		}
		if msg.UserID != "u1" || msg.Text != "hello" {
			t.Fatalf("message = %+v", msg)
		}
	}

	if err := ws2.WriteJSON(map[string]any{"type": "read", "roomId": roomID}); err != nil {
		t.Fatalf("read mark: %v", err)
	}
	frame := readEventFrame(t, ws1)
	if frameType(t, frame) != "read" {
		t.Fatalf("expected read frame, got %v", frame)
	}
	var reader string
	if err := json.Unmarshal(frame["userId"], &reader); err != nil || reader != "u2" {
		t.Fatalf("read frame userId = %q err=%v", reader, err)
	}
}

// TestWebsocketRejectsBadToken verifies the handshake closes with policy
// violation when the token is missing or invalid.
func TestWebsocketRejectsBadToken(t *testing.T) {
	g := newTestGateway(t)

	for _, tok := range []string{"", "garbage"} {
		url := "ws" + strings.TrimPrefix(g.srv.URL, "http") + "/ws?token=" + tok
		ws, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}

		_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, _, err = ws.ReadMessage()
		closeErr, ok := err.(*websocket.CloseError)
		if !ok || closeErr.Code != websocket.ClosePolicyViolation {
			t.Fatalf("token %q: expected close 1008, got %v", tok, err)
		}
		ws.Close()
	}
}

// TestWebsocketDropsForbiddenFrames verifies a member of no room gets nothing
// back for join or send attempts, while the connection stays usable.
func TestWebsocketDropsForbiddenFrames(t *testing.T) {
	g := newTestGateway(t)
	tok1 := g.session(t, "up-u1", "customer")
	tok3 := g.session(t, "up-u3", "seller")

	roomID := g.createRoom(t, tok1, "u1", "u2")
	ws := dialSocket(t, g, tok3)

	// Not a participant: join must be silently ignored.
	if err := ws.WriteJSON(map[string]string{"type": "join", "roomId": roomID}); err != nil {
		t.Fatalf("join: %v", err)
	}
	// Malformed frame: also ignored.
	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatal("expected no frame for a forbidden join")
	}
}
