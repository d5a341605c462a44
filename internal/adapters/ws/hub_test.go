package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brianes/pitchscore/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

// echoRouter identifies every connection from its connect payload,
// joins it to the requested room and acks.
type echoRouter struct{}

func (echoRouter) Route(_ context.Context, s Session, event string, data json.RawMessage) {
	switch event {
	case EventTotemConnect:
		var req TotemConnectRequest
		_ = json.Unmarshal(data, &req)
		s.Identify(RoleTotem, req.TotemID, "")
		s.Join(req.TotemID)
		s.Send(EventTotemConnected, TotemConnectedPayload{TotemID: req.TotemID})
	case EventJudgeConnect:
		var req JudgeConnectRequest
		_ = json.Unmarshal(data, &req)
		s.Identify(RoleJudge, req.TotemID, req.JudgeID)
		s.Join(req.TotemID)
		s.Send(EventJudgeConnected, JudgeConnectedPayload{JudgeID: req.JudgeID})
	}
}

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(echoRouter{})
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := marshalEnvelope(event, data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env
}

func TestConnectRoundTrip(t *testing.T) {
	_, url := newTestHub(t)
	conn := dial(t, url)

	send(t, conn, EventTotemConnect, TotemConnectRequest{TotemID: "totem-1"})
	env := recv(t, conn)
	if env.Event != EventTotemConnected {
		t.Fatalf("expected %s, got %s", EventTotemConnected, env.Event)
	}

	var ack TotemConnectedPayload
	if err := json.Unmarshal(env.Data, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.TotemID != "totem-1" {
		t.Errorf("expected totem-1, got %s", ack.TotemID)
	}
}

func TestRoomBroadcastReachesOnlyMembers(t *testing.T) {
	hub, url := newTestHub(t)

	member := dial(t, url)
	send(t, member, EventJudgeConnect, JudgeConnectRequest{TotemID: "totem-1", JudgeID: "judge-1"})
	recv(t, member)

	outsider := dial(t, url)
	send(t, outsider, EventJudgeConnect, JudgeConnectRequest{TotemID: "totem-2", JudgeID: "judge-2"})
	recv(t, outsider)

	hub.ToRoom("totem-1", EventTeamListResponse, TeamListPayload{})

	env := recv(t, member)
	if env.Event != EventTeamListResponse {
		t.Fatalf("expected %s, got %s", EventTeamListResponse, env.Event)
	}

	_ = outsider.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := outsider.ReadMessage(); err == nil {
		t.Error("outsider received a room broadcast")
	}
}

func TestToAllReachesEveryConnection(t *testing.T) {
	hub, url := newTestHub(t)

	a := dial(t, url)
	send(t, a, EventJudgeConnect, JudgeConnectRequest{TotemID: "totem-1", JudgeID: "judge-1"})
	recv(t, a)

	b := dial(t, url)
	send(t, b, EventTotemConnect, TotemConnectRequest{TotemID: "totem-2"})
	recv(t, b)

	hub.ToAll(EventResetSuccess, nil)

	for _, conn := range []*websocket.Conn{a, b} {
		env := recv(t, conn)
		if env.Event != EventResetSuccess {
			t.Fatalf("expected %s, got %s", EventResetSuccess, env.Event)
		}
	}
}

func TestActiveJudges(t *testing.T) {
	hub, url := newTestHub(t)

	for _, id := range []string{"judge-2", "judge-1", "judge-2"} {
		conn := dial(t, url)
		send(t, conn, EventJudgeConnect, JudgeConnectRequest{TotemID: "totem-1", JudgeID: id})
		recv(t, conn)
	}

	totem := dial(t, url)
	send(t, totem, EventTotemConnect, TotemConnectRequest{TotemID: "totem-1"})
	recv(t, totem)

	got := hub.ActiveJudges("totem-1")
	want := []string{"judge-1", "judge-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestActiveJudgesShrinksOnDisconnect(t *testing.T) {
	hub, url := newTestHub(t)

	stay := dial(t, url)
	send(t, stay, EventJudgeConnect, JudgeConnectRequest{TotemID: "totem-1", JudgeID: "judge-1"})
	recv(t, stay)

	leave := dial(t, url)
	send(t, leave, EventJudgeConnect, JudgeConnectRequest{TotemID: "totem-1", JudgeID: "judge-2"})
	recv(t, leave)

	_ = leave.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if got := hub.ActiveJudges("totem-1"); reflect.DeepEqual(got, []string{"judge-1"}) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("judge-2 still listed after disconnect: %v", hub.ActiveJudges("totem-1"))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastSurvivesSlowClientDrop(t *testing.T) {
	hub := NewHub(echoRouter{})

	// Clients with no write pump so the buffer fills deterministically.
	slow := &Client{id: "slow", hub: hub, send: make(chan []byte, 1), done: make(chan struct{})}
	healthy := &Client{id: "healthy", hub: hub, send: make(chan []byte, 8), done: make(chan struct{})}
	hub.mu.Lock()
	hub.clients[slow] = struct{}{}
	hub.clients[healthy] = struct{}{}
	hub.mu.Unlock()
	hub.join(slow, "totem-1")
	hub.join(healthy, "totem-1")

	// First fills the slow buffer, second drops the client and every
	// later broadcast must still fan out without panicking.
	for i := 0; i < 3; i++ {
		hub.ToRoom("totem-1", EventResultsUpdated, ResultsPayload{})
	}

	select {
	case <-slow.done:
	default:
		t.Fatal("slow client was not dropped")
	}

	// The dropped client still sits in the room until its read pump
	// exits; direct and room sends to it must be no-ops.
	slow.Send(EventResultsUpdated, ResultsPayload{})
	hub.ToAll(EventResultsUpdated, ResultsPayload{})

	if got := len(healthy.send); got != 4 {
		t.Errorf("healthy client got %d frames, want 4", got)
	}
	select {
	case <-healthy.done:
		t.Error("healthy client must not be dropped")
	default:
	}
}
