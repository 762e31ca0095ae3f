package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-show/internal/command"
	"github.com/nerrad567/gray-logic-show/internal/hardware"
	"github.com/nerrad567/gray-logic-show/internal/modules/preview"
)

func runningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testWSConfig(), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func subscribedClient(hub *Hub, channels ...string) *WSClient {
	subs := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		subs[ch] = struct{}{}
	}
	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: subs,
	}
	hub.Register(client)
	return client
}

func receive(t *testing.T, client *WSClient) WSMessage {
	t.Helper()
	select {
	case data := <-client.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast message")
	}
	return WSMessage{}
}

// ─── WebSocket Hub Tests ───────────────────────────────────────────

func TestHub_BroadcastFrame(t *testing.T) {
	hub := runningHub(t)
	client := subscribedClient(hub, "preview.stage")

	var _ preview.Broadcaster = hub
	hub.BroadcastFrame(preview.Frame{
		Module:     "stage",
		ChainIndex: 1,
		Colors:     []command.RGB{{R: 255}},
	})

	msg := receive(t, client)
	if msg.EventType != "preview.stage" {
		t.Errorf("event_type = %q, want preview.stage", msg.EventType)
	}
	payload, _ := msg.Payload.(map[string]any)
	if payload["chain_index"] != float64(1) {
		t.Errorf("payload = %v", msg.Payload)
	}
}

func TestHub_BroadcastDeviceEvent(t *testing.T) {
	hub := runningHub(t)
	client := subscribedClient(hub, ChannelDeviceEvent)

	hub.BroadcastDeviceEvent(hardware.Event{
		Device: "stage",
		Kind:   hardware.EventFault,
		Err:    errors.New("universe gone"),
		At:     time.Now(),
	})

	msg := receive(t, client)
	payload, _ := msg.Payload.(map[string]any)
	if payload["device"] != "stage" || payload["kind"] != string(hardware.EventFault) || payload["error"] != "universe gone" {
		t.Errorf("payload = %v", msg.Payload)
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	hub := runningHub(t)
	client := subscribedClient(hub, "preview.other")

	hub.BroadcastFrame(preview.Frame{Module: "stage"})

	select {
	case <-client.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := runningHub(t)
	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", hub.ClientCount())
	}

	client := subscribedClient(hub)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}
}

// ─── WebSocket Endpoint Tests ──────────────────────────────────────

func TestWebSocket_SubscribeAndReceive(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	sub := WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{"preview.stage"}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var resp WSMessage
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if resp.Type != WSTypeResponse || resp.ID != "1" {
		t.Fatalf("subscribe response = %+v", resp)
	}

	srv.hub.BroadcastFrame(preview.Frame{Module: "stage", Colors: []command.RGB{{G: 10}}})

	var ev WSMessage
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if ev.Type != WSTypeEvent || ev.EventType != "preview.stage" {
		t.Errorf("event = %+v", ev)
	}
}

func TestWebSocket_UnknownMessageType(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(WSMessage{Type: "dance", ID: "7"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var resp WSMessage
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if resp.Type != WSTypeError || resp.ID != "7" {
		t.Errorf("response = %+v", resp)
	}
}
