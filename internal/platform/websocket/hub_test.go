package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/odonto/internal/platform/db"
)

func newClient(hub *Hub, tenant string, topics ...string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		Tenant: tenant,
		Topics: topics,
		Send:   make(chan []byte, 16),
		hub:    hub,
	}
}

func tenantCtx(tenant string) context.Context {
	return context.WithValue(context.Background(), db.TenantIDKey, tenant)
}

func TestHub_RegisterClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newClient(hub, "acme", "acme.agenda")

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount("acme.agenda") != 1 {
		t.Fatalf("expected 1 client on acme.agenda, got %d", hub.TopicCount("acme.agenda"))
	}
}

func TestHub_RegisterDropsForeignTenantTopics(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newClient(hub, "acme", "acme.agenda", "other.agenda")

	hub.Register(client)

	if hub.TopicCount("other.agenda") != 0 {
		t.Fatal("client subscribed to another tenant's topic")
	}
	if len(client.Topics) != 1 {
		t.Fatalf("expected 1 topic, got %v", client.Topics)
	}
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newClient(hub, "acme", "acme.ledger")

	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 || hub.TopicCount("acme.ledger") != 0 {
		t.Fatal("client still registered")
	}
	if _, ok := <-client.Send; ok {
		t.Fatal("expected Send channel to be closed")
	}
}

func TestHub_BroadcastToTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	sub := newClient(hub, "acme", "acme.patients")
	other := newClient(hub, "acme", "acme.ledger")
	hub.Register(sub)
	hub.Register(other)

	hub.Broadcast(Event{Topic: "acme.patients", Resource: ResourcePatients, Action: "updated"})

	select {
	case msg := <-sub.Send:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Action != "updated" {
			t.Errorf("Action = %q, want updated", got.Action)
		}
	default:
		t.Fatal("subscriber did not receive the event")
	}
	select {
	case <-other.Send:
		t.Fatal("non-subscriber received the event")
	default:
	}
}

func TestHub_BroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := &Client{ID: "slow", Tenant: "acme", Topics: []string{"acme.agenda"}, Send: make(chan []byte, 1), hub: hub}
	hub.Register(client)

	hub.Broadcast(Event{Topic: "acme.agenda"})
	hub.Broadcast(Event{Topic: "acme.agenda"})

	if len(client.Send) != 1 {
		t.Fatalf("expected 1 buffered message, got %d", len(client.Send))
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newClient(hub, "acme")
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{"acme.agenda", "acme.agenda", "beta.agenda"}})
	if hub.TopicCount("acme.agenda") != 1 || len(client.Topics) != 1 {
		t.Fatalf("unexpected topics %v", client.Topics)
	}
	if hub.TopicCount("beta.agenda") != 0 {
		t.Fatal("subscribed to another tenant's topic")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{"acme.agenda"}})
	if hub.TopicCount("acme.agenda") != 0 || len(client.Topics) != 0 {
		t.Fatalf("expected no topics, got %v", client.Topics)
	}
}

func TestHub_NotifyUsesTenantTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newClient(hub, "acme", "acme.ledger")
	hub.Register(client)

	id := uuid.New()
	hub.Notify(tenantCtx("acme"), ResourceLedger, "created", id, map[string]float64{"amount": 150})

	select {
	case msg := <-client.Send:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Topic != "acme.ledger" || got.ResourceID != id.String() {
			t.Errorf("unexpected event %+v", got)
		}
		if !strings.Contains(string(got.Data), "150") {
			t.Errorf("Data = %s", got.Data)
		}
	default:
		t.Fatal("expected event")
	}
}

func TestHub_NotifyWithoutTenantIsDropped(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newClient(hub, "acme", "acme.ledger")
	hub.Register(client)

	hub.Notify(context.Background(), ResourceLedger, "created", uuid.New(), nil)

	if len(client.Send) != 0 {
		t.Fatal("event without tenant must not be delivered")
	}
}

func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newClient(hub, "acme", "acme.agenda")
			hub.Register(c)
			hub.Broadcast(Event{Topic: "acme.agenda"})
			hub.Unregister(c)
		}()
	}
	wg.Wait()
	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHandler_RequiresTenant(t *testing.T) {
	h := NewHandler(NewHub(zerolog.Nop()), nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleConnect(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_FullUpgrade(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	h := NewHandler(hub, nil)

	e := echo.New()
	g := e.Group("", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(tenantCtx("acme")))
			return next(c)
		}
	})
	h.RegisterRoutes(g)

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.TopicCount("acme.agenda") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.TopicCount("acme.agenda") != 1 {
		t.Fatal("client was not subscribed to its tenant topics")
	}

	hub.Notify(tenantCtx("acme"), ResourceAgenda, "created", uuid.New(), nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if received.Resource != ResourceAgenda || received.Action != "created" {
		t.Fatalf("unexpected event %+v", received)
	}
}
