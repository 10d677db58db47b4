package websocket

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	commonerrors "github.com/bookshare/server/internal/common/errors"
	"github.com/bookshare/server/internal/common/jwtverify"
	"github.com/bookshare/server/internal/common/logger"
	"github.com/bookshare/server/internal/observability/metrics"
)

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (jwtverify.Claims, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (jwtverify.Claims, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, token)
	}
	return jwtverify.Claims{}, commonerrors.ErrInvalidToken
}

func setupHub() (*Hub, *mockVerifier) {
	verifier := &mockVerifier{}
	log := logger.New(io.Discard, "test", logger.CRITICAL)
	return NewHub(verifier, 5*time.Second, log), verifier
}

func newTestClient(hub *Hub, bufSize int) *Client {
	return &Client{hub: hub, send: make(chan []byte, bufSize), done: make(chan struct{})}
}

func drain(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.send:
		return data
	default:
		t.Fatal("expected a queued message")
		return nil
	}
}

func TestHub_Authenticate_BindsOnValidToken(t *testing.T) {
	hub, verifier := setupHub()
	verifier.verifyFunc = func(ctx context.Context, token string) (jwtverify.Claims, error) {
		if token != "good-token" {
			t.Errorf("expected good-token, got %q", token)
		}
		return jwtverify.Claims{Username: "alice"}, nil
	}

	c := newTestClient(hub, 4)
	hub.registry.Add(c)

	username, ok := hub.Authenticate(c, "good-token")
	if !ok || username != "alice" {
		t.Fatalf("expected successful bind for alice, got %q/%v", username, ok)
	}

	var ack AuthResult
	if err := json.Unmarshal(drain(t, c), &ack); err != nil {
		t.Fatalf("invalid ack: %v", err)
	}
	if !ack.Authenticated {
		t.Error("expected positive ack")
	}

	if got, bound := hub.registry.Lookup("alice"); !bound || got != c {
		t.Error("expected registry binding for alice")
	}
}

func TestHub_Authenticate_FailureKeepsChannelOpen(t *testing.T) {
	hub, _ := setupHub()

	c := newTestClient(hub, 4)
	hub.registry.Add(c)

	username, ok := hub.Authenticate(c, "bad-token")
	if ok || username != "" {
		t.Fatalf("expected failed authentication, got %q/%v", username, ok)
	}

	var ack AuthResult
	if err := json.Unmarshal(drain(t, c), &ack); err != nil {
		t.Fatalf("invalid ack: %v", err)
	}
	if ack.Authenticated {
		t.Error("expected negative ack")
	}
	if ack.Message == "" {
		t.Error("expected failure message in ack")
	}

	// The channel survives a failed attempt and stays eligible for
	// broadcasts and retries.
	if open, _ := hub.registry.Counts(); open != 1 {
		t.Errorf("expected channel still open, got %d", open)
	}
}

func TestHub_Broadcast_ReachesEveryOpenChannel(t *testing.T) {
	hub, verifier := setupHub()
	verifier.verifyFunc = func(ctx context.Context, token string) (jwtverify.Claims, error) {
		return jwtverify.Claims{Username: token}, nil
	}

	authed := newTestClient(hub, 4)
	anon := newTestClient(hub, 4)
	hub.registry.Add(authed)
	hub.registry.Add(anon)
	hub.Authenticate(authed, "alice")
	drain(t, authed)

	payload := []byte(`{"event":"deleted","payload":{"id":1}}`)
	if delivered := hub.Broadcast(payload); delivered != 2 {
		t.Fatalf("expected delivery to 2 channels, got %d", delivered)
	}
	if string(drain(t, authed)) != string(payload) {
		t.Error("authenticated channel got wrong payload")
	}
	if string(drain(t, anon)) != string(payload) {
		t.Error("unauthenticated channel got wrong payload")
	}
}

func TestHub_SendToUser_OnlyOwnerChannel(t *testing.T) {
	hub, verifier := setupHub()
	verifier.verifyFunc = func(ctx context.Context, token string) (jwtverify.Claims, error) {
		return jwtverify.Claims{Username: token}, nil
	}

	alice := newTestClient(hub, 4)
	bob := newTestClient(hub, 4)
	hub.registry.Add(alice)
	hub.registry.Add(bob)
	hub.Authenticate(alice, "alice")
	hub.Authenticate(bob, "bob")
	drain(t, alice)
	drain(t, bob)

	payload := []byte(`{"event":"created"}`)
	if !hub.SendToUser("alice", payload) {
		t.Fatal("expected delivery to alice")
	}
	if string(drain(t, alice)) != string(payload) {
		t.Error("alice got wrong payload")
	}
	if len(bob.send) != 0 {
		t.Error("bob must not receive alice's event")
	}
}

func TestHub_SendToUser_OfflineIsDropped(t *testing.T) {
	hub, _ := setupHub()

	if hub.SendToUser("nobody", []byte(`{}`)) {
		t.Error("expected silent drop for offline user")
	}
}

func TestHub_Enqueue_DropsWhenBufferFull(t *testing.T) {
	hub, _ := setupHub()

	c := newTestClient(hub, 1)
	hub.registry.Add(c)

	first := hub.Broadcast([]byte(`1`))
	second := hub.Broadcast([]byte(`2`))
	if first != 1 {
		t.Errorf("expected first event queued, got %d", first)
	}
	if second != 0 {
		t.Errorf("expected second event dropped on full buffer, got %d", second)
	}
}

func TestHub_RunLifecycle(t *testing.T) {
	hub, _ := setupHub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := newTestClient(hub, 4)
	hub.Register(c)
	hub.Unregister(c)

	// Unregister signals writePump shutdown through done.
	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for unregister")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for hub shutdown")
	}
}

func TestHub_SendAfterDisconnectDoesNotPanic(t *testing.T) {
	hub, _ := setupHub()

	gone := newTestClient(hub, 4)
	active := newTestClient(hub, 4)
	hub.registry.Add(gone)
	hub.registry.Add(active)

	// A REST goroutine takes its snapshot before the disconnect lands.
	snapshot := hub.registry.OpenClients()
	hub.handleUnregister(gone)

	payload := []byte(`{"event":"deleted","payload":{"id":1}}`)
	for _, c := range snapshot {
		hub.enqueue(c, payload, "broadcast")
	}

	if string(drain(t, active)) != string(payload) {
		t.Error("remaining open channel must still receive the event")
	}
}

func TestHub_ReauthenticationBalancesBoundGauge(t *testing.T) {
	hub, verifier := setupHub()
	verifier.verifyFunc = func(ctx context.Context, token string) (jwtverify.Claims, error) {
		return jwtverify.Claims{Username: token}, nil
	}

	before := testutil.ToFloat64(metrics.BoundPushConnections)

	// One channel binding twice holds two registry entries; its close must
	// give both back.
	c := newTestClient(hub, 4)
	hub.registry.Add(c)
	hub.Authenticate(c, "alice")
	drain(t, c)
	hub.Authenticate(c, "bob")
	drain(t, c)

	hub.handleUnregister(c)

	if after := testutil.ToFloat64(metrics.BoundPushConnections); after != before {
		t.Errorf("expected bound gauge back at %v, got %v", before, after)
	}
}
