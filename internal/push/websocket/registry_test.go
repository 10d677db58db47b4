package websocket

import (
	"sort"
	"testing"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	c := &Client{send: make(chan []byte, 1)}

	r.Add(c)
	open, bound := r.Counts()
	if open != 1 || bound != 0 {
		t.Fatalf("expected 1 open 0 bound, got %d/%d", open, bound)
	}

	usernames, wasOpen := r.Remove(c)
	if !wasOpen {
		t.Error("expected wasOpen for a registered channel")
	}
	if len(usernames) != 0 {
		t.Errorf("expected no bindings for unauthenticated channel, got %v", usernames)
	}

	// Removing again reports the channel as already gone.
	if _, wasOpen := r.Remove(c); wasOpen {
		t.Error("expected second remove to be a no-op")
	}
}

func TestRegistry_BindAndLookup(t *testing.T) {
	r := NewRegistry()
	c := &Client{send: make(chan []byte, 1)}

	r.Add(c)
	r.Bind("alice", c)

	got, ok := r.Lookup("alice")
	if !ok || got != c {
		t.Fatal("expected lookup to return the bound channel")
	}
	if _, ok := r.Lookup("bob"); ok {
		t.Error("expected no binding for bob")
	}
}

func TestRegistry_LastAuthenticationWins(t *testing.T) {
	r := NewRegistry()
	first := &Client{send: make(chan []byte, 1)}
	second := &Client{send: make(chan []byte, 1)}

	r.Add(first)
	r.Add(second)
	r.Bind("alice", first)
	r.Bind("alice", second)

	got, ok := r.Lookup("alice")
	if !ok || got != second {
		t.Fatal("expected newest binding to win")
	}

	// The superseded channel is still open and still receives broadcasts.
	open, bound := r.Counts()
	if open != 2 || bound != 1 {
		t.Errorf("expected 2 open 1 bound, got %d/%d", open, bound)
	}

	// Closing the superseded channel must not disturb the active binding.
	usernames, _ := r.Remove(first)
	if len(usernames) != 0 {
		t.Errorf("expected superseded channel to hold no binding, got %v", usernames)
	}
	if got, ok := r.Lookup("alice"); !ok || got != second {
		t.Error("expected alice still bound to the newest channel")
	}
}

func TestRegistry_RemoveDropsAllBindings(t *testing.T) {
	r := NewRegistry()
	c := &Client{send: make(chan []byte, 1)}

	r.Add(c)
	// The same channel can hold several bindings if it re-authenticates
	// as different users over its lifetime.
	r.Bind("alice", c)
	r.Bind("bob", c)

	usernames, _ := r.Remove(c)
	sort.Strings(usernames)
	if len(usernames) != 2 || usernames[0] != "alice" || usernames[1] != "bob" {
		t.Errorf("expected both bindings reported, got %v", usernames)
	}
	if _, ok := r.Lookup("alice"); ok {
		t.Error("expected alice binding removed")
	}
	if _, ok := r.Lookup("bob"); ok {
		t.Error("expected bob binding removed")
	}
	_, bound := r.Counts()
	if bound != 0 {
		t.Errorf("expected no bindings left, got %d", bound)
	}
}

func TestRegistry_OpenClientsIncludesUnauthenticated(t *testing.T) {
	r := NewRegistry()
	authed := &Client{send: make(chan []byte, 1)}
	anon := &Client{send: make(chan []byte, 1)}

	r.Add(authed)
	r.Add(anon)
	r.Bind("alice", authed)

	if got := len(r.OpenClients()); got != 2 {
		t.Errorf("expected 2 open channels, got %d", got)
	}
}
