package websocket

import "sync"

// Registry tracks every open push channel plus the username bindings
// established by authenticate messages. One mutex protects both maps: the
// channel layer runs each connection on its own goroutine, so multi-step
// read-then-write sequences are not otherwise safe.
//
// A username maps to at most one channel. The last authentication wins:
// binding a username already bound to another channel replaces the entry
// without closing the superseded channel. The superseded channel is still
// in the open set, so broadcasts reach it; its eventual close removes it
// from both maps via Remove's identity check.
type Registry struct {
	mu     sync.Mutex
	open   map[*Client]struct{}
	byUser map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		open:   make(map[*Client]struct{}),
		byUser: make(map[string]*Client),
	}
}

func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open[c] = struct{}{}
}

// Bind associates username with c, superseding any previous binding.
func (r *Registry) Bind(username string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[username] = c
}

// Remove drops c from the open set and removes every username entry that
// still points at c, returning all of them: a channel that re-authenticated
// as different users over its lifetime holds several bindings. A channel
// that closed before ever authenticating has no binding, which makes the
// second half a no-op.
func (r *Registry) Remove(c *Client) (usernames []string, wasOpen bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.open[c]; ok {
		delete(r.open, c)
		wasOpen = true
	}

	for user, client := range r.byUser {
		if client == c {
			delete(r.byUser, user)
			usernames = append(usernames, user)
		}
	}
	return usernames, wasOpen
}

func (r *Registry) Lookup(username string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byUser[username]
	return c, ok
}

// OpenClients returns a snapshot of every open channel, authenticated or not.
func (r *Registry) OpenClients() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	clients := make([]*Client, 0, len(r.open))
	for c := range r.open {
		clients = append(clients, c)
	}
	return clients
}

func (r *Registry) Counts() (open, bound int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open), len(r.byUser)
}
