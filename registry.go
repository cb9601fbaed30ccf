package chatwire

import "sync"

type registryEntry struct {
	user User
	conn Conn
}

// Registry is the authoritative map of currently authenticated users.
// It is the only mutable state shared between sessions; every operation
// holds the lock for the duration of the map access and never across
// I/O.
type Registry struct {
	mu    sync.RWMutex
	users map[string]registryEntry
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]registryEntry)}
}

// Add registers a user atomically: it reports false and leaves the map
// untouched if the username is already present. Authentication relies
// on this being a single critical section, so two sessions racing for
// the same name can never both succeed.
func (r *Registry) Add(user User, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.users[user.Username]; taken {
		return false
	}
	r.users[user.Username] = registryEntry{user: user, conn: conn}
	return true
}

// CheckUniqueness reports whether username is currently unclaimed. The
// answer is advisory only; registration goes through Add.
func (r *Registry) CheckUniqueness(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, taken := r.users[username]
	return !taken
}

// Remove deregisters username. No-op if absent.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, username)
}

// Conn returns the connection handle for username.
func (r *Registry) Conn(username string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.users[username]
	return e.conn, ok
}

// Usernames returns all registered usernames. No ordering guaranteed.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	return names
}

// Len reports the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// ForEachConn snapshots every connection handle under the lock, then
// invokes fn once per handle with the lock released. Slow writes to one
// peer therefore never stall registry operations.
func (r *Registry) ForEachConn(fn func(Conn)) {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.users))
	for _, e := range r.users {
		conns = append(conns, e.conn)
	}
	r.mu.RUnlock()
	for _, c := range conns {
		fn(c)
	}
}
