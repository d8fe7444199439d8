package camera

import (
	"sort"
	"sync"
)

// Permission names a runtime permission the shell asks the user for
type Permission string

const (
	PermissionCamera    Permission = "camera"
	PermissionMediaRead Permission = "media_read"
)

// Grant is the answer recorded for a permission
type Grant int

const (
	GrantUnknown Grant = iota
	GrantAllowed
	GrantDenied
)

// Permissions records per-session permission answers and the requests still
// waiting for the shell to answer
type Permissions struct {
	mu       sync.Mutex
	grants   map[Permission]Grant
	pending  map[Permission]bool
	watchers map[int]func(Permission, bool)
	next     int
}

// NewPermissions creates an empty registry
func NewPermissions() *Permissions {
	return &Permissions{
		grants:   make(map[Permission]Grant),
		pending:  make(map[Permission]bool),
		watchers: make(map[int]func(Permission, bool)),
	}
}

// Status returns the recorded answer for p
func (p *Permissions) Status(perm Permission) Grant {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grants[perm]
}

// Request returns true when perm is already allowed. Otherwise perm is queued
// for the shell to ask about.
func (p *Permissions) Request(perm Permission) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grants[perm] == GrantAllowed {
		return true
	}
	p.pending[perm] = true
	return false
}

// Pending lists the permissions awaiting an answer
func (p *Permissions) Pending() []Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Permission, 0, len(p.pending))
	for perm := range p.pending {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve records the user's answer and notifies watchers
func (p *Permissions) Resolve(perm Permission, granted bool) {
	p.mu.Lock()
	if granted {
		p.grants[perm] = GrantAllowed
	} else {
		p.grants[perm] = GrantDenied
	}
	delete(p.pending, perm)
	watchers := make([]func(Permission, bool), 0, len(p.watchers))
	for _, fn := range p.watchers {
		watchers = append(watchers, fn)
	}
	p.mu.Unlock()

	for _, fn := range watchers {
		fn(perm, granted)
	}
}

// Watch registers fn for every Resolve and returns a function removing it
func (p *Permissions) Watch(fn func(Permission, bool)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.watchers[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}
}
