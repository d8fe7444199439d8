package navigation

import (
	"sync"
)

// NavOptions modify a Navigate call
type NavOptions struct {
	// PopUpTo pops frames above the topmost entry matching this route or pattern
	PopUpTo string `json:"pop_up_to,omitempty"`
	// Inclusive also pops the PopUpTo entry itself
	Inclusive bool `json:"inclusive,omitempty"`
	// SingleTop skips the push when the top entry already shows the route
	SingleTop bool `json:"single_top,omitempty"`
}

// Navigator is a back stack of route entries
type Navigator struct {
	mu    sync.RWMutex
	table *Table
	stack []Entry
}

// NewNavigator creates a Navigator whose stack holds only start
func NewNavigator(table *Table, start string) (*Navigator, error) {
	entry, err := table.Match(start)
	if err != nil {
		return nil, err
	}
	return &Navigator{table: table, stack: []Entry{entry}}, nil
}

// Current returns the top entry
func (n *Navigator) Current() Entry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.stack[len(n.stack)-1]
}

// Routes returns the concrete routes of the back stack, bottom first
func (n *Navigator) Routes() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.stack))
	for i, e := range n.stack {
		out[i] = e.Route
	}
	return out
}

// Navigate pushes route, after popping the range named by opts
func (n *Navigator) Navigate(route string, opts NavOptions) (Entry, error) {
	entry, err := n.table.Match(route)
	if err != nil {
		return Entry{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if opts.PopUpTo != "" {
		n.popUpToLocked(opts.PopUpTo, opts.Inclusive)
	}
	if opts.SingleTop && len(n.stack) > 0 && n.stack[len(n.stack)-1].Route == entry.Route {
		return n.stack[len(n.stack)-1], nil
	}
	n.stack = append(n.stack, entry)
	return entry, nil
}

// PopBackStack pops the top entry. The last entry is never popped; false is
// returned when there was nothing to pop.
func (n *Navigator) PopBackStack() (Entry, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stack) <= 1 {
		return n.stack[0], false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return n.stack[len(n.stack)-1], true
}

// PopTo pops frames above route (and route itself when inclusive). It reports
// false, leaving the stack untouched, when route is not on the stack or the
// pop would empty it.
func (n *Navigator) PopTo(route string, inclusive bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	idx := n.indexLocked(route)
	if idx < 0 || (inclusive && idx == 0) {
		return false
	}
	n.popUpToLocked(route, inclusive)
	return true
}

// Restore replaces the stack with previously saved routes
func (n *Navigator) Restore(routes []string) error {
	if len(routes) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(routes))
	for _, r := range routes {
		entry, err := n.table.Match(r)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	n.mu.Lock()
	n.stack = entries
	n.mu.Unlock()
	return nil
}

func (n *Navigator) indexLocked(route string) int {
	for i := len(n.stack) - 1; i >= 0; i-- {
		if n.stack[i].Route == route || n.stack[i].Pattern == route {
			return i
		}
	}
	return -1
}

// popUpToLocked pops above the topmost match; no-op when route is absent
func (n *Navigator) popUpToLocked(route string, inclusive bool) {
	idx := n.indexLocked(route)
	if idx < 0 {
		return
	}
	if inclusive {
		n.stack = n.stack[:idx]
		return
	}
	n.stack = n.stack[:idx+1]
}
