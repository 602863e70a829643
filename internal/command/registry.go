package command

import (
	"sync"
	"time"
)

// Registry holds in-flight and recently finished commands, keyed by
// command id. It is an explicitly owned store injected into the engine
// and the resource layer, not a package-level singleton.
//
// Entries are evicted only by Sweep, which callers run opportunistically
// (before each resource enumeration) rather than on a timer. A caller
// that never sweeps accumulates entries until the process exits; that
// is a deliberate simplicity trade-off.
type Registry struct {
	mu       sync.Mutex
	commands map[string]*Command
	order    []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// add stores a new command. Ids come from newID and are never reused.
func (r *Registry) add(cmd *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.ID] = cmd
	r.order = append(r.order, cmd.ID)
}

// Get returns a snapshot of the command with the given id.
func (r *Registry) Get(id string) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd, ok := r.commands[id]
	if !ok {
		return Command{}, false
	}
	return *cmd, true
}

// ListActive returns all held command ids in insertion order.
func (r *Registry) ListActive() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Sweep removes every entry older than maxAge regardless of status and
// returns the removed ids. Removal is lossy: a caller that never
// queried in time gets not-found afterwards.
func (r *Registry) Sweep(maxAge time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	kept := r.order[:0]
	for _, id := range r.order {
		cmd := r.commands[id]
		if cmd != nil && cmd.StartTime.Before(cutoff) {
			delete(r.commands, id)
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return removed
}

// transition applies fn to the stored command under the lock and
// returns the updated snapshot. Terminal entries are returned
// unchanged; a completed or errored command never reverts.
func (r *Registry) transition(id string, fn func(*Command)) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cmd, ok := r.commands[id]
	if !ok {
		return Command{}, false
	}
	if !cmd.Terminal() {
		fn(cmd)
	}
	return *cmd, true
}
