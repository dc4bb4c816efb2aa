// Package world provides the world-availability oracle used to detect
// orphaned shops on reload.
package world

import "sync"

// StaticOracle answers availability from a fixed set of world names,
// typically fed from configuration. Worlds can be added or removed at
// runtime when the host attaches or detaches them.
type StaticOracle struct {
	mu     sync.RWMutex
	worlds map[string]struct{}
}

// NewStaticOracle creates an oracle that knows the given worlds.
func NewStaticOracle(names ...string) *StaticOracle {
	o := &StaticOracle{worlds: make(map[string]struct{}, len(names))}
	for _, name := range names {
		o.worlds[name] = struct{}{}
	}
	return o
}

// WorldAvailable reports whether the named world is attached.
func (o *StaticOracle) WorldAvailable(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.worlds[name]
	return ok
}

// Attach makes a world available.
func (o *StaticOracle) Attach(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.worlds[name] = struct{}{}
}

// Detach removes a world.
func (o *StaticOracle) Detach(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.worlds, name)
}
