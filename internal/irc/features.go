package irc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ircstate/ircstate/internal/track"
)

// Features is a named registry of extension components attached to a
// client. Each value registers under a well-known name so unrelated
// code can find collaborators without package-level globals.
type Features struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewFeatures creates an empty registry.
func NewFeatures() *Features {
	return &Features{entries: make(map[string]any)}
}

// Register attaches a feature under name. Registering the same name
// twice is refused: the first owner keeps it.
func (f *Features) Register(name string, feature any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[name]; ok {
		return fmt.Errorf("feature %q is already registered", name)
	}
	f.entries[name] = feature
	return nil
}

// Lookup returns the feature registered under name.
func (f *Features) Lookup(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.entries[name]
	return v, ok
}

// Names returns the registered feature names, sorted.
func (f *Features) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tracker returns the registered state tracker, if one is attached.
func (f *Features) Tracker() (*track.Tracker, bool) {
	v, ok := f.Lookup(track.FeatureName)
	if !ok {
		return nil, false
	}
	t, ok := v.(*track.Tracker)
	return t, ok
}
