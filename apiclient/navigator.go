package apiclient

import "sync"

// Navigator is the UI location logout redirects through
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

var _ Navigator = (*MemoryNavigator)(nil)

// MemoryNavigator tracks a location in memory and records every navigation
type MemoryNavigator struct {
	mu      sync.RWMutex
	path    string
	history []string
}

func NewMemoryNavigator(start string) *MemoryNavigator {
	return &MemoryNavigator{path: start}
}

func (n *MemoryNavigator) CurrentPath() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.path
}

func (n *MemoryNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
	n.history = append(n.history, path)
}

// History returns every path navigated to, oldest first
func (n *MemoryNavigator) History() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.history...)
}

// NavigatorFunc adapts a function to Navigator. The current path is whatever
// was last navigated to, starting at start.
func NavigatorFunc(start string, fn func(path string)) Navigator {
	return &funcNavigator{MemoryNavigator: NewMemoryNavigator(start), fn: fn}
}

type funcNavigator struct {
	*MemoryNavigator
	fn func(path string)
}

func (n *funcNavigator) Navigate(path string) {
	n.MemoryNavigator.Navigate(path)
	n.fn(path)
}
