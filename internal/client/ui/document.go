package ui

import "sync"

// SkinAttribute is the root attribute that carries the active skin.
const SkinAttribute = "data-skin"

// Document receives presentation attributes.
type Document interface {
	SetAttribute(name, value string)
	RemoveAttribute(name string)
}

// Attributes is an in-memory Document.
type Attributes struct {
	mu    sync.RWMutex
	attrs map[string]string
}

func (a *Attributes) SetAttribute(name, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.attrs == nil {
		a.attrs = map[string]string{}
	}
	a.attrs[name] = value
}

func (a *Attributes) RemoveAttribute(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.attrs, name)
}

// Attribute returns the value of name.
func (a *Attributes) Attribute(name string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.attrs[name]
	return v, ok
}
