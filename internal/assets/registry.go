// Package assets holds optional visual assets, such as provider logos, that
// workers discover at runtime. One Registry is built at startup and injected
// where needed.
package assets

import (
	"sort"
	"strings"
	"sync"
)

const KindLogo = "logo"

// Asset is a named reference to an externally hosted image.
type Asset struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (a Asset) key() string {
	return a.Kind + "/" + strings.ToLower(strings.TrimSpace(a.Name))
}

// Registry is safe for concurrent use. Subscribers are called synchronously
// after each new or changed asset and must not call back into the registry.
type Registry struct {
	mu     sync.RWMutex
	assets map[string]Asset
	subs   map[int]func(Asset)
	nextID int
}

func NewRegistry() *Registry {
	return &Registry{
		assets: make(map[string]Asset),
		subs:   make(map[int]func(Asset)),
	}
}

// Register stores a and notifies subscribers. Assets without a name or URL
// are ignored. It reports whether anything changed.
func (r *Registry) Register(a Asset) bool {
	if strings.TrimSpace(a.Name) == "" || a.URL == "" {
		return false
	}
	if a.Kind == "" {
		a.Kind = KindLogo
	}

	r.mu.Lock()
	k := a.key()
	if existing, ok := r.assets[k]; ok && existing.URL == a.URL {
		r.mu.Unlock()
		return false
	}
	r.assets[k] = a
	subs := make([]func(Asset), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(a)
	}
	return true
}

// Get looks up an asset by kind and case-insensitive name.
func (r *Registry) Get(kind, name string) (Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[Asset{Kind: kind, Name: name}.key()]
	return a, ok
}

// List returns all assets of kind sorted by name.
func (r *Registry) List(kind string) []Asset {
	r.mu.RLock()
	out := make([]Asset, 0, len(r.assets))
	for _, a := range r.assets {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}

// Subscribe registers fn for future registrations. The returned func removes
// it and is safe to call more than once.
func (r *Registry) Subscribe(fn func(Asset)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}
