// Package dedup keeps track of the feed entries a harvest run has already
// seen so that re-rendered elements are not processed twice.
package dedup

// Namespace separates the kinds of keys the registry tracks.
type Namespace int

const (
	Headers Namespace = iota
	SearchActivities
	ViewedLogs
	Records
	nrNamespaces
)

func (n Namespace) String() string {
	switch n {
	case Headers:
		return "header"
	case SearchActivities:
		return "search"
	case ViewedLogs:
		return "viewed"
	case Records:
		return "record"
	default:
		return "unknown"
	}
}

// Registry is a set of keys per namespace. Keys are never evicted. A
// Registry is owned by a single harvest run and is not safe for concurrent
// use.
type Registry struct {
	seen [nrNamespaces]map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.seen {
		r.seen[i] = map[string]struct{}{}
	}
	return r
}

// Has reports whether key was added to namespace ns.
func (r *Registry) Has(ns Namespace, key string) bool {
	if !ns.valid() {
		return false
	}
	_, found := r.seen[ns][key]
	return found
}

// Add registers key in namespace ns. Adding an invalid namespace is a no-op.
func (r *Registry) Add(ns Namespace, key string) {
	if !ns.valid() {
		return
	}
	r.seen[ns][key] = struct{}{}
}

// Observe adds key to ns and reports whether it was new.
func (r *Registry) Observe(ns Namespace, key string) bool {
	if r.Has(ns, key) {
		return false
	}
	r.Add(ns, key)
	return true
}

// Len returns the number of keys in namespace ns.
func (r *Registry) Len(ns Namespace) int {
	if !ns.valid() {
		return 0
	}
	return len(r.seen[ns])
}

func (n Namespace) valid() bool {
	return n >= 0 && n < nrNamespaces
}
