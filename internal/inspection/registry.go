package inspection

import (
	"strings"
	"sync"

	"github.com/koustreak/schemadiff/internal/errs"
)

// Registry holds inspectors by key in registration order. It is safe for
// concurrent use, but changing it while a comparison runs is not supported.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]Inspector
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: map[string]Inspector{}}
}

// Builtins returns fresh instances of the built-in inspectors in their
// canonical order.
func Builtins() []Inspector {
	return []Inspector{
		Tables{},
		NewColumns(),
		PrimaryKeys{},
		NewForeignKeys(),
		NewIndexes(),
		NewUniqueConstraints(),
		NewCheckConstraints(),
		Enums{},
	}
}

// NewDefaultRegistry returns a registry holding the built-in inspectors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, in := range Builtins() {
		r.MustRegister(in)
	}
	return r
}

// Default is the process-wide registry used when none is given explicitly.
var Default = NewDefaultRegistry()

// ValidateKey rejects blank keys and keys with surrounding whitespace.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errs.New(errs.ErrKindInvalidInput, "inspector key must not be blank")
	}
	if strings.TrimSpace(key) != key {
		return errs.Newf(errs.ErrKindInvalidInput, "inspector key %q has surrounding whitespace", key)
	}
	return nil
}

// Register adds in under in.Key().
func (r *Registry) Register(in Inspector) error {
	key := in.Key()
	if err := ValidateKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byKey[key]; dup {
		return errs.Newf(errs.ErrKindInvalidInput, "inspector %q already registered", key)
	}
	r.byKey[key] = in
	r.order = append(r.order, key)
	return nil
}

// MustRegister is Register for package initialisation: an invalid
// inspector definition panics.
func (r *Registry) MustRegister(in Inspector) {
	if err := r.Register(in); err != nil {
		panic(err)
	}
}

// Unregister removes key and reports whether it was present.
func (r *Registry) Unregister(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[key]; !ok {
		return false
	}
	delete(r.byKey, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[key]
	return ok
}

// Get returns the inspector registered under key.
func (r *Registry) Get(key string) (Inspector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.byKey[key]
	return in, ok
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// All returns the registered inspectors in registration order.
func (r *Registry) All() []Inspector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Inspector, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Register adds in to Default.
func Register(in Inspector) error { return Default.Register(in) }

// MustRegister adds in to Default and panics on an invalid definition.
func MustRegister(in Inspector) { Default.MustRegister(in) }
