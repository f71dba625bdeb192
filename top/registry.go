/*
Package top routes the first element of an incoming message to the
handler registered for its owning module and element name.

A Registry is explicitly constructed and shared by the sessions that
dispatch with it. Lookups take a read lock; registration changes only
affect future lookups, so a handler already running is unaffected by its
own removal.
*/
package top

import (
	"reflect"
	"regexp"
	"sync"

	"github.com/andaru/ncmgr/logging"
	"github.com/andaru/ncmgr/ncerr"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// identifiers are YANG identifiers
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Key is an (owner module, element name) pair
type Key struct {
	Owner   string
	Element string
}

type entry[H any] struct {
	key     Key
	handler H
}

// Registry maps (owner, element) pairs to handlers of type H.
type Registry[H any] struct {
	mu      sync.RWMutex
	entries []entry[H]
	ready   bool
	log     zerolog.Logger
}

// NewRegistry returns an uninitialized Registry; it is initialized on
// first registration.
func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{log: logging.For("top")}
}

// Init prepares the registry. It is safe to call more than once.
func (r *Registry[H]) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initLocked()
}

func (r *Registry[H]) initLocked() {
	if !r.ready {
		r.entries = nil
		r.ready = true
	}
}

// Cleanup removes every entry and returns the registry to its
// uninitialized state. It may be called on a registry never initialized.
func (r *Registry[H]) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.ready = false
}

// Register adds a handler for (owner, element).
func (r *Registry[H]) Register(owner, element string, handler H) error {
	switch {
	case !identifier.MatchString(owner):
		return errors.Wrapf(ncerr.ErrInvalidName, "owner %q", owner)
	case !identifier.MatchString(element):
		return errors.Wrapf(ncerr.ErrInvalidName, "element %q", element)
	case isNil(handler):
		return errors.Wrapf(ncerr.ErrInternalPtr, "nil handler for %s:%s", owner, element)
	}
	key := Key{Owner: owner, Element: element}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.initLocked()
	if r.find(key) >= 0 {
		err := errors.Wrapf(ncerr.ErrDuplicateEntry, "%s:%s", owner, element)
		r.log.Error().Bool("internal", true).Err(err).Msg("register")
		return err
	}
	r.entries = append(r.entries, entry[H]{key: key, handler: handler})
	return nil
}

// Unregister removes the handler for (owner, element).
func (r *Registry[H]) Unregister(owner, element string) error {
	key := Key{Owner: owner, Element: element}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(key)
	if i < 0 {
		err := errors.Wrapf(ncerr.ErrNotFound, "%s:%s", owner, element)
		r.log.Warn().Err(err).Msg("unregister")
		return err
	}
	r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
	return nil
}

// FindHandler returns the handler for (owner, element), if any.
func (r *Registry[H]) FindHandler(owner, element string) (handler H, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.find(Key{Owner: owner, Element: element}); i >= 0 {
		return r.entries[i].handler, true
	}
	return handler, false
}

// Len returns the number of registered handlers.
func (r *Registry[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns the registered keys in registration order.
func (r *Registry[H]) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, 0, len(r.entries))
	for _, e := range r.entries {
		keys = append(keys, e.key)
	}
	return keys
}

func (r *Registry[H]) find(key Key) int {
	for i, e := range r.entries {
		if e.key == key {
			return i
		}
	}
	return -1
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
