/*
Package xmlns maintains the XML namespace registry used to resolve
element namespaces into compact numeric IDs, and to map those IDs back
to their URI, preferred prefix and owning module.

The module name associated with a namespace is the key used to route
top-level protocol elements to their handlers.
*/
package xmlns

import (
	"fmt"
	"sync"

	"github.com/andaru/ncmgr/ncerr"
	"github.com/pkg/errors"
)

// ID is a registered namespace handle. The zero ID is the null namespace.
type ID uint16

// NullID is the ID of an absent or unresolved namespace
const NullID ID = 0

// maxID bounds the number of registered namespaces
const maxID = 0xffff

// Well known namespaces
const (
	NetconfURN      = "urn:ietf:params:xml:ns:netconf:base:1.0"
	NetconfPrefix   = "nc"
	NetconfModule   = "yuma-netconf"
	NCXURN          = "http://netconfcentral.org/ns/yuma-ncx"
	NCXPrefix       = "ncx"
	NCXModule       = "yuma-ncx"
	NotificationURN = "urn:ietf:params:xml:ns:netconf:notification:1.0"
	NotificationPfx = "ncn"
	NotificationMod = "notifications"
	XMLURN          = "http://www.w3.org/XML/1998/namespace"
	XSIURN          = "http://www.w3.org/2001/XMLSchema-instance"
	InvalidURN      = "INVALID"
	InvalidPrefix   = "inv"

	// DefaultModule owns elements which carry no namespace at all
	DefaultModule = NetconfModule
)

type entry struct {
	id     ID
	uri    string
	prefix string
	module string
}

// Registry maps namespace URIs to IDs. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byID  []*entry
	byURI map[string]*entry

	nc, ncx, ncn, xml, inv ID
}

// NewRegistry returns a Registry with the NETCONF base, yuma NCX,
// notification, XML, XSI and invalid namespaces pre-registered.
func NewRegistry() *Registry {
	r := &Registry{byURI: map[string]*entry{}}
	r.nc = r.mustRegister(NetconfURN, NetconfPrefix, NetconfModule)
	r.ncx = r.mustRegister(NCXURN, NCXPrefix, NCXModule)
	r.ncn = r.mustRegister(NotificationURN, NotificationPfx, NotificationMod)
	r.xml = r.mustRegister(XMLURN, "xml", "xml")
	r.mustRegister(XSIURN, "xsi", "xsi")
	r.inv = r.mustRegister(InvalidURN, InvalidPrefix, "invalid")
	return r
}

func (r *Registry) mustRegister(uri, prefix, module string) ID {
	id, err := r.Register(uri, prefix, module)
	if err != nil {
		panic(err)
	}
	return id
}

// Register adds a namespace and returns its ID. When prefix is empty a
// prefix of the form "n<id>" is generated.
func (r *Registry) Register(uri, prefix, module string) (ID, error) {
	if module == "" {
		return NullID, errors.Wrapf(ncerr.ErrInvalidName, "namespace %q: empty module name", uri)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byURI[uri]; ok {
		return NullID, errors.Wrapf(ncerr.ErrDuplicateEntry, "namespace %q", uri)
	}
	if len(r.byID) >= maxID {
		return NullID, errors.Wrap(ncerr.ErrInternalValue, "namespace registry full")
	}
	id := ID(len(r.byID) + 1)
	if prefix == "" {
		prefix = fmt.Sprintf("n%d", id)
	}
	e := &entry{id: id, uri: uri, prefix: prefix, module: module}
	r.byID = append(r.byID, e)
	r.byURI[uri] = e
	return id, nil
}

func (r *Registry) get(id ID) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == NullID || int(id) > len(r.byID) {
		return nil
	}
	return r.byID[id-1]
}

// FindByURI returns the ID registered for uri, or NullID.
func (r *Registry) FindByURI(uri string) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byURI[uri]; ok {
		return e.id
	}
	return NullID
}

// URI returns the namespace URI of id, or "" if id is not registered.
func (r *Registry) URI(id ID) string {
	if e := r.get(id); e != nil {
		return e.uri
	}
	return ""
}

// Prefix returns the preferred prefix of id, or "".
func (r *Registry) Prefix(id ID) string {
	if e := r.get(id); e != nil {
		return e.prefix
	}
	return ""
}

// Module returns the name of the module owning id, or "".
func (r *Registry) Module(id ID) string {
	if e := r.get(id); e != nil {
		return e.module
	}
	return ""
}

// Len returns the number of registered namespaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Registry) NetconfID() ID      { return r.nc }
func (r *Registry) NCXID() ID          { return r.ncx }
func (r *Registry) NotificationID() ID { return r.ncn }
func (r *Registry) XMLID() ID          { return r.xml }
func (r *Registry) InvalidID() ID      { return r.inv }
