package schema

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Unbounded is the MaxOccurs of an Object which may repeat without limit
const Unbounded = -1

// Object describes an element of a reply.
type Object struct {
	// Name.Space is the namespace URI, or empty to match any namespace
	Name xml.Name
	// MinOccurs and MaxOccurs constrain how often the element appears in
	// its parent.
	MinOccurs int
	MaxOccurs int
	// Open objects accept any content.
	Open     bool
	Children []*Object
	parent   *Object
}

// Option is an Object option function
type Option func(*Object)

func WithMinOccurs(n int) Option { return func(o *Object) { o.MinOccurs = n } }
func WithMaxOccurs(n int) Option { return func(o *Object) { o.MaxOccurs = n } }

// Mandatory requires exactly one occurrence
func Mandatory() Option { return func(o *Object) { o.MinOccurs, o.MaxOccurs = 1, 1 } }

// Open marks the object as accepting any content (anyxml).
func Open() Option { return func(o *Object) { o.Open = true } }

// Element returns an optional, non-repeating element object.
func Element(name xml.Name, opts ...Option) *Object {
	o := &Object{Name: name, MaxOccurs: 1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AnyXML returns an open element object.
func AnyXML(name xml.Name, opts ...Option) *Object {
	return Element(name, append([]Option{Open()}, opts...)...)
}

// Append adds children to o and returns o.
func (o *Object) Append(children ...*Object) *Object {
	for _, c := range children {
		c.parent = o
		o.Children = append(o.Children, c)
	}
	return o
}

// Parent returns the enclosing object, if any
func (o *Object) Parent() *Object { return o.parent }

// Matches reports whether o describes an element named local in
// namespace ns. An element without a namespace matches any object
// namespace.
func (o *Object) Matches(ns, local string) bool {
	return o.Name.Local == local && (o.Name.Space == "" || ns == "" || o.Name.Space == ns)
}

// Child returns the child object matching ns and local.
func (o *Object) Child(ns, local string) *Object {
	for _, c := range o.Children {
		if c.Matches(ns, local) {
			return c
		}
	}
	return nil
}

// Path returns the slash separated local names from the root object.
func (o *Object) Path() string {
	var parts []string
	for it := o; it != nil; it = it.parent {
		parts = append([]string{it.Name.Local}, parts...)
	}
	return "/" + strings.Join(parts, "/")
}

func (o *Object) String() string {
	if o.Name.Space == "" {
		return "<" + o.Name.Local + ">"
	}
	return fmt.Sprintf("<%s xmlns=%q>", o.Name.Local, o.Name.Space)
}
