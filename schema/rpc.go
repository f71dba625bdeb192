package schema

import (
	"encoding/xml"
	"sync"

	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/xmlns"
	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
)

const nsNC = xmlns.NetconfURN

var (
	nameRPC      = xml.Name{Space: nsNC, Local: "rpc"}
	nameRPCReply = xml.Name{Space: nsNC, Local: "rpc-reply"}
	nameRPCError = xml.Name{Space: nsNC, Local: "rpc-error"}
	nameOK       = xml.Name{Space: nsNC, Local: "ok"}
	nameData     = xml.Name{Space: nsNC, Local: "data"}
)

// RPC describes a protocol operation.
type RPC struct {
	Module string
	Name   xml.Name
	// Output describes the reply content. A nil Output accepts only
	// <ok/> (or <rpc-error>) replies.
	Output *Object
}

func (r *RPC) String() string { return r.Module + ":" + r.Name.Local }

// NewRPC returns an RPC whose reply carries the output children, or
// only <ok/> if there are none.
func NewRPC(module string, name xml.Name, output ...*Object) *RPC {
	rpc := &RPC{Module: module, Name: name}
	if len(output) > 0 {
		rpc.Output = Element(nameRPCReply).Append(output...)
	}
	return rpc
}

var generic = &RPC{Module: xmlns.NetconfModule, Name: xml.Name{Local: "any"}, Output: AnyXML(nameRPCReply)}

// Generic returns the RPC used to parse replies to unknown requests.
// It accepts any reply content.
func Generic() *RPC { return generic }

// Set holds RPC definitions. It is safe for concurrent use.
type Set struct {
	mu    sync.RWMutex
	rpcs  []*RPC
	reply *Object
}

// NewSet returns a Set containing the RFC6241 operations.
func NewSet() *Set {
	s := &Set{reply: AnyXML(nameRPCReply, Mandatory())}
	for _, rpc := range baseRPCs() {
		if err := s.Register(rpc); err != nil {
			panic(err)
		}
	}
	return s
}

// Register adds rpc to the set.
func (s *Set) Register(rpc *RPC) error {
	if rpc == nil {
		return ncerr.ErrInternalPtr
	}
	if rpc.Name.Local == "" {
		return errors.Wrap(ncerr.ErrInvalidName, "rpc has no name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(rpc.Name.Space, rpc.Name.Local) != nil {
		return errors.Wrapf(ncerr.ErrDuplicateEntry, "rpc %s", rpc)
	}
	s.rpcs = append(s.rpcs, rpc)
	return nil
}

// FindRPC returns the RPC named local in namespace ns.
func (s *Set) FindRPC(ns, local string) (*RPC, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rpc := s.find(ns, local)
	return rpc, rpc != nil
}

func (s *Set) find(ns, local string) *RPC {
	for _, rpc := range s.rpcs {
		if rpc.Name.Local == local && rpc.Name.Space == ns {
			return rpc
		}
	}
	return nil
}

// RPCFor returns the RPC for the operation element of a request
// payload, or Generic if the operation is not known.
func (s *Set) RPCFor(payload *xmlquery.Node) *RPC {
	if payload != nil {
		if rpc, ok := s.FindRPC(payload.NamespaceURI, payload.Data); ok {
			return rpc
		}
	}
	return Generic()
}

// ReplyObject returns the <rpc-reply> envelope object.
func (s *Set) ReplyObject() *Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reply
}

func baseRPCs() []*RPC {
	nc := func(local string) xml.Name { return xml.Name{Space: nsNC, Local: local} }
	data := func() *Object { return AnyXML(nameData, Mandatory()) }
	var rpcs []*RPC
	for _, name := range []string{"get", "get-config"} {
		rpcs = append(rpcs, NewRPC(xmlns.NetconfModule, nc(name), data()))
	}
	for _, name := range []string{
		"edit-config", "copy-config", "delete-config",
		"lock", "unlock", "close-session", "kill-session",
		"validate", "commit", "cancel-commit", "discard-changes",
	} {
		rpcs = append(rpcs, NewRPC(xmlns.NetconfModule, nc(name)))
	}
	return rpcs
}
