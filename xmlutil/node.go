package xmlutil

import (
	"fmt"

	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/xmlns"
	"github.com/pkg/errors"
)

// NodeType classifies a Node
type NodeType int

const (
	// NodeNone is the type of an unset Node
	NodeNone NodeType = iota
	// NodeStart is an element start tag with content following
	NodeStart
	// NodeEmpty is an element with no content, <a/> or <a></a>
	NodeEmpty
	// NodeEnd is an element end tag
	NodeEnd
	// NodeText is non-whitespace character content
	NodeText
)

var nodeTypeNames = [...]string{"none", "start", "empty", "end", "text"}

func (t NodeType) String() string {
	if t >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Attr is an attribute of a start or empty element node
type Attr struct {
	NSID  xmlns.ID
	QName string
	Name  string
	Value string
}

// Node is one lexical unit read from an XML message.
//
// Start, Empty and End nodes carry the naming fields. Text nodes carry
// only Value and Depth. A Node returned by a Reader is owned by the
// caller and is not modified by later reads.
type Node struct {
	Type   NodeType
	NSID   xmlns.ID
	QName  string
	Module string
	Name   string
	Value  string
	Depth  int
	Attrs  []Attr
}

// IsElement reports whether n is a start or empty element node.
func (n *Node) IsElement() bool {
	return n != nil && (n.Type == NodeStart || n.Type == NodeEmpty)
}

// Attr returns the first attribute named name. A nsid of xmlns.NullID
// matches an attribute in any namespace.
func (n *Node) Attr(nsid xmlns.ID, name string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name && (nsid == xmlns.NullID || a.NSID == nsid) {
			return a, true
		}
	}
	return Attr{}, false
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Type {
	case NodeText:
		return fmt.Sprintf("text depth:%d %q", n.Depth, n.Value)
	case NodeNone:
		return "none"
	}
	return fmt.Sprintf("%s depth:%d %s (module %s, nsid %d)", n.Type, n.Depth, n.QName, n.Module, n.NSID)
}

// NodeMatch checks node against an expected namespace, local name and
// type. A NullID nsid, empty name or NodeNone typ is not checked. A node
// without a namespace matches any nsid.
func NodeMatch(node *Node, nsid xmlns.ID, name string, typ NodeType) error {
	if node == nil {
		return ncerr.ErrInternalPtr
	}
	if nsid != xmlns.NullID && node.NSID != xmlns.NullID && node.NSID != nsid {
		return errors.Wrapf(ncerr.ErrWrongNamespace, "%s", node.QName)
	}
	if name != "" {
		if node.Name == "" {
			return errors.Wrapf(ncerr.ErrUnknownElement, "want %s", name)
		}
		if node.Name != name {
			return errors.Wrapf(ncerr.ErrWrongElement, "want %s, got %s", name, node.Name)
		}
	}
	if typ != NodeNone && typ != node.Type {
		return errors.Wrapf(ncerr.ErrWrongNodeType, "want %s, got %s", typ, node.Type)
	}
	return nil
}

// EndNodeMatch checks that end is the end tag closing start.
func EndNodeMatch(start, end *Node) error {
	if start == nil || end == nil {
		return ncerr.ErrInternalPtr
	}
	switch {
	case end.Type != NodeEnd:
		return errors.Wrapf(ncerr.ErrWrongNodeType, "want end, got %s", end.Type)
	case start.Depth != end.Depth:
		return errors.Wrapf(ncerr.ErrWrongNodeDepth, "want %d, got %d", start.Depth, end.Depth)
	case start.Name != end.Name:
		return errors.Wrapf(ncerr.ErrUnknownElement, "want %s, got %s", start.Name, end.Name)
	case start.NSID != xmlns.NullID && end.NSID == xmlns.NullID:
		return errors.Wrapf(ncerr.ErrUnknownNamespace, "%s", end.QName)
	case start.NSID != end.NSID:
		return errors.Wrapf(ncerr.ErrWrongNamespace, "%s", end.QName)
	}
	return nil
}
