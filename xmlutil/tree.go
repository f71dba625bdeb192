package xmlutil

import (
	"encoding/xml"
	"strings"

	"github.com/antchfx/xmlquery"
)

// NewElement returns a value tree element in namespace ns with children
// appended in order.
func NewElement(ns, local string, children ...*xmlquery.Node) *xmlquery.Node {
	n := &xmlquery.Node{Type: xmlquery.ElementNode, Data: local, NamespaceURI: ns}
	for _, c := range children {
		xmlquery.AddChild(n, c)
	}
	return n
}

// NewLeaf returns an element in namespace ns containing the text value.
func NewLeaf(ns, local, value string) *xmlquery.Node {
	return NewElement(ns, local, &xmlquery.Node{Type: xmlquery.TextNode, Data: value})
}

// ParseString parses s and returns its document element.
func ParseString(s string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	return FirstElement(doc), nil
}

// FirstElement returns the first element child of n, or nil.
func FirstElement(n *xmlquery.Node) *xmlquery.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// Elements returns the element children of n.
func Elements(n *xmlquery.Node) (out []*xmlquery.Node) {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// SetAttr appends an attribute to element n. name may carry a prefix.
func SetAttr(n *xmlquery.Node, name, value string) {
	an := xml.Name{Local: name}
	if i := strings.IndexByte(name, ':'); i > 0 {
		an = xml.Name{Space: name[:i], Local: name[i+1:]}
	}
	n.Attr = append(n.Attr, xmlquery.Attr{Name: an, Value: value})
}
