package xmlutil

import (
	"bufio"
	"encoding/xml"
	"io"

	"github.com/antchfx/xmlquery"
)

const xmlDecl = `<?xml version="1.0" encoding="UTF-8"?>`

// Writer serializes an outgoing message. Attribute names are written
// as given, the xml.Name Space field holding the prefix. Element
// namespaces of a value tree are written as default namespace
// declarations where they change; prefixed declarations are kept.
//
// The first write error is retained; later calls do nothing and Flush
// returns it.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter returns a Writer writing to w
func NewWriter(w io.Writer) *Writer { return &Writer{w: bufio.NewWriter(w)} }

func (w *Writer) write(s string) {
	if w.err == nil {
		_, w.err = w.w.WriteString(s)
	}
}

// StartMessage writes the XML declaration.
func (w *Writer) StartMessage() { w.write(xmlDecl) }

// BeginElem writes a start tag, or an empty element tag when empty.
func (w *Writer) BeginElem(qname string, attrs []xml.Attr, empty bool) {
	w.write("<" + qname)
	for _, a := range attrs {
		w.write(" " + QName(a.Name) + `="`)
		w.Value(a.Value)
		w.write(`"`)
	}
	if empty {
		w.write("/>")
	} else {
		w.write(">")
	}
}

// EndElem writes an end tag.
func (w *Writer) EndElem(qname string) { w.write("</" + qname + ">") }

// Value writes escaped character data.
func (w *Writer) Value(s string) {
	if w.err == nil {
		w.err = xml.EscapeText(w.w, []byte(s))
	}
}

// WriteTree writes the value tree rooted at n. parentNS is the default
// namespace in scope where n is written.
func (w *Writer) WriteTree(n *xmlquery.Node, parentNS string) {
	if n == nil || w.err != nil {
		return
	}
	switch n.Type {
	case xmlquery.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.WriteTree(c, parentNS)
		}
	case xmlquery.ElementNode:
		var attrs []xml.Attr
		ns := parentNS
		if n.NamespaceURI != parentNS {
			ns = n.NamespaceURI
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: ns})
		}
		for _, a := range n.Attr {
			// the default namespace is declared from NamespaceURI
			if a.Name.Space == "" && a.Name.Local == "xmlns" {
				continue
			}
			attrs = append(attrs, xml.Attr{Name: a.Name, Value: a.Value})
		}
		w.BeginElem(n.Data, attrs, n.FirstChild == nil)
		if n.FirstChild == nil {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.WriteTree(c, ns)
		}
		w.EndElem(n.Data)
	case xmlquery.TextNode, xmlquery.CharDataNode:
		w.Value(n.Data)
	}
}

// Flush writes any buffered data and returns the first error seen.
func (w *Writer) Flush() error {
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}
