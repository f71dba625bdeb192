package xmlutil

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"io"

	"github.com/andaru/ncmgr/ncerr"
	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
)

// CopySubtree writes the current element node start and its content to
// w as a standalone XML fragment, declaring any namespaces start
// inherits from enclosing elements. The subtree ends where SkipSubtree
// would stop; a mismatched closing tag is written as start's own.
func (r *Reader) CopySubtree(start *Node, w io.Writer) error {
	if start == nil {
		return ncerr.ErrInternalPtr
	}
	st, ok := r.curTok.(xml.StartElement)
	if !ok || !start.IsElement() || r.cur == nil || r.cur.Depth != start.Depth || r.cur.QName != start.QName {
		return errors.Wrapf(ncerr.ErrInternalValue, "copy: %s is not the current element", start.QName)
	}
	bw := bufio.NewWriter(w)
	st.Attr = append(r.ns.inherited(), st.Attr...)
	writeRawStart(bw, st, start.Type == NodeEmpty)
	if start.Type == NodeStart {
		for done := false; !done; {
			n, tok, err := r.next()
			if err != nil {
				return err
			}
			switch t := tok.(type) {
			case xml.StartElement:
				writeRawStart(bw, t, n.Type == NodeEmpty)
			case xml.EndElement:
				if n.Depth <= start.Depth {
					t.Name = st.Name
					done = true
				}
				bw.WriteString("</" + QName(t.Name) + ">")
			case xml.CharData:
				if err := xml.EscapeText(bw, t); err != nil {
					return err
				}
			}
		}
	}
	return bw.Flush()
}

// ParseSubtree copies the current element subtree and parses it into a
// value tree, returning the element node.
func (r *Reader) ParseSubtree(start *Node) (*xmlquery.Node, error) {
	var buf bytes.Buffer
	if err := r.CopySubtree(start, &buf); err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(&buf)
	if err != nil {
		return nil, errors.Wrapf(ncerr.ErrInvalidValue, "parse %s: %v", start.QName, err)
	}
	root := FirstElement(doc)
	if root == nil {
		return nil, errors.Wrapf(ncerr.ErrMissingElement, "parse %s", start.QName)
	}
	return root, nil
}

func writeRawStart(w *bufio.Writer, se xml.StartElement, empty bool) {
	w.WriteString("<" + QName(se.Name))
	for _, a := range se.Attr {
		writeAttr(w, a)
	}
	if empty {
		w.WriteString("/>")
	} else {
		w.WriteByte('>')
	}
}

func writeAttr(w *bufio.Writer, a xml.Attr) {
	w.WriteString(" " + QName(a.Name) + `="`)
	xml.EscapeText(w, []byte(a.Value))
	w.WriteByte('"')
}
