package xmlutil

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/xmlns"
	"github.com/pkg/errors"
)

// ReaderOption is a Reader option function
type ReaderOption func(*Reader)

// WithStrictNamespaces makes namespace resolution failures fatal read
// errors instead of recoverable ones.
func WithStrictNamespaces() ReaderOption { return func(r *Reader) { r.strict = true } }

// Reader is a pull reader returning one Node per call for a single XML
// message. Depth follows the element nesting: the document element is at
// depth 0, its content at depth 1, and an end tag shares the depth of its
// start tag.
type Reader struct {
	dec    *xml.Decoder
	reg    *xmlns.Registry
	strict bool

	ns         nsStack
	open       int
	pendingPop bool
	peek       xml.Token

	cur      *Node
	curTok   xml.Token
	curNSErr error

	// sticky fatal error
	err error
}

// NewReader returns a Reader for the message src, resolving namespaces
// against reg.
func NewReader(src io.Reader, reg *xmlns.Registry, opts ...ReaderOption) *Reader {
	r := &Reader{dec: xml.NewDecoder(src), reg: reg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadNode advances to and returns the next node. A namespace error is
// returned with the populated node and is recoverable unless the reader
// is strict.
func (r *Reader) ReadNode() (*Node, error) { return r.read(true, true) }

// ReadNodeNoNS is ReadNode without namespace error reporting, for
// scanning opaque content that may use namespaces unknown to the
// registry.
func (r *Reader) ReadNodeNoNS() (*Node, error) { return r.read(true, false) }

// ReadNodeNoAdvance returns the node at the current position again,
// without consuming input.
func (r *Reader) ReadNodeNoAdvance() (*Node, error) { return r.read(false, true) }

// Depth returns the number of elements currently open.
func (r *Reader) Depth() int { return r.open }

func (r *Reader) read(advance, nsCheck bool) (*Node, error) {
	if advance {
		if _, _, err := r.next(); err != nil {
			return nil, err
		}
	} else if r.cur == nil {
		return nil, errors.Wrap(ncerr.ErrReaderInternal, "no current node")
	}
	n := r.cur.clone()
	if !nsCheck || r.curNSErr == nil {
		return n, nil
	}
	if r.strict {
		return n, errors.Wrap(ncerr.ErrReaderInternal, r.curNSErr.Error())
	}
	return n, r.curNSErr
}

func (n *Node) clone() *Node {
	c := *n
	if n.Attrs != nil {
		c.Attrs = append([]Attr(nil), n.Attrs...)
	}
	return &c
}

// next advances to the next significant token and makes it the current
// node.
func (r *Reader) next() (*Node, xml.Token, error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	if r.pendingPop {
		r.ns.pop()
		r.pendingPop = false
	}
	for {
		tok, err := r.token()
		if err != nil {
			return nil, nil, r.fail(err)
		}
		var n *Node
		var nsErr error
		switch t := tok.(type) {
		case xml.StartElement:
			r.ns.push(newScope(t.Attr))
			n = &Node{Depth: r.open}
			nsErr = r.resolve(n, t.Name)
			var attrErr error
			n.Attrs, attrErr = r.attrs(t.Attr)
			if nsErr == nil {
				nsErr = attrErr
			}
			following, err := r.token()
			if err != nil {
				return nil, nil, r.fail(err)
			}
			if end, ok := following.(xml.EndElement); ok && end.Name == t.Name {
				n.Type = NodeEmpty
				r.pendingPop = true
			} else {
				n.Type = NodeStart
				r.peek = following
				r.open++
			}
		case xml.EndElement:
			if r.open == 0 {
				return nil, nil, r.fail(errors.Errorf("unexpected end element %s", QName(t.Name)))
			}
			r.open--
			n = &Node{Type: NodeEnd, Depth: r.open}
			nsErr = r.resolve(n, t.Name)
			r.pendingPop = true
		case xml.CharData:
			v := strings.TrimSpace(string(t))
			if v == "" {
				continue
			}
			n = &Node{Type: NodeText, Value: v, Depth: r.open}
		default:
			// comments, processing instructions and directives
			continue
		}
		r.cur, r.curTok, r.curNSErr = n, tok, nsErr
		return n, tok, nil
	}
}

func (r *Reader) token() (xml.Token, error) {
	if tok := r.peek; tok != nil {
		r.peek = nil
		return tok, nil
	}
	tok, err := r.dec.RawToken()
	if err != nil {
		return nil, err
	}
	return xml.CopyToken(tok), nil
}

func (r *Reader) fail(err error) error {
	if err == io.EOF {
		r.err = ncerr.ErrReaderEOF
	} else {
		line, col := r.dec.InputPos()
		r.err = errors.Wrapf(ncerr.ErrReaderInternal, "line %d col %d: %v", line, col, err)
	}
	return r.err
}

func (r *Reader) resolve(n *Node, name xml.Name) error {
	n.Name = name.Local
	n.QName = QName(name)
	uri, ok := r.ns.lookup(name.Space)
	switch {
	case !ok:
		n.NSID = r.reg.InvalidID()
		n.Module = r.reg.Module(n.NSID)
		return errors.Wrapf(ncerr.ErrUnknownNamespace, "%s: undeclared prefix %q", n.QName, name.Space)
	case uri == "":
		n.NSID = xmlns.NullID
		n.Module = xmlns.DefaultModule
		return nil
	}
	if n.NSID = r.reg.FindByURI(uri); n.NSID == xmlns.NullID {
		n.NSID = r.reg.InvalidID()
		n.Module = r.reg.Module(n.NSID)
		return errors.Wrapf(ncerr.ErrUnknownNamespace, "%s: %s", n.QName, uri)
	}
	n.Module = r.reg.Module(n.NSID)
	return nil
}

func (r *Reader) attrs(raw []xml.Attr) (out []Attr, err error) {
	for _, a := range raw {
		if isNamespaceDecl(a.Name) {
			continue
		}
		attr := Attr{QName: QName(a.Name), Name: a.Name.Local, Value: a.Value}
		if a.Name.Space != "" {
			uri, ok := r.ns.lookup(a.Name.Space)
			if ok {
				attr.NSID = r.reg.FindByURI(uri)
			}
			if attr.NSID == xmlns.NullID {
				attr.NSID = r.reg.InvalidID()
				if err == nil {
					err = errors.Wrapf(ncerr.ErrUnknownNamespace, "attribute %s", attr.QName)
				}
			}
		}
		out = append(out, attr)
	}
	return out, err
}

// DocDone reports whether only ignorable content remains in the message.
// When a significant token follows it is left to be read next.
func (r *Reader) DocDone() bool {
	if r.err != nil {
		return errors.Is(r.err, ncerr.ErrReaderEOF)
	}
	for {
		tok, err := r.token()
		if err != nil {
			return errors.Is(r.fail(err), ncerr.ErrReaderEOF)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
		case xml.Comment, xml.ProcInst, xml.Directive:
			continue
		}
		r.peek = tok
		return false
	}
}

func isNamespaceDecl(n xml.Name) bool {
	return n.Space == "xmlns" || (n.Space == "" && n.Local == "xmlns")
}

type nsScope struct {
	prefixes   map[string]string
	defaultNS  string
	defaultSet bool
}

func newScope(attrs []xml.Attr) (s nsScope) {
	for _, a := range attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			s.defaultNS, s.defaultSet = a.Value, true
		case a.Name.Space == "xmlns":
			if s.prefixes == nil {
				s.prefixes = map[string]string{}
			}
			s.prefixes[a.Name.Local] = a.Value
		}
	}
	return s
}

type nsStack struct{ scopes []nsScope }

func (s *nsStack) push(scope nsScope) { s.scopes = append(s.scopes, scope) }

func (s *nsStack) pop() {
	if len(s.scopes) > 0 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *nsStack) lookup(prefix string) (string, bool) {
	if prefix == "xml" {
		return xmlns.XMLURN, true
	}
	for i := len(s.scopes) - 1; i >= 0; i-- {
		scope := s.scopes[i]
		if prefix == "" {
			if scope.defaultSet {
				return scope.defaultNS, true
			}
			continue
		}
		if uri, ok := scope.prefixes[prefix]; ok {
			return uri, true
		}
	}
	// no default namespace declared; use the empty namespace
	return "", prefix == ""
}

// inherited returns the declarations in scope from enclosing elements
// which the innermost scope does not override, as xmlns attributes.
func (s *nsStack) inherited() (attrs []xml.Attr) {
	if len(s.scopes) < 2 {
		return nil
	}
	top := s.scopes[len(s.scopes)-1]
	pmap := PrefixMap{}
	defaultNS, defaultSet := "", false
	for _, scope := range s.scopes[:len(s.scopes)-1] {
		for p, uri := range scope.prefixes {
			pmap[p] = uri
		}
		if scope.defaultSet {
			defaultNS, defaultSet = scope.defaultNS, true
		}
	}
	for p := range top.prefixes {
		delete(pmap, p)
	}
	if defaultSet && !top.defaultSet && defaultNS != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: defaultNS})
	}
	return append(attrs, pmap.Attr()...)
}
