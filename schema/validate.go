package schema

import (
	"fmt"

	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/pkg/errors"
)

var (
	// elements without a namespace are taken as NETCONF elements
	xpOK       = xpath.MustCompile(`ok[namespace-uri()='urn:ietf:params:xml:ns:netconf:base:1.0' or namespace-uri()='']`)
	xpRPCError = xpath.MustCompile(`rpc-error[namespace-uri()='urn:ietf:params:xml:ns:netconf:base:1.0' or namespace-uri()='']`)
)

// ConstraintError reports an element occurring too few or too many times.
type ConstraintError struct {
	Object *Object // Object is the schema object the constraint failed upon
	Name   string  // Name is the constraint which failed
	Want   int
	Saw    int
}

func (e ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s:%d (saw %d) failed on element %s", e.Name, e.Want, e.Saw, e.Object)
}

// Is matches a min-occurs failure to ncerr.ErrMissingElement and a
// max-occurs failure to ncerr.ErrWrongElement.
func (e ConstraintError) Is(target error) bool {
	switch e.Name {
	case "min-occurs":
		return target == ncerr.ErrMissingElement
	case "max-occurs":
		return target == ncerr.ErrWrongElement
	}
	return false
}

func IsConstraintError(err error) (ConstraintError, bool) {
	var ce ConstraintError
	ok := errors.As(err, &ce)
	return ce, ok
}

// ValidateReply checks the parsed <rpc-reply> root against rpc, and
// returns any <rpc-error> elements the reply contains. A nil rpc is
// checked as Generic.
func (s *Set) ValidateReply(rpc *RPC, root *xmlquery.Node) (ncerr.Errors, error) {
	if root == nil {
		return nil, ncerr.ErrInternalPtr
	}
	if rpc == nil {
		rpc = Generic()
	}
	envelope := s.ReplyObject()
	if root.Type != xmlquery.ElementNode || root.Data != envelope.Name.Local {
		return nil, errors.WithStack(ncerr.BadElement(root.Data,
			ncerr.WithType(ncerr.TypeProtocol), ncerr.WithMessage("want "+envelope.String())))
	}
	if !envelope.Matches(root.NamespaceURI, root.Data) {
		return nil, errors.WithStack(ncerr.UnknownNamespace(root.Data, root.NamespaceURI,
			ncerr.WithType(ncerr.TypeProtocol)))
	}

	var rpcErrs ncerr.Errors
	for _, n := range xmlquery.QuerySelectorAll(root, xpRPCError) {
		e, err := ncerr.FromNode(n)
		if err != nil {
			return rpcErrs, errors.Wrap(err, "decode rpc-error")
		}
		rpcErrs = append(rpcErrs, e)
	}
	ok := xmlquery.QuerySelector(root, xpOK)

	var data []*xmlquery.Node
	for _, c := range xmlutil.Elements(root) {
		if (c.NamespaceURI == nsNC || c.NamespaceURI == "") && (c.Data == nameOK.Local || c.Data == nameRPCError.Local) {
			continue
		}
		data = append(data, c)
	}

	switch {
	case ok != nil && (len(data) > 0 || len(rpcErrs) > 0):
		return rpcErrs, errors.WithStack(ncerr.BadElement(nameOK.Local,
			ncerr.WithMessage("<ok/> combined with other reply content")))
	case ok != nil:
		return nil, nil
	}

	out := rpc.Output
	if out == nil {
		if len(data) > 0 {
			return rpcErrs, errors.WithStack(ncerr.UnknownElement(data[0].Data,
				ncerr.WithMessage(fmt.Sprintf("rpc %s has no output", rpc))))
		}
		if len(rpcErrs) == 0 {
			return nil, errors.WithStack(ncerr.MissingElement(nameOK.Local))
		}
		return rpcErrs, nil
	}
	if out.Open {
		return rpcErrs, nil
	}
	// mandatory output is not required alongside errors
	return rpcErrs, checkChildren(out, data, len(rpcErrs) == 0)
}

func checkChildren(parent *Object, elems []*xmlquery.Node, checkMin bool) error {
	counts := map[*Object]int{}
	for _, e := range elems {
		c := parent.Child(e.NamespaceURI, e.Data)
		if c == nil {
			return errors.WithStack(ncerr.UnknownElement(e.Data, ncerr.WithPath(parent.Path())))
		}
		counts[c]++
		if c.MaxOccurs != Unbounded && counts[c] > c.MaxOccurs {
			return errors.WithStack(ConstraintError{Object: c, Name: "max-occurs", Want: c.MaxOccurs, Saw: counts[c]})
		}
		if !c.Open && len(c.Children) > 0 {
			if err := checkChildren(c, xmlutil.Elements(e), checkMin); err != nil {
				return err
			}
		}
	}
	if !checkMin {
		return nil
	}
	for _, c := range parent.Children {
		if counts[c] < c.MinOccurs {
			return errors.WithStack(ConstraintError{Object: c, Name: "min-occurs", Want: c.MinOccurs, Saw: counts[c]})
		}
	}
	return nil
}
