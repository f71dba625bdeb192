package ncerr

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
)

// FromNode builds an Error from an <rpc-error> element of a parsed reply.
// Elements are matched by local name; unknown children are ignored.
func FromNode(n *xmlquery.Node) (*Error, error) {
	if n == nil {
		return nil, ErrInternalPtr
	}
	if n.Type != xmlquery.ElementNode || n.Data != "rpc-error" {
		return nil, errors.Wrapf(ErrWrongElement, "want rpc-error, got %q", n.Data)
	}
	e := &Error{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		v := strings.TrimSpace(c.InnerText())
		switch c.Data {
		case "error-type":
			if err := e.Type.UnmarshalText([]byte(v)); err != nil {
				return nil, err
			}
		case "error-tag":
			e.Tag = v
		case "error-severity":
			if err := e.Severity.UnmarshalText([]byte(v)); err != nil {
				return nil, err
			}
		case "error-app-tag":
			e.AppTag = v
		case "error-path":
			e.Path = v
		case "error-message":
			e.Message = v
		case "error-info":
			e.Info = infoFromNode(c)
		}
	}
	if e.Tag == "" {
		return nil, errors.Wrap(ErrMissingElement, "rpc-error: error-tag")
	}
	return e, nil
}

func infoFromNode(n *xmlquery.Node) *ErrorInfo {
	info := &ErrorInfo{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		v := strings.TrimSpace(c.InnerText())
		switch c.Data {
		case "bad-attribute":
			info.BadAttribute = v
		case "bad-element":
			info.BadElement = v
		case "bad-namespace":
			info.BadNamespace = v
		case "session-id":
			info.SessionID = v
		}
	}
	return info
}
