package ncerr

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Type represents the NETCONF error-type enumerate
type Type int

const (
	// TypeApplication is an application layer error
	TypeApplication Type = iota
	// TypeProtocol is a NETCONF protocol layer error
	TypeProtocol
	// TypeRPC is a NETCONF RPC layer error
	TypeRPC
	// TypeTransport is an error at the secure transport layer
	TypeTransport
)

var typeNames = [...]string{"application", "protocol", "rpc", "transport"}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// UnmarshalText decodes an error-type value. Some servers send "app"
// for the application layer, which is accepted.
func (t *Type) UnmarshalText(b []byte) error {
	v := string(bytes.TrimSpace(b))
	if v == "app" {
		*t = TypeApplication
		return nil
	}
	for i, name := range typeNames {
		if v == name {
			*t = Type(i)
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidValue, "error-type %q", v)
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Severity represents the NETCONF error-severity enumerate
type Severity int

const (
	// SeverityError indicates "error" level
	SeverityError Severity = iota
	// SeverityWarning indicates "warning" level.
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	switch v := string(bytes.TrimSpace(b)); v {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return errors.Wrapf(ErrInvalidValue, "error-severity %q", v)
	}
	return nil
}

// Error represents a NETCONF <rpc-error>, either received in an
// <rpc-reply> or raised locally while validating one.
type Error struct {
	XMLName  xml.Name   `xml:"urn:ietf:params:xml:ns:netconf:base:1.0 rpc-error" json:"-"`
	Type     Type       `xml:"error-type" json:"error-type"`
	Tag      string     `xml:"error-tag" json:"error-tag"`
	Severity Severity   `xml:"error-severity" json:"error-severity"`
	AppTag   string     `xml:"error-app-tag,omitempty" json:"error-app-tag,omitempty"`
	Path     string     `xml:"error-path,omitempty" json:"error-path,omitempty"`
	Message  string     `xml:"error-message,omitempty" json:"error-message,omitempty"`
	Info     *ErrorInfo `xml:"error-info,omitempty" json:"error-info,omitempty"`
}

// ErrorInfo holds the RFC6241 error-info fields understood by the manager.
type ErrorInfo struct {
	BadAttribute string `xml:"bad-attribute,omitempty" json:"bad-attribute,omitempty"`
	BadElement   string `xml:"bad-element,omitempty" json:"bad-element,omitempty"`
	BadNamespace string `xml:"bad-namespace,omitempty" json:"bad-namespace,omitempty"`
	SessionID    string `xml:"session-id,omitempty" json:"session-id,omitempty"`
}

func (e Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s tag:%s", e.Type, e.Severity, e.Tag)
	if e.AppTag != "" {
		sb.WriteString(" app-tag:" + e.AppTag)
	}
	if e.Path != "" {
		sb.WriteString(" path:" + e.Path)
	}
	if info := e.Info; info != nil {
		for _, kv := range [][2]string{
			{"bad-attribute", info.BadAttribute},
			{"bad-element", info.BadElement},
			{"bad-namespace", info.BadNamespace},
			{"session-id", info.SessionID},
		} {
			if kv[1] != "" {
				sb.WriteString(" " + kv[0] + ":" + kv[1])
			}
		}
	}
	if e.Message != "" {
		sb.WriteString(" " + e.Message)
	}
	return sb.String()
}

var tagSentinels = map[string]error{
	"unknown-element":   ErrUnknownElement,
	"bad-element":       ErrWrongElement,
	"missing-element":   ErrMissingElement,
	"missing-attribute": ErrMissingAttribute,
	"unknown-namespace": ErrUnknownNamespace,
	"invalid-value":     ErrInvalidValue,
}

// Is allows errors.Is to match an Error against the status sentinel
// for its error-tag.
func (e Error) Is(target error) bool {
	s, ok := tagSentinels[e.Tag]
	return ok && s == target
}

// Errors is a list of <rpc-error> elements.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Severe returns the errors with severity "error", dropping warnings.
func (es Errors) Severe() Errors {
	var out Errors
	for _, e := range es {
		if e.Severity == SeverityError {
			out = append(out, e)
		}
	}
	return out
}

// New returns an Error with the given error-tag.
func New(tag string, opts ...Option) *Error {
	e := &Error{Tag: tag}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func MissingAttribute(attributeName, elementName string, opts ...Option) *Error {
	e := New("missing-attribute", opts...)
	e.Info = &ErrorInfo{BadAttribute: attributeName, BadElement: elementName}
	return e
}

func MissingElement(elementName string, opts ...Option) *Error {
	e := New("missing-element", opts...)
	e.Info = &ErrorInfo{BadElement: elementName}
	return e
}

func BadElement(elementName string, opts ...Option) *Error {
	e := New("bad-element", opts...)
	e.Info = &ErrorInfo{BadElement: elementName}
	return e
}

func UnknownElement(elementName string, opts ...Option) *Error {
	e := New("unknown-element", opts...)
	e.Info = &ErrorInfo{BadElement: elementName}
	return e
}

func UnknownNamespace(elementName, namespace string, opts ...Option) *Error {
	e := New("unknown-namespace", opts...)
	e.Info = &ErrorInfo{BadElement: elementName, BadNamespace: namespace}
	return e
}

func MalformedMessage(opts ...Option) *Error {
	e := New("malformed-message", opts...)
	// error-type must be rpc for malformed-message
	e.Type = TypeRPC
	return e
}
