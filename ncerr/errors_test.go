package ncerr

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	for _, tc := range []struct {
		err *Error

		error string
		xml   string
		json  string
	}{
		{
			err:   New("in-use", WithMessage("foo")),
			error: "application error tag:in-use foo",
			xml:   "<rpc-error xmlns=\"urn:ietf:params:xml:ns:netconf:base:1.0\"><error-type>application</error-type><error-tag>in-use</error-tag><error-severity>error</error-severity><error-message>foo</error-message></rpc-error>",
			json:  "{\"error-type\":\"application\",\"error-tag\":\"in-use\",\"error-severity\":\"error\",\"error-message\":\"foo\"}",
		},

		{
			err:   MissingAttribute("attrib", "elem"),
			error: "application error tag:missing-attribute bad-attribute:attrib bad-element:elem",
			xml:   "<rpc-error xmlns=\"urn:ietf:params:xml:ns:netconf:base:1.0\"><error-type>application</error-type><error-tag>missing-attribute</error-tag><error-severity>error</error-severity><error-info><bad-attribute>attrib</bad-attribute><bad-element>elem</bad-element></error-info></rpc-error>",
			json:  "{\"error-type\":\"application\",\"error-tag\":\"missing-attribute\",\"error-severity\":\"error\",\"error-info\":{\"bad-attribute\":\"attrib\",\"bad-element\":\"elem\"}}",
		},

		{
			err:   UnknownNamespace("elem", "urn:x", WithType(TypeProtocol)),
			error: "protocol error tag:unknown-namespace bad-element:elem bad-namespace:urn:x",
			xml:   "<rpc-error xmlns=\"urn:ietf:params:xml:ns:netconf:base:1.0\"><error-type>protocol</error-type><error-tag>unknown-namespace</error-tag><error-severity>error</error-severity><error-info><bad-element>elem</bad-element><bad-namespace>urn:x</bad-namespace></error-info></rpc-error>",
			json:  "{\"error-type\":\"protocol\",\"error-tag\":\"unknown-namespace\",\"error-severity\":\"error\",\"error-info\":{\"bad-element\":\"elem\",\"bad-namespace\":\"urn:x\"}}",
		},

		{
			err:   MalformedMessage(),
			error: "rpc error tag:malformed-message",
			xml:   "<rpc-error xmlns=\"urn:ietf:params:xml:ns:netconf:base:1.0\"><error-type>rpc</error-type><error-tag>malformed-message</error-tag><error-severity>error</error-severity></rpc-error>",
			json:  "{\"error-type\":\"rpc\",\"error-tag\":\"malformed-message\",\"error-severity\":\"error\"}",
		},

		{
			err:   UnknownElement("foo", WithSeverity(SeverityWarning), WithPath("/a/b")),
			error: "application warning tag:unknown-element path:/a/b bad-element:foo",
			xml:   "<rpc-error xmlns=\"urn:ietf:params:xml:ns:netconf:base:1.0\"><error-type>application</error-type><error-tag>unknown-element</error-tag><error-severity>warning</error-severity><error-path>/a/b</error-path><error-info><bad-element>foo</bad-element></error-info></rpc-error>",
			json:  "{\"error-type\":\"application\",\"error-tag\":\"unknown-element\",\"error-severity\":\"warning\",\"error-path\":\"/a/b\",\"error-info\":{\"bad-element\":\"foo\"}}",
		},
	} {
		t.Run(fmt.Sprintf("%s", tc.err), func(t *testing.T) {
			a := assert.New(t)
			a.Equal(tc.error, tc.err.Error())

			b, err := xml.Marshal(tc.err)
			if a.NoError(err) {
				a.Equal(tc.xml, string(b))
			}
			b, err = json.Marshal(tc.err)
			if a.NoError(err) {
				a.Equal(tc.json, string(b))
			}

			got := &Error{}
			if a.NoError(json.Unmarshal(b, got)) {
				a.Equal(tc.err.Tag, got.Tag)
				a.Equal(tc.err.Type, got.Type)
				a.Equal(tc.err.Severity, got.Severity)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	a := assert.New(t)
	a.True(errors.Is(UnknownElement("x"), ErrUnknownElement))
	a.True(errors.Is(errors.Wrap(MissingElement("x"), "ctx"), ErrMissingElement))
	a.False(errors.Is(New("in-use"), ErrUnknownElement))
}

func TestClassification(t *testing.T) {
	a := assert.New(t)
	a.True(IsFatal(errors.Wrap(ErrReaderEOF, "reading")))
	a.True(IsFatal(ErrReaderInternal))
	a.False(IsFatal(ErrUnknownNamespace))
	a.True(IsRecoverable(errors.Wrap(ErrUnknownNamespace, "x")))
	a.False(IsRecoverable(nil))
	a.False(IsRecoverable(ErrReaderEOF))
	a.True(IsProgramming(errors.Wrap(ErrDuplicateEntry, "top")))
	a.False(IsProgramming(ErrNotFound))
}

func TestTypeUnmarshal(t *testing.T) {
	a := assert.New(t)
	var typ Type
	a.NoError(typ.UnmarshalText([]byte("app")))
	a.Equal(TypeApplication, typ)
	a.NoError(typ.UnmarshalText([]byte(" transport ")))
	a.Equal(TypeTransport, typ)
	a.ErrorIs(typ.UnmarshalText([]byte("bogus")), ErrInvalidValue)

	var sev Severity
	a.NoError(sev.UnmarshalText([]byte("warning")))
	a.Equal(SeverityWarning, sev)
	a.ErrorIs(sev.UnmarshalText([]byte("fatal")), ErrInvalidValue)
}

func TestFromNode(t *testing.T) {
	a := assert.New(t)
	doc, err := xmlquery.Parse(strings.NewReader(`<rpc-error xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <error-type>protocol</error-type>
  <error-tag>operation-failed</error-tag>
  <error-severity>error</error-severity>
  <error-message xml:lang="en">lock held</error-message>
  <error-info><session-id>4</session-id></error-info>
</rpc-error>`))
	if !a.NoError(err) {
		return
	}
	e, err := FromNode(xmlquery.FindOne(doc, "//rpc-error"))
	if a.NoError(err) {
		a.Equal(TypeProtocol, e.Type)
		a.Equal("operation-failed", e.Tag)
		a.Equal("lock held", e.Message)
		a.Equal("4", e.Info.SessionID)
	}

	doc, _ = xmlquery.Parse(strings.NewReader(`<rpc-error><error-type>rpc</error-type></rpc-error>`))
	_, err = FromNode(xmlquery.FindOne(doc, "//rpc-error"))
	a.ErrorIs(err, ErrMissingElement)

	_, err = FromNode(nil)
	a.ErrorIs(err, ErrInternalPtr)
}

func TestErrorsAggregate(t *testing.T) {
	a := assert.New(t)
	es := Errors{New("in-use"), New("lock-denied", WithSeverity(SeverityWarning))}
	a.Equal("application error tag:in-use; application warning tag:lock-denied", es.Error())
	a.Len(es.Severe(), 1)
}
