package mgr

import (
	"testing"

	"github.com/andaru/ncmgr/config"
	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/session"
	"github.com/andaru/ncmgr/session/sessiontest"
	"github.com/stretchr/testify/assert"
)

func serverHello(body string) string {
	return `<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">` + body + `</hello>`
}

func capabilities(caps ...string) string {
	s := "<capabilities>"
	for _, c := range caps {
		s += "\n  <capability>" + c + "</capability>"
	}
	return s + "\n</capabilities>"
}

func TestHello(t *testing.T) {
	for _, tc := range []struct {
		name         string
		protocols    []string
		input        string
		wantErr      error
		wantProtocol string
		wantTarget   Target
		wantStartup  Startup
	}{
		{
			name:         "base 1.1 preferred",
			input:        serverHello(capabilities(session.CapBase10, session.CapBase11) + `<session-id>42</session-id>`),
			wantProtocol: session.CapBase11,
		},
		{
			name:         "base 1.0 when 1.1 disabled",
			protocols:    []string{config.ProtocolNetconf10},
			input:        serverHello(capabilities(session.CapBase10, session.CapBase11) + `<session-id>42</session-id>`),
			wantProtocol: session.CapBase10,
		},
		{
			name:         "base 1.0 only server",
			input:        serverHello(capabilities(session.CapBase10) + `<session-id>42</session-id>`),
			wantProtocol: session.CapBase10,
		},
		{
			name:      "base 1.0 only server, 1.0 disabled",
			protocols: []string{config.ProtocolNetconf11},
			input:     serverHello(capabilities(session.CapBase10) + `<session-id>42</session-id>`),
			wantErr:   ncerr.ErrMissingElement,
		},
		{
			name:      "base 1.1 only server, 1.1 disabled",
			protocols: []string{config.ProtocolNetconf10},
			input:     serverHello(capabilities(session.CapBase11) + `<session-id>42</session-id>`),
			wantErr:   ncerr.ErrMissingElement,
		},
		{
			name:    "no base capability",
			input:   serverHello(capabilities(session.CapCandidate) + `<session-id>42</session-id>`),
			wantErr: ncerr.ErrMissingElement,
		},
		{
			name: "targets and startup",
			input: serverHello(capabilities(
				session.CapBase11, session.CapCandidate, session.CapWritableRunning, session.CapStartup,
			) + `<session-id>42</session-id>`),
			wantProtocol: session.CapBase11,
			wantTarget:   TargetCandRunning,
			wantStartup:  StartupDistinct,
		},
		{
			name:         "candidate target",
			input:        serverHello(capabilities(session.CapBase11, session.CapCandidate) + `<session-id>42</session-id>`),
			wantProtocol: session.CapBase11,
			wantTarget:   TargetCandidate,
		},
		{
			name:         "running target",
			input:        serverHello(capabilities(session.CapBase11, session.CapWritableRunning) + `<session-id>42</session-id>`),
			wantProtocol: session.CapBase11,
			wantTarget:   TargetRunning,
		},
		{
			name:    "no capabilities",
			input:   serverHello(`<session-id>42</session-id>`),
			wantErr: ncerr.ErrMissingElement,
		},
		{
			name:    "no session-id",
			input:   serverHello(capabilities(session.CapBase11)),
			wantErr: ncerr.ErrMissingElement,
		},
		{
			name:    "invalid session-id",
			input:   serverHello(capabilities(session.CapBase11) + `<session-id>-1</session-id>`),
			wantErr: ncerr.ErrInvalidValue,
		},
		{
			name:    "zero session-id",
			input:   serverHello(capabilities(session.CapBase11) + `<session-id>0</session-id>`),
			wantErr: ncerr.ErrInvalidValue,
		},
		{
			name:    "truncated",
			input:   `<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><capabilities>`,
			wantErr: ncerr.ErrReaderEOF,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			cfg := config.Default()
			if tc.protocols != nil {
				cfg.Manager.Protocols = tc.protocols
			}
			m, _ := newTestManager(t, WithConfig(cfg))
			tr := sessiontest.New()
			ms := m.NewSession(tr, session.Config{})
			a.NoError(m.StartSession(ms))
			a.Equal(session.StatusHelloWait, ms.State.Status)

			tr.Push(tc.input)
			m.DispatchMsg(ms)
			if tc.wantErr != nil {
				a.Equal(session.StatusShutdownReq, ms.State.Status)
				if a.Len(ms.Errors(), 1) {
					a.ErrorIs(ms.Errors()[0], tc.wantErr)
				}
				return
			}
			a.Empty(ms.Errors())
			a.Equal(session.StatusIdle, ms.State.Status)
			a.Equal(uint32(42), ms.State.ID)
			a.Equal(tc.wantProtocol, ms.State.Protocol)
			a.Equal(tc.wantTarget, ms.Target())
			a.Equal(tc.wantStartup, ms.Startup())
			a.NotEmpty(ms.State.Capabilities)
		})
	}
}

func TestHelloWrongState(t *testing.T) {
	a := assert.New(t)
	m, _ := newTestManager(t)
	hello := serverHello(capabilities(session.CapBase11) + `<session-id>42</session-id>`)
	ms, _ := idleSession(m, hello)
	ms.State.ID = 7

	m.DispatchMsg(ms)
	a.Equal(session.StatusIdle, ms.State.Status)
	a.Equal(uint32(7), ms.State.ID)
	a.Empty(ms.Errors())
}

func TestStartSessionHello(t *testing.T) {
	a := assert.New(t)
	cfg := config.Default()
	cfg.Manager.Capabilities = []string{":candidate:1.0"}
	m, _ := newTestManager(t, WithConfig(cfg))
	tr := sessiontest.New()
	ms := m.NewSession(tr, session.Config{})
	a.NotZero(ms.Config.ID)
	a.Equal(session.Capabilities{session.CapBase10, session.CapBase11, session.CapCandidate}, ms.Config.Capabilities)

	a.NoError(m.StartSession(ms))
	a.Equal(xmlDecl+`<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><capabilities>`+
		`<capability>urn:ietf:params:netconf:base:1.0</capability>`+
		`<capability>urn:ietf:params:netconf:base:1.1</capability>`+
		`<capability>urn:ietf:params:netconf:capability:candidate:1.0</capability>`+
		`</capabilities></hello>`, tr.Last())

	// a second hello is refused
	a.ErrorIs(m.StartSession(ms), ncerr.ErrInvalidState)
}
