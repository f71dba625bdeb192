package mgr

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/andaru/ncmgr/config"
	"github.com/andaru/ncmgr/framing"
	"github.com/andaru/ncmgr/session"
	"github.com/stretchr/testify/assert"
)

// conn is an in-memory byte stream with fixed input
type conn struct {
	io.Reader
	out bytes.Buffer
}

func (c *conn) Write(b []byte) (int, error) { return c.out.Write(b) }
func (c *conn) Close() error                { return nil }

func chunk(msg string) string { return fmt.Sprintf("\n#%d\n%s\n##\n", len(msg), msg) }

func TestFramedSession(t *testing.T) {
	const reply = `<rpc-reply xmlns="urn:ietf:params:xml:ns:netconf:base:1.0" message-id="0"><data/></rpc-reply>`
	for _, tc := range []struct {
		name        string
		protocols   []string
		serverCaps  []string
		replyFrame  string
		wantChunked bool
	}{
		{
			name:        "base 1.1 switches to chunked framing",
			serverCaps:  []string{session.CapBase10, session.CapBase11},
			replyFrame:  chunk(reply),
			wantChunked: true,
		},
		{
			name:       "base 1.0 server keeps end-of-message framing",
			serverCaps: []string{session.CapBase10},
			replyFrame: reply + "]]>]]>",
		},
		{
			name:       "base 1.1 disabled locally",
			protocols:  []string{config.ProtocolNetconf10},
			serverCaps: []string{session.CapBase10, session.CapBase11},
			replyFrame: reply + "]]>]]>",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			cfg := config.Default()
			if tc.protocols != nil {
				cfg.Manager.Protocols = tc.protocols
			}
			m, _ := newTestManager(t, WithConfig(cfg))
			hello := xmlDecl + serverHello(capabilities(tc.serverCaps...)+`<session-id>9</session-id>`)
			c := &conn{Reader: strings.NewReader(hello + "]]>]]>" + tc.replyFrame)}
			tr := framing.New(c)
			ms := m.NewSession(tr, session.Config{})

			a.NoError(m.StartSession(ms))
			a.True(strings.HasSuffix(c.out.String(), "</hello>]]>]]>"))
			m.DispatchMsg(ms)
			a.Equal(session.StatusIdle, ms.State.Status)
			a.Equal(tc.wantChunked, tr.Chunked())

			c.out.Reset()
			rec := &replyRecorder{}
			send(t, m, ms, ncElem("get"), rec.handler())
			if tc.wantChunked {
				a.True(strings.HasPrefix(c.out.String(), "\n#"))
				a.True(strings.HasSuffix(c.out.String(), "</rpc>\n##\n"))
			} else {
				a.True(strings.HasSuffix(c.out.String(), "</rpc>]]>]]>"))
			}

			m.DispatchMsg(ms)
			if a.Equal(1, rec.calls) {
				a.True(rec.replies[0].Ok())
			}
			a.Equal(session.StatusIdle, ms.State.Status)

			// the stream ends cleanly
			m.DispatchMsg(ms)
			a.Equal(session.StatusShutdownReq, ms.State.Status)
			a.Equal(2, ms.State.Counters.RxMsgs)
		})
	}
}
