package framing

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/andaru/ncmgr/logging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// stream is an in-memory byte stream
type stream struct {
	io.Reader
	out    bytes.Buffer
	closed bool
	err    error
}

func (s *stream) Write(b []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.out.Write(b)
}

func (s *stream) Close() error { s.closed = true; return nil }

func newStream(input string) *stream { return &stream{Reader: strings.NewReader(input)} }

func readMsg(t *testing.T, tr *Transport) (string, error) {
	t.Helper()
	r, err := tr.MsgReader()
	if err != nil {
		return "", err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	return string(b), err
}

func TestTransportRead(t *testing.T) {
	logging.ConfigureTests()
	a := assert.New(t)
	tr := New(newStream("<hello/>]]>]]>\n#5\n<ok/>\n#1\n \n##\n"))
	a.False(tr.Chunked())

	msg, err := readMsg(t, tr)
	a.NoError(err)
	a.Equal("<hello/>", msg)

	tr.SetChunkedFraming()
	tr.SetChunkedFraming()
	a.True(tr.Chunked())
	msg, err = readMsg(t, tr)
	a.NoError(err)
	a.Equal("<ok/> ", msg)

	_, err = tr.MsgReader()
	a.Equal(io.EOF, err)
}

func TestTransportReadErrors(t *testing.T) {
	logging.ConfigureTests()
	for _, tc := range []struct {
		name    string
		input   string
		opts    []Option
		chunked bool
		wantIs  error
	}{
		{name: "truncated message", input: "<rpc-reply>", wantIs: io.ErrUnexpectedEOF},
		{name: "too large", input: strings.Repeat("x", 100) + "]]>]]>", opts: []Option{WithMaxMessageSize(64)}, wantIs: bufio.ErrTooLong},
		{name: "bad chunk", input: "<rpc-reply/>", chunked: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			tr := New(newStream(tc.input), tc.opts...)
			if tc.chunked {
				tr.SetChunkedFraming()
			}
			_, err := tr.MsgReader()
			if a.Error(err) && tc.wantIs != nil {
				a.ErrorIs(err, tc.wantIs)
			}
			a.NotEqual(io.EOF, err)
		})
	}
}

func TestTransportWrite(t *testing.T) {
	logging.ConfigureTests()
	a := assert.New(t)
	s := newStream("")
	tr := New(s, WithMaxChunkSize(4))

	w, err := tr.MsgWriter()
	a.NoError(err)
	_, err = io.WriteString(w, "<rpc/>")
	a.NoError(err)
	a.Zero(s.out.Len())
	a.NoError(w.Close())
	a.NoError(w.Close())
	_, err = w.Write([]byte("x"))
	a.ErrorIs(err, io.ErrClosedPipe)
	a.Equal("<rpc/>]]>]]>", s.out.String())

	// empty messages are not sent
	w, _ = tr.MsgWriter()
	a.NoError(w.Close())
	a.Equal("<rpc/>]]>]]>", s.out.String())

	s.out.Reset()
	tr.SetChunkedFraming()
	w, _ = tr.MsgWriter()
	_, err = io.WriteString(w, "<rpc/>")
	a.NoError(err)
	a.NoError(w.Close())
	a.Equal("\n#4\n<rpc\n#2\n/>\n##\n", s.out.String())

	s.err = errors.New("broken pipe")
	w, _ = tr.MsgWriter()
	_, _ = io.WriteString(w, "<rpc/>")
	a.EqualError(w.Close(), "write message: broken pipe")

	a.NoError(tr.Close())
	a.True(s.closed)
}
