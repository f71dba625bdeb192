// Package sessiontest provides an in-memory session.Transport for tests.
package sessiontest

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/andaru/ncmgr/session"
)

// Transport is an in-memory message transport. Messages queued with
// Push are returned by MsgReader in order; messages written through
// MsgWriter are recorded once closed.
type Transport struct {
	// ReadErr, if set, is returned by MsgReader
	ReadErr error
	// WriteErr, if set, is returned by message writers on Write
	WriteErr error

	mu     sync.Mutex
	in     []string
	out    []string
	closed bool
}

var _ session.Transport = (*Transport)(nil)

// New returns a Transport with msgs queued for reading
func New(msgs ...string) *Transport { return &Transport{in: msgs} }

// Push queues msgs for reading
func (t *Transport) Push(msgs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.in = append(t.in, msgs...)
}

func (t *Transport) MsgReader() (io.ReadCloser, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ReadErr != nil {
		return nil, t.ReadErr
	}
	if t.closed || len(t.in) == 0 {
		return nil, io.EOF
	}
	r := strings.NewReader(t.in[0])
	t.in = t.in[1:]
	return io.NopCloser(r), nil
}

func (t *Transport) MsgWriter() (io.WriteCloser, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, io.ErrClosedPipe
	}
	return &msgWriter{t: t}, nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Closed reports whether Close was called
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Sent returns the messages written so far
func (t *Transport) Sent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.out...)
}

// Last returns the last message written, or "".
func (t *Transport) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.out) == 0 {
		return ""
	}
	return t.out[len(t.out)-1]
}

type msgWriter struct {
	t *Transport
	bytes.Buffer
}

func (w *msgWriter) Write(p []byte) (int, error) {
	if err := w.t.WriteErr; err != nil {
		return 0, err
	}
	return w.Buffer.Write(p)
}

func (w *msgWriter) Close() error {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	w.t.out = append(w.t.out, w.String())
	return nil
}
