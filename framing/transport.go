package framing

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"sync/atomic"

	"github.com/andaru/ncmgr/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxMessageSize is the default limit on the size of an
	// inbound message.
	DefaultMaxMessageSize = 16 << 20
	// DefaultMaxChunkSize is the default size of outbound chunks.
	DefaultMaxChunkSize = 64 << 10

	initialBufferSize = 4096
)

// Option configures a Transport
type Option func(*Transport)

// WithMaxMessageSize limits the size of inbound messages to n bytes,
// including any chunk framing.
func WithMaxMessageSize(n int) Option {
	return func(t *Transport) {
		if n > 0 {
			t.maxMessage = n
		}
	}
}

// WithMaxChunkSize sets the largest chunk written in chunked framing
// mode. Values outside 1..4294967295 are ignored.
func WithMaxChunkSize(n int) Option {
	return func(t *Transport) {
		if n > 0 && uint64(n) <= maxChunkSize {
			t.maxChunk = n
		}
	}
}

// Transport is a session.Transport framing NETCONF messages on a byte
// stream such as an SSH channel.
type Transport struct {
	rwc        io.ReadWriteCloser
	scanner    *bufio.Scanner
	chunked    atomic.Bool
	maxMessage int
	maxChunk   int

	wmu sync.Mutex
	log zerolog.Logger
}

// New returns a Transport on rwc in end-of-message framing mode
func New(rwc io.ReadWriteCloser, opts ...Option) *Transport {
	t := &Transport{
		rwc:        rwc,
		maxMessage: DefaultMaxMessageSize,
		maxChunk:   DefaultMaxChunkSize,
		log:        logging.For("framing"),
	}
	for _, opt := range opts {
		opt(t)
	}
	bufSize := initialBufferSize
	if bufSize > t.maxMessage {
		bufSize = t.maxMessage
	}
	t.scanner = bufio.NewScanner(rwc)
	t.scanner.Buffer(make([]byte, 0, bufSize), t.maxMessage)
	t.scanner.Split(t.split)
	return t
}

// split defers to the current framing mode. Input already buffered is
// split with the mode current at the time it is scanned, so a mode
// change after a message applies to the bytes which follow it.
func (t *Transport) split(b []byte, atEOF bool) (int, []byte, error) {
	if t.chunked.Load() {
		return splitChunked(b, atEOF)
	}
	return splitEOM(b, atEOF)
}

// SetChunkedFraming switches both directions to chunked framing. It
// must be called after the <hello> exchange and before the next
// message is read or written.
func (t *Transport) SetChunkedFraming() {
	if !t.chunked.Swap(true) {
		t.log.Debug().Msg("chunked framing enabled")
	}
}

// Chunked reports whether chunked framing is enabled
func (t *Transport) Chunked() bool { return t.chunked.Load() }

// MsgReader returns a reader for the next inbound message. It returns
// io.EOF when the stream ends cleanly between messages.
func (t *Transport) MsgReader() (io.ReadCloser, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return nil, errors.Wrap(err, "read message")
		}
		return nil, io.EOF
	}
	msg := bytes.Clone(t.scanner.Bytes())
	return io.NopCloser(bytes.NewReader(msg)), nil
}

// MsgWriter returns a writer for one outbound message. The framed
// message is written to the stream when the writer is closed.
func (t *Transport) MsgWriter() (io.WriteCloser, error) {
	return &msgWriter{t: t}, nil
}

// Close closes the underlying stream
func (t *Transport) Close() error { return t.rwc.Close() }

func (t *Transport) writeMsg(msg []byte) error {
	if len(msg) == 0 {
		return nil
	}
	var out []byte
	if t.chunked.Load() {
		out = appendChunked(make([]byte, 0, len(msg)+len(tokenEOC)+16), msg, t.maxChunk)
	} else {
		out = append(append(make([]byte, 0, len(msg)+len(tokenEOM)), msg...), tokenEOM...)
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	_, err := t.rwc.Write(out)
	return errors.Wrap(err, "write message")
}

type msgWriter struct {
	t      *Transport
	buf    bytes.Buffer
	closed bool
}

func (w *msgWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *msgWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.t.writeMsg(w.buf.Bytes())
}
