package framing

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// ErrBadChunk is a chunked framing protocol error
type ErrBadChunk struct {
	Message string
	Offset  int
}

func (e ErrBadChunk) Error() string {
	msg := "netconf bad chunk"
	if e.Message != "" {
		msg = msg + ": " + e.Message
	}
	if e.Offset < 1 {
		return msg
	}
	return fmt.Sprintf("%s at message offset %d", msg, e.Offset)
}

const (
	// RFC6242 section 4.2 maximum chunk-size, and its length on the wire.
	maxChunkSize       = 4294967295
	maxChunkSizeLength = 10
)

var (
	// tokenEOM terminates each message in end-of-message framing
	tokenEOM = []byte("]]>]]>")
	// tokenEOC terminates each message in chunked framing
	tokenEOC = []byte("\n##\n")
)

// splitEOM is a bufio.SplitFunc returning whole end-of-message
// delimited messages, without the delimiter. Whitespace after the last
// message is ignored.
func splitEOM(b []byte, atEOF bool) (advance int, token []byte, err error) {
	if idx := bytes.Index(b, tokenEOM); idx > -1 {
		return idx + len(tokenEOM), b[:idx], nil
	}
	if !atEOF || len(b) == 0 {
		return 0, nil, nil
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return len(b), nil, nil
	}
	return 0, nil, errors.WithStack(io.ErrUnexpectedEOF)
}

// splitChunked is a bufio.SplitFunc returning whole chunked framing
// messages, the concatenated chunk data of each.
func splitChunked(b []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(b) == 0 {
		return 0, nil, nil
	}
	var msg []byte
	for pos := 0; ; {
		cur := b[pos:]
		// every chunk header and the end-of-chunks marker take at least 4 bytes
		if len(cur) < 4 {
			return moreData(atEOF)
		}
		if cur[0] != '\n' || cur[1] != '#' {
			return 0, nil, errors.WithStack(ErrBadChunk{Message: "invalid chunk header", Offset: pos})
		}
		switch r := cur[2]; {
		case r == '#':
			switch {
			case cur[3] != '\n':
				return 0, nil, errors.WithStack(ErrBadChunk{Message: "invalid chunk terminator", Offset: pos})
			case msg == nil:
				return 0, nil, errors.WithStack(ErrBadChunk{Message: "end-of-chunks before any chunk", Offset: pos})
			}
			return pos + len(tokenEOC), msg, nil
		case r >= '1' && r <= '9':
			idx := bytes.IndexByte(cur[2:], '\n')
			switch {
			case idx > maxChunkSizeLength, idx == -1 && len(cur)-2 > maxChunkSizeLength:
				return 0, nil, errors.WithStack(ErrBadChunk{Message: "chunk size too large", Offset: pos})
			case idx == -1:
				return moreData(atEOF)
			}
			size, perr := strconv.ParseUint(string(cur[2:2+idx]), 10, 32)
			if perr != nil {
				return 0, nil, errors.WithStack(ErrBadChunk{Message: "invalid chunk size " + strconv.Quote(string(cur[2:2+idx])), Offset: pos})
			}
			start := pos + 2 + idx + 1
			if uint64(len(b)-start) < size {
				return moreData(atEOF)
			}
			end := start + int(size)
			msg = append(msg, b[start:end]...)
			pos = end
		default:
			return 0, nil, errors.WithStack(ErrBadChunk{Message: "invalid chunk size", Offset: pos})
		}
	}
}

func moreData(atEOF bool) (int, []byte, error) {
	if atEOF {
		return 0, nil, errors.WithStack(io.ErrUnexpectedEOF)
	}
	return 0, nil, nil
}

// appendChunked appends the chunked framing encoding of msg to dst,
// using chunks of at most size bytes.
func appendChunked(dst, msg []byte, size int) []byte {
	for len(msg) > 0 {
		n := len(msg)
		if n > size {
			n = size
		}
		dst = append(dst, '\n', '#')
		dst = strconv.AppendInt(dst, int64(n), 10)
		dst = append(dst, '\n')
		dst = append(dst, msg[:n]...)
		msg = msg[n:]
	}
	return append(dst, tokenEOC...)
}
