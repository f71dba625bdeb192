package session

import (
	"encoding/xml"
	"io"

	"github.com/andaru/ncmgr/logging"
	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/xmlns"
	"github.com/andaru/ncmgr/xmlutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Transport carries NETCONF messages for a Session. Each MsgReader call
// returns the next inbound message and each MsgWriter call a writer for
// one outbound message, complete when closed. Framing is the
// transport's concern.
type Transport interface {
	MsgReader() (io.ReadCloser, error)
	MsgWriter() (io.WriteCloser, error)
	Close() error
}

// New returns a new NETCONF Session using transport t
func New(t Transport, config Config) *Session {
	s := &Session{
		Config:    &config,
		State:     &State{Status: StatusInit},
		transport: t,
	}
	s.log = logging.For("session").With().Uint32("sid", config.ID).Logger()
	return s
}

// Session represents the manager side of a NETCONF session
type Session struct {
	Config *Config
	State  *State

	transport Transport
	log       zerolog.Logger
}

// Config contains Session configuration
type Config struct {
	// ID is the local session number, used to identify the session in
	// logs. It is unrelated to the session-id the server assigns.
	ID   uint32
	Type Type
	// Capabilities holds our session capabilities
	Capabilities Capabilities
}

// State contains runtime Session state
type State struct {
	// ID is the session-id assigned by the server in its <hello>.
	ID uint32
	// Capabilities holds the server's capabilities
	Capabilities Capabilities
	// Status is the session status
	Status Status
	// Protocol is the negotiated base protocol capability
	Protocol string
	// Counters contains session counters
	Counters struct {
		// RxMsgs is the number of messages received on the session
		RxMsgs int
		// TxMsgs is the number of messages sent on the session
		TxMsgs int
		// InBadMsgs counts received messages which could not be routed
		InBadMsgs int
	}

	// Opaque is user private data and is not used by the netconf libraries.
	Opaque interface{}

	errs []error
}

// Type is the kind of session
type Type int

const (
	// TypeNormal is a session with a server peer
	TypeNormal Type = iota
	// TypeDummy is a placeholder session which never expects replies
	TypeDummy
)

func (t Type) String() string {
	if t == TypeDummy {
		return "dummy"
	}
	return "normal"
}

// Status is a Session's (present) state.
type Status int

const (
	StatusNone Status = iota
	// StatusInit is the state of a new session
	StatusInit
	// StatusHelloWait is set once our <hello> is sent, until the
	// server's <hello> is processed.
	StatusHelloWait
	// StatusIdle is an established session between messages
	StatusIdle
	// StatusInMsg is set while a message is being processed
	StatusInMsg
	// StatusShutdownReq is set when the session must be torn down
	StatusShutdownReq
	// StatusShutdown is set while the session is torn down
	StatusShutdown
	// StatusClosed indicates the session transport was closed.
	StatusClosed
)

var statusNames = [...]string{"none", "init", "hello-wait", "idle", "in-msg", "shutdown-requested", "shutdown", "closed"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Incoming returns the next inbound message.
func (s *Session) Incoming() (io.ReadCloser, error) {
	r, err := s.transport.MsgReader()
	if err != nil {
		return nil, err
	}
	s.State.Counters.RxMsgs++
	return r, nil
}

// Outgoing returns a writer for the next outbound message. The message
// is counted as sent once the writer closes with no write having
// failed.
func (s *Session) Outgoing() (io.WriteCloser, error) {
	w, err := s.transport.MsgWriter()
	if err != nil {
		return nil, err
	}
	return &msgWriter{WriteCloser: w, s: s}, nil
}

type msgWriter struct {
	io.WriteCloser
	s      *Session
	failed bool
}

func (w *msgWriter) Write(p []byte) (int, error) {
	n, err := w.WriteCloser.Write(p)
	if err != nil {
		w.failed = true
	}
	return n, err
}

func (w *msgWriter) Close() error {
	err := w.WriteCloser.Close()
	if err == nil && !w.failed {
		w.s.State.Counters.TxMsgs++
	}
	return err
}

// SendHello sends the manager <hello> with the configured capabilities
// and moves the session to StatusHelloWait. A manager never sends a
// session-id.
func (s *Session) SendHello() (err error) {
	if st := s.State.Status; st != StatusInit {
		return errors.Wrapf(ncerr.ErrInvalidState, "send hello in state %s", st)
	}
	defer func() {
		if s.AddError(err) > 0 {
			s.State.Status = StatusShutdownReq
		}
	}()
	w, err := s.Outgoing()
	if err != nil {
		return errors.Wrap(err, "hello")
	}
	xe := xml.NewEncoder(w)
	err = xe.EncodeToken(piXML)
	if err == nil {
		err = xe.EncodeToken(seHello)
	}
	if err == nil {
		err = xe.EncodeToken(seCapabilities)
	}
	for _, cap := range s.Config.Capabilities {
		if err != nil {
			break
		}
		err = xe.EncodeToken(seCapability)
		if err == nil {
			err = xe.EncodeToken(xml.CharData(cap))
		}
		if err == nil {
			err = xe.EncodeToken(seCapability.End())
		}
	}
	if err == nil {
		err = xe.EncodeToken(seCapabilities.End())
	}
	if err == nil {
		err = xe.EncodeToken(seHello.End())
	}
	if err == nil {
		err = xe.Flush()
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, "hello")
	}
	s.State.Status = StatusHelloWait
	return nil
}

// Close closes the Session transport
func (s *Session) Close() error {
	s.State.Status = StatusClosed
	err := s.transport.Close()
	if err == io.ErrClosedPipe {
		err = nil
	}
	return err
}

// AddError adds an error to the session state
func (s *Session) AddError(errs ...error) (added int) {
	for _, err := range errs {
		if err != nil {
			s.State.errs = append(s.State.errs, err)
			added++
		}
	}
	return added
}

// Errors returns all session errors
func (s *Session) Errors() []error { return s.State.errs }

// Logger returns the session logger, which tags lines with the sid.
func (s *Session) Logger() *zerolog.Logger { return &s.log }

var (
	piXML = xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}

	seHello        = xml.StartElement{Name: xmlutil.XMLName("hello", xmlns.NetconfURN)}
	seCapabilities = xml.StartElement{Name: xmlutil.XMLName("capabilities")}
	seCapability   = xml.StartElement{Name: xmlutil.XMLName("capability")}
)

// Transport returns the session's message transport
func (s *Session) Transport() Transport { return s.transport }
