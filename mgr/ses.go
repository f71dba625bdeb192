package mgr

import (
	"github.com/andaru/ncmgr/session"
	"github.com/andaru/ncmgr/xmlutil"
)

// Session is a session.Session with the manager's per-session state:
// the outstanding request queue with its message-id counter, and the
// reader for the message being dispatched.
type Session struct {
	*session.Session

	mgr    *Manager
	queue  RequestQueue
	reader *xmlutil.Reader

	// learnt from the server <hello>
	target  Target
	startup Startup
}

// NewSession returns a manager session on transport t. A zero cfg.ID
// is replaced by the next local session number, and empty
// cfg.Capabilities by the manager's capabilities.
func (m *Manager) NewSession(t session.Transport, cfg session.Config) *Session {
	if cfg.ID == 0 {
		cfg.ID = m.lastSID.Add(1)
	}
	if len(cfg.Capabilities) == 0 {
		cfg.Capabilities = m.Capabilities()
	}
	return &Session{Session: session.New(t, cfg), mgr: m}
}

// Manager returns the manager which created the session
func (ms *Session) Manager() *Manager { return ms.mgr }

// Queue returns the session's outstanding requests
func (ms *Session) Queue() *RequestQueue { return &ms.queue }

// NextMessageID returns the message-id counter value the next request
// will take.
func (ms *Session) NextMessageID() uint32 { return ms.queue.NextID() }

// Reader returns the reader of the message being dispatched, or nil
// between messages.
func (ms *Session) Reader() *xmlutil.Reader { return ms.reader }

// Target returns the server's writable datastore
func (ms *Session) Target() Target { return ms.target }

// Startup returns the server's startup datastore mode
func (ms *Session) Startup() Startup { return ms.startup }

// StartSession sends the manager <hello>. The session becomes idle once
// the server <hello> is dispatched.
func (m *Manager) StartSession(ms *Session) error {
	if err := ms.SendHello(); err != nil {
		ms.Logger().Error().Err(err).Msg("start session")
		return err
	}
	ms.Logger().Debug().Strs("capabilities", ms.Config.Capabilities).Msg("hello sent")
	return nil
}

// CloseSession tears down ms: outstanding requests are dropped without
// calling their handlers and the transport is closed.
func (m *Manager) CloseSession(ms *Session) error {
	ms.State.Status = session.StatusShutdown
	if n := m.CleanRequestQueue(&ms.queue); n > 0 {
		ms.Logger().Info().Int("requests", n).Msg("dropped outstanding requests")
	}
	ms.reader = nil
	return ms.Close()
}
