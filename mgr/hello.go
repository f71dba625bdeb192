package mgr

import (
	"strconv"
	"strings"

	"github.com/andaru/ncmgr/config"
	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/session"
	"github.com/andaru/ncmgr/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/pkg/errors"
)

// Target is the writable configuration datastore of a server
type Target int

const (
	TargetNone Target = iota
	TargetCandidate
	TargetRunning
	// TargetCandRunning means both the candidate and a writable running
	// datastore are available
	TargetCandRunning
)

func (t Target) String() string {
	switch t {
	case TargetCandidate:
		return "candidate"
	case TargetRunning:
		return "running"
	case TargetCandRunning:
		return "candidate+running"
	}
	return "none"
}

// Startup tells whether the server has a distinct startup datastore
type Startup int

const (
	// StartupMirror means running is saved automatically
	StartupMirror Startup = iota
	// StartupDistinct means running is saved with <copy-config>
	StartupDistinct
)

func (s Startup) String() string {
	if s == StartupDistinct {
		return "distinct"
	}
	return "mirror"
}

var (
	xpCapabilities = xpath.MustCompile(`capabilities[namespace-uri()='urn:ietf:params:xml:ns:netconf:base:1.0']`)
	xpCapability   = xpath.MustCompile(`capabilities[namespace-uri()='urn:ietf:params:xml:ns:netconf:base:1.0']/capability`)
	xpSessionID    = xpath.MustCompile(`session-id[namespace-uri()='urn:ietf:params:xml:ns:netconf:base:1.0']`)
)

// chunkedFramer is implemented by transports which frame messages
// themselves, such as framing.Transport.
type chunkedFramer interface{ SetChunkedFraming() }

// handleHello is the server <hello> handler.
func (m *Manager) handleHello(ms *Session, node *xmlutil.Node) {
	log := ms.Logger()
	if st := ms.State.Status; st != session.StatusHelloWait {
		log.Info().Stringer("status", st).Msg("hello dropped, wrong state")
		m.skip(ms, node)
		return
	}
	root, err := ms.reader.ParseSubtree(node)
	if err == nil {
		err = m.processHello(ms, root)
	}
	if err != nil {
		ms.AddError(err)
		ms.State.Status = session.StatusShutdownReq
		log.Error().Err(err).Msg("hello failed, dropping session")
		return
	}
	if ms.State.Protocol == session.CapBase11 {
		if f, ok := ms.Transport().(chunkedFramer); ok {
			f.SetChunkedFraming()
		}
	}
	ms.State.Status = session.StatusIdle
	log.Debug().
		Uint32("session-id", ms.State.ID).
		Str("protocol", ms.State.Protocol).
		Stringer("target", ms.target).
		Stringer("startup", ms.startup).
		Msg("hello ok")
}

func (m *Manager) processHello(ms *Session, hello *xmlquery.Node) error {
	if xmlquery.QuerySelector(hello, xpCapabilities) == nil {
		return errors.WithStack(ncerr.MissingElement("capabilities",
			ncerr.WithType(ncerr.TypeProtocol), ncerr.WithMessage("no <capabilities> in server <hello>")))
	}
	sid := xmlquery.QuerySelector(hello, xpSessionID)
	if sid == nil {
		return errors.WithStack(ncerr.MissingElement("session-id",
			ncerr.WithType(ncerr.TypeProtocol), ncerr.WithMessage("no <session-id> in server <hello>")))
	}
	v := strings.TrimSpace(sid.InnerText())
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil || id == 0 {
		return errors.Wrapf(ncerr.ErrInvalidValue, "session-id %q", v)
	}
	ms.State.ID = uint32(id)

	var caps session.Capabilities
	for _, c := range xmlquery.QuerySelectorAll(hello, xpCapability) {
		if x := strings.TrimSpace(c.InnerText()); x != "" {
			caps = append(caps, x)
		}
	}
	ms.State.Capabilities = caps

	proto, err := m.selectProtocol(ms.Config.Capabilities, caps)
	if err != nil {
		return err
	}
	ms.State.Protocol = proto

	switch cand, run := caps.Has(session.CapCandidate), caps.Has(session.CapWritableRunning); {
	case cand && run:
		ms.target = TargetCandRunning
	case run:
		ms.target = TargetRunning
	case cand:
		ms.target = TargetCandidate
	default:
		ms.target = TargetNone
		ms.Logger().Info().Msg("no writable target found")
	}
	ms.startup = StartupMirror
	if caps.Has(session.CapStartup) {
		ms.startup = StartupDistinct
	}
	return nil
}

// selectProtocol picks the base protocol from the server capabilities,
// preferring base:1.1 when both peers offer it and it is enabled.
func (m *Manager) selectProtocol(ours, caps session.Capabilities) (string, error) {
	want10 := m.protocolEnabled(config.ProtocolNetconf10) && ours.Has(session.CapBase10)
	want11 := m.protocolEnabled(config.ProtocolNetconf11) && ours.Has(session.CapBase11)
	has10, has11 := caps.Has(session.CapBase10), caps.Has(session.CapBase11)
	switch {
	case has11 && want11:
		return session.CapBase11, nil
	case has10 && want10:
		return session.CapBase10, nil
	case has10 && has11:
		return "", errors.Wrap(ncerr.ErrMissingElement, "no protocols enabled")
	case has10:
		return "", errors.Wrap(ncerr.ErrMissingElement, "server supports base:1.0 only, which is not enabled")
	case has11:
		return "", errors.Wrap(ncerr.ErrMissingElement, "server supports base:1.1 only, which is not enabled")
	}
	return "", errors.Wrap(ncerr.ErrMissingElement, "no support for base:1.0 or base:1.1")
}
