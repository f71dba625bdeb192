package mgr

import (
	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/session"
	"github.com/andaru/ncmgr/xmlutil"
	"github.com/pkg/errors"
)

// dispatch_errors_total reasons
const (
	reasonWrongNodeType = "wrong_node_type"
	reasonNotFound      = "definition_not_found"
)

// DispatchMsg reads the next message of ms and calls the handler
// registered for its first element. A failure to obtain the message or
// read its first node requests the session's shutdown. A message which
// cannot be routed is logged and skipped; the session carries on.
func (m *Manager) DispatchMsg(ms *Session) {
	src, err := ms.Incoming()
	if err != nil {
		m.dropSession(ms, errors.Wrap(err, "next message"))
		return
	}
	defer src.Close()

	var ropts []xmlutil.ReaderOption
	if m.cfg.StrictNamespaces {
		ropts = append(ropts, xmlutil.WithStrictNamespaces())
	}
	ms.reader = xmlutil.NewReader(src, m.ns, ropts...)
	defer func() { ms.reader = nil }()

	node, err := ms.reader.ReadNode()
	if ncerr.IsFatal(err) {
		m.dropSession(ms, errors.Wrap(err, "first node"))
		return
	}
	if err != nil {
		// an unknown namespace leaves the node unroutable, below
		ms.Logger().Debug().Err(err).Stringer("node", node).Msg("first node")
	}

	if ms.State.Status == session.StatusIdle {
		ms.State.Status = session.StatusInMsg
		defer func() {
			if ms.State.Status == session.StatusInMsg {
				ms.State.Status = session.StatusIdle
			}
		}()
	}

	var reason string
	if !node.IsElement() {
		err, reason = errors.Wrapf(ncerr.ErrWrongNodeType, "first node is %s", node.Type), reasonWrongNodeType
	} else if handler, ok := m.handlers.FindHandler(node.Module, node.Name); ok {
		handler(ms, node)
		return
	} else {
		err, reason = errors.Wrapf(ncerr.ErrDefinitionNotFound, "%s:%s", node.Module, node.Name), reasonNotFound
	}

	ms.State.Counters.InBadMsgs++
	m.metrics.recordDispatchError(reason)
	ms.Logger().Error().Err(err).Str("node", node.QName).Msg("dispatch")
	m.skip(ms, node)
}

func (m *Manager) dropSession(ms *Session, err error) {
	ms.AddError(err)
	ms.State.Status = session.StatusShutdownReq
	m.metrics.recordSessionDropped()
	ms.Logger().Error().Err(err).Msg("session shutdown requested")
}

// skip resynchronises the reader after node. Running out of input is
// not an error here.
func (m *Manager) skip(ms *Session, node *xmlutil.Node) xmlutil.SkipResult {
	res, err := ms.reader.SkipSubtree(node)
	switch {
	case err != nil && !errors.Is(err, ncerr.ErrReaderEOF):
		ms.Logger().Warn().Err(err).Str("node", node.QName).Msg("skip")
	case res == xmlutil.SkipClosedByDepthOverride:
		ms.Logger().Debug().Str("node", node.QName).Msg("skip closed by depth")
	}
	return res
}
