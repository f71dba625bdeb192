package mgr

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/andaru/ncmgr/ncerr"
	"github.com/andaru/ncmgr/schema"
	"github.com/andaru/ncmgr/session"
	"github.com/andaru/ncmgr/xmlns"
	"github.com/andaru/ncmgr/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
)

// ReplyHandler is called exactly once with the reply matching req. The
// handler owns req and rpy from then on.
type ReplyHandler func(ms *Session, req *Request, rpy *Reply)

// Request is an <rpc> request. It is outstanding from a successful
// SendRequest until its reply arrives, it times out or its session is
// torn down.
type Request struct {
	// MessageID is assigned by NewRequest and always sent as the
	// message-id attribute.
	MessageID string
	// RPC describes the expected reply. If nil, SendRequest looks it up
	// from the payload operation.
	RPC *schema.RPC
	// Data is the operation element sent inside <rpc>.
	Data *xmlquery.Node
	// Attrs are extra <rpc> attributes. xmlns:<prefix> declarations
	// are merged into the message's prefix map.
	Attrs   []xml.Attr
	GroupID uint32
	// Timeout of zero never expires.
	Timeout time.Duration

	StartTime     time.Time
	PerfStartTime time.Time

	handler ReplyHandler
}

// Free releases the request's payload.
func (r *Request) Free() {
	if r == nil {
		return
	}
	r.Data, r.Attrs, r.handler = nil, nil, nil
}

// Reply is an <rpc-reply> matched to a request.
type Reply struct {
	MessageID string
	GroupID   uint32
	// Result is the outcome of parsing and validating the reply.
	Result error
	// Data is the parsed <rpc-reply> element.
	Data *xmlquery.Node

	errs ncerr.Errors
}

// Ok reports whether the reply was valid and reported no error.
func (r *Reply) Ok() bool { return r.Result == nil && len(r.errs.Severe()) == 0 }

// Errors returns the <rpc-error> elements of the reply, warnings
// included.
func (r *Reply) Errors() ncerr.Errors { return r.errs }

// Body returns the reply content other than <ok/> and <rpc-error>.
func (r *Reply) Body() []*xmlquery.Node {
	var body []*xmlquery.Node
	for _, n := range xmlutil.Elements(r.Data) {
		if (n.NamespaceURI == xmlns.NetconfURN || n.NamespaceURI == "") && (n.Data == "ok" || n.Data == "rpc-error") {
			continue
		}
		body = append(body, n)
	}
	return body
}

// Free releases the reply's parsed content.
func (r *Reply) Free() {
	if r == nil {
		return
	}
	r.Data, r.errs = nil, nil
}

// NewRequest returns a request taking the session's next message-id.
// The counter wraps to zero after the configured maximum.
func (m *Manager) NewRequest(ms *Session) *Request {
	id := ms.queue.allocID(m.cfg.MaxRequestID)
	return &Request{MessageID: strconv.FormatUint(uint64(id), 10), Timeout: m.cfg.DefaultTimeout}
}

// SendRequest writes req to the session and, only once it is completely
// written, queues it to await its reply. On error the request is not
// queued and the caller still owns it.
func (m *Manager) SendRequest(ms *Session, req *Request, fn ReplyHandler) error {
	switch {
	case ms == nil || req == nil || fn == nil:
		return ncerr.ErrInternalPtr
	case req.Data == nil:
		return errors.Wrap(ncerr.ErrInternalPtr, "request has no payload")
	case m.cfg.RejectDuplicateIDs && ms.queue.contains(req.MessageID):
		return errors.Wrapf(ncerr.ErrDuplicateEntry, "message-id %s outstanding", req.MessageID)
	}
	if req.RPC == nil {
		req.RPC = m.schemas.RPCFor(req.Data)
	}
	req.Attrs = withoutAttr(req.Attrs, attrMessageID)
	attrs := m.rpcAttrs(req)
	req.PerfStartTime = m.now()

	if err := m.writeRequest(ms, req, attrs); err != nil {
		m.metrics.recordSendFailure()
		ms.Logger().Error().Err(err).Str("message-id", req.MessageID).Msg("send request")
		return err
	}

	req.handler = fn
	req.StartTime = m.now()
	ms.queue.push(req)
	m.metrics.recordSent()
	ms.Logger().Debug().Str("message-id", req.MessageID).Stringer("rpc", req.RPC).Msg("sent request")
	return nil
}

func (m *Manager) writeRequest(ms *Session, req *Request, attrs []xml.Attr) error {
	w, err := ms.Outgoing()
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	xw := xmlutil.NewWriter(w)
	xw.StartMessage()
	xw.BeginElem(elemRPC, attrs, false)
	xw.WriteTree(req.Data, xmlns.NetconfURN)
	xw.EndElem(elemRPC)
	err = xw.Flush()
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "send request")
}

// rpcAttrs returns the <rpc> attributes: the NETCONF default namespace,
// the prefix map, the caller's attributes and the message-id.
func (m *Manager) rpcAttrs(req *Request) []xml.Attr {
	pmap := xmlutil.NewPrefixMap(req.Attrs...)
	if req.Data.NamespaceURI == xmlns.NCXURN || req.GroupID != 0 {
		pmap.Set(xmlns.NCXPrefix, xmlns.NCXURN)
	}
	attrs := []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: xmlns.NetconfURN}}
	attrs = append(attrs, pmap.Attr()...)
	for _, a := range req.Attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		attrs = append(attrs, a)
	}
	attrs = append(attrs, xml.Attr{Name: xml.Name{Local: attrMessageID}, Value: req.MessageID})
	if req.GroupID != 0 {
		gid := strconv.FormatUint(uint64(req.GroupID), 10)
		attrs = append(attrs, xml.Attr{Name: xml.Name{Space: xmlns.NCXPrefix, Local: attrGroupID}, Value: gid})
	}
	return attrs
}

func withoutAttr(attrs []xml.Attr, local string) []xml.Attr {
	var out []xml.Attr
	for _, a := range attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FindRequest returns the first outstanding request of ms with
// message-id id.
func (m *Manager) FindRequest(ms *Session, id string) *Request { return ms.queue.Find(id) }

// CancelRequest removes req from the outstanding requests of ms without
// calling its handler, reporting whether it was outstanding. A reply
// arriving later is dropped as an orphan.
func (m *Manager) CancelRequest(ms *Session, req *Request) bool {
	if !ms.queue.remove(req) {
		return false
	}
	m.metrics.recordRemoved(false, 1)
	ms.Logger().Debug().Str("message-id", req.MessageID).Msg("cancelled request")
	return true
}

// TimeoutRequestQueue removes and frees the requests of q whose timeout
// has elapsed, without calling their handlers. It returns the number
// removed.
func (m *Manager) TimeoutRequestQueue(q *RequestQueue) int {
	expired := q.expire(m.now())
	for _, r := range expired {
		m.log.Info().Str("message-id", r.MessageID).Dur("timeout", r.Timeout).Msg("deleting timed out request")
		r.Free()
	}
	m.metrics.recordRemoved(true, len(expired))
	return len(expired)
}

// CleanRequestQueue removes and frees every request of q without
// calling their handlers. It returns the number removed.
func (m *Manager) CleanRequestQueue(q *RequestQueue) int {
	reqs := q.drain()
	for _, r := range reqs {
		r.Free()
	}
	m.metrics.recordRemoved(false, len(reqs))
	return len(reqs)
}

// handleReply is the <rpc-reply> handler.
func (m *Manager) handleReply(ms *Session, node *xmlutil.Node) {
	log := ms.Logger()
	if st := ms.State.Status; ms.Config.Type != session.TypeDummy && st != session.StatusIdle && st != session.StatusInMsg {
		log.Error().Str("node", node.QName).Stringer("status", st).Msg("skipping incoming reply")
		m.metrics.recordReply(outcomeRejected, 0, false)
		m.skip(ms, node)
		return
	}
	if m.schemas.ReplyObject() == nil {
		log.Error().Bool("internal", true).Err(ncerr.ErrDefinitionNotFound).Msg("no rpc-reply definition")
		m.skip(ms, node)
		return
	}

	idAttr, ok := node.Attr(xmlns.NullID, attrMessageID)
	if !ok || idAttr.Value == "" {
		m.skip(ms, node)
		log.Info().Msg("incoming reply with no message-id")
		m.metrics.recordReply(outcomeNoMessageID, 0, false)
		return
	}
	rpy := &Reply{MessageID: idAttr.Value}
	if a, ok := node.Attr(m.ns.NCXID(), attrGroupID); ok {
		if v, err := strconv.ParseUint(strings.TrimSpace(a.Value), 10, 32); err == nil {
			rpy.GroupID = uint32(v)
		}
	}

	req := ms.queue.take(rpy.MessageID)
	if req == nil {
		m.dropOrphan(ms, node, rpy)
		return
	}

	root, err := ms.reader.ParseSubtree(node)
	if err == nil {
		rpy.Data = root
		rpy.errs, err = m.schemas.ValidateReply(req.RPC, root)
	}
	rpy.Result = err
	switch {
	case err != nil:
		log.Info().Err(err).Str("message-id", rpy.MessageID).Msg("invalid reply")
	case !ms.reader.DocDone():
		log.Info().Str("message-id", rpy.MessageID).Msg("extra nodes in reply")
	}
	m.metrics.recordReply(replyOutcome(rpy), m.now().Sub(req.PerfStartTime), true)

	if handler := req.handler; handler != nil {
		req.handler = nil
		handler(ms, req, rpy)
	}
	// the handler may have requested shutdown
	if ms.State.Status == session.StatusInMsg {
		ms.State.Status = session.StatusIdle
	}
}

// dropOrphan discards a reply matching no outstanding request. With
// debug logging on, the reply is parsed for the log line.
func (m *Manager) dropOrphan(ms *Session, node *xmlutil.Node, rpy *Reply) {
	defer rpy.Free()
	m.metrics.recordReply(outcomeOrphan, 0, false)
	ev := m.orphanLog.Debug()
	if !ev.Enabled() {
		m.skip(ms, node)
		return
	}
	ev = ev.Uint32("sid", ms.Config.ID).Str("message-id", rpy.MessageID)
	if root, err := ms.reader.ParseSubtree(node); err != nil {
		ev = ev.AnErr("parse", err)
	} else {
		rpcErrs, err := m.schemas.ValidateReply(schema.Generic(), root)
		ev = ev.AnErr("validate", err).Int("rpc-errors", len(rpcErrs))
	}
	ev.Msg("orphaned reply dropped")
}

func replyOutcome(rpy *Reply) string {
	switch {
	case rpy.Result != nil:
		return outcomeInvalid
	case len(rpy.errs.Severe()) > 0:
		return outcomeRPCError
	}
	return outcomeOK
}
