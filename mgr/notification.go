package mgr

import (
	"strings"
	"time"

	"github.com/andaru/ncmgr/xmlns"
	"github.com/andaru/ncmgr/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
)

const (
	elemNotification = "notification"
	elemEventTime    = "eventTime"
)

// Notification is a parsed <notification> message.
type Notification struct {
	// Data is the parsed <notification> element.
	Data *xmlquery.Node
	// EventTime is the <eventTime> element, nil if the notification did
	// not start with one.
	EventTime *xmlquery.Node
	// Event is the element following <eventTime>, if any.
	Event *xmlquery.Node
}

// Time parses the notification's eventTime.
func (n *Notification) Time() (time.Time, error) {
	if n.EventTime == nil {
		return time.Time{}, errors.New("notification has no eventTime")
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(n.EventTime.InnerText()))
	return t, errors.Wrap(err, "eventTime")
}

// NotificationHandler receives the notifications of a session
type NotificationHandler func(ms *Session, n *Notification)

// WithNotificationHandler sets the handler called for each valid
// <notification>. Without one, notifications are parsed and discarded.
func WithNotificationHandler(fn NotificationHandler) Option {
	return func(m *Manager) { m.notify = fn }
}

// handleNotification is the <notification> handler.
func (m *Manager) handleNotification(ms *Session, node *xmlutil.Node) {
	log := ms.Logger()
	root, err := ms.reader.ParseSubtree(node)
	if err != nil {
		log.Info().Err(err).Msg("invalid notification")
		m.metrics.recordNotification(outcomeInvalid)
		return
	}
	if !ms.reader.DocDone() {
		log.Info().Msg("extra nodes in notification")
	}

	n := &Notification{Data: root}
	children := xmlutil.Elements(root)
	switch {
	case len(children) == 0:
		log.Error().Msg("expected eventTime in notification, got nothing")
	case children[0].Data != elemEventTime || !notificationNS(children[0].NamespaceURI):
		log.Error().Str("got", children[0].Data).Msg("expected eventTime in notification")
	default:
		n.EventTime = children[0]
		if len(children) > 1 {
			n.Event = children[1]
		}
	}
	m.metrics.recordNotification(outcomeOK)

	if m.notify != nil {
		m.notify(ms, n)
	}
}

func notificationNS(ns string) bool { return ns == "" || ns == xmlns.NotificationURN }
