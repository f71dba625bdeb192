package mgr

import (
	"testing"
	"time"

	"github.com/andaru/ncmgr/logging"
	"github.com/andaru/ncmgr/session"
	"github.com/andaru/ncmgr/session/sessiontest"
	"github.com/andaru/ncmgr/xmlns"
	"github.com/andaru/ncmgr/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock { return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestManager returns an initialised Manager with metrics on a
// private registry and a fake clock.
func newTestManager(t *testing.T, opts ...Option) (*Manager, *fakeClock) {
	t.Helper()
	logging.ConfigureTests()
	metrics, err := NewMetrics("test", prometheus.NewRegistry())
	require.NoError(t, err)
	clock := newFakeClock()
	opts = append([]Option{WithMetrics(metrics), WithClock(clock.Now)}, opts...)
	m := New(opts...)
	require.NoError(t, m.Init())
	t.Cleanup(m.Cleanup)
	return m, clock
}

// idleSession returns a session which has completed its hello exchange.
func idleSession(m *Manager, msgs ...string) (*Session, *sessiontest.Transport) {
	tr := sessiontest.New(msgs...)
	ms := m.NewSession(tr, session.Config{})
	ms.State.Status = session.StatusIdle
	return ms, tr
}

func ncElem(local string, children ...*xmlquery.Node) *xmlquery.Node {
	return xmlutil.NewElement(xmlns.NetconfURN, local, children...)
}

// replyRecorder records reply handler calls
type replyRecorder struct {
	calls   int
	replies []*Reply
}

func (r *replyRecorder) handler() ReplyHandler {
	return func(ms *Session, req *Request, rpy *Reply) {
		r.calls++
		r.replies = append(r.replies, rpy)
	}
}

// send sends a request for payload and returns it.
func send(t *testing.T, m *Manager, ms *Session, payload *xmlquery.Node, fn ReplyHandler) *Request {
	t.Helper()
	req := m.NewRequest(ms)
	req.Data = payload
	require.NoError(t, m.SendRequest(ms, req, fn))
	return req
}

// histogramCount returns the number of reply latency observations
func histogramCount(t *testing.T, m *Manager) uint64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.metrics.replyLatency.Write(&pb))
	return pb.GetHistogram().GetSampleCount()
}

const xmlDecl = `<?xml version="1.0" encoding="UTF-8"?>`
