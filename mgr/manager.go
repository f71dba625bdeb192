package mgr

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/andaru/ncmgr/config"
	"github.com/andaru/ncmgr/logging"
	"github.com/andaru/ncmgr/schema"
	"github.com/andaru/ncmgr/session"
	"github.com/andaru/ncmgr/top"
	"github.com/andaru/ncmgr/xmlns"
	"github.com/andaru/ncmgr/xmlutil"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// TopHandler handles a message whose first element it was registered
// for. node is the first element; the handler reads or skips the rest
// of the message.
type TopHandler func(ms *Session, node *xmlutil.Node)

// Manager dispatches incoming messages for its sessions and correlates
// their replies with outstanding requests.
type Manager struct {
	cfg      config.Manager
	ns       *xmlns.Registry
	schemas  *schema.Set
	handlers *top.Registry[TopHandler]
	metrics  *Metrics
	now      func() time.Time
	log      zerolog.Logger
	// orphan replies are logged through a sampler
	orphanLog zerolog.Logger
	notify    NotificationHandler

	mu      sync.Mutex
	ready   bool
	lastSID atomic.Uint32
}

// Option is a Manager option function
type Option func(*Manager)

// WithConfig applies the [manager] section of cfg.
func WithConfig(cfg config.Config) Option { return func(m *Manager) { m.cfg = cfg.Manager } }

// WithClock replaces the wall clock used for request timing.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithRejectDuplicateIDs makes SendRequest refuse a request whose
// message-id is already outstanding on the session.
func WithRejectDuplicateIDs() Option { return func(m *Manager) { m.cfg.RejectDuplicateIDs = true } }

// WithMetrics records manager metrics to metrics.
func WithMetrics(metrics *Metrics) Option { return func(m *Manager) { m.metrics = metrics } }

// WithLogger replaces the manager logger.
func WithLogger(log zerolog.Logger) Option { return func(m *Manager) { m.log = log } }

// WithNamespaces uses reg to resolve namespaces of incoming messages.
func WithNamespaces(reg *xmlns.Registry) Option { return func(m *Manager) { m.ns = reg } }

// WithSchemas uses set for RPC definitions.
func WithSchemas(set *schema.Set) Option { return func(m *Manager) { m.schemas = set } }

// WithRegistry dispatches through r, which may be shared between managers.
func WithRegistry(r *top.Registry[TopHandler]) Option { return func(m *Manager) { m.handlers = r } }

// New returns a Manager. Init must be called before messages are
// dispatched.
func New(opts ...Option) *Manager {
	m := &Manager{
		cfg: config.Default().Manager,
		now: time.Now,
		log: logging.For("mgr"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ns == nil {
		m.ns = xmlns.NewRegistry()
	}
	if m.schemas == nil {
		m.schemas = schema.NewSet()
	}
	if m.handlers == nil {
		m.handlers = top.NewRegistry[TopHandler]()
	}
	if m.cfg.MaxRequestID == 0 {
		m.cfg.MaxRequestID = config.DefaultMaxRequestID
	}
	m.orphanLog = m.log.Sample(&zerolog.BurstSampler{Burst: 5, Period: time.Second})
	return m
}

// NewFromConfig returns a Manager for cfg. The process logger is
// configured from the [log] section and the metrics named by [metrics]
// are registered with reg, which may be nil.
func NewFromConfig(cfg config.Config, reg prometheus.Registerer, opts ...Option) (*Manager, error) {
	logging.Configure(cfg.Logging())
	metrics, err := NewMetrics(cfg.Metrics.Namespace, reg)
	if err != nil {
		return nil, errors.Wrap(err, "metrics")
	}
	return New(append([]Option{WithConfig(cfg), WithMetrics(metrics)}, opts...)...), nil
}

// Init registers the manager's <hello>, <rpc-reply> and <notification>
// handlers. It may be called more than once.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready {
		return nil
	}
	m.handlers.Init()
	for i, h := range m.topHandlers() {
		if err := m.handlers.Register(h.Owner, h.Element, h.fn); err != nil {
			for _, prev := range m.topHandlers()[:i] {
				m.handlers.Unregister(prev.Owner, prev.Element)
			}
			return errors.Wrapf(err, "init %s", h.Element)
		}
	}
	m.ready = true
	return nil
}

// Cleanup unregisters the handlers registered by Init. It may be called
// more than once, or without Init.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return
	}
	for _, h := range m.topHandlers() {
		m.handlers.Unregister(h.Owner, h.Element)
	}
	m.ready = false
}

type topHandler struct {
	top.Key
	fn TopHandler
}

func (m *Manager) topHandlers() []topHandler {
	return []topHandler{
		{top.Key{Owner: xmlns.NetconfModule, Element: elemHello}, m.handleHello},
		{top.Key{Owner: xmlns.NetconfModule, Element: elemRPCReply}, m.handleReply},
		{top.Key{Owner: xmlns.NotificationMod, Element: elemNotification}, m.handleNotification},
	}
}

// Namespaces returns the manager's namespace registry
func (m *Manager) Namespaces() *xmlns.Registry { return m.ns }

// Schemas returns the manager's RPC definitions
func (m *Manager) Schemas() *schema.Set { return m.schemas }

// Handlers returns the manager's dispatch registry
func (m *Manager) Handlers() *top.Registry[TopHandler] { return m.handlers }

// Capabilities returns the capabilities the manager advertises in its
// <hello>: the enabled base protocols and any configured extras.
func (m *Manager) Capabilities() session.Capabilities {
	var caps session.Capabilities
	if m.protocolEnabled(config.ProtocolNetconf10) {
		caps = caps.Add(session.CapBase10)
	}
	if m.protocolEnabled(config.ProtocolNetconf11) {
		caps = caps.Add(session.CapBase11)
	}
	return caps.Add(m.cfg.Capabilities...)
}

func (m *Manager) protocolEnabled(proto string) bool {
	for _, p := range m.cfg.Protocols {
		if p == proto {
			return true
		}
	}
	return false
}

const (
	elemHello    = "hello"
	elemRPC      = "rpc"
	elemRPCReply = "rpc-reply"

	attrMessageID = "message-id"
	attrGroupID   = "group-id"
)
