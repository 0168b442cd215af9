package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
)

const (
	defaultWriteTimeout = 2 * time.Second
	defaultQueueSize    = 64

	writeResultOK     = "ok"
	writeResultFailed = "failed"
	writeResultStale  = "stale"
)

var ErrMirrorClosed = errors.New("cart mirror closed")

// Mirror keeps the durable cart slot in step with the engine. Queued writes carry the
// snapshot version; a single writer goroutine drops any write older than the last one applied.
type Mirror struct {
	slots        storage.Slots
	logg         *logger.Logger
	metrics      *metrics.StorefrontMetrics
	writeTimeout time.Duration

	queue chan mirrorRequest
	done  chan struct{}

	sendMu sync.RWMutex
	closed bool

	// ioMu serialises every slot mutation so a delete can never be overtaken by an older write.
	ioMu    sync.Mutex
	stateMu sync.Mutex
	seen    uint64
	applied uint64
}

type mirrorRequest struct {
	version uint64
	items   []LineItem
	barrier chan struct{}
}

type MirrorOption func(*Mirror)

func WithMirrorLogger(logg *logger.Logger) MirrorOption {
	return func(m *Mirror) {
		if logg != nil {
			m.logg = logg
		}
	}
}

func WithMirrorMetrics(mx *metrics.StorefrontMetrics) MirrorOption {
	return func(m *Mirror) {
		m.metrics = mx
	}
}

func WithWriteTimeout(d time.Duration) MirrorOption {
	return func(m *Mirror) {
		if d > 0 {
			m.writeTimeout = d
		}
	}
}

func WithQueueSize(n int) MirrorOption {
	return func(m *Mirror) {
		if n > 0 {
			m.queue = make(chan mirrorRequest, n)
		}
	}
}

// NewMirror starts the writer goroutine. Call Close to drain and stop it.
func NewMirror(slots storage.Slots, opts ...MirrorOption) *Mirror {
	m := &Mirror{
		slots:        slots,
		logg:         logger.Nop(),
		writeTimeout: defaultWriteTimeout,
		queue:        make(chan mirrorRequest, defaultQueueSize),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	go m.run()
	return m
}

// Load reads the persisted items. Absent or unreadable content yields an empty sequence.
func (m *Mirror) Load(ctx context.Context) []LineItem {
	raw, err := m.slots.ReadSlot(ctx, storage.SlotCartItems)
	if err != nil {
		if !errors.Is(err, storage.ErrSlotNotFound) {
			m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "cart mirror read failed; starting empty")
		}
		return []LineItem{}
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "cart mirror content unparseable; starting empty")
		return []LineItem{}
	}
	if items == nil {
		items = []LineItem{}
	}
	return items
}

// Save overwrites the slot with items right away, outside the versioned queue.
// Failures are logged and counted, never returned.
func (m *Mirror) Save(ctx context.Context, items []LineItem) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	m.write(ctx, items)
}

// Clear removes the slot and retires every write queued so far.
func (m *Mirror) Clear(ctx context.Context) error {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	m.stateMu.Lock()
	if m.seen > m.applied {
		m.applied = m.seen
	}
	m.stateMu.Unlock()

	if err := m.slots.DeleteSlot(ctx, storage.SlotCartItems); err != nil {
		m.metrics.IncMirrorWrite(writeResultFailed)
		m.logg.Error(ctx, "cart mirror clear failed", err)
		return err
	}
	m.metrics.IncMirrorWrite(writeResultOK)
	return nil
}

// Observe queues a write of snap. It is the engine listener.
func (m *Mirror) Observe(snap Snapshot) {
	m.sendMu.RLock()
	defer m.sendMu.RUnlock()
	if m.closed {
		return
	}

	m.stateMu.Lock()
	if snap.Version > m.seen {
		m.seen = snap.Version
	}
	m.stateMu.Unlock()

	m.queue <- mirrorRequest{version: snap.Version, items: cloneItems(snap.Items)}
}

// Attach subscribes the mirror to engine transitions.
func (m *Mirror) Attach(engine *Engine) func() {
	return engine.Subscribe(m.Observe)
}

// Flush blocks until every write queued before the call has been applied or dropped.
func (m *Mirror) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	m.sendMu.RLock()
	if m.closed {
		m.sendMu.RUnlock()
		return ErrMirrorClosed
	}
	select {
	case m.queue <- mirrorRequest{barrier: barrier}:
	case <-ctx.Done():
		m.sendMu.RUnlock()
		return ctx.Err()
	}
	m.sendMu.RUnlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes and waits for queued ones to land.
func (m *Mirror) Close(ctx context.Context) error {
	m.sendMu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.sendMu.Unlock()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mirror) run() {
	defer close(m.done)
	for req := range m.queue {
		batch := []mirrorRequest{req}
	drain:
		for {
			select {
			case next, ok := <-m.queue:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		m.process(batch)
	}
}

// process applies only the newest write of a batch; the rest are superseded.
func (m *Mirror) process(batch []mirrorRequest) {
	var newest *mirrorRequest
	var barriers []chan struct{}
	for i := range batch {
		req := &batch[i]
		if req.barrier != nil {
			barriers = append(barriers, req.barrier)
			continue
		}
		if newest != nil {
			m.metrics.IncMirrorWrite(writeResultStale)
			if req.version < newest.version {
				continue
			}
		}
		newest = req
	}
	if newest != nil {
		m.apply(*newest)
	}
	for _, b := range barriers {
		close(b)
	}
}

func (m *Mirror) apply(req mirrorRequest) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	m.stateMu.Lock()
	stale := req.version <= m.applied
	if !stale {
		m.applied = req.version
	}
	m.stateMu.Unlock()

	if stale {
		m.metrics.IncMirrorWrite(writeResultStale)
		m.logg.Debug(m.logg.WithCartVersion(context.Background(), req.version), "stale cart write dropped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.writeTimeout)
	defer cancel()
	m.write(m.logg.WithCartVersion(ctx, req.version), req.items)
}

func (m *Mirror) write(ctx context.Context, items []LineItem) {
	if items == nil {
		items = []LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		m.metrics.IncMirrorWrite(writeResultFailed)
		m.logg.Error(ctx, "cart mirror encode failed", err)
		return
	}
	if err := m.slots.WriteSlot(ctx, storage.SlotCartItems, payload); err != nil {
		m.metrics.IncMirrorWrite(writeResultFailed)
		m.logg.Error(ctx, "cart mirror write failed", err)
		return
	}
	m.metrics.IncMirrorWrite(writeResultOK)
}
