package cart

import (
	"context"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

// Listener observes every committed snapshot. Listeners run on the dispatching
// goroutine while the engine lock is held and must not dispatch.
type Listener func(Snapshot)

// Engine owns the live cart and serialises intents in arrival order.
type Engine struct {
	mu        sync.Mutex
	state     Snapshot
	listeners map[int]Listener
	order     []int
	nextID    int

	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics
}

type EngineOption func(*Engine)

func WithEngineLogger(logg *logger.Logger) EngineOption {
	return func(e *Engine) {
		if logg != nil {
			e.logg = logg
		}
	}
}

func WithEngineMetrics(m *metrics.StorefrontMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine returns an engine holding the empty cart.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		state:     Empty(),
		listeners: map[int]Listener{},
		logg:      logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Dispatch applies intent and returns the committed snapshot.
func (e *Engine) Dispatch(intent Intent) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := Reduce(e.state, intent)
	next.Version = e.state.Version + 1
	e.state = next

	name := IntentName(intent)
	e.metrics.ObserveIntent(name, next.ItemCount)
	ctx := e.logg.WithCartVersion(context.Background(), next.Version)
	e.logg.Debug(e.logg.WithField(ctx, "intent", name), "cart intent applied")

	for _, id := range e.order {
		e.listeners[id](next.Clone())
	}
	return next.Clone()
}

// Snapshot returns a copy of the current cart.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Subscribe registers fn for every future transition and returns its cancel func.
func (e *Engine) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.order = append(e.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.listeners, id)
			for i, existing := range e.order {
				if existing == id {
					e.order = append(e.order[:i:i], e.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (e *Engine) AddItem(item LineItem, quantity int) Snapshot {
	return e.Dispatch(AddItem{Item: item, Quantity: quantity})
}

func (e *Engine) RemoveItem(id int64) Snapshot {
	return e.Dispatch(RemoveItem{ID: id})
}

func (e *Engine) UpdateQuantity(id int64, quantity int) Snapshot {
	return e.Dispatch(UpdateQuantity{ID: id, Quantity: quantity})
}

func (e *Engine) ClearCart() Snapshot {
	return e.Dispatch(ClearCart{})
}

func (e *Engine) LoadCart(items []LineItem) Snapshot {
	return e.Dispatch(LoadCart{Items: items})
}
