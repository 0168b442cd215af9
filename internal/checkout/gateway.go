package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/pkg/backend"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 30 * time.Second

// CartStore is the slice of the cart engine checkout needs.
type CartStore interface {
	Snapshot() cart.Snapshot
	Dispatch(intent cart.Intent) cart.Snapshot
}

// MirrorEraser removes the persisted cart.
type MirrorEraser interface {
	Clear(ctx context.Context) error
}

// OrderCreator submits orders to the backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, req backend.OrderRequest, idempotencyKey string) (*backend.Order, error)
}

// TokenSource yields the bearer token of the current session, empty when anonymous.
type TokenSource interface {
	Token() string
}

// Request carries the buyer-provided part of an order.
type Request struct {
	BuyerID         string
	DeliveryAddress backend.Address
	PaymentInfo     *backend.PaymentInfo
	Notes           string
}

// Gateway turns the current cart into a backend order.
type Gateway struct {
	cart    CartStore
	mirror  MirrorEraser
	orders  OrderCreator
	tokens  TokenSource
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics

	timeout     time.Duration
	shippingFee decimal.Decimal
	discount    decimal.Decimal
	newKey      func() string
	now         func() time.Time

	group singleflight.Group
}

type Option func(*Gateway)

func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithFees(shippingFee, discount decimal.Decimal) Option {
	return func(g *Gateway) {
		g.shippingFee = shippingFee
		g.discount = discount
	}
}

func WithTokenSource(tokens TokenSource) Option {
	return func(g *Gateway) {
		g.tokens = tokens
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(g *Gateway) {
		if logg != nil {
			g.logg = logg
		}
	}
}

func WithMetrics(m *metrics.StorefrontMetrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithKeyFunc overrides idempotency key generation.
func WithKeyFunc(fn func() string) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.newKey = fn
		}
	}
}

func NewGateway(cartStore CartStore, mirror MirrorEraser, orders OrderCreator, opts ...Option) (*Gateway, error) {
	if cartStore == nil {
		return nil, errors.New("cart store required")
	}
	if orders == nil {
		return nil, errors.New("order creator required")
	}
	g := &Gateway{
		cart:        cartStore,
		mirror:      mirror,
		orders:      orders,
		logg:        logger.Nop(),
		timeout:     defaultTimeout,
		shippingFee: decimal.Zero,
		discount:    decimal.Zero,
		newKey:      uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// CreateOrder submits the cart as it is at call time. Overlapping calls carrying the same
// request share one submission. On success the cart and its mirror are emptied; on failure
// neither is touched. A caller whose ctx ends first gets CodeDependency: the shared submission
// keeps running and may still place the order and clear the cart.
func (g *Gateway) CreateOrder(ctx context.Context, req Request) (*backend.Order, error) {
	if g.cart.Snapshot().IsEmpty() {
		g.metrics.IncCheckout(enums.CheckoutOutcomeEmptyCart.String())
		return nil, emptyCart()
	}

	ch := g.group.DoChan(flightKey(req), func() (any, error) {
		// The shared call outlives any single waiter.
		subCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		return g.submit(subCtx, req)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*backend.Order), nil
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "checkout outcome unknown")
	}
}

// flightKey scopes coalescing to one buyer and one exact request body.
func flightKey(req Request) string {
	buyer := strings.TrimSpace(req.BuyerID)
	encoded, err := json.Marshal(req)
	if err != nil {
		return "checkout:" + buyer + ":" + uuid.NewString()
	}
	return "checkout:" + buyer + ":" + uuid.NewSHA1(uuid.NameSpaceOID, encoded).String()
}

func (g *Gateway) submit(ctx context.Context, req Request) (*backend.Order, error) {
	snap := g.cart.Snapshot()
	if snap.IsEmpty() {
		g.metrics.IncCheckout(enums.CheckoutOutcomeEmptyCart.String())
		return nil, emptyCart()
	}

	payload := g.buildPayload(req, snap)
	key := g.newKey()
	ctx = g.logg.WithFields(ctx, map[string]any{
		"idempotency_key": key,
		"buyer_id":        req.BuyerID,
		"cart_version":    snap.Version,
	})

	token := ""
	if g.tokens != nil {
		token = g.tokens.Token()
	}

	started := g.now()
	order, err := g.orders.CreateOrder(ctx, token, payload, key)
	g.metrics.ObserveCheckoutDuration(g.now().Sub(started))
	if err != nil {
		serr := &SubmissionError{Message: genericSubmissionMessage, Err: err}
		outcome := enums.CheckoutOutcomeFailed
		var remote *backend.RemoteError
		if errors.As(err, &remote) {
			serr.Status = remote.Status
			if remote.Message != "" {
				serr.Message = remote.Message
			}
			if remote.Status < 500 {
				outcome = enums.CheckoutOutcomeRejected
			}
		}
		g.metrics.IncCheckout(outcome.String())
		g.logg.Error(ctx, "order submission failed", err)
		return nil, submissionFailed(serr)
	}

	if order == nil {
		order = &backend.Order{}
	}
	g.cart.Dispatch(cart.ClearCart{})
	if g.mirror != nil {
		if err := g.mirror.Clear(ctx); err != nil {
			g.logg.Warn(g.logg.WithField(ctx, "error", err.Error()), "order placed but cart mirror not cleared")
		}
	}
	g.metrics.IncCheckout(enums.CheckoutOutcomeSubmitted.String())
	g.logg.Info(g.logg.WithField(ctx, "order_id", order.ID), "order submitted")
	return order, nil
}

func (g *Gateway) buildPayload(req Request, snap cart.Snapshot) backend.OrderRequest {
	items := make([]backend.OrderItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, backend.OrderItem{
			ProductID:   item.ID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VariationID: item.VariationID,
			Notes:       item.Notes,
		})
	}
	return backend.OrderRequest{
		BuyerID:         req.BuyerID,
		DeliveryAddress: req.DeliveryAddress,
		PaymentInfo:     req.PaymentInfo,
		Discount:        g.discount,
		ShippingFee:     g.shippingFee,
		Notes:           req.Notes,
		Items:           items,
	}
}
