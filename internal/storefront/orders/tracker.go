package orders

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grindngainz15/fronted/internal/storefront/session"
)

const (
	defaultReconcileTimeout = 10 * time.Second
	defaultPendingTTL       = 2 * time.Minute
)

// Tracker implements apply-then-reconcile for shopper transitions. After a
// successful cancel or return the projection is rewritten locally and kept as a
// pending overlay; a background re-fetch then confirms it or drops it when the
// server reports something else.
type Tracker struct {
	svc     Service
	timeout time.Duration
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	pending map[pendingKey]pendingTransition
	wg      sync.WaitGroup
}

type pendingKey struct {
	userID  string
	orderID string
}

type pendingTransition struct {
	status  Status
	reason  string
	applied time.Time
}

// NewTracker returns a Tracker whose background fetches are bounded by timeout.
func NewTracker(svc Service, timeout time.Duration, logger *zap.Logger) *Tracker {
	if timeout <= 0 {
		timeout = defaultReconcileTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		svc:     svc,
		timeout: timeout,
		ttl:     defaultPendingTTL,
		logger:  logger,
		now:     time.Now,
		pending: make(map[pendingKey]pendingTransition),
	}
}

// Cancel validates the action against the loaded order, sends it, and on success
// rewrites order in place to CANCELLED with the reason attached.
func (t *Tracker) Cancel(ctx context.Context, id session.Identity, order *Order, reason string) error {
	if !order.CanCancel() {
		return ErrActionNotAllowed
	}
	if err := t.svc.Cancel(ctx, id, order.ID, reason); err != nil {
		return err
	}
	t.apply(ctx, id, order, StatusCancelled, reason)
	return nil
}

// RequestReturn is the DELIVERED → RETURN_REQUESTED counterpart of Cancel.
func (t *Tracker) RequestReturn(ctx context.Context, id session.Identity, order *Order) error {
	if !order.CanRequestReturn() {
		return ErrActionNotAllowed
	}
	if err := t.svc.RequestReturn(ctx, id, order.ID); err != nil {
		return err
	}
	t.apply(ctx, id, order, StatusReturnRequested, "")
	return nil
}

// Overlay applies a still-pending transition to a freshly fetched order so a
// lagging read does not flip the page back.
func (t *Tracker) Overlay(id session.Identity, order *Order) {
	if order == nil {
		return
	}
	key := pendingKey{userID: id.UserID, orderID: order.ID}
	t.mu.Lock()
	p, ok := t.pending[key]
	if ok && t.now().Sub(p.applied) > t.ttl {
		delete(t.pending, key)
		ok = false
	}
	t.mu.Unlock()
	if !ok || order.Status == p.status {
		return
	}
	order.Status = p.status
	if p.reason != "" {
		order.CancellationReason = p.reason
	}
}

// OverlayAll applies Overlay to every order in the list.
func (t *Tracker) OverlayAll(id session.Identity, list []Order) {
	for i := range list {
		t.Overlay(id, &list[i])
	}
}

// Wait blocks until in-flight reconciliations finish.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) apply(ctx context.Context, id session.Identity, order *Order, status Status, reason string) {
	order.Status = status
	if reason != "" {
		order.CancellationReason = reason
	}
	key := pendingKey{userID: id.UserID, orderID: order.ID}
	t.mu.Lock()
	t.pending[key] = pendingTransition{status: status, reason: reason, applied: t.now()}
	t.mu.Unlock()

	// Detached from the request so the fetch survives the response, bounded by timeout.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		t.reconcile(bg, id, key, status)
	}()
}

func (t *Tracker) reconcile(ctx context.Context, id session.Identity, key pendingKey, expected Status) {
	fresh, err := t.svc.Get(ctx, id, key.orderID)
	if err != nil {
		t.logger.Warn("order reconcile fetch failed",
			zap.String("order_id", key.orderID),
			zap.Error(err),
		)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.pending[key]
	if !ok || current.status != expected {
		return
	}
	delete(t.pending, key)
	if fresh.Status != expected {
		t.logger.Info("order status drift corrected",
			zap.String("order_id", key.orderID),
			zap.String("optimistic_status", string(expected)),
			zap.String("server_status", string(fresh.Status)),
		)
	}
}
