package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	DefaultWorkers  = 8
	DefaultMaxRetry = 3
	sendTimeout     = 30 * time.Second

	// staleAfter is how long a delivery may stay pending before the retry
	// job treats the send as interrupted. Orders older than this with no
	// delivery row at all are picked up too, looking back reconcileWindow.
	staleAfter      = 2 * sendTimeout
	reconcileWindow = 48 * time.Hour
)

// ErrNoRecipient is returned for orders without a known email address.
var ErrNoRecipient = errors.New("order has no email recipient")

// Dispatcher sends order receipts off the request path. A failed send is
// recorded and retried later from the persisted order; it never affects
// the order itself.
type Dispatcher struct {
	receipts ReceiptRepository
	orders   OrderRepository
	sender   Sender
	pool     *ants.Pool
	maxRetry int
	now      func() time.Time
}

func NewDispatcher(receipts ReceiptRepository, orders OrderRepository, sender Sender, workers, maxRetry int) (*Dispatcher, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if maxRetry <= 0 {
		maxRetry = DefaultMaxRetry
	}
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			zap.L().Error("receipt worker panic", zap.String("namespace", "notify"), zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create receipt pool: %w", err)
	}
	return &Dispatcher{
		receipts: receipts,
		orders:   orders,
		sender:   sender,
		pool:     pool,
		maxRetry: maxRetry,
		now:      time.Now,
	}, nil
}

// OnOrderPlaced is the event bus handler for domain.TopicOrderPlaced.
func (d *Dispatcher) OnOrderPlaced(evt domain.OrderPlaced) {
	order := evt.Order
	if order == nil || order.Recipient() == "" {
		return
	}
	err := d.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := d.Deliver(ctx, order); err != nil {
			zap.L().Warn("order receipt not delivered, will retry",
				zap.String("namespace", "notify"),
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	})
	if err != nil {
		// pool saturated: park it as failed so the retry job sends it
		zap.L().Warn("receipt pool busy", zap.String("order_id", order.ID), zap.Error(err))
		rec := d.newDelivery(order)
		rec.Status = domain.ReceiptFailed
		rec.ErrorMsg = err.Error()
		if err := d.receipts.Create(context.Background(), rec); err != nil {
			zap.L().Error("failed to record receipt", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
}

func (d *Dispatcher) newDelivery(order *domain.Order) *domain.ReceiptDelivery {
	return &domain.ReceiptDelivery{
		OrderID:   order.ID,
		Recipient: order.Recipient(),
		MessageID: uuid.NewString(),
		Status:    domain.ReceiptPending,
	}
}

// Deliver records a new delivery for order and sends it synchronously.
// When the delivery row cannot be written nothing is sent; RetryFailed
// finds the order again later.
func (d *Dispatcher) Deliver(ctx context.Context, order *domain.Order) error {
	if order.Recipient() == "" {
		return fmt.Errorf("%w: %s", ErrNoRecipient, order.ID)
	}
	rec := d.newDelivery(order)
	if err := d.receipts.Create(ctx, rec); err != nil {
		return fmt.Errorf("record receipt: %w", err)
	}
	return d.send(ctx, rec, order)
}

// Resend loads the order and delivers its receipt again.
func (d *Dispatcher) Resend(ctx context.Context, orderID string) error {
	order, err := d.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	return d.Deliver(ctx, order)
}

func (d *Dispatcher) send(ctx context.Context, rec *domain.ReceiptDelivery, order *domain.Order) error {
	receipt, err := ComposeReceipt(order)
	if err != nil {
		d.markFailed(ctx, rec, fmt.Sprintf("compose failed: %v", err))
		return err
	}
	err = d.sender.Send(ctx, &Message{
		MessageID: rec.MessageID,
		To:        rec.Recipient,
		Subject:   receipt.Subject,
		Text:      receipt.Text,
		HTML:      receipt.HTML,
	})
	if err != nil {
		d.markFailed(ctx, rec, err.Error())
		return err
	}
	if err := d.receipts.MarkSent(ctx, rec.ID, time.Now()); err != nil {
		zap.L().Error("failed to mark receipt sent", zap.Int64("receipt_id", rec.ID), zap.Error(err))
	}
	zap.L().Info("order receipt sent",
		zap.String("namespace", "notify"),
		zap.String("order_id", order.ID),
		zap.String("to", rec.Recipient))
	return nil
}

func (d *Dispatcher) markFailed(ctx context.Context, rec *domain.ReceiptDelivery, msg string) {
	if err := d.receipts.MarkFailed(ctx, rec.ID, msg); err != nil {
		zap.L().Error("failed to update receipt status", zap.Int64("receipt_id", rec.ID), zap.Error(err))
	}
}

// RetryFailed resends up to limit receipts and returns how many went out.
// It covers failed deliveries, deliveries left pending by an interrupted
// send, and committed orders whose delivery row was never written.
func (d *Dispatcher) RetryFailed(ctx context.Context, limit int) int {
	staleBefore := d.now().Add(-staleAfter)
	sent := 0

	rows, err := d.receipts.GetRetryable(ctx, d.maxRetry, staleBefore, limit)
	if err != nil {
		zap.L().Error("failed to load retryable receipts", zap.Error(err))
	}
	if len(rows) > 0 {
		zap.L().Debug("retrying receipts", zap.Int("count", len(rows)))
	}
	for _, rec := range rows {
		order, err := d.orders.GetByID(ctx, rec.OrderID)
		if err != nil {
			d.markFailed(ctx, rec, fmt.Sprintf("order not loaded: %v", err))
			continue
		}
		if err := d.send(ctx, rec, order); err == nil {
			sent++
		}
	}

	return sent + d.deliverMissing(ctx, staleBefore, limit)
}

func (d *Dispatcher) deliverMissing(ctx context.Context, staleBefore time.Time, limit int) int {
	orders, err := d.orders.FindUnreceipted(ctx, staleBefore.Add(-reconcileWindow), staleBefore, limit)
	if err != nil {
		zap.L().Error("failed to load orders without receipts", zap.Error(err))
		return 0
	}
	sent := 0
	for _, order := range orders {
		if order.Recipient() == "" {
			continue
		}
		if err := d.Deliver(ctx, order); err != nil {
			zap.L().Warn("missing receipt not delivered",
				zap.String("namespace", "notify"),
				zap.String("order_id", order.ID),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// Release stops the worker pool, giving running sends a few seconds to finish.
func (d *Dispatcher) Release() {
	if err := d.pool.ReleaseTimeout(5 * time.Second); err != nil {
		zap.L().Warn("receipt pool release timeout", zap.Error(err))
	}
}
