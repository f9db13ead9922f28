// internal/domain/order/checkout.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/food-ordering-backend/internal/domain/cart"
	"github.com/your-org/food-ordering-backend/internal/domain/discount"
	"github.com/your-org/food-ordering-backend/internal/domain/pricing"
	"github.com/your-org/food-ordering-backend/internal/domain/user"
	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/metrics"
	"github.com/your-org/food-ordering-backend/internal/pkg/tracing"
)

const msgCheckoutInProgress = "A checkout with this Idempotency-Key is already in progress"

// GenerateOrderNumber returns ORD-YYYYMMDD-XXXXXXXX with a random hex suffix
func GenerateOrderNumber(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), strings.ToUpper(suffix))
}

// Checkout converts the user's cart into an order. With a non-empty
// idempotencyKey a repeated call returns the first order and created=false.
func (s *Service) Checkout(ctx context.Context, userID uint, idempotencyKey string, req *CreateRequest) (detail *Detail, created bool, err error) {
	if idempotencyKey != "" && s.idempotency != nil {
		existingID, reserved, err := s.idempotency.Reserve(ctx, userID, idempotencyKey)
		switch {
		case err != nil:
			logrus.WithError(err).WithField("user_id", userID).Warn("Idempotency store unavailable, continuing without it")
			idempotencyKey = ""
		case !reserved && existingID != 0:
			detail, err := s.GetUserOrder(ctx, userID, existingID)
			return detail, false, err
		case !reserved:
			return nil, false, apperror.Conflict(msgCheckoutInProgress)
		}
	}

	o, err := s.placeOrder(ctx, userID, req)
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			if relErr := s.idempotency.Release(ctx, userID, idempotencyKey); relErr != nil {
				logrus.WithError(relErr).Warn("Failed to release idempotency key")
			}
		}
		return nil, false, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Complete(ctx, userID, idempotencyKey, o.ID); err != nil {
			logrus.WithError(err).WithField("order_id", o.ID).Warn("Failed to record idempotency key")
		}
	}

	detail, err = s.GetUserOrder(ctx, userID, o.ID)
	return detail, true, err
}

// placeOrder runs every checkout step in one transaction. Nothing it writes
// survives a failed step.
func (s *Service) placeOrder(ctx context.Context, userID uint, req *CreateRequest) (*Order, error) {
	ctx, span := tracing.StartSpan(ctx, "order.Checkout")
	defer span.End()
	span.SetAttributes(attribute.Int("user.id", int(userID)))

	start := time.Now()
	var created Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var address user.Address
		if err := tx.Where("id = ? AND user_id = ?", req.AddressID, userID).First(&address).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Address not found")
			}
			return fmt.Errorf("failed to load address: %w", err)
		}

		userCart, err := cart.Load(tx, userID)
		if err != nil {
			return err
		}
		if userCart == nil || len(userCart.Items) == 0 {
			return apperror.BadRequest("Cart is empty")
		}

		for _, item := range userCart.Items {
			if item.Product == nil {
				return apperror.NotFound("Product not found")
			}
		}
		if unavailable := cart.UnavailableProducts(userCart.Items); len(unavailable) > 0 {
			return apperror.BadRequest("Some products are unavailable: " + strings.Join(unavailable, ", "))
		}

		items, subtotal := snapshotItems(userCart.Items)

		discountAmount := decimal.Zero
		var discountID *uint
		if req.DiscountCode != nil && strings.TrimSpace(*req.DiscountCode) != "" {
			d, err := discount.FindUsable(tx, *req.DiscountCode, s.now())
			if err != nil {
				return err
			}
			if discountAmount, err = discount.Evaluate(d, subtotal); err != nil {
				return err
			}
			if err := discount.Redeem(tx, d.ID); err != nil {
				return err
			}
			discountID = &d.ID
		}

		deliveryCost := decimal.NewFromInt(s.config.Checkout.DeliveryCost)
		created = Order{
			UserID:         userID,
			AddressID:      address.ID,
			DiscountID:     discountID,
			Status:         StatusPending,
			Subtotal:       subtotal,
			DiscountAmount: discountAmount,
			DeliveryCost:   deliveryCost,
			TotalAmount:    pricing.OrderTotal(subtotal, discountAmount, deliveryCost),
			Notes:          normalizeNotes(req.Notes),
		}
		if err := s.insertWithUniqueNumber(tx, &created); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = created.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		created.Items = items

		if err := cart.ClearItems(tx, userID); err != nil {
			return err
		}

		history := OrderStatusHistory{
			OrderID:   created.ID,
			ToStatus:  StatusPending,
			ChangedBy: userID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record order history: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.CheckoutFailedTotal.WithLabelValues(apperror.From(err).Kind.String()).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.CheckoutLatency.Observe(time.Since(start).Seconds())
	metrics.OrdersCreatedTotal.Inc()
	if created.DiscountID != nil {
		metrics.DiscountRedemptionsTotal.Inc()
	}
	span.SetAttributes(attribute.String("order.number", created.OrderNumber))

	if s.cartService != nil {
		s.cartService.InvalidateCount(ctx, userID)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"user_id":      userID,
		"total":        created.TotalAmount.String(),
	}).Info("Order created")

	if err := s.publisher.OrderCreated(ctx, &created); err != nil {
		metrics.EventPublishFailedTotal.WithLabelValues(EventTypeOrderCreated).Inc()
		logrus.WithError(err).WithField("order_id", created.ID).Error("Failed to publish order created event")
	}

	return &created, nil
}

// insertWithUniqueNumber inserts the order inside a savepoint, drawing a new
// order number whenever the previous one collides.
func (s *Service) insertWithUniqueNumber(tx *gorm.DB, o *Order) error {
	attempts := s.config.Checkout.OrderNumberRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		o.ID = 0
		o.OrderNumber = s.newNumber(s.now())

		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit(clause.Associations).Create(o).Error
		})
		if err == nil {
			return nil
		}
		if !apperror.IsUniqueViolation(err) {
			return fmt.Errorf("failed to create order: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"attempt":      attempt,
		}).Warn("Order number collision, retrying")
	}

	return fmt.Errorf("failed to allocate a unique order number after %d attempts", attempts)
}

// snapshotItems copies name and effective price out of the live products
func snapshotItems(lines []cart.CartItem) ([]OrderItem, decimal.Decimal) {
	items := make([]OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		unitPrice := line.Product.FinalPrice()
		total := pricing.LineTotal(unitPrice, line.Quantity)
		items = append(items, OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  total,
		})
		subtotal = subtotal.Add(total)
	}
	return items, subtotal
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
