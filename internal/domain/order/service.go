// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/food-ordering-backend/internal/config"
	"github.com/your-org/food-ordering-backend/internal/domain/cart"
	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
	"github.com/your-org/food-ordering-backend/internal/pkg/metrics"
	"github.com/your-org/food-ordering-backend/internal/pkg/pagination"
	"github.com/your-org/food-ordering-backend/internal/pkg/tracing"
)

const (
	msgOrderNotFound       = "Order not found"
	msgOnlyPendingCancel   = "Only pending orders can be cancelled"
	msgConcurrentStatusChg = "Order status changed concurrently"
)

// Service handles order business logic
type Service struct {
	db          *gorm.DB
	config      *config.Config
	cartService *cart.Service
	publisher   EventPublisher
	idempotency IdempotencyStore
	now         func() time.Time
	newNumber   func(time.Time) string
}

// NewService creates a new order service. A nil publisher drops events and a
// nil idempotency store disables Idempotency-Key handling.
func NewService(db *gorm.DB, cfg *config.Config, cartService *cart.Service, publisher EventPublisher, idempotency IdempotencyStore) *Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Service{
		db:          db,
		config:      cfg,
		cartService: cartService,
		publisher:   publisher,
		idempotency: idempotency,
		now:         time.Now,
		newNumber:   GenerateOrderNumber,
	}
}

// ListRequest filters a customer's orders
type ListRequest struct {
	pagination.Params
	Status Status `form:"status" binding:"omitempty,orderstatus"`
}

// AdminListRequest filters the admin order list
type AdminListRequest struct {
	pagination.Params
	Status    Status     `form:"status" binding:"omitempty,orderstatus"`
	StartDate *time.Time `form:"startDate" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"endDate" time_format:"2006-01-02"`
	Search    string     `form:"search"`
}

// transitionParams describes one status change
type transitionParams struct {
	OrderID           uint
	OwnerID           *uint
	To                Status
	ChangedBy         uint
	EstimatedDelivery *time.Time
	Comment           *string
	CustomerCancel    bool
}

// UpdateStatus moves an order along the transition table on behalf of an admin
func (s *Service) UpdateStatus(ctx context.Context, orderID, adminID uint, req *UpdateStatusRequest) (*Detail, error) {
	if _, err := s.transition(ctx, transitionParams{
		OrderID:           orderID,
		To:                req.Status,
		ChangedBy:         adminID,
		EstimatedDelivery: req.EstimatedDelivery,
		Comment:           req.Comment,
	}); err != nil {
		return nil, err
	}
	return s.AdminGetOrder(ctx, orderID)
}

// Cancel cancels one of the customer's own orders while it is still pending
func (s *Service) Cancel(ctx context.Context, userID, orderID uint, req *CancelRequest) (*Detail, error) {
	params := transitionParams{
		OrderID:        orderID,
		OwnerID:        &userID,
		To:             StatusCancelled,
		ChangedBy:      userID,
		CustomerCancel: true,
	}
	if req != nil {
		params.Comment = req.Reason
	}

	if _, err := s.transition(ctx, params); err != nil {
		return nil, err
	}
	return s.GetUserOrder(ctx, userID, orderID)
}

// transition locks the order row, checks the table and applies the change
// with an update guarded by the status it read.
func (s *Service) transition(ctx context.Context, p transitionParams) (*Order, error) {
	ctx, span := tracing.StartSpan(ctx, "order.Transition")
	defer span.End()
	span.SetAttributes(
		attribute.Int("order.id", int(p.OrderID)),
		attribute.String("order.to_status", string(p.To)),
	)

	var o Order
	var from Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", p.OrderID)
		if p.OwnerID != nil {
			query = query.Where("user_id = ?", *p.OwnerID)
		}
		if err := query.First(&o).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(msgOrderNotFound)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		from = o.Status

		if p.CustomerCancel && from != StatusPending {
			return apperror.BadRequest(msgOnlyPendingCancel)
		}
		if !CanTransition(from, p.To) {
			return apperror.InvalidTransition(string(from), string(p.To))
		}

		updates := map[string]interface{}{"status": p.To}
		// terminal states carry no delivery estimate
		if p.EstimatedDelivery != nil && !p.To.IsTerminal() {
			updates["estimated_delivery"] = *p.EstimatedDelivery
		}
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, from).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.Conflict(msgConcurrentStatusChg)
		}

		history := OrderStatusHistory{
			OrderID:    o.ID,
			FromStatus: from,
			ToStatus:   p.To,
			Comment:    p.Comment,
			ChangedBy:  p.ChangedBy,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record order history: %w", err)
		}

		o.Status = p.To
		if p.EstimatedDelivery != nil {
			o.EstimatedDelivery = p.EstimatedDelivery
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(from), string(p.To)).Inc()
	logrus.WithFields(logrus.Fields{
		"order_id":   o.ID,
		"from":       from,
		"to":         p.To,
		"changed_by": p.ChangedBy,
	}).Info("Order status changed")

	if err := s.publisher.OrderStatusChanged(ctx, &o, from); err != nil {
		metrics.EventPublishFailedTotal.WithLabelValues(EventTypeOrderStatusChanged).Inc()
		logrus.WithError(err).WithField("order_id", o.ID).Error("Failed to publish order status event")
	}

	return &o, nil
}

// ListUserOrders returns a page of the user's orders, newest first
func (s *Service) ListUserOrders(ctx context.Context, userID uint, req *ListRequest) (*pagination.Page[Summary], error) {
	params := pagination.Normalize(req.Params)
	query := s.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	if err := query.Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	summaries := make([]Summary, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, toSummary(&orders[i], false))
	}
	page := pagination.New(summaries, total, params)
	return &page, nil
}

// GetUserOrder returns the order detail when it belongs to the user
func (s *Service) GetUserOrder(ctx context.Context, userID, orderID uint) (*Detail, error) {
	o, err := s.loadOrder(ctx, orderID, &userID, false)
	if err != nil {
		return nil, err
	}
	return toDetail(o, false), nil
}

// ReceiptOrder returns the owner-scoped detail together with the customer for a receipt
func (s *Service) ReceiptOrder(ctx context.Context, userID, orderID uint) (*Detail, error) {
	o, err := s.loadOrder(ctx, orderID, &userID, true)
	if err != nil {
		return nil, err
	}
	return toDetail(o, true), nil
}

// AdminListOrders returns a filtered page of all orders
func (s *Service) AdminListOrders(ctx context.Context, req *AdminListRequest) (*pagination.Page[Summary], error) {
	params := pagination.Normalize(req.Params)
	query := s.adminQuery(ctx, req)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	if err := query.Preload("Items").Preload("User").
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	summaries := make([]Summary, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, toSummary(&orders[i], true))
	}
	page := pagination.New(summaries, total, params)
	return &page, nil
}

// AdminGetOrder returns any order including its customer
func (s *Service) AdminGetOrder(ctx context.Context, orderID uint) (*Detail, error) {
	o, err := s.loadOrder(ctx, orderID, nil, true)
	if err != nil {
		return nil, err
	}
	return toDetail(o, true), nil
}

// History returns the status changes of an order, oldest first
func (s *Service) History(ctx context.Context, orderID uint) ([]OrderStatusHistory, error) {
	var exists int64
	if err := s.db.WithContext(ctx).Model(&Order{}).Where("id = ?", orderID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if exists == 0 {
		return nil, apperror.NotFound(msgOrderNotFound)
	}

	history := []OrderStatusHistory{}
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return history, nil
}

// Stats counts orders per status plus today's orders and revenue.
// Cancelled orders do not contribute revenue.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)

	type statusCount struct {
		Status Status
		Count  int64
	}
	var rows []statusCount
	if err := db.Model(&Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	stats := &Stats{TodayRevenue: decimal.Zero}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case StatusPending:
			stats.Pending = row.Count
		case StatusConfirmed:
			stats.Confirmed = row.Count
		case StatusPreparing:
			stats.Preparing = row.Count
		case StatusReady:
			stats.Ready = row.Count
		case StatusDelivering:
			stats.Delivering = row.Count
		case StatusDelivered:
			stats.Delivered = row.Count
		case StatusCancelled:
			stats.Cancelled = row.Count
		}
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if err := db.Model(&Order{}).
		Where("created_at >= ?", startOfDay).
		Count(&stats.TodayOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's orders: %w", err)
	}

	var revenue struct {
		Revenue decimal.NullDecimal
	}
	if err := db.Model(&Order{}).
		Select("SUM(total_amount) AS revenue").
		Where("created_at >= ? AND status <> ?", startOfDay, StatusCancelled).
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum today's revenue: %w", err)
	}
	if revenue.Revenue.Valid {
		stats.TodayRevenue = revenue.Revenue.Decimal
	}

	return stats, nil
}

func (s *Service) adminQuery(ctx context.Context, req *AdminListRequest) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&Order{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.StartDate != nil {
		query = query.Where("created_at >= ?", *req.StartDate)
	}
	if req.EndDate != nil {
		// endDate is inclusive of the whole day
		query = query.Where("created_at < ?", req.EndDate.AddDate(0, 0, 1))
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		query = query.Where("order_number LIKE ?", "%"+strings.ToUpper(search)+"%")
	}
	return query
}

func (s *Service) loadOrder(ctx context.Context, orderID uint, ownerID *uint, withUser bool) (*Order, error) {
	query := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Address").
		Preload("Discount").
		Where("id = ?", orderID)
	if ownerID != nil {
		query = query.Where("user_id = ?", *ownerID)
	}
	if withUser {
		query = query.Preload("User")
	}

	var o Order
	if err := query.First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgOrderNotFound)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &o, nil
}
