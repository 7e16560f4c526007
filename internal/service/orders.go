package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ecoshop/internal/events"
	"github.com/Skotchmaster/ecoshop/internal/models"
	"github.com/Skotchmaster/ecoshop/internal/repo"
	"github.com/Skotchmaster/ecoshop/internal/transport"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
)

// totalTolerance is how far a client supplied total may drift from the
// computed one.
const totalTolerance = 0.01

type OrderStore interface {
	repo.UserRepo
	repo.ProductRepo
	repo.OrderRepo
}

type OrderService struct {
	Repo   OrderStore
	Events events.Publisher
}

type orderEvent struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	TotalPrice float64            `json:"total_price"`
	Status     models.OrderStatus `json:"status"`
	Items      []models.OrderItem `json:"items"`
}

func newOrderEvent(o *models.Order) orderEvent {
	return orderEvent{ID: o.ID, UserID: o.UserID, TotalPrice: o.TotalPrice, Status: o.Status, Items: o.Items}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// priceItems checks every item and returns them with the total computed from
// current product prices. Items whose product no longer exists are kept but
// add nothing to the total; unpriced reports how many there were.
func (s *OrderService) priceItems(ctx context.Context, req []transport.OrderItemRequest) (items []models.OrderItem, total float64, unpriced int, err error) {
	if len(req) == 0 {
		return nil, 0, 0, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}

	ids := make([]uuid.UUID, 0, len(req))
	seen := make(map[uuid.UUID]struct{}, len(req))
	for i, it := range req {
		if it.ProductID == uuid.Nil {
			return nil, 0, 0, fmt.Errorf("%w: items[%d].product_id is required", ErrValidation, i)
		}
		if it.Quantity < 1 {
			return nil, 0, 0, fmt.Errorf("%w: items[%d].quantity must be at least 1", ErrValidation, i)
		}
		if _, ok := seen[it.ProductID]; !ok {
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}
	}

	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	prices := make(map[uuid.UUID]float64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	items = make([]models.OrderItem, 0, len(req))
	for _, it := range req {
		if price, ok := prices[it.ProductID]; ok {
			total += price * float64(it.Quantity)
		} else {
			unpriced++
		}
		items = append(items, models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return items, roundCents(total), unpriced, nil
}

// orderTotal reconciles the client's total_price with the computed one. When
// every item is priced the client value must match. When some products are
// gone the client value is kept, but it may not undercut the priced items.
func orderTotal(client *float64, computed float64, unpriced int) (float64, error) {
	if client == nil {
		return computed, nil
	}
	if unpriced == 0 {
		if math.Abs(*client-computed) > totalTolerance {
			return 0, fmt.Errorf("%w: total_price %.2f does not match items total %.2f", ErrValidation, *client, computed)
		}
		return computed, nil
	}
	if *client < 0 || *client < computed-totalTolerance {
		return 0, fmt.Errorf("%w: total_price %.2f is below priced items total %.2f", ErrValidation, *client, computed)
	}
	return roundCents(*client), nil
}

func (s *OrderService) CreateOrder(ctx context.Context, owner uuid.UUID, req transport.CreateOrderRequest) (*transport.OrderView, error) {
	l := logging.FromContext(ctx).With("svc", "orders.create")

	if _, err := s.Repo.GetUserByID(ctx, owner); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	items, computed, unpriced, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	total, err := orderTotal(req.TotalPrice, computed, unpriced)
	if err != nil {
		return nil, err
	}
	if unpriced > 0 {
		l.Warn("order_items_unpriced", "user_id", owner.String(), "unpriced", unpriced)
	}

	order := &models.Order{
		UserID:     owner,
		Items:      items,
		TotalPrice: total,
		Status:     models.OrderStatusPending,
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		l.Error("create_order_error", "status", 500, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), "order.created", newOrderEvent(order))
	return s.composeOne(ctx, order)
}

// GetOrder returns the order if caller owns it or is an admin.
func (s *OrderService) GetOrder(ctx context.Context, caller uuid.UUID, role models.Role, id uuid.UUID) (*transport.OrderView, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !role.IsAdmin() && order.UserID != caller {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return s.composeOne(ctx, order)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]transport.OrderView, error) {
	orders, err := s.Repo.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return s.compose(ctx, orders)
}

func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, req transport.UpdateOrderRequest) (*transport.OrderView, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		status, err := models.ParseOrderStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		order.Status = status
	}
	if req.Items != nil {
		items, total, unpriced, err := s.priceItems(ctx, req.Items)
		if err != nil {
			return nil, err
		}
		if unpriced > 0 {
			logging.FromContext(ctx).Warn("order_items_unpriced", "order_id", id.String(), "unpriced", unpriced)
		}
		order.Items = items
		order.TotalPrice = total
	}

	if err := s.Repo.UpdateOrder(ctx, order); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		logging.FromContext(ctx).Error("update_order_error", "status", 500, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	updated, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicOrders, id.String(), "order.updated", newOrderEvent(updated))
	return s.composeOne(ctx, updated)
}

func (s *OrderService) getOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order not found", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return order, nil
}
