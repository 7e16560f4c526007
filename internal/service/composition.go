package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ecoshop/internal/models"
	"github.com/Skotchmaster/ecoshop/internal/transport"
)

func (s *OrderService) composeOne(ctx context.Context, order *models.Order) (*transport.OrderView, error) {
	views, err := s.compose(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// compose resolves the users and products referenced by orders with one
// batch lookup each. Missing references are left nil.
func (s *OrderService) compose(ctx context.Context, orders []models.Order) ([]transport.OrderView, error) {
	userIDs := make([]uuid.UUID, 0, len(orders))
	productIDs := make([]uuid.UUID, 0, len(orders))
	seenUsers := make(map[uuid.UUID]struct{})
	seenProducts := make(map[uuid.UUID]struct{})

	for _, o := range orders {
		if _, ok := seenUsers[o.UserID]; !ok {
			seenUsers[o.UserID] = struct{}{}
			userIDs = append(userIDs, o.UserID)
		}
		for _, it := range o.Items {
			if _, ok := seenProducts[it.ProductID]; !ok {
				seenProducts[it.ProductID] = struct{}{}
				productIDs = append(productIDs, it.ProductID)
			}
		}
	}

	users, err := s.Repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	userByID := make(map[uuid.UUID]*transport.UserSummary, len(users))
	for _, u := range users {
		userByID[u.ID] = &transport.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
	}
	productByID := make(map[uuid.UUID]*transport.ProductSummary, len(products))
	for _, p := range products {
		productByID[p.ID] = &transport.ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price}
	}

	views := make([]transport.OrderView, 0, len(orders))
	for _, o := range orders {
		items := make([]transport.OrderItemView, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, transport.OrderItemView{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Product:   productByID[it.ProductID],
			})
		}
		views = append(views, transport.OrderView{
			ID:         o.ID,
			UserID:     o.UserID,
			User:       userByID[o.UserID],
			Items:      items,
			TotalPrice: o.TotalPrice,
			Status:     o.Status,
			CreatedAt:  o.CreatedAt,
			UpdatedAt:  o.UpdatedAt,
		})
	}
	return views, nil
}
