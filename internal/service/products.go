package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ecoshop/internal/events"
	"github.com/Skotchmaster/ecoshop/internal/models"
	"github.com/Skotchmaster/ecoshop/internal/repo"
	"github.com/Skotchmaster/ecoshop/internal/transport"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
)

type ProductService struct {
	Repo   repo.ProductRepo
	Events events.Publisher
}

type productDeleted struct {
	ID uuid.UUID `json:"id"`
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return p, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	items, err := s.Repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return items, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	case req.Price < 0:
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	case req.Stock < 0:
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	p := &models.Product{
		Name:        name,
		Description: req.Description,
		Category:    strings.TrimSpace(req.Category),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Stock:       req.Stock,
		Price:       req.Price,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Error("create_product_error", "status", 500, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	publish(ctx, s.Events, events.TopicProducts, p.ID.String(), "product.created", p)
	return p, nil
}

// UpdateProduct applies the fields present in req on top of the stored product.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (*models.Product, error) {
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if req.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Price != nil {
		p.Price = *req.Price
	}

	if err := s.Repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		logging.FromContext(ctx).Error("update_product_error", "status", 500, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	updated, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicProducts, id.String(), "product.updated", updated)
	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: product not found", ErrNotFound)
		}
		logging.FromContext(ctx).Error("delete_product_error", "status", 500, "error", err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	publish(ctx, s.Events, events.TopicProducts, id.String(), "product.deleted", productDeleted{ID: id})
	return nil
}
