package mongostore

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ecoshop/internal/models"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type productDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Category    string    `bson:"category"`
	ImageURL    string    `bson:"image_url"`
	Stock       int       `bson:"stock"`
	Price       float64   `bson:"price"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type orderItemDoc struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

type orderDoc struct {
	ID         string         `bson:"_id"`
	UserID     string         `bson:"user_id"`
	Items      []orderItemDoc `bson:"items"`
	TotalPrice float64        `bson:"total_price"`
	Status     string         `bson:"status"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

func userToDoc(u *models.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) model() (models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("user %q: %w", d.ID, err)
	}
	return models.User{
		ID:           id,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func productToDoc(p *models.Product) productDoc {
	return productDoc{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d productDoc) model() (models.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %q: %w", d.ID, err)
	}
	return models.Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Stock:       d.Stock,
		Price:       d.Price,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func itemsToDocs(items []models.OrderItem) []orderItemDoc {
	out := make([]orderItemDoc, len(items))
	for i, it := range items {
		out[i] = orderItemDoc{ProductID: it.ProductID.String(), Quantity: it.Quantity}
	}
	return out
}

func orderToDoc(o *models.Order) orderDoc {
	return orderDoc{
		ID:         o.ID.String(),
		UserID:     o.UserID.String(),
		Items:      itemsToDocs(o.Items),
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func (d orderDoc) model() (models.Order, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %q user: %w", d.ID, err)
	}

	items := make([]models.OrderItem, 0, len(d.Items))
	for i, it := range d.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return models.Order{}, fmt.Errorf("order %q item %d: %w", d.ID, i, err)
		}
		items = append(items, models.OrderItem{
			OrderID:   id,
			ProductID: productID,
			Quantity:  it.Quantity,
			Position:  i,
		})
	}

	return models.Order{
		ID:         id,
		UserID:     userID,
		Items:      items,
		TotalPrice: d.TotalPrice,
		Status:     models.OrderStatus(d.Status),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
