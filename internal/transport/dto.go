package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ecoshop/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=5,max=72"`
}

type RegisterResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"userId"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UsersResponse struct {
	Message string        `json:"message"`
	Data    []models.User `json:"data"`
}

type CreateProductRequest struct {
	Name        string  `json:"name"        validate:"required,max=200"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"   validate:"omitempty,url"`
	Stock       int     `json:"stock"       validate:"gte=0"`
	Price       float64 `json:"price"       validate:"gte=0"`
}

// UpdateProductRequest carries only the fields being changed.
type UpdateProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"image_url"   validate:"omitempty,url"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"   validate:"required,gte=1"`
}

type CreateOrderRequest struct {
	Items      []OrderItemRequest `json:"items"       validate:"required,min=1,dive"`
	TotalPrice *float64           `json:"total_price" validate:"omitempty,gte=0"`
}

type UpdateOrderRequest struct {
	Items  []OrderItemRequest `json:"items"  validate:"omitempty,min=1,dive"`
	Status *string            `json:"status" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
}

type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type ProductSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

type OrderItemView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product"`
}

// OrderView is an order with its user and products resolved. A reference to
// a deleted entity is rendered as null.
type OrderView struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	User       *UserSummary       `json:"user"`
	Items      []OrderItemView    `json:"items"`
	TotalPrice float64            `json:"total_price"`
	Status     models.OrderStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
