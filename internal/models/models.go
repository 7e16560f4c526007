package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	Username     string    `gorm:"not null"                   json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	Role         Role      `gorm:"type:varchar(16);not null"  json:"role"`
	CreatedAt    time.Time `                                  json:"created_at"`
	UpdatedAt    time.Time `                                  json:"updated_at"`
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"         json:"id"`
	Name        string    `gorm:"not null"                     json:"name"`
	Description string    `                                    json:"description"`
	Category    string    `gorm:"index"                        json:"category"`
	ImageURL    string    `                                    json:"image_url"`
	Stock       int       `gorm:"not null;default:0"           json:"stock"`
	Price       float64   `gorm:"not null;check:price >= 0"    json:"price"`
	CreatedAt   time.Time `                                    json:"created_at"`
	UpdatedAt   time.Time `                                    json:"updated_at"`
}

type Order struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"                        json:"id"`
	UserID     uuid.UUID   `gorm:"type:uuid;index;not null"                    json:"user_id"`
	Items      []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice float64     `gorm:"not null"                                    json:"total_price"`
	Status     OrderStatus `gorm:"type:varchar(16);not null;default:pending"   json:"status"`
	CreatedAt  time.Time   `                                                   json:"created_at"`
	UpdatedAt  time.Time   `                                                   json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"         json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"     json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"           json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"  json:"quantity"`
	Position  int       `gorm:"not null;default:0"           json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{&User{}, &Product{}, &Order{}, &OrderItem{}}
}
