package domain

import "time"

// Order status values form a closed set.
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusOnRoute   = "out_for_delivery"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{
	OrderStatusPending, OrderStatusPreparing, OrderStatusOnRoute,
	OrderStatusDelivered, OrderStatusCanceled,
}

// ValidOrderStatus reports whether status belongs to the closed set.
func ValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order, optionally carrying the chosen
// size and complements copied from the product at order time.
type OrderItem struct {
	ProductID   int64            `json:"product_id,string"`
	Name        string           `json:"name"`
	Quantity    int              `json:"quantity"`
	UnitPrice   float64          `json:"unit_price"`
	WeightKg    *float64         `json:"weight_kg,omitempty"` // set for weighable products
	Size        *ProductSize     `json:"size,omitempty"`
	Complements []ComplementItem `json:"complements,omitempty"`
	Note        string           `json:"note,omitempty"`
}

// Address delivery destination
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Complement   string `json:"complement,omitempty"`
	City         string `json:"city"`
	Reference    string `json:"reference,omitempty"`
}

// DeliveryOrder order placed by a customer and handled by a courier
type DeliveryOrder struct {
	ID            int64       `gorm:"primaryKey" json:"id,string" form:"id"`
	Code          string      `gorm:"uniqueIndex;size:16" json:"code" form:"code"` // short human code printed on the bag
	CustomerName  string      `gorm:"size:200" json:"customer_name" form:"customer_name"`
	CustomerPhone string      `gorm:"size:32" json:"customer_phone" form:"customer_phone"`
	Address       Address     `gorm:"serializer:json;type:text" json:"address"`
	Items         []OrderItem `gorm:"serializer:json;type:text" json:"items"`
	Subtotal      float64     `json:"subtotal" form:"subtotal"`
	DeliveryFee   float64     `json:"delivery_fee" form:"delivery_fee"`
	Total         float64     `json:"total" form:"total"`
	PaymentMethod string      `gorm:"size:32" json:"payment_method" form:"payment_method"` // cash, card, pix
	Status        string      `gorm:"index;size:32;default:'pending'" json:"status" form:"status"`
	CourierID     int64       `gorm:"index" json:"courier_id,string" form:"courier_id"`
	Note          string      `gorm:"size:500" json:"note" form:"note"`
	DeliveredAt   *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName Specify table name
func (DeliveryOrder) TableName() string {
	return "delivery_order"
}
