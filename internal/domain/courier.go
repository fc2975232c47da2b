package domain

import "time"

// DeliveryCourier represents a delivery driver account
type DeliveryCourier struct {
	ID        int64     `gorm:"primaryKey" json:"id,string" form:"id"`
	Name      string    `gorm:"index;size:200" json:"name" form:"name"`
	Phone     string    `gorm:"size:32" json:"phone" form:"phone"`
	Vehicle   string    `gorm:"size:64" json:"vehicle" form:"vehicle"` // motorcycle, bicycle, car
	Status    string    `gorm:"index;size:16;default:'enabled'" json:"status" form:"status"`
	Remark    string    `gorm:"size:500" json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (DeliveryCourier) TableName() string {
	return "delivery_courier"
}
