package domain

import "time"

// Product categories form a closed set; the API rejects anything else.
const (
	CategoryPizza    = "pizza"
	CategoryBurger   = "burger"
	CategoryDrink    = "drink"
	CategoryDessert  = "dessert"
	CategoryCombo    = "combo"
	CategorySnack    = "snack"
	CategoryAcai     = "acai"
	CategoryIceCream = "ice_cream"
)

// ProductCategories lists every valid product category.
var ProductCategories = []string{
	CategoryPizza, CategoryBurger, CategoryDrink, CategoryDessert,
	CategoryCombo, CategorySnack, CategoryAcai, CategoryIceCream,
}

// ValidProductCategory reports whether category belongs to the closed set.
func ValidProductCategory(category string) bool {
	for _, c := range ProductCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ComplementItem is a single selectable complement (e.g. extra cheese).
type ComplementItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ComplementGroup groups complements with selection bounds.
type ComplementGroup struct {
	Title     string           `json:"title"`
	Required  bool             `json:"required"`
	MinSelect int              `json:"min_select"`
	MaxSelect int              `json:"max_select"`
	Items     []ComplementItem `json:"items"`
}

// ProductSize is a size variant with its own price.
type ProductSize struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Availability restricts when a product can be ordered.
// Days uses time.Weekday values; empty means every day.
type Availability struct {
	Days      []int  `json:"days"`
	StartTime string `json:"start_time"` // "HH:MM", empty = from open
	EndTime   string `json:"end_time"`   // "HH:MM", empty = until close
}

// Product catalog item managed by the admin panel
type Product struct {
	ID            int64             `gorm:"primaryKey" json:"id,string" form:"id"`
	Name          string            `gorm:"index;size:200" json:"name" form:"name"`
	Category      string            `gorm:"index;size:32" json:"category" form:"category"`
	Price         float64           `json:"price" form:"price"`
	OriginalPrice *float64          `json:"original_price,omitempty" form:"original_price"` // pre-discount price
	Description   string            `gorm:"size:2000" json:"description" form:"description"`
	Image         string            `gorm:"size:1024" json:"image" form:"image"` // URL to product image (optional)
	Active        bool              `gorm:"index;default:true" json:"active" form:"active"`
	Weighable     bool              `json:"weighable" form:"weighable"`
	PricePerKg    *float64          `json:"price_per_kg,omitempty" form:"price_per_kg"` // only for weighable items
	Complements   []ComplementGroup `gorm:"serializer:json;type:text" json:"complements,omitempty"`
	Sizes         []ProductSize     `gorm:"serializer:json;type:text" json:"sizes,omitempty"`
	Availability  *Availability     `gorm:"serializer:json;type:text" json:"availability,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "catalog_product"
}
