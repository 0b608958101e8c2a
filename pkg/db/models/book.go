package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Book represents a catalog listing. Prices are minor currency units.
type Book struct {
	ID                 uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID         uuid.UUID      `gorm:"column:category_id;type:uuid;not null"`
	Title              string         `gorm:"column:title;not null"`
	Author             string         `gorm:"column:author;not null"`
	ISBN               *string        `gorm:"column:isbn"`
	Description        *string        `gorm:"column:description"`
	PriceCents         int64          `gorm:"column:price_cents;not null"`
	DiscountPriceCents *int64         `gorm:"column:discount_price_cents"`
	StockQuantity      int            `gorm:"column:stock_quantity;not null;default:0"`
	IsActive           bool           `gorm:"column:is_active;not null;default:true"`
	IsFeatured         bool           `gorm:"column:is_featured;not null;default:false"`
	ImageURL           *string        `gorm:"column:image_url"`
	GalleryImageURLs   pq.StringArray `gorm:"column:gallery_image_urls;type:text[]"`
	Category           *Category      `gorm:"foreignKey:CategoryID"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// DisplayPriceCents returns the discount price when one is set.
func (b *Book) DisplayPriceCents() int64 {
	if b.DiscountPriceCents != nil && *b.DiscountPriceCents > 0 && *b.DiscountPriceCents < b.PriceCents {
		return *b.DiscountPriceCents
	}
	return b.PriceCents
}

// InStock reports whether at least one unit is available.
func (b *Book) InStock() bool {
	return b.StockQuantity > 0
}
