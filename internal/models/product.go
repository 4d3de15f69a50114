package models

import "time"

// Product is a catalogue item used by the analytics endpoints.
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Category  string    `json:"category" gorm:"type:varchar(100);index;not null"`
	Price     float64   `json:"price" gorm:"not null"`
	InStock   bool      `json:"inStock" gorm:"not null"`
	Tags      []string  `json:"tags" gorm:"serializer:json"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryStat aggregates in-stock products of one category.
type CategoryStat struct {
	Category string  `json:"category"`
	AvgPrice float64 `json:"avgPrice"`
	Count    int64   `json:"count"`
}

// PriceAnalysis summarises the prices of one category.
type PriceAnalysis struct {
	TotalRevenue    float64 `json:"totalRevenue"`
	AvgPrice        float64 `json:"avgPrice"`
	MaxProductPrice float64 `json:"maxProductPrice"`
	MinProductPrice float64 `json:"minProductPrice"`
	PriceRange      float64 `json:"priceRange"`
}
