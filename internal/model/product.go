package model

import (
	"fmt"
	"time"
)

// Appliance categories carried by the catalog.
const (
	ApplianceRefrigerator = "REFRIGERATOR"
	ApplianceDishwasher   = "DISHWASHER"
)

// Product is a replacement part in the catalog. PartNumber is the
// canonical uppercase catalog code and never changes once assigned.
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PartNumber    string    `gorm:"size:50;not null;uniqueIndex" json:"part_number"`
	Name          string    `gorm:"size:200;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	ApplianceType string    `gorm:"size:20;not null;index" json:"appliance_type"`
	Price         float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DocumentText is the text projection fed to the embedding model.
// The PART_NUMBER prefix biases similarity toward exact catalog-code hits.
func (p *Product) DocumentText() string {
	return fmt.Sprintf("PART_NUMBER: %s\nNAME: %s\nTYPE: %s", p.PartNumber, p.Name, p.ApplianceType)
}

// ProductEmbedding holds the vector for one product, stored as a JSON
// array of float32. It lives and dies with its product.
type ProductEmbedding struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Embedding string    `gorm:"type:mediumtext;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmbeddingVector returns the parsed vector; nil on parse error.
func (e *ProductEmbedding) EmbeddingVector() []float32 {
	return decodeVector(e.Embedding)
}

// SetEmbedding stores the vector as JSON.
func (e *ProductEmbedding) SetEmbedding(vec []float32) {
	e.Embedding = encodeVector(vec)
}
