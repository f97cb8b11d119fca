package model

import "time"

// ModelCompatibility records that a product fits an appliance model.
// A product cannot declare the same model number twice.
type ModelCompatibility struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   uint      `gorm:"not null;uniqueIndex:idx_product_model" json:"product_id"`
	ModelNumber string    `gorm:"size:100;not null;uniqueIndex:idx_product_model" json:"model_number"`
	Brand       string    `gorm:"size:100;not null" json:"brand"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
