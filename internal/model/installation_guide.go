package model

import (
	"fmt"
	"time"
)

// InstallationGuide is the install procedure for one product. The catalog
// keeps at most one guide per product in practice.
type InstallationGuide struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentText projects the guide for embedding. The repeated install and
// replace phrasings pull how-to queries toward the right guide.
func (g *InstallationGuide) DocumentText() string {
	partNumber, name, applianceType := "", "", ""
	if g.Product != nil {
		partNumber = g.Product.PartNumber
		name = g.Product.Name
		applianceType = g.Product.ApplianceType
	}
	excerpt := g.Content
	if runes := []rune(excerpt); len(runes) > 50 {
		excerpt = string(runes[:50])
	}
	return fmt.Sprintf(
		"INSTALLATION GUIDE FOR PART %s\nPRODUCT: %s\nTYPE: %s\nINSTALLATION INSTRUCTIONS\nHOW TO INSTALL %s\nHOW TO REPLACE %s\nSTEPS TO INSTALL %s\n%s",
		partNumber, name, applianceType, partNumber, partNumber, name, excerpt,
	)
}

// GuideEmbedding holds the vector for one installation guide so guides can
// be searched independently of products.
type GuideEmbedding struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	GuideID   uint               `gorm:"not null;uniqueIndex" json:"guide_id"`
	Guide     *InstallationGuide `gorm:"foreignKey:GuideID;constraint:OnDelete:CASCADE" json:"-"`
	Embedding string             `gorm:"type:mediumtext;not null" json:"-"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (e *GuideEmbedding) EmbeddingVector() []float32 {
	return decodeVector(e.Embedding)
}

func (e *GuideEmbedding) SetEmbedding(vec []float32) {
	e.Embedding = encodeVector(vec)
}
