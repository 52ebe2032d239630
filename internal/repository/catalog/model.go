package catalog

import (
	"time"

	"github.com/comparely/shopmatch/internal/domain"
)

// productRow is the GORM mapping for the products table. Specs are stored
// as a JSON column; quality_score and final_score are derived fields
// written back by the scoring usecase.
type productRow struct {
	ID           int64             `gorm:"primaryKey;autoIncrement"`
	Name         string            `gorm:"column:name;type:text"`
	Category     string            `gorm:"column:category;type:text;index"`
	Price        float64           `gorm:"column:price;type:numeric"`
	Rating       float64           `gorm:"column:rating;type:numeric"`
	Platform     string            `gorm:"column:platform;type:text"`
	URL          string            `gorm:"column:url;type:text"`
	ImageURL     string            `gorm:"column:image_url;type:text"`
	Description  string            `gorm:"column:description;type:text"`
	Specs        map[string]string `gorm:"column:specs;type:jsonb;serializer:json"`
	QualityScore float64           `gorm:"column:quality_score;type:numeric"`
	FinalScore   float64           `gorm:"column:final_score;type:numeric"`
	CreatedAt    time.Time         `gorm:"column:created_at"`
	UpdatedAt    time.Time         `gorm:"column:updated_at"`
}

func (productRow) TableName() string {
	return "products"
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:           r.ID,
		Name:         r.Name,
		Category:     domain.ParseCategory(r.Category),
		Price:        r.Price,
		Rating:       r.Rating,
		Platform:     r.Platform,
		URL:          r.URL,
		ImageURL:     r.ImageURL,
		Description:  r.Description,
		Specs:        r.Specs,
		QualityScore: r.QualityScore,
		FinalScore:   r.FinalScore,
	}
}

func fromDomain(p domain.Product) productRow {
	return productRow{
		ID:           p.ID,
		Name:         p.Name,
		Category:     string(p.Category),
		Price:        p.Price,
		Rating:       p.Rating,
		Platform:     p.Platform,
		URL:          p.URL,
		ImageURL:     p.ImageURL,
		Description:  p.Description,
		Specs:        p.Specs,
		QualityScore: p.QualityScore,
		FinalScore:   p.FinalScore,
	}
}
