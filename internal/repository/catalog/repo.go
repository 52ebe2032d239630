// Package catalog is the Postgres-backed catalog store: product rows,
// the alternatives query, and derived-score writeback.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/comparely/shopmatch/internal/domain"
)

// Repository provides product access over GORM.
type Repository struct {
	db *gorm.DB
}

// Open connects to Postgres and returns a ready repository.
func Open(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(db), nil
}

// New wraps an existing GORM handle.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the products table.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&productRow{}); err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

// GetProduct returns one product by id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var row productRow
	err := r.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("find product %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// GetProducts returns the products for a batch of ids. Missing ids are
// silently skipped; the caller reconciles against what it asked for.
func (r *Repository) GetProducts(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []productRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toDomain()
	}
	return products, nil
}

// ListByCategory returns a page of products in a category, best-first.
func (r *Repository) ListByCategory(
	ctx context.Context, category domain.Category, limit, offset int,
) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.WithContext(ctx).
		Where("category = ?", string(category)).
		Order("final_score DESC, price ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list category %s: %w", category, err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toDomain()
	}
	return products, nil
}

// ListDescribed returns every product eligible for embedding: non-empty
// description. Used by the full reindex job.
func (r *Repository) ListDescribed(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.WithContext(ctx).
		Where("description IS NOT NULL AND description <> ''").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list described products: %w", err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toDomain()
	}
	return products, nil
}

// FindAlternatives returns same-category products within the price ceiling
// whose final score is at or above minScore, ordered by final score
// descending then price ascending. No match yields an empty slice.
func (r *Repository) FindAlternatives(
	ctx context.Context, category domain.Category, maxPrice, minScore float64, limit int,
) ([]domain.Product, error) {
	var rows []productRow
	err := r.db.WithContext(ctx).
		Where("category = ? AND price <= ? AND final_score >= ?",
			string(category), maxPrice, minScore).
		Order("final_score DESC, price ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find alternatives in %s: %w", category, err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toDomain()
	}
	return products, nil
}

// UpdateDerivedScores writes the computed quality and final scores back to
// the catalog row.
func (r *Repository) UpdateDerivedScores(
	ctx context.Context, id int64, qualityScore, finalScore float64,
) error {
	result := r.db.WithContext(ctx).
		Model(&productRow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quality_score": qualityScore,
			"final_score":   finalScore,
		})
	if result.Error != nil {
		return fmt.Errorf("update derived scores for %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreateProduct inserts a new catalog row and returns its assigned id.
func (r *Repository) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	row := fromDomain(p)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return row.ID, nil
}
