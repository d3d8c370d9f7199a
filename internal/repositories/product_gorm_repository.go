package repositories

import (
	"errors"
	"fmt"

	"digistore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products, optionally only enabled ones.
func (r *GORMProductRepository) GetAll(onlyEnabled bool) ([]models.Product, error) {
	var products []models.Product
	q := r.db.Preload("Categories").Order("title")
	if onlyEnabled {
		q = q.Where("is_enable = ?", true)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product with its categories and files.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Categories").Preload("Files").First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Omit("Categories", "Files").Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product together with its file rows and category links,
// all in one transaction.
func (r *GORMProductRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get product %s for deletion: %w", id, err)
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.File{}).Error; err != nil {
			return fmt.Errorf("failed to delete files of product %s: %w", id, err)
		}
		if err := tx.Model(&product).Association("Categories").Clear(); err != nil {
			return fmt.Errorf("failed to clear categories of product %s: %w", id, err)
		}
		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product %s: %w", id, err)
		}
		return nil
	})
}

// ReplaceCategories rebinds the product's many-to-many category set.
func (r *GORMProductRepository) ReplaceCategories(product *models.Product, categories []models.Category) error {
	assoc := r.db.Model(product).Association("Categories")
	if len(categories) == 0 {
		if err := assoc.Clear(); err != nil {
			return fmt.Errorf("failed to clear categories of product %s: %w", product.ID, err)
		}
		product.Categories = nil
		return nil
	}
	refs := make([]*models.Category, len(categories))
	for i := range categories {
		refs[i] = &categories[i]
	}
	if err := assoc.Replace(refs); err != nil {
		return fmt.Errorf("failed to replace categories of product %s: %w", product.ID, err)
	}
	product.Categories = categories
	return nil
}
