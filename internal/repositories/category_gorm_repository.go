package repositories

import (
	"errors"
	"fmt"

	"digistore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{
		db: db,
	}
}

// GetAll retrieves all categories, optionally only enabled ones.
func (r *GORMCategoryRepository) GetAll(onlyEnabled bool) ([]models.Category, error) {
	var categories []models.Category
	q := r.db.Order("title")
	if onlyEnabled {
		q = q.Where("is_enable = ?", true)
	}
	if err := q.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get all categories: %w", err)
	}
	return categories, nil
}

// GetRoots retrieves the categories with no parent.
func (r *GORMCategoryRepository) GetRoots(onlyEnabled bool) ([]models.Category, error) {
	var categories []models.Category
	q := r.db.Where("parent_id IS NULL").Order("title")
	if onlyEnabled {
		q = q.Where("is_enable = ?", true)
	}
	if err := q.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get root categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a single category with its direct children.
func (r *GORMCategoryRepository) GetByID(id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Preload("Children").First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by ID %s: %w", id, err)
	}
	return &category, nil
}

// Create creates a new category in the database.
func (r *GORMCategoryRepository) Create(category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update updates an existing category in the database.
func (r *GORMCategoryRepository) Update(category *models.Category) error {
	res := r.db.Omit("Children", "Parent").Save(category)
	if res.Error != nil {
		return fmt.Errorf("failed to update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category with ID %s not found for update: %w", category.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a category by its ID. Children of a deleted category are
// removed with it, matching the cascade declared on the parent key.
func (r *GORMCategoryRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("category with ID %s not found for deletion: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get category %s for deletion: %w", id, err)
		}
		return r.deleteInTx(tx, id)
	})
}

func (r *GORMCategoryRepository) deleteInTx(tx *gorm.DB, id string) error {
	var children []models.Category
	if err := tx.Where("parent_id = ?", id).Find(&children).Error; err != nil {
		return fmt.Errorf("failed to list children of category %s: %w", id, err)
	}
	for _, child := range children {
		if err := r.deleteInTx(tx, child.ID); err != nil {
			return err
		}
	}
	if err := tx.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return nil
}
