package repositories

import (
	"errors"
	"fmt"

	"digistore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMFileRepository is a GORM implementation of FileRepository.
type GORMFileRepository struct {
	db *gorm.DB
}

// NewGORMFileRepository creates a new instance of GORMFileRepository.
func NewGORMFileRepository(db *gorm.DB) *GORMFileRepository {
	return &GORMFileRepository{
		db: db,
	}
}

// GetByID retrieves a single file by its ID from the database.
func (r *GORMFileRepository) GetByID(id string) (*models.File, error) {
	var file models.File
	if err := r.db.First(&file, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get file by ID %s: %w", id, err)
	}
	return &file, nil
}

// GetByProduct retrieves all files belonging to a product.
func (r *GORMFileRepository) GetByProduct(productID string) ([]models.File, error) {
	var files []models.File
	if err := r.db.Where("product_id = ?", productID).Order("created_at").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to get files for product %s: %w", productID, err)
	}
	return files, nil
}

// Create creates a new file record in the database.
func (r *GORMFileRepository) Create(file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if err := r.db.Create(file).Error; err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

// Delete deletes a file record by its ID from the database.
func (r *GORMFileRepository) Delete(id string) error {
	res := r.db.Delete(&models.File{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete file %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("file with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}
