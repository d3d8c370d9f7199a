package repositories

import (
	"errors"
	"fmt"

	"digistore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProvinceRepository is a GORM implementation of ProvinceRepository.
type GORMProvinceRepository struct {
	db *gorm.DB
}

// NewGORMProvinceRepository creates a new instance of GORMProvinceRepository.
func NewGORMProvinceRepository(db *gorm.DB) *GORMProvinceRepository {
	return &GORMProvinceRepository{
		db: db,
	}
}

// GetAll retrieves all provinces, optionally only valid ones.
func (r *GORMProvinceRepository) GetAll(onlyValid bool) ([]models.Province, error) {
	var provinces []models.Province
	q := r.db.Order("name")
	if onlyValid {
		q = q.Where("is_valid = ?", true)
	}
	if err := q.Find(&provinces).Error; err != nil {
		return nil, fmt.Errorf("failed to get all provinces: %w", err)
	}
	return provinces, nil
}

// GetByID retrieves a single province by its ID from the database.
func (r *GORMProvinceRepository) GetByID(id string) (*models.Province, error) {
	var province models.Province
	if err := r.db.First(&province, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("province with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get province by ID %s: %w", id, err)
	}
	return &province, nil
}

// Create creates a new province in the database.
func (r *GORMProvinceRepository) Create(province *models.Province) error {
	if province.ID == "" {
		province.ID = uuid.New().String()
	}
	if err := r.db.Create(province).Error; err != nil {
		return fmt.Errorf("failed to create province: %w", err)
	}
	return nil
}

// Delete removes a province. Profiles referencing it keep existing with a
// nulled province_id, the set-null the schema declares.
func (r *GORMProvinceRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.UserProfile{}).
			Where("province_id = ?", id).
			Update("province_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to detach profiles from province %s: %w", id, err)
		}

		res := tx.Delete(&models.Province{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete province %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("province with ID %s not found for deletion: %w", id, ErrNotFound)
		}
		return nil
	})
}
